package jsonstore

import (
	"context"
	"fmt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type cartRepository struct {
	store collections.Store
}

func (r *cartRepository) List(ctx context.Context) ([]domain.CartLine, error) {
	lines, err := collections.ReadAll[domain.CartLine](ctx, r.store, collections.Cart)
	if err != nil {
		return nil, wrapError("cart.list", err)
	}
	return lines, nil
}

func (r *cartRepository) ReplaceAll(ctx context.Context, lines []domain.CartLine) error {
	if err := collections.WriteAll(ctx, r.store, collections.Cart, lines); err != nil {
		return wrapError("cart.replace", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context) error {
	return r.ReplaceAll(ctx, nil)
}

type buyNowIntentRepository struct {
	store collections.Store
}

func (r *buyNowIntentRepository) Get(ctx context.Context, userID string) (domain.BuyNowIntent, error) {
	intents, err := collections.ReadAll[domain.BuyNowIntent](ctx, r.store, collections.BuyNowIntents)
	if err != nil {
		return domain.BuyNowIntent{}, wrapError("buynow.get", err)
	}
	for _, intent := range intents {
		if intent.UserID == userID {
			return intent, nil
		}
	}
	return domain.BuyNowIntent{}, notFoundError("buynow.get", fmt.Errorf("no buy-now intent for user %s", userID))
}

func (r *buyNowIntentRepository) Put(ctx context.Context, intent domain.BuyNowIntent) error {
	intents, err := collections.ReadAll[domain.BuyNowIntent](ctx, r.store, collections.BuyNowIntents)
	if err != nil {
		return wrapError("buynow.put", err)
	}
	replaced := false
	for i, existing := range intents {
		if existing.UserID == intent.UserID {
			intents[i] = intent
			replaced = true
			break
		}
	}
	if !replaced {
		intents = append(intents, intent)
	}
	if err := collections.WriteAll(ctx, r.store, collections.BuyNowIntents, intents); err != nil {
		return wrapError("buynow.put", err)
	}
	return nil
}

func (r *buyNowIntentRepository) Delete(ctx context.Context, userID string) error {
	intents, err := collections.ReadAll[domain.BuyNowIntent](ctx, r.store, collections.BuyNowIntents)
	if err != nil {
		return wrapError("buynow.delete", err)
	}
	kept := intents[:0]
	for _, intent := range intents {
		if intent.UserID != userID {
			kept = append(kept, intent)
		}
	}
	if err := collections.WriteAll(ctx, r.store, collections.BuyNowIntents, kept); err != nil {
		return wrapError("buynow.delete", err)
	}
	return nil
}
