package jsonstore

import (
	"context"
	"fmt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type reviewRepository struct {
	store collections.Store
}

func (r *reviewRepository) List(ctx context.Context) ([]domain.Review, error) {
	reviews, err := collections.ReadAll[domain.Review](ctx, r.store, collections.Reviews)
	if err != nil {
		return nil, wrapError("reviews.list", err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID int) ([]domain.Review, error) {
	reviews, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.Review
	for _, review := range reviews {
		if review.ProductID == productID {
			matched = append(matched, review)
		}
	}
	return matched, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, reviewID int) (domain.Review, error) {
	reviews, err := r.List(ctx)
	if err != nil {
		return domain.Review{}, err
	}
	for _, review := range reviews {
		if review.ID == reviewID {
			return review, nil
		}
	}
	return domain.Review{}, notFoundError("reviews.find", fmt.Errorf("review %d not found", reviewID))
}

func (r *reviewRepository) Insert(ctx context.Context, review domain.Review) error {
	reviews, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range reviews {
		if existing.ID == review.ID {
			return conflictError("reviews.insert", fmt.Errorf("review %d already exists", review.ID))
		}
	}
	reviews = append(reviews, review)
	if err := collections.WriteAll(ctx, r.store, collections.Reviews, reviews); err != nil {
		return wrapError("reviews.insert", err)
	}
	return nil
}

func (r *reviewRepository) Update(ctx context.Context, review domain.Review) error {
	reviews, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range reviews {
		if existing.ID == review.ID {
			reviews[i] = review
			if err := collections.WriteAll(ctx, r.store, collections.Reviews, reviews); err != nil {
				return wrapError("reviews.update", err)
			}
			return nil
		}
	}
	return notFoundError("reviews.update", fmt.Errorf("review %d not found", review.ID))
}

func (r *reviewRepository) Delete(ctx context.Context, reviewID int) error {
	reviews, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range reviews {
		if existing.ID == reviewID {
			reviews = append(reviews[:i], reviews[i+1:]...)
			if err := collections.WriteAll(ctx, r.store, collections.Reviews, reviews); err != nil {
				return wrapError("reviews.delete", err)
			}
			return nil
		}
	}
	return notFoundError("reviews.delete", fmt.Errorf("review %d not found", reviewID))
}

type passwordResetRepository struct {
	store collections.Store
}

func (r *passwordResetRepository) Find(ctx context.Context, token string) (domain.PasswordResetToken, error) {
	tokens, err := collections.ReadAll[domain.PasswordResetToken](ctx, r.store, collections.PasswordResets)
	if err != nil {
		return domain.PasswordResetToken{}, wrapError("resets.find", err)
	}
	for _, entry := range tokens {
		if entry.Token == token {
			return entry, nil
		}
	}
	return domain.PasswordResetToken{}, notFoundError("resets.find", fmt.Errorf("reset token not found"))
}

func (r *passwordResetRepository) Put(ctx context.Context, token domain.PasswordResetToken) error {
	tokens, err := collections.ReadAll[domain.PasswordResetToken](ctx, r.store, collections.PasswordResets)
	if err != nil {
		return wrapError("resets.put", err)
	}
	replaced := false
	for i, entry := range tokens {
		if entry.Token == token.Token {
			tokens[i] = token
			replaced = true
			break
		}
	}
	if !replaced {
		tokens = append(tokens, token)
	}
	if err := collections.WriteAll(ctx, r.store, collections.PasswordResets, tokens); err != nil {
		return wrapError("resets.put", err)
	}
	return nil
}

func (r *passwordResetRepository) Delete(ctx context.Context, token string) error {
	tokens, err := collections.ReadAll[domain.PasswordResetToken](ctx, r.store, collections.PasswordResets)
	if err != nil {
		return wrapError("resets.delete", err)
	}
	kept := tokens[:0]
	for _, entry := range tokens {
		if entry.Token != token {
			kept = append(kept, entry)
		}
	}
	if err := collections.WriteAll(ctx, r.store, collections.PasswordResets, kept); err != nil {
		return wrapError("resets.delete", err)
	}
	return nil
}
