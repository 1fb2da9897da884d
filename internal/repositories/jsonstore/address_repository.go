package jsonstore

import (
	"context"
	"fmt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type addressRepository struct {
	store collections.Store
}

func (r *addressRepository) List(ctx context.Context) ([]domain.Address, error) {
	addresses, err := collections.ReadAll[domain.Address](ctx, r.store, collections.Addresses)
	if err != nil {
		return nil, wrapError("addresses.list", err)
	}
	return addresses, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	addresses, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var owned []domain.Address
	for _, address := range addresses {
		if address.UserID == userID {
			owned = append(owned, address)
		}
	}
	return owned, nil
}

func (r *addressRepository) FindByID(ctx context.Context, addressID int) (domain.Address, error) {
	addresses, err := r.List(ctx)
	if err != nil {
		return domain.Address{}, err
	}
	for _, address := range addresses {
		if address.ID == addressID {
			return address, nil
		}
	}
	return domain.Address{}, notFoundError("addresses.find", fmt.Errorf("address %d not found", addressID))
}

func (r *addressRepository) ReplaceAll(ctx context.Context, addresses []domain.Address) error {
	if err := collections.WriteAll(ctx, r.store, collections.Addresses, addresses); err != nil {
		return wrapError("addresses.replace", err)
	}
	return nil
}
