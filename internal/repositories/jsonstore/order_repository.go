package jsonstore

import (
	"context"
	"fmt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type orderRepository struct {
	store collections.Store
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := collections.ReadAll[domain.Order](ctx, r.store, collections.Orders)
	if err != nil {
		return nil, wrapError("orders.list", err)
	}
	return orders, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var owned []domain.Order
	for _, order := range orders {
		if order.UserID == userID {
			owned = append(owned, order)
		}
	}
	return owned, nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID int) (domain.Order, error) {
	orders, err := r.List(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	for _, order := range orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return domain.Order{}, notFoundError("orders.find", fmt.Errorf("order %d not found", orderID))
}

func (r *orderRepository) Append(ctx context.Context, order domain.Order) error {
	orders, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range orders {
		if existing.ID == order.ID {
			return conflictError("orders.append", fmt.Errorf("order %d already exists", order.ID))
		}
	}
	orders = append(orders, order)
	if err := collections.WriteAll(ctx, r.store, collections.Orders, orders); err != nil {
		return wrapError("orders.append", err)
	}
	return nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) error {
	orders, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range orders {
		if existing.ID == order.ID {
			orders[i] = order
			if err := collections.WriteAll(ctx, r.store, collections.Orders, orders); err != nil {
				return wrapError("orders.update", err)
			}
			return nil
		}
	}
	return notFoundError("orders.update", fmt.Errorf("order %d not found", order.ID))
}

func (r *orderRepository) Reset(ctx context.Context) error {
	if err := collections.WriteAll[domain.Order](ctx, r.store, collections.Orders, nil); err != nil {
		return wrapError("orders.reset", err)
	}
	return nil
}
