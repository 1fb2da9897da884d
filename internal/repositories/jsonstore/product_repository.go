package jsonstore

import (
	"context"
	"fmt"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/collections"
)

type productRepository struct {
	store collections.Store
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	products, err := collections.ReadAll[domain.Product](ctx, r.store, collections.Products)
	if err != nil {
		return nil, wrapError("products.list", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, productID int) (domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, product := range products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, notFoundError("products.find", fmt.Errorf("product %d not found", productID))
}

func (r *productRepository) Insert(ctx context.Context, product domain.Product) error {
	products, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range products {
		if existing.ID == product.ID {
			return conflictError("products.insert", fmt.Errorf("product %d already exists", product.ID))
		}
	}
	products = append(products, product)
	return r.ReplaceAll(ctx, products)
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	products, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i, existing := range products {
		if existing.ID == product.ID {
			products[i] = product
			return r.ReplaceAll(ctx, products)
		}
	}
	return notFoundError("products.update", fmt.Errorf("product %d not found", product.ID))
}

func (r *productRepository) Delete(ctx context.Context, productID int) (domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for i, existing := range products {
		if existing.ID == productID {
			deleted := existing
			products = append(products[:i], products[i+1:]...)
			if err := r.ReplaceAll(ctx, products); err != nil {
				return domain.Product{}, err
			}
			return deleted, nil
		}
	}
	return domain.Product{}, notFoundError("products.delete", fmt.Errorf("product %d not found", productID))
}

func (r *productRepository) ReplaceAll(ctx context.Context, products []domain.Product) error {
	if err := collections.WriteAll(ctx, r.store, collections.Products, products); err != nil {
		return wrapError("products.replace", err)
	}
	return nil
}
