package jsonstore

import (
	"context"
	"errors"
	"io"

	"github.com/simple-store/api/internal/platform/collections"
	"github.com/simple-store/api/internal/repositories"
)

// Registry wires every repository onto one collections store.
type Registry struct {
	store collections.Store

	products *productRepository
	cart     *cartRepository
	buyNow   *buyNowIntentRepository
	orders   *orderRepository
	addrs    *addressRepository
	users    *userRepository
	reviews  *reviewRepository
	resets   *passwordResetRepository
}

// NewRegistry builds a registry backed by the provided store.
func NewRegistry(store collections.Store) (*Registry, error) {
	if store == nil {
		return nil, errors.New("jsonstore: collections store is required")
	}
	return &Registry{
		store:    store,
		products: &productRepository{store: store},
		cart:     &cartRepository{store: store},
		buyNow:   &buyNowIntentRepository{store: store},
		orders:   &orderRepository{store: store},
		addrs:    &addressRepository{store: store},
		users:    &userRepository{store: store},
		reviews:  &reviewRepository{store: store},
		resets:   &passwordResetRepository{store: store},
	}, nil
}

// Close releases the underlying store when it owns closeable resources.
func (r *Registry) Close(context.Context) error {
	if closer, ok := r.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Products returns the catalog repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Cart returns the cart repository.
func (r *Registry) Cart() repositories.CartRepository { return r.cart }

// BuyNowIntents returns the buy-now intent repository.
func (r *Registry) BuyNowIntents() repositories.BuyNowIntentRepository { return r.buyNow }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Addresses returns the address repository.
func (r *Registry) Addresses() repositories.AddressRepository { return r.addrs }

// Users returns the account repository.
func (r *Registry) Users() repositories.UserRepository { return r.users }

// Reviews returns the review repository.
func (r *Registry) Reviews() repositories.ReviewRepository { return r.reviews }

// PasswordResets returns the reset token repository.
func (r *Registry) PasswordResets() repositories.PasswordResetRepository { return r.resets }
