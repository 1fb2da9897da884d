package repositories

import (
	"context"

	domain "github.com/simple-store/api/internal/domain"
)

// Registry exposes typed repository accessors for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Cart() CartRepository
	BuyNowIntents() BuyNowIntentRepository
	Orders() OrderRepository
	Addresses() AddressRepository
	Users() UserRepository
	Reviews() ReviewRepository
	PasswordResets() PasswordResetRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository persists the catalog. List returns one consistent
// snapshot of the whole collection; ReplaceAll swaps it wholesale, which is
// how checkout commits stock decrements and rollbacks.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, productID int) (domain.Product, error)
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID int) (domain.Product, error)
	ReplaceAll(ctx context.Context, products []domain.Product) error
}

// CartRepository owns the shopper's cart lines.
type CartRepository interface {
	List(ctx context.Context) ([]domain.CartLine, error)
	ReplaceAll(ctx context.Context, lines []domain.CartLine) error
	Clear(ctx context.Context) error
}

// BuyNowIntentRepository keeps at most one express-checkout intent per user.
type BuyNowIntentRepository interface {
	Get(ctx context.Context, userID string) (domain.BuyNowIntent, error)
	Put(ctx context.Context, intent domain.BuyNowIntent) error
	Delete(ctx context.Context, userID string) error
}

// OrderRepository persists orders. Append adds a new order to the collection;
// Update rewrites an existing one in place.
type OrderRepository interface {
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindByID(ctx context.Context, orderID int) (domain.Order, error)
	Append(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Reset(ctx context.Context) error
}

// AddressRepository persists address books. ReplaceAll exists so the
// single-default invariant can be applied across a user's addresses in one
// write.
type AddressRepository interface {
	List(ctx context.Context) ([]domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	FindByID(ctx context.Context, addressID int) (domain.Address, error)
	ReplaceAll(ctx context.Context, addresses []domain.Address) error
}

// UserRepository persists accounts.
type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, userID string) error
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	List(ctx context.Context) ([]domain.Review, error)
	ListByProduct(ctx context.Context, productID int) ([]domain.Review, error)
	FindByID(ctx context.Context, reviewID int) (domain.Review, error)
	Insert(ctx context.Context, review domain.Review) error
	Update(ctx context.Context, review domain.Review) error
	Delete(ctx context.Context, reviewID int) error
}

// PasswordResetRepository stores reset tokens as keyed entries carrying an
// explicit expiry; expiry is enforced by the caller on every lookup.
type PasswordResetRepository interface {
	Find(ctx context.Context, token string) (domain.PasswordResetToken, error)
	Put(ctx context.Context, token domain.PasswordResetToken) error
	Delete(ctx context.Context, token string) error
}
