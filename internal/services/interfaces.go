package services

import (
	"context"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product            = domain.Product
	CartLine           = domain.CartLine
	BuyNowIntent       = domain.BuyNowIntent
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	TrackingEvent      = domain.TrackingEvent
	Address            = domain.Address
	User               = domain.User
	Review             = domain.Review
	Role               = domain.Role
	Actor              = domain.Actor
	PasswordResetToken = domain.PasswordResetToken
)

// LineRequest is one product/quantity pair submitted for validation.
type LineRequest struct {
	ProductID int
	Quantity  int
}

// InventoryGuard validates requested quantities against a product snapshot and
// freezes per-line pricing. It is pure: the caller supplies one consistent
// snapshot for the whole pass and the guard never touches the store.
type InventoryGuard interface {
	ValidateItems(lines []LineRequest, products []Product) ([]OrderItem, error)
}

// BuildOrderCommand carries everything the builder needs to mint an order.
type BuildOrderCommand struct {
	UserID          string
	Items           []OrderItem
	ShippingAddress string
	PaymentMethod   string
	Existing        []Order
}

// OrderBuilder assembles an order record and allocates its identifier.
type OrderBuilder interface {
	Build(cmd BuildOrderCommand) (Order, error)
}

// CheckoutSourceKind distinguishes the two item sources for a checkout call.
type CheckoutSourceKind string

const (
	// CheckoutSourceCart processes the shopper's cart lines.
	CheckoutSourceCart CheckoutSourceKind = "cart"
	// CheckoutSourceBuyNow processes a single-item express intent.
	CheckoutSourceBuyNow CheckoutSourceKind = "buy_now"
)

// CheckoutCommand is one checkout invocation. AddressID and ShippingAddress
// are alternatives; when AddressID is set it must reference an address owned
// by the calling user.
type CheckoutCommand struct {
	UserID          string
	AddressID       *int
	ShippingAddress string
	PaymentMethod   string
}

// CheckoutResult reports the outcome of a committed checkout.
type CheckoutResult struct {
	OrderID     int
	TotalAmount decimal.Decimal
	Source      CheckoutSourceKind
}

// CheckoutService runs the two-phase checkout transaction.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

// TransitionCommand requests an order status change on behalf of an actor.
type TransitionCommand struct {
	OrderID   int
	Target    OrderStatus
	ActorRole Role
	ActorID   string
	Note      string
}

// AnnotateCommand appends an admin tracking note, optionally moving status.
type AnnotateCommand struct {
	OrderID   int
	Status    *OrderStatus
	Note      string
	ActorRole Role
	ActorID   string
}

// OrderService governs every post-creation mutation of an order.
type OrderService interface {
	ListOrders(ctx context.Context, userID string, role Role) ([]Order, error)
	GetOrder(ctx context.Context, orderID int, userID string, role Role) (Order, error)
	Transition(ctx context.Context, cmd TransitionCommand) (Order, []TrackingEvent, error)
	AppendTrackingNote(ctx context.Context, cmd AnnotateCommand) ([]TrackingEvent, error)
	ResetOrders(ctx context.Context, role Role) error
}

// EnrichedCartLine joins a cart line with its product for display.
type EnrichedCartLine struct {
	Line    CartLine
	Product Product
	Missing bool
}

// CartView is the enriched cart with its running total.
type CartView struct {
	Lines []EnrichedCartLine
	Total decimal.Decimal
}

// AddCartItemCommand adds or merges a product into the cart.
type AddCartItemCommand struct {
	ProductID int
	Quantity  int
}

// CaptureBuyNowCommand snapshots a single-item express checkout intent.
type CaptureBuyNowCommand struct {
	UserID    string
	ProductID int
	Quantity  int
}

// CartService manages mutable cart state and buy-now intents.
type CartService interface {
	Count(ctx context.Context) (int, error)
	View(ctx context.Context) (CartView, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (int, error)
	UpdateQuantity(ctx context.Context, lineID int, quantity int) (int, error)
	RemoveLine(ctx context.Context, lineID int) (int, error)
	Clear(ctx context.Context) error
	CaptureBuyNow(ctx context.Context, cmd CaptureBuyNowCommand) (BuyNowIntent, error)
	DiscardBuyNow(ctx context.Context, userID string) error
}

// ProductFilter narrows public catalog listings.
type ProductFilter struct {
	Category string
	Search   string
}

// UpsertProductCommand carries admin product create/update fields.
type UpsertProductCommand struct {
	ID          int
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Image       string
}

// DashboardStats summarises the back-office landing page counters.
type DashboardStats struct {
	TotalProducts    int
	TotalUsers       int
	TotalOrders      int
	TotalRevenue     decimal.Decimal
	LowStockProducts int
}

// CatalogService manages the product catalog and admin dashboard reads.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID int) (Product, error)
	CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	DeleteProduct(ctx context.Context, productID int) (Product, error)
	Stats(ctx context.Context) (DashboardStats, error)
}

// RegisterCommand creates a new customer account.
type RegisterCommand struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// UpdateProfileCommand mutates account fields; empty Password keeps the hash.
type UpdateProfileCommand struct {
	UserID   string
	Username string
	Email    string
	Password string
}

// UpsertAddressCommand carries address book create/update fields.
type UpsertAddressCommand struct {
	ID         int
	UserID     string
	Label      string
	FullName   string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// UserService manages accounts, the address book, and password resets.
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error)
	DeleteUser(ctx context.Context, userID string) error

	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	CreateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error)
	UpdateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error)
	DeleteAddress(ctx context.Context, userID string, addressID int) (Address, error)
	SetDefaultAddress(ctx context.Context, userID string, addressID int) error

	RequestPasswordReset(ctx context.Context, email string) (PasswordResetToken, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ReviewSummary aggregates approved reviews for one product.
type ReviewSummary struct {
	AverageRating decimal.Decimal
	RatingCounts  map[int]int
	Reviews       []Review
}

// CreateReviewCommand submits a new review for moderation.
type CreateReviewCommand struct {
	ProductID int
	UserID    string
	UserName  string
	Rating    int
	Text      string
}

// ReviewService coordinates review submission and moderation.
type ReviewService interface {
	ListForProduct(ctx context.Context, productID int) (ReviewSummary, error)
	CanReview(ctx context.Context, userID string, productID int) (bool, error)
	Create(ctx context.Context, cmd CreateReviewCommand) (Review, error)
	ListPending(ctx context.Context) ([]Review, error)
	Approve(ctx context.Context, reviewID int) (Review, error)
	Delete(ctx context.Context, reviewID int) error
}
