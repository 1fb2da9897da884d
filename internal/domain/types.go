package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies the authorisation level of an acting principal.
type Role string

const (
	// RoleCustomer is the default role assigned to registered shoppers.
	RoleCustomer Role = "customer"
	// RoleAdmin grants access to the back-office surfaces.
	RoleAdmin Role = "admin"
)

// Actor labels who produced a tracking event.
type Actor string

const (
	// ActorSystem marks events synthesized by the application itself.
	ActorSystem Actor = "system"
	// ActorAdmin marks events recorded by back-office staff.
	ActorAdmin Actor = "admin"
	// ActorCustomer marks events triggered by the order owner.
	ActorCustomer Actor = "customer"
)

// Product is a catalog entry. Stock is mutated only by checkout commits and
// admin CRUD; it never goes negative.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// CartLine is one product/quantity pair in a shopper's cart. The referenced
// Product stays authoritative for price and stock until checkout freezes them.
type CartLine struct {
	ID        int       `json:"id"`
	ProductID int       `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// BuyNowIntent is the single-item express-checkout alternative to cart lines.
// The captured fields are a display snapshot; checkout still validates against
// the live product.
type BuyNowIntent struct {
	UserID        string          `json:"userId"`
	ProductID     int             `json:"productId"`
	Quantity      int             `json:"quantity"`
	CapturedName  string          `json:"capturedName"`
	CapturedPrice decimal.Decimal `json:"capturedPrice"`
	CapturedStock int             `json:"capturedStock"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderItem is a line item carrying the frozen transaction-time snapshot of
// the product. Later catalog edits never resync these fields.
type OrderItem struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of every minted order.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the carrier confirmed delivery.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCompleted is the terminal success state.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled is the terminal failure state, reachable from
	// pending or processing only.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// TrackingEvent is one append-only entry in an order's audit trail. Events are
// never edited or removed once written.
type TrackingEvent struct {
	ID        int         `json:"id"`
	Status    OrderStatus `json:"status"`
	Label     string      `json:"label"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     Actor       `json:"actor"`
}

// Order is minted once by checkout; afterwards only status, tracking and the
// updatedAt/completedAt stamps change, and only through the lifecycle machine.
type Order struct {
	ID              int             `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Tracking        []TrackingEvent `json:"tracking"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// Address is one entry in a user's address book. At most one address per user
// carries IsDefault.
type Address struct {
	ID         int        `json:"id"`
	UserID     string     `json:"userId"`
	Label      string     `json:"label"`
	FullName   string     `json:"fullName"`
	Phone      string     `json:"phone"`
	Street     string     `json:"street"`
	City       string     `json:"city"`
	State      string     `json:"state,omitempty"`
	PostalCode string     `json:"postalCode"`
	Country    string     `json:"country"`
	IsDefault  bool       `json:"isDefault"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// User is a registered account. IDs are numeric strings allocated max+1.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Review is a product review. Unapproved reviews are visible to admins only.
type Review struct {
	ID        int       `json:"id"`
	ProductID int       `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Text      string    `json:"reviewText"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PasswordResetToken is a keyed store entry with an explicit expiry, checked
// on every lookup.
type PasswordResetToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidStatus reports whether the supplied value names a known order status.
func ValidStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// TerminalStatus reports whether the status admits no further transitions.
func TerminalStatus(status OrderStatus) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// StatusLabel derives the human-readable tracking label for a status.
func StatusLabel(status OrderStatus) string {
	switch status {
	case OrderStatusPending:
		return "Order placed"
	case OrderStatusProcessing:
		return "Order is being processed"
	case OrderStatusShipped:
		return "Order shipped"
	case OrderStatusDelivered:
		return "Order delivered"
	case OrderStatusCompleted:
		return "Order completed"
	case OrderStatusCancelled:
		return "Order cancelled"
	default:
		return string(status)
	}
}
