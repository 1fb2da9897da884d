package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
)

var (
	// ErrEmptyOrder indicates a build request with zero line items.
	ErrEmptyOrder = errors.New("order builder: order has no items")
	// ErrMissingShippingAddress indicates no shipping destination was resolved.
	ErrMissingShippingAddress = errors.New("order builder: shipping address is required")
	// ErrMissingPaymentMethod indicates no payment method was supplied.
	ErrMissingPaymentMethod = errors.New("order builder: payment method is required")
)

type orderBuilder struct {
	clock func() time.Time
}

// NewOrderBuilder constructs the builder. A nil clock defaults to time.Now.
func NewOrderBuilder(clock func() time.Time) OrderBuilder {
	if clock == nil {
		clock = time.Now
	}
	return &orderBuilder{
		clock: func() time.Time {
			return clock().UTC()
		},
	}
}

// Build mints a pending order with a fresh id, a rounded total, and the seed
// tracking event. It never persists anything.
func (b *orderBuilder) Build(cmd BuildOrderCommand) (Order, error) {
	if len(cmd.Items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	if strings.TrimSpace(cmd.ShippingAddress) == "" {
		return Order{}, ErrMissingShippingAddress
	}
	if strings.TrimSpace(cmd.PaymentMethod) == "" {
		return Order{}, ErrMissingPaymentMethod
	}

	now := b.clock()
	order := Order{
		ID:              NextOrderID(cmd.Existing),
		UserID:          cmd.UserID,
		Items:           append([]OrderItem(nil), cmd.Items...),
		TotalAmount:     orderTotal(cmd.Items),
		Status:          domain.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(cmd.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(cmd.PaymentMethod),
		CreatedAt:       now,
	}
	order.Tracking = []TrackingEvent{seedTrackingEvent(now)}
	return order, nil
}

// NextOrderID scans existing orders for numeric ids and returns max+1,
// defaulting to 1 when none exist. Manual resets therefore restart the
// sequence without gaps.
func NextOrderID(existing []Order) int {
	next := 1
	for _, order := range existing {
		if order.ID >= next {
			next = order.ID + 1
		}
	}
	return next
}

// FormatShippingAddress renders a stored address into the multi-line string
// persisted on orders.
func FormatShippingAddress(addr Address) string {
	cityLine := addr.City
	if addr.State != "" {
		cityLine += ", " + addr.State
	}
	cityLine += " " + addr.PostalCode
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		addr.Label, addr.FullName, addr.Phone, addr.Street, cityLine, addr.Country)
}

func orderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

func seedTrackingEvent(now time.Time) TrackingEvent {
	return TrackingEvent{
		ID:        1,
		Status:    domain.OrderStatusPending,
		Label:     domain.StatusLabel(domain.OrderStatusPending),
		Note:      "Order received",
		Timestamp: now,
		Actor:     domain.ActorSystem,
	}
}
