package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
)

func builderFixtureItems() []domain.OrderItem {
	return []domain.OrderItem{
		{ProductID: 1, Name: "Walnut Desk Organizer", Price: decimal.NewFromFloat(10.50), Quantity: 2},
		{ProductID: 2, Name: "Brass Bookmark", Price: decimal.NewFromFloat(3.25), Quantity: 1},
	}
}

func TestBuildMintsPendingOrder(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	builder := NewOrderBuilder(func() time.Time { return now })

	order, err := builder.Build(BuildOrderCommand{
		UserID:          "3",
		Items:           builderFixtureItems(),
		ShippingAddress: " 12 Elm Street ",
		PaymentMethod:   "card",
		Existing:        []domain.Order{{ID: 2}, {ID: 7}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if order.ID != 8 {
		t.Fatalf("expected id 8 after max id 7, got %d", order.ID)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if want := decimal.NewFromFloat(24.25); !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}
	if order.ShippingAddress != "12 Elm Street" {
		t.Fatalf("expected trimmed address, got %q", order.ShippingAddress)
	}
	if !order.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %s, got %s", now, order.CreatedAt)
	}
	if len(order.Tracking) != 1 {
		t.Fatalf("expected seed tracking event, got %d", len(order.Tracking))
	}
	seed := order.Tracking[0]
	if seed.ID != 1 || seed.Status != domain.OrderStatusPending || seed.Actor != domain.ActorSystem {
		t.Fatalf("unexpected seed event %#v", seed)
	}
}

func TestBuildValidation(t *testing.T) {
	builder := NewOrderBuilder(nil)

	_, err := builder.Build(BuildOrderCommand{UserID: "3", ShippingAddress: "a", PaymentMethod: "card"})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}

	_, err = builder.Build(BuildOrderCommand{UserID: "3", Items: builderFixtureItems(), ShippingAddress: "  ", PaymentMethod: "card"})
	if !errors.Is(err, ErrMissingShippingAddress) {
		t.Fatalf("expected ErrMissingShippingAddress, got %v", err)
	}

	_, err = builder.Build(BuildOrderCommand{UserID: "3", Items: builderFixtureItems(), ShippingAddress: "a", PaymentMethod: ""})
	if !errors.Is(err, ErrMissingPaymentMethod) {
		t.Fatalf("expected ErrMissingPaymentMethod, got %v", err)
	}
}

func TestNextOrderIDRestartsAtOne(t *testing.T) {
	if got := NextOrderID(nil); got != 1 {
		t.Fatalf("expected 1 for empty collection, got %d", got)
	}
	if got := NextOrderID([]domain.Order{{ID: 3}, {ID: 1}}); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestFormatShippingAddress(t *testing.T) {
	addr := domain.Address{
		Label:      "Home",
		FullName:   "Dana Li",
		Phone:      "555-0101",
		Street:     "12 Elm Street",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "USA",
	}
	want := "Home\nDana Li\n555-0101\n12 Elm Street\nSpringfield, IL 62701\nUSA"
	if got := FormatShippingAddress(addr); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	addr.State = ""
	want = "Home\nDana Li\n555-0101\n12 Elm Street\nSpringfield 62701\nUSA"
	if got := FormatShippingAddress(addr); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
