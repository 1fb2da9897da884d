package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
)

func newCartServiceForTest(t *testing.T, deps CartServiceDeps) CartService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC) }
	}
	service, err := NewCartService(deps)
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return service
}

func TestCartViewSkipsMissingProductsInTotal(t *testing.T) {
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{
				{ID: 1, ProductID: 1, Quantity: 2},
				{ID: 2, ProductID: 99, Quantity: 1},
			}, nil
		},
	}
	products := &stubProductRepository{
		listFunc: func(context.Context) ([]domain.Product, error) {
			return []domain.Product{{ID: 1, Name: "Walnut Desk Organizer", Price: decimal.NewFromFloat(10.50), Stock: 5}}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: products})
	view, err := service.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	if len(view.Lines) != 2 {
		t.Fatalf("expected both lines kept, got %d", len(view.Lines))
	}
	if !view.Lines[1].Missing {
		t.Fatal("expected orphaned line flagged as missing")
	}
	if want := decimal.NewFromFloat(21.00); !view.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, view.Total)
	}
}

func TestCartAddItemMergesExistingLine(t *testing.T) {
	var saved []domain.CartLine
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{{ID: 1, ProductID: 1, Quantity: 2}}, nil
		},
		replaceAllFunc: func(_ context.Context, lines []domain.CartLine) error {
			saved = lines
			return nil
		},
	}
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Walnut Desk Organizer", Stock: 5}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: products})
	count, err := service.AddItem(context.Background(), AddCartItemCommand{ProductID: 1, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}
	if len(saved) != 1 || saved[0].Quantity != 4 {
		t.Fatalf("expected merged line quantity 4, got %#v", saved)
	}
}

func TestCartAddItemRejectsMergeBeyondStock(t *testing.T) {
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{{ID: 1, ProductID: 1, Quantity: 4}}, nil
		},
	}
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Walnut Desk Organizer", Stock: 5}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: products})
	_, err := service.AddItem(context.Background(), AddCartItemCommand{ProductID: 1, Quantity: 2})

	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
	if stockErr.Available != 5 || stockErr.Requested != 6 {
		t.Fatalf("unexpected stock numbers %#v", stockErr)
	}
}

func TestCartAddItemAllocatesNextLineID(t *testing.T) {
	var saved []domain.CartLine
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{{ID: 3, ProductID: 2, Quantity: 1}}, nil
		},
		replaceAllFunc: func(_ context.Context, lines []domain.CartLine) error {
			saved = lines
			return nil
		},
	}
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Stock: 5}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: products})
	if _, err := service.AddItem(context.Background(), AddCartItemCommand{ProductID: 1, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(saved) != 2 || saved[1].ID != 4 {
		t.Fatalf("expected new line id 4, got %#v", saved)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	service := newCartServiceForTest(t, CartServiceDeps{
		Cart:     &stubCartRepository{},
		Products: &stubProductRepository{},
	})
	_, err := service.AddItem(context.Background(), AddCartItemCommand{ProductID: 42, Quantity: 1})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	var saved []domain.CartLine
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{
				{ID: 1, ProductID: 1, Quantity: 2},
				{ID: 2, ProductID: 2, Quantity: 1},
			}, nil
		},
		replaceAllFunc: func(_ context.Context, lines []domain.CartLine) error {
			saved = lines
			return nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: &stubProductRepository{}})
	count, err := service.UpdateQuantity(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}

	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
	if len(saved) != 1 || saved[0].ID != 2 {
		t.Fatalf("expected only line 2 kept, got %#v", saved)
	}
}

func TestCartUpdateQuantityUnknownLine(t *testing.T) {
	service := newCartServiceForTest(t, CartServiceDeps{
		Cart:     &stubCartRepository{},
		Products: &stubProductRepository{},
	})
	_, err := service.UpdateQuantity(context.Background(), 7, 2)
	if !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
}

func TestCartRemoveAbsentLineIsNoOp(t *testing.T) {
	var saved []domain.CartLine
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{{ID: 1, ProductID: 1, Quantity: 2}}, nil
		},
		replaceAllFunc: func(_ context.Context, lines []domain.CartLine) error {
			saved = lines
			return nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: &stubProductRepository{}})
	count, err := service.RemoveLine(context.Background(), 99)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if len(saved) != 1 {
		t.Fatalf("expected cart unchanged, got %#v", saved)
	}
}

func TestCaptureBuyNowSnapshotsProduct(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var stored domain.BuyNowIntent
	buyNow := &stubBuyNowRepository{
		putFunc: func(_ context.Context, intent domain.BuyNowIntent) error {
			stored = intent
			return nil
		},
	}
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Brass Bookmark", Price: decimal.NewFromFloat(3.25), Stock: 2}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{
		Cart:     &stubCartRepository{},
		Products: products,
		BuyNow:   buyNow,
		Clock:    func() time.Time { return now },
	})

	intent, err := service.CaptureBuyNow(context.Background(), CaptureBuyNowCommand{UserID: "3", ProductID: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("CaptureBuyNow: %v", err)
	}

	if stored.UserID != "3" || stored.ProductID != 2 {
		t.Fatalf("unexpected stored intent %#v", stored)
	}
	if intent.CapturedName != "Brass Bookmark" || intent.CapturedStock != 2 {
		t.Fatalf("expected product snapshot, got %#v", intent)
	}
	if !intent.CreatedAt.Equal(now) {
		t.Fatalf("expected capture time %s, got %s", now, intent.CreatedAt)
	}
}

func TestCaptureBuyNowRespectsStock(t *testing.T) {
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Brass Bookmark", Stock: 2}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{
		Cart:     &stubCartRepository{},
		Products: products,
		BuyNow:   &stubBuyNowRepository{},
	})

	_, err := service.CaptureBuyNow(context.Background(), CaptureBuyNowCommand{UserID: "3", ProductID: 2, Quantity: 3})
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockError, got %v", err)
	}
}

func TestDiscardBuyNowWithoutIntent(t *testing.T) {
	buyNow := &stubBuyNowRepository{
		deleteFunc: func(context.Context, string) error {
			return notFoundErr("no intent")
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{
		Cart:     &stubCartRepository{},
		Products: &stubProductRepository{},
		BuyNow:   buyNow,
	})

	err := service.DiscardBuyNow(context.Background(), "3")
	if !errors.Is(err, ErrBuyNowNotFound) {
		t.Fatalf("expected ErrBuyNowNotFound, got %v", err)
	}
}

func TestCartCountSumsQuantities(t *testing.T) {
	cart := &stubCartRepository{
		listFunc: func(context.Context) ([]domain.CartLine, error) {
			return []domain.CartLine{
				{ID: 1, ProductID: 1, Quantity: 2},
				{ID: 2, ProductID: 2, Quantity: 3},
			}, nil
		},
	}

	service := newCartServiceForTest(t, CartServiceDeps{Cart: cart, Products: &stubProductRepository{}})
	count, err := service.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}
}
