package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
)

func catalogFixtureProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Walnut Desk Organizer", Description: "Solid walnut tray", Price: decimal.NewFromFloat(10.50), Category: "Office", Stock: 12},
		{ID: 2, Name: "Brass Bookmark", Description: "Etched brass page marker", Price: decimal.NewFromFloat(3.25), Category: "office", Stock: 2},
		{ID: 5, Name: "Ceramic Mug", Description: "Stoneware mug", Price: decimal.NewFromFloat(8.00), Category: "Kitchen", Stock: 40},
	}
}

func newCatalogServiceForTest(t *testing.T, deps CatalogServiceDeps) CatalogService {
	t.Helper()
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC) }
	}
	service, err := NewCatalogService(deps)
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return service
}

func TestListProductsFiltersByCategoryAndSearch(t *testing.T) {
	products := &stubProductRepository{
		listFunc: func(context.Context) ([]domain.Product, error) {
			return catalogFixtureProducts(), nil
		},
	}
	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: products})

	got, err := service.ListProducts(context.Background(), ProductFilter{Category: "OFFICE"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 office products, got %d", len(got))
	}

	got, err = service.ListProducts(context.Background(), ProductFilter{Search: "brass"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected brass bookmark only, got %#v", got)
	}

	got, err = service.ListProducts(context.Background(), ProductFilter{Category: "office", Search: "walnut"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected combined filter to leave product 1, got %#v", got)
	}
}

func TestListProductsSearchMatchesDescription(t *testing.T) {
	products := &stubProductRepository{
		listFunc: func(context.Context) ([]domain.Product, error) {
			return catalogFixtureProducts(), nil
		},
	}
	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: products})

	got, err := service.ListProducts(context.Background(), ProductFilter{Search: "stoneware"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("expected description match on product 5, got %#v", got)
	}
}

func TestCreateProductAssignsIDAndDefaults(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var inserted domain.Product
	products := &stubProductRepository{
		listFunc: func(context.Context) ([]domain.Product, error) {
			return catalogFixtureProducts(), nil
		},
		insertFunc: func(_ context.Context, product domain.Product) error {
			inserted = product
			return nil
		},
	}

	service := newCatalogServiceForTest(t, CatalogServiceDeps{
		Products: products,
		Clock:    func() time.Time { return now },
	})

	got, err := service.CreateProduct(context.Background(), UpsertProductCommand{
		Name:  "  Linen Notebook  ",
		Price: decimal.NewFromFloat(6.75),
		Stock: 10,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if got.ID != 6 {
		t.Fatalf("expected id 6 after max id 5, got %d", got.ID)
	}
	if got.Name != "Linen Notebook" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if got.Image != defaultProductImage {
		t.Fatalf("expected default image, got %q", got.Image)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %s, got %s", now, got.CreatedAt)
	}
	if inserted.ID != got.ID {
		t.Fatalf("expected inserted product %d, got %d", got.ID, inserted.ID)
	}
}

func TestCreateProductValidation(t *testing.T) {
	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: &stubProductRepository{}})

	cases := []UpsertProductCommand{
		{Name: "   ", Price: decimal.NewFromInt(1), Stock: 1},
		{Name: "Mug", Price: decimal.NewFromInt(-1), Stock: 1},
		{Name: "Mug", Price: decimal.NewFromInt(1), Stock: -1},
	}
	for _, cmd := range cases {
		if _, err := service.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrCatalogInvalidInput) {
			t.Fatalf("expected ErrCatalogInvalidInput for %#v, got %v", cmd, err)
		}
	}
}

func TestUpdateProductPreservesImageWhenBlank(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var updated domain.Product
	products := &stubProductRepository{
		findFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Ceramic Mug", Image: "/images/mug.jpg", CreatedAt: now.Add(-24 * time.Hour)}, nil
		},
		updateFunc: func(_ context.Context, product domain.Product) error {
			updated = product
			return nil
		},
	}

	service := newCatalogServiceForTest(t, CatalogServiceDeps{
		Products: products,
		Clock:    func() time.Time { return now },
	})

	got, err := service.UpdateProduct(context.Background(), UpsertProductCommand{
		ID:    5,
		Name:  "Ceramic Mug",
		Price: decimal.NewFromFloat(9.00),
		Stock: 35,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}

	if got.Image != "/images/mug.jpg" {
		t.Fatalf("expected image preserved, got %q", got.Image)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %s, got %v", now, got.UpdatedAt)
	}
	if updated.Stock != 35 {
		t.Fatalf("expected persisted stock 35, got %d", updated.Stock)
	}
}

func TestUpdateProductUnknownID(t *testing.T) {
	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: &stubProductRepository{}})
	_, err := service.UpdateProduct(context.Background(), UpsertProductCommand{
		ID:    99,
		Name:  "Ghost",
		Price: decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteProductReturnsRemovedEntry(t *testing.T) {
	products := &stubProductRepository{
		deleteFunc: func(_ context.Context, productID int) (domain.Product, error) {
			return domain.Product{ID: productID, Name: "Brass Bookmark"}, nil
		},
	}

	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: products})
	got, err := service.DeleteProduct(context.Background(), 2)
	if err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if got.Name != "Brass Bookmark" {
		t.Fatalf("expected deleted product back, got %#v", got)
	}
}

func TestStatsAggregatesCollections(t *testing.T) {
	products := &stubProductRepository{
		listFunc: func(context.Context) ([]domain.Product, error) {
			return catalogFixtureProducts(), nil
		},
	}
	users := &stubUserRepository{
		listFunc: func(context.Context) ([]domain.User, error) {
			return []domain.User{{ID: "1"}, {ID: "2"}, {ID: "3"}}, nil
		},
	}
	orders := &stubOrderRepository{
		listFunc: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{
				{ID: 1, TotalAmount: decimal.NewFromFloat(24.25), Status: domain.OrderStatusCompleted},
				{ID: 2, TotalAmount: decimal.NewFromFloat(10.00), Status: domain.OrderStatusCancelled},
			}, nil
		},
	}

	service := newCatalogServiceForTest(t, CatalogServiceDeps{Products: products, Users: users, Orders: orders})
	stats, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalProducts != 3 || stats.TotalUsers != 3 || stats.TotalOrders != 2 {
		t.Fatalf("unexpected counters %#v", stats)
	}
	// Revenue counts every order, cancelled included.
	if want := decimal.NewFromFloat(34.25); !stats.TotalRevenue.Equal(want) {
		t.Fatalf("expected revenue %s, got %s", want, stats.TotalRevenue)
	}
	if stats.LowStockProducts != 1 {
		t.Fatalf("expected 1 low stock product, got %d", stats.LowStockProducts)
	}
}

func TestCategoriesDistinctSorted(t *testing.T) {
	got := Categories([]domain.Product{
		{Category: "Kitchen"},
		{Category: "Office"},
		{Category: "Kitchen"},
		{Category: "  "},
	})
	if !slices.Equal(got, []string{"Kitchen", "Office"}) {
		t.Fatalf("unexpected categories %v", got)
	}
}
