package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/repositories"
)

// defaultProductImage is assigned when an admin omits an image path.
const defaultProductImage = "/images/default.jpg"

// lowStockThreshold marks products the dashboard counts as running out.
const lowStockThreshold = 5

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Users    repositories.UserRepository
	Orders   repositories.OrderRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	orders   repositories.OrderRepository
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{
		products: deps.Products,
		users:    deps.Users,
		orders:   deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ListProducts returns catalog entries matching the filter. Category matches
// exactly; the search term matches name or description case-insensitively.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(filter.Category)
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	if category == "" && search == "" {
		return products, nil
	}

	matched := make([]Product, 0, len(products))
	for _, product := range products {
		if category != "" && !strings.EqualFold(product.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(product.Name), search) &&
			!strings.Contains(strings.ToLower(product.Description), search) {
			continue
		}
		matched = append(matched, product)
	}
	return matched, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int) (Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	if err := validateProductCommand(cmd); err != nil {
		return Product{}, err
	}

	existing, err := s.products.List(ctx)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product := Product{
		ID:          nextProductID(existing),
		Name:        strings.TrimSpace(cmd.Name),
		Description: strings.TrimSpace(cmd.Description),
		Price:       cmd.Price,
		Category:    strings.TrimSpace(cmd.Category),
		Stock:       cmd.Stock,
		Image:       strings.TrimSpace(cmd.Image),
		CreatedAt:   now,
	}
	if product.Image == "" {
		product.Image = defaultProductImage
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return Product{}, err
	}

	s.logger(ctx, "catalog.product.created", map[string]any{
		"productId": product.ID,
		"name":      product.Name,
	})

	return product, nil
}

// UpdateProduct overwrites the editable fields, preserving identity, the
// creation timestamp, and the image when the command leaves it blank.
func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	if err := validateProductCommand(cmd); err != nil {
		return Product{}, err
	}

	current, err := s.GetProduct(ctx, cmd.ID)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	current.Name = strings.TrimSpace(cmd.Name)
	current.Description = strings.TrimSpace(cmd.Description)
	current.Price = cmd.Price
	current.Category = strings.TrimSpace(cmd.Category)
	current.Stock = cmd.Stock
	if image := strings.TrimSpace(cmd.Image); image != "" {
		current.Image = image
	}
	current.UpdatedAt = &now

	if err := s.products.Update(ctx, current); err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, cmd.ID)
		}
		return Product{}, err
	}

	return current, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID int) (Product, error) {
	deleted, err := s.products.Delete(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}
		return Product{}, err
	}

	s.logger(ctx, "catalog.product.deleted", map[string]any{
		"productId": deleted.ID,
		"name":      deleted.Name,
	})

	return deleted, nil
}

// Stats aggregates the back-office dashboard counters. Revenue sums every
// order's total regardless of status, matching what the store has charged.
func (s *catalogService) Stats(ctx context.Context) (DashboardStats, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		TotalProducts: len(products),
		TotalRevenue:  decimal.Zero,
	}
	for _, product := range products {
		if product.Stock <= lowStockThreshold {
			stats.LowStockProducts++
		}
	}

	if s.users != nil {
		users, err := s.users.List(ctx)
		if err != nil {
			return DashboardStats{}, err
		}
		stats.TotalUsers = len(users)
	}

	if s.orders != nil {
		orders, err := s.orders.List(ctx)
		if err != nil {
			return DashboardStats{}, err
		}
		stats.TotalOrders = len(orders)
		for _, order := range orders {
			stats.TotalRevenue = stats.TotalRevenue.Add(order.TotalAmount)
		}
		stats.TotalRevenue = stats.TotalRevenue.Round(2)
	}

	return stats, nil
}

func validateProductCommand(cmd UpsertProductCommand) error {
	if strings.TrimSpace(cmd.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrCatalogInvalidInput)
	}
	return nil
}

func nextProductID(products []domain.Product) int {
	next := 1
	for _, product := range products {
		if product.ID >= next {
			next = product.ID + 1
		}
	}
	return next
}

// Categories lists the distinct categories present in the catalog, sorted.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0, len(products))
	for _, product := range products {
		category := strings.TrimSpace(product.Category)
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	slices.Sort(categories)
	return categories
}
