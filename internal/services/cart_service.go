package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/repositories"
)

var (
	// ErrCartLineNotFound indicates the referenced cart line does not exist.
	ErrCartLineNotFound = errors.New("cart: line not found")
	// ErrBuyNowNotFound indicates no express intent is pending for the user.
	ErrBuyNowNotFound = errors.New("cart: no buy now item captured")
	// ErrCartInvalidInput signals the caller provided invalid data.
	ErrCartInvalidInput = errors.New("cart: invalid input")
)

// CartServiceDeps bundles collaborators required to construct the cart service.
type CartServiceDeps struct {
	Cart     repositories.CartRepository
	Products repositories.ProductRepository
	BuyNow   repositories.BuyNowIntentRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	cart     repositories.CartRepository
	products repositories.ProductRepository
	buyNow   repositories.BuyNowIntentRepository
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewCartService wires dependencies into a concrete CartService implementation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Cart == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		cart:     deps.Cart,
		products: deps.Products,
		buyNow:   deps.BuyNow,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *cartService) Count(ctx context.Context) (int, error) {
	lines, err := s.cart.List(ctx)
	if err != nil {
		return 0, err
	}
	return lineCount(lines), nil
}

// View joins every cart line with its product. Lines whose product has been
// deleted are kept visible, flagged as missing, and contribute nothing to the
// total so the shopper can remove them.
func (s *cartService) View(ctx context.Context) (CartView, error) {
	lines, err := s.cart.List(ctx)
	if err != nil {
		return CartView{}, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return CartView{}, err
	}

	byID := make(map[int]Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	view := CartView{Lines: make([]EnrichedCartLine, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			view.Lines = append(view.Lines, EnrichedCartLine{Line: line, Missing: true})
			continue
		}
		view.Lines = append(view.Lines, EnrichedCartLine{Line: line, Product: product})
		view.Total = view.Total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	view.Total = view.Total.Round(2)

	return view, nil
}

// AddItem merges the quantity into an existing line for the same product or
// appends a new line. The merged quantity is capped by current stock. Returns
// the cart's new item count.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (int, error) {
	if cmd.Quantity < 1 {
		return 0, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return 0, err
	}
	if product.Stock < cmd.Quantity {
		return 0, &StockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Stock,
			Requested: cmd.Quantity,
		}
	}

	lines, err := s.cart.List(ctx)
	if err != nil {
		return 0, err
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID != cmd.ProductID {
			continue
		}
		newQuantity := lines[i].Quantity + cmd.Quantity
		if newQuantity > product.Stock {
			return 0, &StockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: newQuantity,
			}
		}
		lines[i].Quantity = newQuantity
		merged = true
		break
	}

	if !merged {
		lines = append(lines, CartLine{
			ID:        nextCartLineID(lines),
			ProductID: cmd.ProductID,
			Quantity:  cmd.Quantity,
			AddedAt:   s.clock(),
		})
	}

	if err := s.cart.ReplaceAll(ctx, lines); err != nil {
		return 0, err
	}

	s.logger(ctx, "cart.item.added", map[string]any{
		"productId": cmd.ProductID,
		"quantity":  cmd.Quantity,
	})

	return lineCount(lines), nil
}

// UpdateQuantity sets the line's quantity, removing the line entirely when the
// requested quantity drops to zero or below. Returns the cart's new item count.
func (s *cartService) UpdateQuantity(ctx context.Context, lineID int, quantity int) (int, error) {
	lines, err := s.cart.List(ctx)
	if err != nil {
		return 0, err
	}

	idx := -1
	for i := range lines {
		if lines[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: line %d", ErrCartLineNotFound, lineID)
	}

	if quantity <= 0 {
		lines = append(lines[:idx], lines[idx+1:]...)
	} else {
		product, err := s.findProduct(ctx, lines[idx].ProductID)
		if err != nil {
			return 0, err
		}
		if quantity > product.Stock {
			return 0, &StockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: quantity,
			}
		}
		lines[idx].Quantity = quantity
	}

	if err := s.cart.ReplaceAll(ctx, lines); err != nil {
		return 0, err
	}
	return lineCount(lines), nil
}

// RemoveLine drops the line if present. Removing an absent line is not an
// error; the cart simply stays as it was.
func (s *cartService) RemoveLine(ctx context.Context, lineID int) (int, error) {
	lines, err := s.cart.List(ctx)
	if err != nil {
		return 0, err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}

	if err := s.cart.ReplaceAll(ctx, kept); err != nil {
		return 0, err
	}
	return lineCount(kept), nil
}

func (s *cartService) Clear(ctx context.Context) error {
	return s.cart.Clear(ctx)
}

// CaptureBuyNow snapshots a one-item express checkout for the user, replacing
// any previous intent. The snapshot records the product's name, price, and
// stock as seen at capture time; checkout still validates against live stock.
func (s *cartService) CaptureBuyNow(ctx context.Context, cmd CaptureBuyNowCommand) (BuyNowIntent, error) {
	if s.buyNow == nil {
		return BuyNowIntent{}, errors.New("cart service: buy now repository not configured")
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return BuyNowIntent{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity < 1 {
		return BuyNowIntent{}, fmt.Errorf("%w: quantity must be at least 1", ErrCartInvalidInput)
	}

	product, err := s.findProduct(ctx, cmd.ProductID)
	if err != nil {
		return BuyNowIntent{}, err
	}
	if product.Stock < cmd.Quantity {
		return BuyNowIntent{}, &StockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Stock,
			Requested: cmd.Quantity,
		}
	}

	intent := BuyNowIntent{
		UserID:        userID,
		ProductID:     product.ID,
		Quantity:      cmd.Quantity,
		CapturedName:  product.Name,
		CapturedPrice: product.Price,
		CapturedStock: product.Stock,
		CreatedAt:     s.clock(),
	}

	if err := s.buyNow.Put(ctx, intent); err != nil {
		return BuyNowIntent{}, err
	}

	s.logger(ctx, "cart.buynow.captured", map[string]any{
		"userId":    userID,
		"productId": product.ID,
		"quantity":  cmd.Quantity,
	})

	return intent, nil
}

func (s *cartService) DiscardBuyNow(ctx context.Context, userID string) error {
	if s.buyNow == nil {
		return errors.New("cart service: buy now repository not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	err := s.buyNow.Delete(ctx, userID)
	if err != nil && isNotFound(err) {
		return fmt.Errorf("%w: user %s", ErrBuyNowNotFound, userID)
	}
	return err
}

func (s *cartService) findProduct(ctx context.Context, productID int) (Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
		}
		return Product{}, err
	}
	return product, nil
}

func lineCount(lines []domain.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func nextCartLineID(lines []domain.CartLine) int {
	next := 1
	for _, line := range lines {
		if line.ID >= next {
			next = line.ID + 1
		}
	}
	return next
}
