package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simple-store/api/internal/platform/collections"
	"github.com/simple-store/api/internal/repositories"
)

var (
	// ErrCheckoutUnauthenticated indicates no identity was supplied.
	ErrCheckoutUnauthenticated = errors.New("checkout: authentication required")
	// ErrCheckoutEmptyCart indicates there is nothing to check out.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrAddressNotFound indicates the given address id does not belong to the caller.
	ErrAddressNotFound = errors.New("checkout: selected address not found")
	// ErrCheckoutUnavailable indicates a read against the store failed before
	// any mutation happened.
	ErrCheckoutUnavailable = errors.New("checkout: store unavailable")
)

// PersistenceError reports a failed write during the commit phase. RolledBack
// is set when stock had already been decremented and was restored.
type PersistenceError struct {
	Collection string
	RolledBack bool
	Err        error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("checkout: failed to persist %s (stock has been restored): %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("checkout: failed to persist %s: %v", e.Collection, e.Err)
}

// Unwrap exposes the underlying write failure.
func (e *PersistenceError) Unwrap() error { return e.Err }

// checkoutSource is the tagged variant resolved once per invocation: exactly
// one of the two item sources feeds a checkout.
type checkoutSource struct {
	kind   CheckoutSourceKind
	lines  []LineRequest
	intent BuyNowIntent
}

// CheckoutServiceDeps wires the collaborators required by the orchestrator.
type CheckoutServiceDeps struct {
	Products  repositories.ProductRepository
	Cart      repositories.CartRepository
	BuyNow    repositories.BuyNowIntentRepository
	Orders    repositories.OrderRepository
	Addresses repositories.AddressRepository
	Guard     InventoryGuard
	Builder   OrderBuilder
	Cache     interface{ Invalidate(name string) }
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	products  repositories.ProductRepository
	cart      repositories.CartRepository
	buyNow    repositories.BuyNowIntentRepository
	orders    repositories.OrderRepository
	addresses repositories.AddressRepository
	guard     InventoryGuard
	builder   OrderBuilder
	cache     interface{ Invalidate(name string) }
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs the orchestrator validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Products == nil {
		return nil, errors.New("checkout service: product repository is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("checkout service: cart repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("checkout service: address repository is required")
	}

	guard := deps.Guard
	if guard == nil {
		guard = NewInventoryGuard()
	}
	builder := deps.Builder
	if builder == nil {
		builder = NewOrderBuilder(deps.Clock)
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		products:  deps.Products,
		cart:      deps.Cart,
		buyNow:    deps.BuyNow,
		orders:    deps.Orders,
		addresses: deps.Addresses,
		guard:     guard,
		builder:   builder,
		cache:     deps.Cache,
		logger:    logger,
	}, nil
}

// Checkout runs the three-phase transaction: validate against one product
// snapshot, prepare the order, then commit stock before order. A failed order
// write is the only path that requires compensation, and it restores every
// touched product's original stock. Retrying an identical request after
// success creates a second order; callers own double-submission protection.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return CheckoutResult{}, ErrCheckoutUnauthenticated
	}

	// Phase 1: validate, no mutation.
	source, err := s.resolveSource(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	items, err := s.guard.ValidateItems(source.requests(), products)
	if err != nil {
		return CheckoutResult{}, err
	}

	shippingAddress, err := s.resolveShippingAddress(ctx, userID, cmd)
	if err != nil {
		return CheckoutResult{}, err
	}

	// Phase 2: prepare, still nothing persisted.
	existing, err := s.orders.List(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	order, err := s.builder.Build(BuildOrderCommand{
		UserID:          userID,
		Items:           items,
		ShippingAddress: shippingAddress,
		PaymentMethod:   cmd.PaymentMethod,
		Existing:        existing,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	// Phase 3: commit. Stock is written before the order; the snapshot is
	// taken before any decrement so a product appearing on several lines
	// still rolls back to its true original value.
	originalStock := make(map[int]int, len(items))
	for _, item := range items {
		for i := range products {
			if products[i].ID == item.ProductID {
				if _, seen := originalStock[item.ProductID]; !seen {
					originalStock[item.ProductID] = products[i].Stock
				}
				products[i].Stock -= item.Quantity
			}
		}
	}

	if err := s.products.ReplaceAll(ctx, products); err != nil {
		return CheckoutResult{}, &PersistenceError{Collection: collections.Products, Err: err}
	}

	if err := s.orders.Append(ctx, order); err != nil {
		for i := range products {
			if stock, touched := originalStock[products[i].ID]; touched {
				products[i].Stock = stock
			}
		}
		if restoreErr := s.products.ReplaceAll(ctx, products); restoreErr != nil {
			s.logger(ctx, "checkout.rollback_failed", map[string]any{
				"orderId": order.ID,
				"error":   restoreErr.Error(),
			})
		}
		return CheckoutResult{}, &PersistenceError{Collection: collections.Orders, RolledBack: true, Err: err}
	}

	s.finalize(ctx, userID, source)

	s.logger(ctx, "checkout.completed", map[string]any{
		"orderId": order.ID,
		"userId":  userID,
		"total":   order.TotalAmount.String(),
		"source":  string(source.kind),
	})

	return CheckoutResult{
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		Source:      source.kind,
	}, nil
}

// resolveSource picks exactly one item source: a pending buy-now intent wins
// over cart lines, never both.
func (s *checkoutService) resolveSource(ctx context.Context, userID string) (checkoutSource, error) {
	if s.buyNow != nil {
		intent, err := s.buyNow.Get(ctx, userID)
		switch {
		case err == nil:
			return checkoutSource{kind: CheckoutSourceBuyNow, intent: intent}, nil
		case isNotFound(err):
		default:
			return checkoutSource{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
		}
	}

	lines, err := s.cart.List(ctx)
	if err != nil {
		return checkoutSource{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	if len(lines) == 0 {
		return checkoutSource{}, ErrCheckoutEmptyCart
	}

	requests := make([]LineRequest, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return checkoutSource{kind: CheckoutSourceCart, lines: requests}, nil
}

func (src checkoutSource) requests() []LineRequest {
	if src.kind == CheckoutSourceBuyNow {
		return []LineRequest{{ProductID: src.intent.ProductID, Quantity: src.intent.Quantity}}
	}
	return src.lines
}

func (s *checkoutService) resolveShippingAddress(ctx context.Context, userID string, cmd CheckoutCommand) (string, error) {
	if cmd.AddressID == nil {
		return strings.TrimSpace(cmd.ShippingAddress), nil
	}

	address, err := s.addresses.FindByID(ctx, *cmd.AddressID)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: address %d", ErrAddressNotFound, *cmd.AddressID)
		}
		return "", fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	if address.UserID != userID {
		return "", fmt.Errorf("%w: address %d", ErrAddressNotFound, *cmd.AddressID)
	}
	return FormatShippingAddress(address), nil
}

// finalize clears the consumed item source and drops cached reads. The order
// is already committed, so failures here are logged, not surfaced.
func (s *checkoutService) finalize(ctx context.Context, userID string, source checkoutSource) {
	if source.kind == CheckoutSourceBuyNow {
		if err := s.buyNow.Delete(ctx, userID); err != nil {
			s.logger(ctx, "checkout.buynow_discard_failed", map[string]any{"userId": userID, "error": err.Error()})
		}
	} else {
		if err := s.cart.Clear(ctx); err != nil {
			s.logger(ctx, "checkout.cart_clear_failed", map[string]any{"userId": userID, "error": err.Error()})
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(collections.Products)
		s.cache.Invalidate(collections.Orders)
	}
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
