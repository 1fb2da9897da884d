package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located by the caller.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidTransition indicates the requested status change is not
	// allowed from the order's current state.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderForbidden indicates the acting role may not perform the change.
	ErrOrderForbidden = errors.New("order: forbidden")
)

// statusRank orders the forward path of the lifecycle. Cancellation sits
// outside the ranking: it is a side exit, never a step on the path.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderStatusPending:    0,
	domain.OrderStatusProcessing: 1,
	domain.OrderStatusShipped:    2,
	domain.OrderStatusDelivered:  3,
	domain.OrderStatusCompleted:  4,
}

// cancellableFrom lists the only states an order may be cancelled from. Once
// a shipment is on its way the order must run to delivery.
var cancellableFrom = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusProcessing,
}

// customerTargets are the only statuses a shopper may move their own order to.
var customerTargets = []domain.OrderStatus{
	domain.OrderStatusCancelled,
	domain.OrderStatusCompleted,
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders: deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID string, role Role) ([]Order, error) {
	var (
		orders []Order
		err    error
	)
	if role == domain.RoleAdmin {
		orders, err = s.orders.List(ctx)
	} else {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
		}
		orders, err = s.orders.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	for i := range orders {
		ensureSeedEvent(&orders[i])
	}

	// Newest first for both storefront and back office listings.
	slices.SortFunc(orders, func(a, b Order) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return b.ID - a.ID
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})

	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int, userID string, role Role) (Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	// Shoppers only ever learn about their own orders; an order owned by
	// someone else is indistinguishable from a missing one.
	if role != domain.RoleAdmin && order.UserID != strings.TrimSpace(userID) {
		return Order{}, fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
	}

	ensureSeedEvent(&order)
	return order, nil
}

// Transition moves an order through the lifecycle. Admins may jump forward
// across intermediate states to correct mistakes; shoppers are limited to
// cancelling before shipment and to confirming completion of any order that
// was not cancelled. Every accepted change appends exactly one tracking event
// and never rewrites history.
func (s *orderService) Transition(ctx context.Context, cmd TransitionCommand) (Order, []TrackingEvent, error) {
	if !domain.ValidStatus(cmd.Target) {
		return Order{}, nil, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.Target)
	}

	order, err := s.findOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, nil, err
	}

	if cmd.ActorRole != domain.RoleAdmin {
		if order.UserID != strings.TrimSpace(cmd.ActorID) {
			return Order{}, nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, cmd.OrderID)
		}
		if !slices.Contains(customerTargets, cmd.Target) {
			return Order{}, nil, fmt.Errorf("%w: customers cannot set status %q", ErrOrderForbidden, cmd.Target)
		}
	}

	ensureSeedEvent(&order)

	// Same-status requests are accepted without effect, for either role.
	if order.Status == cmd.Target {
		return order, order.Tracking, nil
	}

	if domain.TerminalStatus(order.Status) {
		return Order{}, nil, fmt.Errorf("%w: order is already %s", ErrOrderInvalidTransition, order.Status)
	}

	if !canTransition(order.Status, cmd.Target) {
		return Order{}, nil, fmt.Errorf("%w: %s to %s", ErrOrderInvalidTransition, order.Status, cmd.Target)
	}

	now := s.clock()
	actor := domain.ActorAdmin
	if cmd.ActorRole != domain.RoleAdmin {
		actor = domain.ActorCustomer
	}

	order.Status = cmd.Target
	order.UpdatedAt = &now
	if cmd.Target == domain.OrderStatusCompleted {
		order.CompletedAt = &now
	}
	order.Tracking = append(order.Tracking, TrackingEvent{
		ID:        nextTrackingEventID(order.Tracking),
		Status:    cmd.Target,
		Label:     domain.StatusLabel(cmd.Target),
		Note:      strings.TrimSpace(cmd.Note),
		Timestamp: now,
		Actor:     actor,
	})

	if err := s.orders.Update(ctx, order); err != nil {
		return Order{}, nil, s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"orderId": order.ID,
		"status":  string(order.Status),
		"actor":   string(actor),
	})

	return order, order.Tracking, nil
}

// AppendTrackingNote records a back-office annotation on the order's history,
// optionally moving the status at the same time.
func (s *orderService) AppendTrackingNote(ctx context.Context, cmd AnnotateCommand) ([]TrackingEvent, error) {
	if cmd.ActorRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: tracking notes are admin-only", ErrOrderForbidden)
	}
	note := strings.TrimSpace(cmd.Note)
	if note == "" && cmd.Status == nil {
		return nil, fmt.Errorf("%w: a note or a status is required", ErrOrderInvalidInput)
	}

	if cmd.Status != nil {
		order, _, err := s.Transition(ctx, TransitionCommand{
			OrderID:   cmd.OrderID,
			Target:    *cmd.Status,
			ActorRole: cmd.ActorRole,
			ActorID:   cmd.ActorID,
			Note:      note,
		})
		if err != nil {
			return nil, err
		}
		return order.Tracking, nil
	}

	order, err := s.findOrder(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	ensureSeedEvent(&order)

	now := s.clock()
	order.UpdatedAt = &now
	order.Tracking = append(order.Tracking, TrackingEvent{
		ID:        nextTrackingEventID(order.Tracking),
		Status:    order.Status,
		Label:     domain.StatusLabel(order.Status),
		Note:      note,
		Timestamp: now,
		Actor:     domain.ActorAdmin,
	})

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, s.mapRepositoryError(err)
	}

	return order.Tracking, nil
}

func (s *orderService) ResetOrders(ctx context.Context, role Role) error {
	if role != domain.RoleAdmin {
		return fmt.Errorf("%w: reset is admin-only", ErrOrderForbidden)
	}
	if err := s.orders.Reset(ctx); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "order.collection.reset", nil)
	return nil
}

func (s *orderService) findOrder(ctx context.Context, orderID int) (Order, error) {
	if orderID <= 0 {
		return Order{}, fmt.Errorf("%w: order id must be positive", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

// ensureSeedEvent backfills the initial tracking event for orders persisted
// before tracking existed, so every history read starts at pending.
func ensureSeedEvent(order *Order) {
	if len(order.Tracking) > 0 {
		return
	}
	order.Tracking = []TrackingEvent{{
		ID:        1,
		Status:    domain.OrderStatusPending,
		Label:     domain.StatusLabel(domain.OrderStatusPending),
		Note:      "Order received",
		Timestamp: order.CreatedAt,
		Actor:     domain.ActorSystem,
	}}
}

func nextTrackingEventID(events []TrackingEvent) int {
	next := 1
	for _, event := range events {
		if event.ID >= next {
			next = event.ID + 1
		}
	}
	return next
}

// canTransition permits any forward move along the ranked path, with no
// adjacency requirement, and cancellation only before shipment. Backwards
// moves are never allowed for any role.
func canTransition(current, target domain.OrderStatus) bool {
	if current == target {
		return true
	}
	if target == domain.OrderStatusCancelled {
		return slices.Contains(cancellableFrom, current)
	}
	return statusRank[target] > statusRank[current]
}
