package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/httpx"
	"github.com/simple-store/api/internal/services"
)

const maxCheckoutBodySize = 32 * 1024

// CheckoutHandlers exposes the order placement endpoint.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
	guards   []func(http.Handler) http.Handler
}

// NewCheckoutHandlers constructs handlers enforcing authentication before
// placing orders. Guards run after authentication, so an idempotency guard
// sees the caller's identity.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService, guards ...func(http.Handler) http.Handler) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:    authn,
		checkout: checkout,
		guards:   guards,
	}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	for _, guard := range h.guards {
		if guard != nil {
			r.Use(guard)
		}
	}
	r.Post("/", h.placeOrder)
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CheckoutCommand{
		UserID:          identity.UserID,
		AddressID:       req.AddressID,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
	}

	result, err := h.checkout.Checkout(ctx, cmd)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, checkoutResponse{
		OrderID:     result.OrderID,
		TotalAmount: result.TotalAmount.StringFixed(2),
		Source:      string(result.Source),
	})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var stockErr *services.StockError
	var persistErr *services.PersistenceError
	switch {
	case errors.As(err, &stockErr):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", stockErr.Error(), http.StatusConflict).
			WithDetails(map[string]any{
				"productId": stockErr.ProductID,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			}))
	case errors.As(err, &persistErr):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_failed", "failed to persist the order", http.StatusInternalServerError).
			WithDetails(map[string]any{
				"collection": persistErr.Collection,
				"rolledBack": persistErr.RolledBack,
			}))
	case errors.Is(err, services.ErrCheckoutUnauthenticated):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart is empty", http.StatusBadRequest))
	case errors.Is(err, services.ErrAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "selected address not found", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrMissingShippingAddress),
		errors.Is(err, services.ErrMissingPaymentMethod),
		errors.Is(err, services.ErrEmptyOrder):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to place order", http.StatusInternalServerError))
	}
}

type checkoutRequest struct {
	AddressID       *int   `json:"addressId,omitempty"`
	ShippingAddress string `json:"shippingAddress,omitempty"`
	PaymentMethod   string `json:"paymentMethod,omitempty"`
}

type checkoutResponse struct {
	OrderID     int    `json:"orderId"`
	TotalAmount string `json:"totalAmount"`
	Source      string `json:"source"`
}
