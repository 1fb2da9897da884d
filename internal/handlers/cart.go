package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/httpx"
	"github.com/simple-store/api/internal/services"
)

const maxCartBodySize = 16 * 1024

// CartHandlers exposes cart and buy-now endpoints.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs handlers for the shared storefront cart.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.viewCart)
	r.Get("/count", h.cartCount)
	r.Post("/items", h.addItem)
	r.Put("/items/{lineID}", h.updateQuantity)
	r.Delete("/items/{lineID}", h.removeLine)
	r.Delete("/", h.clearCart)

	if h.authn != nil {
		r.Group(func(g chi.Router) {
			g.Use(h.authn.RequireAuth())
			g.Post("/buy-now", h.captureBuyNow)
			g.Delete("/buy-now", h.discardBuyNow)
		})
	}
}

func (h *CartHandlers) viewCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	view, err := h.carts.View(ctx)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildCartViewPayload(view))
}

func (h *CartHandlers) cartCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	count, err := h.carts.Count(ctx)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]int{"count": count})
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req addCartItemRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	lineCount, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartMutationResponse{Count: lineCount})
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	lineID, err := urlParamInt(r, "lineID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req updateQuantityRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	lineCount, err := h.carts.UpdateQuantity(ctx, lineID, req.Quantity)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartMutationResponse{Count: lineCount})
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	lineID, err := urlParamInt(r, "lineID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	lineCount, err := h.carts.RemoveLine(ctx, lineID)
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartMutationResponse{Count: lineCount})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.carts.Clear(ctx); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartMutationResponse{Count: 0})
}

func (h *CartHandlers) captureBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req buyNowRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	intent, err := h.carts.CaptureBuyNow(ctx, services.CaptureBuyNowCommand{
		UserID:    identity.UserID,
		ProductID: req.ProductID,
		Quantity:  quantity,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buyNowResponse{Intent: intent})
}

func (h *CartHandlers) discardBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	if err := h.carts.DiscardBuyNow(ctx, identity.UserID); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var stockErr *services.StockError
	switch {
	case errors.As(err, &stockErr):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", stockErr.Error(), http.StatusConflict).
			WithDetails(map[string]any{
				"productId": stockErr.ProductID,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			}))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartLineNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_line_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBuyNowNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("buy_now_not_found", "no buy now item captured", http.StatusNotFound))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to update cart", http.StatusInternalServerError))
	}
}

func buildCartViewPayload(view services.CartView) cartViewResponse {
	lines := make([]cartLinePayload, 0, len(view.Lines))
	for _, line := range view.Lines {
		entry := cartLinePayload{
			ID:        line.Line.ID,
			ProductID: line.Line.ProductID,
			Quantity:  line.Line.Quantity,
			AddedAt:   formatTime(line.Line.AddedAt),
			Missing:   line.Missing,
		}
		if !line.Missing {
			product := line.Product
			entry.Product = &product
		}
		lines = append(lines, entry)
	}
	return cartViewResponse{
		Items: lines,
		Total: view.Total.StringFixed(2),
	}
}

type addCartItemRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type buyNowRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type cartMutationResponse struct {
	Count int `json:"count"`
}

type cartViewResponse struct {
	Items []cartLinePayload `json:"items"`
	Total string            `json:"total"`
}

type cartLinePayload struct {
	ID        int               `json:"id"`
	ProductID int               `json:"productId"`
	Quantity  int               `json:"quantity"`
	AddedAt   string            `json:"addedAt,omitempty"`
	Missing   bool              `json:"missing,omitempty"`
	Product   *services.Product `json:"product,omitempty"`
}

type buyNowResponse struct {
	Intent services.BuyNowIntent `json:"buyNow"`
}
