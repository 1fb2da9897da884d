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

const maxReviewBodySize = 16 * 1024

// ReviewHandlers exposes authenticated review submission.
type ReviewHandlers struct {
	authn   *auth.Authenticator
	reviews services.ReviewService
}

// NewReviewHandlers constructs handlers enforcing authentication before invoking the review service.
func NewReviewHandlers(authn *auth.Authenticator, reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{
		authn:   authn,
		reviews: reviews,
	}
}

// Routes wires the /reviews endpoints onto the provided router.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.createReview)
}

func (h *ReviewHandlers) createReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req createReviewRequest
	if err := decodeJSONBody(r, maxReviewBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	review, err := h.reviews.Create(ctx, services.CreateReviewCommand{
		ProductID: req.ProductID,
		UserID:    identity.UserID,
		UserName:  identity.Username,
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, reviewResponse{Review: review})
}

func (h *ReviewHandlers) writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReviewDuplicate):
		httpx.WriteError(ctx, w, httpx.NewError("review_exists", "product already reviewed", http.StatusConflict))
	case errors.Is(err, services.ErrReviewNotPurchased):
		httpx.WriteError(ctx, w, httpx.NewError("purchase_required", "only purchasers can review this product", http.StatusForbidden))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("review_not_found", "review not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to submit review", http.StatusInternalServerError))
	}
}

type createReviewRequest struct {
	ProductID int    `json:"productId"`
	Rating    int    `json:"rating"`
	Text      string `json:"reviewText"`
}

type reviewResponse struct {
	Review services.Review `json:"review"`
}
