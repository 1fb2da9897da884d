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

// ProductHandlers exposes the public catalog and per-product review reads.
type ProductHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	reviews services.ReviewService
}

// NewProductHandlers constructs handlers for the public product endpoints.
func NewProductHandlers(authn *auth.Authenticator, catalog services.CatalogService, reviews services.ReviewService) *ProductHandlers {
	return &ProductHandlers{
		authn:   authn,
		catalog: catalog,
		reviews: reviews,
	}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/reviews", h.listReviews)
	if h.authn != nil {
		r.With(h.authn.RequireAuth()).Get("/{productID}/reviews/eligibility", h.reviewEligibility)
	}
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.ProductFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Products:   products,
		Categories: services.Categories(products),
	})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID, err := urlParamInt(r, "productID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: product})
}

func (h *ProductHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID, err := urlParamInt(r, "productID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	summary, err := h.reviews.ListForProduct(ctx, productID)
	if err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, reviewSummaryResponse{
		Reviews:       summary.Reviews,
		AverageRating: summary.AverageRating.String(),
		RatingCounts:  summary.RatingCounts,
	})
}

func (h *ProductHandlers) reviewEligibility(w http.ResponseWriter, r *http.Request) {
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

	productID, err := urlParamInt(r, "productID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	eligible, err := h.reviews.CanReview(ctx, identity.UserID, productID)
	if err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"canReview": eligible})
}

func (h *ProductHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalog", http.StatusInternalServerError))
	}
}

func (h *ProductHandlers) writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("review_not_found", "review not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to read reviews", http.StatusInternalServerError))
	}
}

type productListResponse struct {
	Products   []services.Product `json:"products"`
	Categories []string           `json:"categories"`
}

type productResponse struct {
	Product services.Product `json:"product"`
}

type reviewSummaryResponse struct {
	Reviews       []services.Review `json:"reviews"`
	AverageRating string            `json:"averageRating"`
	RatingCounts  map[int]int       `json:"ratingCounts"`
}
