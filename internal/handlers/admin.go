package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/httpx"
	"github.com/simple-store/api/internal/services"
)

const maxAdminBodySize = 64 * 1024

// AdminHandlers exposes the back-office endpoints: product CRUD, dashboard
// stats, user management, review moderation and order resets.
type AdminHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	users   services.UserService
	orders  services.OrderService
	reviews services.ReviewService
}

// NewAdminHandlers constructs handlers restricted to the admin role.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, users services.UserService, orders services.OrderService, reviews services.ReviewService) *AdminHandlers {
	return &AdminHandlers{
		authn:   authn,
		catalog: catalog,
		users:   users,
		orders:  orders,
		reviews: reviews,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin))
	}
	r.Get("/stats", h.stats)

	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Get("/users", h.listUsers)
	r.Delete("/users/{userID}", h.deleteUser)

	r.Get("/reviews/pending", h.pendingReviews)
	r.Post("/reviews/{reviewID}/approve", h.approveReview)
	r.Delete("/reviews/{reviewID}", h.deleteReview)

	r.Post("/orders/reset", h.resetOrders)
}

func (h *AdminHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	stats, err := h.catalog.Stats(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{
		TotalProducts:    stats.TotalProducts,
		TotalUsers:       stats.TotalUsers,
		TotalOrders:      stats.TotalOrders,
		TotalRevenue:     stats.TotalRevenue.StringFixed(2),
		LowStockProducts: stats.LowStockProducts,
	})
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req productRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.toCommand(0))
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, productResponse{Product: product})
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
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

	var req productRequest
	if err := decodeJSONBody(r, maxAdminBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, req.toCommand(productID))
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: product})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
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

	product, err := h.catalog.DeleteProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: product})
}

func (h *AdminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, buildUserPayload(user))
	}
	writeJSONResponse(w, http.StatusOK, userListResponse{Users: payload})
}

func (h *AdminHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	userID := chi.URLParam(r, "userID")
	if err := h.users.DeleteUser(ctx, userID); err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) pendingReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service is unavailable", http.StatusServiceUnavailable))
		return
	}

	reviews, err := h.reviews.ListPending(ctx)
	if err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, reviewListResponse{Reviews: reviews})
}

func (h *AdminHandlers) approveReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service is unavailable", http.StatusServiceUnavailable))
		return
	}

	reviewID, err := urlParamInt(r, "reviewID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	review, err := h.reviews.Approve(ctx, reviewID)
	if err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, reviewResponse{Review: review})
}

func (h *AdminHandlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_unavailable", "review service is unavailable", http.StatusServiceUnavailable))
		return
	}

	reviewID, err := urlParamInt(r, "reviewID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.reviews.Delete(ctx, reviewID); err != nil {
		h.writeReviewError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) resetOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.orders.ResetOrders(ctx, domain.RoleAdmin); err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "orders collection reset"})
}

func (h *AdminHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to update catalog", http.StatusInternalServerError))
	}
}

func (h *AdminHandlers) writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrLastAdmin):
		httpx.WriteError(ctx, w, httpx.NewError("last_admin", "cannot delete the last admin user", http.StatusConflict))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process user request", http.StatusInternalServerError))
	}
}

func (h *AdminHandlers) writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("review_not_found", "review not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to process review request", http.StatusInternalServerError))
	}
}

func (h *AdminHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "operation not permitted for this role", http.StatusForbidden))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image,omitempty"`
}

func (r productRequest) toCommand(productID int) services.UpsertProductCommand {
	return services.UpsertProductCommand{
		ID:          productID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Stock:       r.Stock,
		Image:       r.Image,
	}
}

type statsResponse struct {
	TotalProducts    int    `json:"totalProducts"`
	TotalUsers       int    `json:"totalUsers"`
	TotalOrders      int    `json:"totalOrders"`
	TotalRevenue     string `json:"totalRevenue"`
	LowStockProducts int    `json:"lowStockProducts"`
}

type userListResponse struct {
	Users []userPayload `json:"users"`
}

type reviewListResponse struct {
	Reviews []services.Review `json:"reviews"`
}
