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

const maxProfileBodySize = 32 * 1024

// MeHandlers exposes authenticated profile and address book endpoints.
type MeHandlers struct {
	authn *auth.Authenticator
	users services.UserService
}

// NewMeHandlers constructs handlers enforcing authentication before invoking the user service.
func NewMeHandlers(authn *auth.Authenticator, users services.UserService) *MeHandlers {
	return &MeHandlers{
		authn: authn,
		users: users,
	}
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.getProfile)
	r.Put("/", h.updateProfile)
	r.Route("/addresses", h.addressRoutes)
}

func (h *MeHandlers) addressRoutes(r chi.Router) {
	r.Get("/", h.listAddresses)
	r.Post("/", h.createAddress)
	r.Put("/{addressID}", h.updateAddress)
	r.Delete("/{addressID}", h.deleteAddress)
	r.Post("/{addressID}/default", h.setDefaultAddress)
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	user, err := h.users.GetUser(ctx, identity.UserID)
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, profileResponse{User: buildUserPayload(user)})
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSONBody(r, maxProfileBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.UpdateProfile(ctx, services.UpdateProfileCommand{
		UserID:   identity.UserID,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, profileResponse{User: buildUserPayload(user)})
}

func (h *MeHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UserID)
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, addressListResponse{Addresses: addresses})
}

func (h *MeHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, maxProfileBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	address, err := h.users.CreateAddress(ctx, req.toCommand(identity.UserID, 0))
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, addressResponse{Address: address})
}

func (h *MeHandlers) updateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	addressID, err := urlParamInt(r, "addressID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req addressRequest
	if err := decodeJSONBody(r, maxProfileBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	address, err := h.users.UpdateAddress(ctx, req.toCommand(identity.UserID, addressID))
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, addressResponse{Address: address})
}

func (h *MeHandlers) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	addressID, err := urlParamInt(r, "addressID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if _, err := h.users.DeleteAddress(ctx, identity.UserID, addressID); err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandlers) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireService(ctx, w)
	if !ok {
		return
	}

	addressID, err := urlParamInt(r, "addressID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.users.SetDefaultAddress(ctx, identity.UserID, addressID); err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UserID)
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, addressListResponse{Addresses: addresses})
}

func (h *MeHandlers) requireService(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func (h *MeHandlers) writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email already registered", http.StatusConflict))
	case errors.Is(err, services.ErrUserAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "address not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "failed to process profile request", http.StatusInternalServerError))
	}
}

type profileResponse struct {
	User userPayload `json:"user"`
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type addressRequest struct {
	Label      string `json:"label"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

func (r addressRequest) toCommand(userID string, addressID int) services.UpsertAddressCommand {
	return services.UpsertAddressCommand{
		ID:         addressID,
		UserID:     userID,
		Label:      r.Label,
		FullName:   r.FullName,
		Phone:      r.Phone,
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

type addressListResponse struct {
	Addresses []services.Address `json:"addresses"`
}

type addressResponse struct {
	Address services.Address `json:"address"`
}
