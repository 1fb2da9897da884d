package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/platform/auth"
	"github.com/simple-store/api/internal/platform/httpx"
	"github.com/simple-store/api/internal/services"
)

const maxAuthBodySize = 16 * 1024

// TokenIssuer mints session tokens for authenticated identities.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, error)
}

// AuthHandlers exposes registration, login and password reset endpoints.
type AuthHandlers struct {
	users  services.UserService
	issuer TokenIssuer
}

// NewAuthHandlers constructs handlers for the authentication endpoints.
func NewAuthHandlers(users services.UserService, issuer TokenIssuer) *AuthHandlers {
	return &AuthHandlers{
		users:  users,
		issuer: issuer,
	}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil || h.issuer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.Register(ctx, services.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeAuthError(ctx, w, err)
		return
	}

	token, err := h.issuer.Issue(identityForUser(user))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("token_issue_failed", "failed to issue session token", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusCreated, sessionResponse{
		Token: token,
		User:  buildUserPayload(user),
	})
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil || h.issuer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.writeAuthError(ctx, w, err)
		return
	}

	token, err := h.issuer.Issue(identityForUser(user))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("token_issue_failed", "failed to issue session token", http.StatusInternalServerError))
		return
	}

	writeJSONResponse(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  buildUserPayload(user),
	})
}

func (h *AuthHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req forgotPasswordRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "email is required", http.StatusBadRequest))
		return
	}

	// An unknown email yields the same response as a known one so the
	// endpoint cannot be used to enumerate accounts.
	if _, err := h.users.RequestPasswordReset(ctx, req.Email); err != nil && !errors.Is(err, services.ErrUserNotFound) {
		h.writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset token has been issued",
	})
}

func (h *AuthHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req resetPasswordRequest
	if err := decodeJSONBody(r, maxAuthBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := h.users.ResetPassword(ctx, req.Token, req.Password); err != nil {
		h.writeAuthError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "password has been reset",
	})
}

func (h *AuthHandlers) writeAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email already registered", http.StatusConflict))
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid email or password", http.StatusUnauthorized))
	case errors.Is(err, services.ErrResetTokenInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_reset_token", "invalid or expired reset token", http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("auth_error", "failed to process authentication request", http.StatusInternalServerError))
	}
}

func identityForUser(user domain.User) auth.Identity {
	return auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}

func buildUserPayload(user domain.User) userPayload {
	payload := userPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: formatTime(user.CreatedAt),
	}
	if user.UpdatedAt != nil {
		payload.UpdatedAt = formatTime(*user.UpdatedAt)
	}
	return payload
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
