package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/BradenHooton/skilltrack/internal/services"
	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	Me(ctx context.Context, userID string) (*services.UserResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	resolver *pkghttp.IPResolver
	now      func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, resolver *pkghttp.IPResolver) *AuthHandler {
	return &AuthHandler{
		service:  service,
		resolver: resolver,
		now:      time.Now,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (h *AuthHandler) requestMeta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: h.resolver.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// Register handles user registration
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password, h.requestMeta(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailTaken):
			pkghttp.WriteBadRequest(w, "Email already exists")
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "Password is too weak")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Registered", resp)
}

// Login handles user login
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, h.requestMeta(r))
	if err != nil {
		var locked *models.LockedError
		switch {
		case errors.As(err, &locked):
			h.writeLocked(w, locked)
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteBadRequest(w, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Login successful", resp)
}

func (h *AuthHandler) writeLocked(w http.ResponseWriter, locked *models.LockedError) {
	if retry := locked.RetryAfter(h.now()); retry > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
	}

	message := "Account locked. Try again later."
	if locked.AfterFailure {
		message = "Account locked due to repeated failed attempts. Try again later."
	}
	pkghttp.WriteLocked(w, message)
}

// Me returns the authenticated user
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "No token")
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "", user)
}
