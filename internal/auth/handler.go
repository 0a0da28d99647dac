package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler wires HTTP endpoints for registration and login.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	throttle  *Throttle
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, throttle *Throttle) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		throttle:  throttle,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"fullName"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserPayload(user *User) userPayload {
	return userPayload{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid registration data")
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateEmail) {
			httpx.Message(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("register user", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "registration failed", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful",
		"user":    toUserPayload(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// clientIP strips the ephemeral port from the remote address so throttle
// counters survive across connections. RealIP may have already rewritten
// RemoteAddr to a bare forwarded address, in which case the split fails and
// the value is used as-is.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ip := clientIP(r)
	allowed, err := h.throttle.Allow(r.Context(), req.Email, ip)
	if err != nil {
		h.logger.Warn("login throttle", slog.Any("error", err))
	} else if !allowed {
		httpx.Message(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if recErr := h.throttle.RecordFailure(r.Context(), req.Email, ip); recErr != nil {
			h.logger.Warn("record login failure", slog.Any("error", recErr))
		}
		switch {
		case errors.Is(err, shared.ErrNotFound):
			httpx.Message(w, http.StatusNotFound, "user not found")
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Message(w, http.StatusUnauthorized, "incorrect password")
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Failure(w, http.StatusInternalServerError, "login failed", err)
		}
		return
	}

	token, err := h.service.IssueToken(r.Context(), user, time.Now().UTC())
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "login failed", err)
		return
	}

	if err := h.throttle.Reset(r.Context(), req.Email, ip); err != nil {
		h.logger.Warn("reset login throttle", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"token":   token,
		"user":    toUserPayload(user),
	})
}
