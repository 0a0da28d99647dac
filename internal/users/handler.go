package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler wires admin-only user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	gate    *auth.Gate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *auth.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(auth.RoleAdmin))
		r.Get("/", h.handleList)
		r.Put("/{id}/role", h.handleChangeRole)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Role) == "" {
		httpx.Message(w, http.StatusBadRequest, "role is required")
		return
	}

	user, err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Message(w, http.StatusNotFound, "user not found")
			return
		}
		if _, parseErr := auth.ParseRole(req.Role); parseErr != nil {
			httpx.Message(w, http.StatusBadRequest, "unrecognized role")
			return
		}
		h.logger.Error("change user role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "role updated successfully",
		"user":    user,
	})
}
