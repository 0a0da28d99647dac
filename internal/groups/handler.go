package groups

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler manages group endpoints. Reads are open to any authenticated role;
// writes require the admin role. The role policy is declared here at route
// registration, not inside the gate.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *auth.Gate
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *auth.Gate) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers group routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(auth.RoleAdmin, auth.RoleMortal))
		r.Get("/", h.handleList)
		r.Get("/{id}/members", h.handleListMembers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(auth.RoleAdmin))
		r.Post("/", h.handleCreate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/members", h.handleAddMember)
		r.Delete("/{id}/members/{userID}", h.handleRemoveMember)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": items})
}

type createRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "group name is required")
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	group, err := h.service.Create(r.Context(), principal.UserID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("create group", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to create group", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "group created successfully",
		"group":   group,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Message(w, http.StatusNotFound, "group not found")
			return
		}
		h.logger.Error("delete group", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to delete group", err)
		return
	}
	httpx.Message(w, http.StatusOK, "group deleted successfully")
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "userId is required")
		return
	}

	member, err := h.service.AddMember(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		h.logger.Error("add group member", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to add member", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "member added successfully",
		"member":  member,
	})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	userID := chi.URLParam(r, "userID")
	if err := h.service.RemoveMember(r.Context(), groupID, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Message(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("remove group member", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to remove member", err)
		return
	}
	httpx.Message(w, http.StatusOK, "member removed successfully")
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("list group members", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to load members", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": items})
}
