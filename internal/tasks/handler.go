package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskhive/taskhive/internal/platform/httpx"
	"github.com/taskhive/taskhive/internal/shared"
)

// Handler manages task endpoints. Every route sits behind the authorization
// gate, so a principal is always present in the request context.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Patch("/{id}/status", h.handleUpdateStatus)
	r.Delete("/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	items, err := h.service.ListForUser(r.Context(), principal.UserID)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to load tasks", err)
		return
	}
	if len(items) == 0 {
		httpx.Message(w, http.StatusNotFound, "no tasks found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": items})
}

type createRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "task name is required")
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	task, err := h.service.Create(r.Context(), principal.UserID, CreateInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			httpx.Message(w, http.StatusBadRequest, "invalid task status")
			return
		}
		h.logger.Error("create task", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to add task", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "task added successfully",
		"task":    task,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "status is required")
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	task, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), principal.UserID, req.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			httpx.Message(w, http.StatusBadRequest, "invalid task status")
			return
		}
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Message(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("update task status", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to update task", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "task updated successfully",
		"task":    task,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), principal.UserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Message(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("delete task", slog.Any("error", err))
		httpx.Failure(w, http.StatusInternalServerError, "failed to delete task", err)
		return
	}
	httpx.Message(w, http.StatusOK, "task deleted successfully")
}
