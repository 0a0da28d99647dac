package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidStatus rejects status values outside the known set.
var ErrInvalidStatus = errors.New("invalid task status")

// Service wraps task business rules. All operations are scoped to the owner
// taken from the authenticated principal; one user can never touch another
// user's tasks.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListForUser returns the tasks owned by userID.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CreateInput carries the fields accepted when adding a task.
type CreateInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	Status      string
	Category    string
}

// Create adds a new task for userID.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Task, error) {
	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      status,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus moves a task owned by userID to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id, userID, status string) (*Task, error) {
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, id, userID, status)
}

// Delete removes a task owned by userID.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}
