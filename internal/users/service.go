package users

import (
	"context"

	"github.com/taskhive/taskhive/internal/auth"
)

// Store abstracts persistence so tests can substitute an in-memory fake.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id, role string) (*User, error)
}

// Service wraps user administration rules.
type Service struct {
	store Store
}

// NewService constructs a new Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// ChangeRole assigns a new role to a user. The value must belong to the
// closed role set.
func (s *Service) ChangeRole(ctx context.Context, id, role string) (*User, error) {
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateRole(ctx, id, string(parsed))
}

var _ Store = (*Repository)(nil)
