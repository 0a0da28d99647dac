package groups

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service wraps group business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all groups.
func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.repo.List(ctx)
}

// Create adds a new group owned by ownerID. The owner becomes the first
// member.
func (s *Service) Create(ctx context.Context, ownerID, name, description string) (*Group, error) {
	now := time.Now().UTC()
	group := &Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	if err := s.repo.Insert(ctx, group); err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, &Member{GroupID: group.ID, UserID: ownerID, AddedAt: now}); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AddMember links a user to a group.
func (s *Service) AddMember(ctx context.Context, groupID, userID string) (*Member, error) {
	member := &Member{GroupID: groupID, UserID: userID, AddedAt: time.Now().UTC()}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember unlinks a user from a group.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID string) error {
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// ListMembers returns the memberships of a group.
func (s *Service) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, groupID)
}
