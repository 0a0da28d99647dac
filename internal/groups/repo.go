package groups

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines persistence operations for groups.
type Repository interface {
	List(ctx context.Context) ([]Group, error)
	Insert(ctx context.Context, group *Group) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, member *Member) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]Member, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all groups.
func (r *PGRepository) List(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, owner_id, created_at FROM groups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// Insert persists a new group.
func (r *PGRepository) Insert(ctx context.Context, group *Group) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO groups (id, name, description, owner_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		group.ID, group.Name, group.Description, group.OwnerID, group.CreatedAt)
	return err
}

// Delete removes a group and its memberships.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddMember links a user to a group.
func (r *PGRepository) AddMember(ctx context.Context, member *Member) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO group_members (group_id, user_id, added_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		member.GroupID, member.UserID, member.AddedAt)
	return err
}

// RemoveMember unlinks a user from a group.
func (r *PGRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns the memberships of a group.
func (r *PGRepository) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT group_id, user_id, added_at FROM group_members WHERE group_id = $1 ORDER BY added_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
