package tasks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines persistence operations for tasks.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Task, error)
	Insert(ctx context.Context, task *Task) error
	UpdateStatus(ctx context.Context, id, userID, status string) (*Task, error)
	Delete(ctx context.Context, id, userID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, user_id, name, description, due_date, status, category, created_at, updated_at`

// ListByUser returns all tasks owned by the given user.
func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.DueDate, &t.Status, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Insert persists a new task.
func (r *PGRepository) Insert(ctx context.Context, task *Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, name, description, due_date, status, category, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		task.ID, task.UserID, task.Name, task.Description, task.DueDate, task.Status, task.Category, task.CreatedAt)
	return err
}

// UpdateStatus changes the status of a task owned by userID.
func (r *PGRepository) UpdateStatus(ctx context.Context, id, userID, status string) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $3, updated_at = now() WHERE id = $1 AND user_id = $2 RETURNING `+taskColumns,
		id, userID, status)
	var t Task
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.DueDate, &t.Status, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Delete removes a task owned by userID.
func (r *PGRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
