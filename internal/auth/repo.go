package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/shared"
)

// Repository defines the credential and principal stores consumed by the
// token issuer and the authorization gate.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	FindTokenRecord(ctx context.Context, token string) (*TokenRecord, error)
	InsertTokenRecord(ctx context.Context, record *TokenRecord) error
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, full_name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail fetches a user by email.
func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindUserByID fetches a user by id.
func (r *PGRepository) FindUserByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// CreateUser persists a new user account.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, full_name, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		user.ID, user.Username, user.FullName, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return shared.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// FindTokenRecord looks up an issued token by its bearer string.
func (r *PGRepository) FindTokenRecord(ctx context.Context, token string) (*TokenRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, token, user_id, expires_at, created_at FROM auth_tokens WHERE token = $1`, token)
	var record TokenRecord
	err := row.Scan(&record.ID, &record.Token, &record.UserID, &record.ExpiresAt, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// InsertTokenRecord persists a freshly issued token.
func (r *PGRepository) InsertTokenRecord(ctx context.Context, record *TokenRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_tokens (id, token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.Token, record.UserID, record.ExpiresAt, record.CreatedAt)
	return err
}

// DeleteExpiredTokens removes records whose expiry lies before the cutoff.
// Only the background sweeper calls this; the gate never deletes.
func (r *PGRepository) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
