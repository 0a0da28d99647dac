package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/internal/shared"
)

// Service wraps authentication business rules: credential checks,
// registration and token issuance.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

// NewService constructs a new Service. The secret signs issued tokens and
// ttl fixes the validity window of every token.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), tokenTTL: ttl}
}

// Authenticate validates email/password credentials. An unknown email yields
// shared.ErrNotFound, a wrong password shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	FullName string
	Email    string
	Password string
}

// Register creates a new account with the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         RoleMortal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken mints a signed bearer token for a verified user and persists
// the matching record. The token is opaque to the gate; validation happens
// against the stored record, not the signature. No uniqueness probe is made
// and earlier tokens for the same user stay valid.
func (s *Service) IssueToken(ctx context.Context, user *User, now time.Time) (string, error) {
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	record := &TokenRecord{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.repo.InsertTokenRecord(ctx, record); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}
