package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/shared"
)

type stubRepo struct {
	users    map[string]*auth.User
	tokens   map[string]*auth.TokenRecord
	inserted []*auth.TokenRecord
	findErr  error
	userErr  error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:  make(map[string]*auth.User),
		tokens: make(map[string]*auth.TokenRecord),
	}
}

func (s *stubRepo) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user *auth.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return shared.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) FindTokenRecord(ctx context.Context, token string) (*auth.TokenRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	record, ok := s.tokens[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

func (s *stubRepo) InsertTokenRecord(ctx context.Context, record *auth.TokenRecord) error {
	s.tokens[record.Token] = record
	s.inserted = append(s.inserted, record)
	return nil
}

func (s *stubRepo) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	for token, record := range s.tokens {
		if record.ExpiresAt.Before(before) {
			delete(s.tokens, token)
			deleted++
		}
	}
	return deleted, nil
}

var _ auth.Repository = (*stubRepo)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluate(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &auth.TokenRecord{ID: "t1", Token: "tok", UserID: "u1", ExpiresAt: base.Add(10 * time.Minute)}
	mortal := &auth.User{ID: "u1", Email: "a@b.com", Role: auth.RoleMortal}
	admin := &auth.User{ID: "u1", Email: "a@b.com", Role: auth.RoleAdmin}

	tests := []struct {
		name    string
		record  *auth.TokenRecord
		user    *auth.User
		allowed []auth.Role
		now     time.Time
		wantErr error
	}{
		{"no record", nil, mortal, nil, base, auth.ErrInvalidCredential},
		{"expired", record, mortal, nil, base.Add(10*time.Minute + time.Second), auth.ErrExpiredCredential},
		{"expiry boundary is exclusive", record, mortal, nil, base.Add(10 * time.Minute), auth.ErrExpiredCredential},
		{"just before expiry", record, mortal, nil, base.Add(9*time.Minute + 59*time.Second), nil},
		{"missing principal", record, nil, nil, base, auth.ErrUnknownPrincipal},
		{"role not allowed", record, mortal, []auth.Role{auth.RoleAdmin}, base, auth.ErrInsufficientRole},
		{"role allowed", record, mortal, []auth.Role{auth.RoleAdmin, auth.RoleMortal}, base, nil},
		{"admin allowed", record, admin, []auth.Role{auth.RoleAdmin}, base, nil},
		{"empty role set authenticates only", record, mortal, nil, base, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			principal, err := auth.Evaluate(tc.record, tc.user, tc.allowed, tc.now)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", principal.UserID)
			assert.Equal(t, string(tc.user.Role), principal.Role)
		})
	}
}

func TestEvaluateUnrecognizedRoleIsNotDenial(t *testing.T) {
	base := time.Now().UTC()
	record := &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: base.Add(time.Minute)}
	user := &auth.User{ID: "u1", Role: auth.Role("demigod")}

	_, err := auth.Evaluate(record, user, nil, base)
	require.Error(t, err)
	for _, denial := range []error{
		auth.ErrInvalidCredential, auth.ErrExpiredCredential,
		auth.ErrUnknownPrincipal, auth.ErrInsufficientRole,
	} {
		assert.False(t, errors.Is(err, denial))
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	base := time.Now().UTC()
	record := &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: base.Add(time.Minute)}
	user := &auth.User{ID: "u1", Role: auth.RoleMortal}

	first, err := auth.Evaluate(record, user, []auth.Role{auth.RoleMortal}, base)
	require.NoError(t, err)
	second, err := auth.Evaluate(record, user, []auth.Role{auth.RoleMortal}, base)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func gateRequest(t *testing.T, gate *auth.Gate, roles []auth.Role, authorization string) (*httptest.ResponseRecorder, *shared.Principal) {
	t.Helper()
	var seen *shared.Principal
	handler := gate.Require(roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res, seen
}

func decodeMessage(t *testing.T, res *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body
}

func TestGateMissingCredential(t *testing.T) {
	gate := auth.NewGate(newStubRepo(), nil)

	for _, roles := range [][]auth.Role{nil, {auth.RoleAdmin}} {
		res, _ := gateRequest(t, gate, roles, "")
		require.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Contains(t, decodeMessage(t, res)["message"], "no credential provided")
	}
}

func TestGateMalformedHeader(t *testing.T) {
	gate := auth.NewGate(newStubRepo(), nil)

	for _, header := range []string{"Bearer", "Token abc", "abc"} {
		res, _ := gateRequest(t, gate, nil, header)
		assert.Equal(t, http.StatusUnauthorized, res.Code, "header %q", header)
	}
}

func TestGateUnknownToken(t *testing.T) {
	gate := auth.NewGate(newStubRepo(), nil)

	res, _ := gateRequest(t, gate, nil, "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "invalid or unknown token", decodeMessage(t, res)["message"])
}

func TestGateExpiredToken(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &auth.User{ID: "u1", Role: auth.RoleMortal}
	repo.tokens["tok"] = &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(-time.Second)}
	gate := auth.NewGate(repo, nil)

	res, _ := gateRequest(t, gate, nil, "Bearer tok")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token expired", decodeMessage(t, res)["message"])

	// The check must not delete the record.
	_, err := repo.FindTokenRecord(context.Background(), "tok")
	assert.NoError(t, err)
}

func TestGateUnknownPrincipal(t *testing.T) {
	repo := newStubRepo()
	repo.tokens["tok"] = &auth.TokenRecord{Token: "tok", UserID: "ghost", ExpiresAt: time.Now().Add(time.Minute)}
	gate := auth.NewGate(repo, nil)

	res, _ := gateRequest(t, gate, nil, "Bearer tok")
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "user not found", decodeMessage(t, res)["message"])
}

func TestGateRoleMatrix(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &auth.User{ID: "u1", Role: auth.RoleMortal}
	repo.tokens["tok"] = &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}
	gate := auth.NewGate(repo, nil)

	res, _ := gateRequest(t, gate, []auth.Role{auth.RoleAdmin}, "Bearer tok")
	require.Equal(t, http.StatusForbidden, res.Code)

	res, seen := gateRequest(t, gate, []auth.Role{auth.RoleAdmin, auth.RoleMortal}, "Bearer tok")
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, "mortal", seen.Role)
}

func TestGateGrantedTwice(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &auth.User{ID: "u1", Role: auth.RoleMortal}
	repo.tokens["tok"] = &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}
	gate := auth.NewGate(repo, nil)

	for i := 0; i < 2; i++ {
		res, seen := gateRequest(t, gate, nil, "Bearer tok")
		require.Equal(t, http.StatusOK, res.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.UserID)
	}
}

func TestGateStoreFailure(t *testing.T) {
	repo := newStubRepo()
	repo.findErr = errors.New("connection refused")
	gate := auth.NewGate(repo, nil)

	res, _ := gateRequest(t, gate, nil, "Bearer tok")
	require.Equal(t, http.StatusInternalServerError, res.Code)
	body := decodeMessage(t, res)
	assert.Equal(t, "failed to verify token", body["message"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestGateRoleChangeAppliesToIssuedToken(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &auth.User{ID: "u1", Role: auth.RoleMortal}
	repo.tokens["tok"] = &auth.TokenRecord{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}
	gate := auth.NewGate(repo, nil)

	res, _ := gateRequest(t, gate, []auth.Role{auth.RoleAdmin}, "Bearer tok")
	require.Equal(t, http.StatusForbidden, res.Code)

	// Role lives on the principal, so a promotion is visible to the very
	// next request with the same token.
	repo.users["u1"].Role = auth.RoleAdmin
	res, _ = gateRequest(t, gate, []auth.Role{auth.RoleAdmin}, "Bearer tok")
	assert.Equal(t, http.StatusOK, res.Code)
}
