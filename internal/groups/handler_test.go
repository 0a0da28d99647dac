package groups_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/groups"
	"github.com/taskhive/taskhive/internal/shared"
)

// authStore backs the real gate so the role matrix is tested end to end.
type authStore struct {
	users  map[string]*auth.User
	tokens map[string]*auth.TokenRecord
}

func (s *authStore) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (s *authStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *authStore) CreateUser(ctx context.Context, user *auth.User) error { return nil }

func (s *authStore) FindTokenRecord(ctx context.Context, token string) (*auth.TokenRecord, error) {
	record, ok := s.tokens[token]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

func (s *authStore) InsertTokenRecord(ctx context.Context, record *auth.TokenRecord) error {
	return nil
}

func (s *authStore) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

var _ auth.Repository = (*authStore)(nil)

type stubGroupsRepo struct {
	groups  map[string]*groups.Group
	members map[string][]groups.Member
}

func newStubGroupsRepo() *stubGroupsRepo {
	return &stubGroupsRepo{groups: make(map[string]*groups.Group), members: make(map[string][]groups.Member)}
}

func (s *stubGroupsRepo) List(ctx context.Context) ([]groups.Group, error) {
	var out []groups.Group
	for _, g := range s.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (s *stubGroupsRepo) Insert(ctx context.Context, group *groups.Group) error {
	s.groups[group.ID] = group
	return nil
}

func (s *stubGroupsRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.groups[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *stubGroupsRepo) AddMember(ctx context.Context, member *groups.Member) error {
	s.members[member.GroupID] = append(s.members[member.GroupID], *member)
	return nil
}

func (s *stubGroupsRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	current := s.members[groupID]
	for i, m := range current {
		if m.UserID == userID {
			s.members[groupID] = append(current[:i], current[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *stubGroupsRepo) ListMembers(ctx context.Context, groupID string) ([]groups.Member, error) {
	return s.members[groupID], nil
}

var _ groups.Repository = (*stubGroupsRepo)(nil)

func newGroupsRouter(t *testing.T, repo groups.Repository) chi.Router {
	t.Helper()
	store := &authStore{
		users: map[string]*auth.User{
			"admin-1":  {ID: "admin-1", Role: auth.RoleAdmin},
			"mortal-1": {ID: "mortal-1", Role: auth.RoleMortal},
		},
		tokens: map[string]*auth.TokenRecord{
			"admin-token":  {Token: "admin-token", UserID: "admin-1", ExpiresAt: time.Now().Add(time.Minute)},
			"mortal-token": {Token: "mortal-token", UserID: "mortal-1", ExpiresAt: time.Now().Add(time.Minute)},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := auth.NewGate(store, logger)
	handler := groups.NewHandler(logger, groups.NewService(repo), gate)

	r := chi.NewRouter()
	r.Route("/groups", handler.MountRoutes)
	return r
}

func doRequest(router chi.Router, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestGroupsRoleMatrix(t *testing.T) {
	router := newGroupsRouter(t, newStubGroupsRepo())

	// Both roles may read.
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/groups/", "mortal-token", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/groups/", "admin-token", "").Code)

	// Only admin may write.
	res := doRequest(router, http.MethodPost, "/groups/", "mortal-token", `{"name":"ops"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = doRequest(router, http.MethodPost, "/groups/", "admin-token", `{"name":"ops"}`)
	assert.Equal(t, http.StatusCreated, res.Code)

	// No token at all is unauthenticated, not forbidden.
	res = doRequest(router, http.MethodGet, "/groups/", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCreateGroupAddsOwnerAsMember(t *testing.T) {
	repo := newStubGroupsRepo()
	router := newGroupsRouter(t, repo)

	res := doRequest(router, http.MethodPost, "/groups/", "admin-token", `{"name":"ops","description":"on call"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var body struct {
		Group groups.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "admin-1", body.Group.OwnerID)

	members := repo.members[body.Group.ID]
	require.Len(t, members, 1)
	assert.Equal(t, "admin-1", members[0].UserID)
}

func TestGroupMembership(t *testing.T) {
	repo := newStubGroupsRepo()
	repo.groups["g1"] = &groups.Group{ID: "g1", Name: "ops", OwnerID: "admin-1"}
	router := newGroupsRouter(t, repo)

	res := doRequest(router, http.MethodPost, "/groups/g1/members", "admin-token", `{"userId":"mortal-1"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = doRequest(router, http.MethodGet, "/groups/g1/members", "mortal-token", "")
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Members []groups.Member `json:"members"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Members, 1)

	res = doRequest(router, http.MethodDelete, "/groups/g1/members/mortal-1", "admin-token", "")
	require.Equal(t, http.StatusOK, res.Code)

	res = doRequest(router, http.MethodDelete, "/groups/g1/members/mortal-1", "admin-token", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestDeleteGroup(t *testing.T) {
	repo := newStubGroupsRepo()
	repo.groups["g1"] = &groups.Group{ID: "g1", Name: "ops", OwnerID: "admin-1"}
	router := newGroupsRouter(t, repo)

	res := doRequest(router, http.MethodDelete, "/groups/g1", "mortal-token", "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doRequest(router, http.MethodDelete, "/groups/g1", "admin-token", "")
	require.Equal(t, http.StatusOK, res.Code)

	res = doRequest(router, http.MethodDelete, "/groups/g1", "admin-token", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}
