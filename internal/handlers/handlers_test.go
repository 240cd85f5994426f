package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/securenotes/apiserver/internal/auth"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/services"
	"github.com/securenotes/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Healthz(pingFunc(func(context.Context) error { return nil }))(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Healthz(pingFunc(func(context.Context) error { return errors.New("down") }))(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	Healthz(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsername(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(nil, nil, nil, nil)

	rec := httptest.NewRecorder()
	h.Username(rec, httptest.NewRequest(http.MethodGet, "/api/auth/username", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/username", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{Username: "alice"}))
	rec = httptest.NewRecorder()
	h.Username(rec, req)
	assert.Equal(t, "alice", rec.Body.String())
}

type singleUser struct {
	user types.User
}

func (s singleUser) GetByID(context.Context, int64) (types.User, error) { return s.user, nil }

func (s singleUser) GetByUsername(context.Context, string) (types.User, error) { return s.user, nil }

func (s singleUser) List(context.Context) ([]types.User, error) { return []types.User{s.user}, nil }

func (s singleUser) ExistsByUsername(context.Context, string) (bool, error) { return true, nil }

func (s singleUser) ExistsByEmail(context.Context, string) (bool, error) { return true, nil }

func (s singleUser) Create(context.Context, types.User) (types.User, error) { return s.user, nil }

func TestUser_ReportsEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	lapsed := now.AddDate(0, 0, -2)
	stored := types.User{
		ID:                    7,
		Username:              "alice",
		Email:                 "alice@example.com",
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
		AccountExpiryDate:     &lapsed,
		CredentialsExpiryDate: &lapsed,
		Role:                  types.Role{ID: 1, Name: types.RoleUser},
	}
	h := NewAuthHandler(services.NewUserService(singleUser{user: stored}, nil, nil), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.NewPrincipal(stored, now)))
	rec := httptest.NewRecorder()
	h.User(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info types.UserInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.False(t, info.AccountNonExpired, "lapsed account expiry date is reported as expired")
	assert.False(t, info.CredentialsNonExpired, "lapsed credentials expiry date is reported as expired")
	assert.True(t, info.Enabled)
	assert.True(t, info.AccountNonLocked)
	assert.Equal(t, []string{"ROLE_USER"}, info.Roles)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Content string `json:"content"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hi"}`))
	require.NoError(t, decodeJSON(req, &dst))
	assert.Equal(t, "hi", dst.Content)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":`))
	assert.ErrorIs(t, decodeJSON(req, &dst), failure.ErrInvalidRequest)
}

func TestParseIDParam(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{"42": true, "0": false, "-1": false, "abc": false}
	for raw, ok := range cases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("noteID", raw)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		id, err := parseIDParam(req, "noteID")
		if ok {
			require.NoError(t, err, raw)
			assert.Equal(t, int64(42), id)
			continue
		}
		assert.ErrorIs(t, err, failure.ErrInvalidRequest, raw)
	}
}

func TestCurrentPrincipal(t *testing.T) {
	t.Parallel()

	_, err := currentPrincipal(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, failure.ErrUnauthenticated)
}
