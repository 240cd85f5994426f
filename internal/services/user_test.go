package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(users *memUsers, roles memRoles) *UserService {
	svc := NewUserService(users, roles, plainEncoder{})
	svc.now = func() time.Time { return time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func signup(username string, roles ...string) types.SignupRequest {
	return types.SignupRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
		Role:     roles,
	}
}

func TestUserService_Signup_Defaults(t *testing.T) {
	t.Parallel()

	users := newMemUsers()
	svc := newUserService(users, seededRoles())

	user, err := svc.Signup(context.Background(), signup("alice"))
	require.NoError(t, err)

	assert.Equal(t, types.RoleUser, user.Role.Name)
	assert.Equal(t, int64(1), user.Role.ID)
	assert.Equal(t, "hashed:secret1", user.PasswordHash)
	assert.True(t, user.Enabled)
	assert.True(t, user.AccountNonLocked)
	assert.True(t, user.AccountNonExpired)
	assert.True(t, user.CredentialsNonExpired)
	assert.False(t, user.TwoFactorEnabled)
	assert.Equal(t, "email", user.SignUpMethod)

	wantExpiry := time.Date(2027, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NotNil(t, user.AccountExpiryDate)
	require.NotNil(t, user.CredentialsExpiryDate)
	assert.True(t, wantExpiry.Equal(*user.AccountExpiryDate))
	assert.True(t, wantExpiry.Equal(*user.CredentialsExpiryDate))
}

func TestUserService_Signup_RoleResolution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requested []string
		want      types.AppRole
	}{
		{nil, types.RoleUser},
		{[]string{"user"}, types.RoleUser},
		{[]string{"admin"}, types.RoleAdmin},
		{[]string{"Admin"}, types.RoleAdmin},
		{[]string{"user", "admin"}, types.RoleAdmin},
		{[]string{"superuser"}, types.RoleUser},
	}
	for i, tc := range cases {
		svc := newUserService(newMemUsers(), seededRoles())
		user, err := svc.Signup(context.Background(), signup("user"+strings.Repeat("x", i), tc.requested...))
		require.NoError(t, err, tc.requested)
		assert.Equal(t, tc.want, user.Role.Name, tc.requested)
	}
}

func TestUserService_Signup_MissingRole(t *testing.T) {
	t.Parallel()

	users := newMemUsers()
	svc := newUserService(users, memRoles{types.RoleUser: {ID: 1, Name: types.RoleUser}})

	_, err := svc.Signup(context.Background(), signup("root", "admin"))
	assert.ErrorIs(t, err, failure.ErrConfigurationMissing)
	assert.Equal(t, "Error: Role is not found", err.Error())

	taken, err := users.ExistsByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.False(t, taken, "no user row is written when the role is missing")
}

func TestUserService_Signup_Taken(t *testing.T) {
	t.Parallel()

	svc := newUserService(newMemUsers(), seededRoles())
	_, err := svc.Signup(context.Background(), signup("alice"))
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), signup("alice"))
	assert.ErrorIs(t, err, failure.ErrInvalidRequest)
	assert.Equal(t, "Error: username is already taken", err.Error())

	req := signup("alice2")
	req.Email = "alice@example.com"
	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, failure.ErrInvalidRequest)
	assert.Equal(t, "Error: Email is already taken", err.Error())
}

func TestUserService_Signup_Validation(t *testing.T) {
	t.Parallel()

	svc := newUserService(newMemUsers(), seededRoles())
	invalid := map[string]types.SignupRequest{
		"short username": {Username: "ab", Email: "ab@example.com", Password: "secret1"},
		"long username":  {Username: strings.Repeat("a", 51), Email: "a@example.com", Password: "secret1"},
		"missing email":  {Username: "alice", Password: "secret1"},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "secret1"},
		"long email":     {Username: "alice", Email: strings.Repeat("a", 40) + "@example.com", Password: "secret1"},
		"short password": {Username: "alice", Email: "alice@example.com", Password: "12345"},
		"long password":  {Username: "alice", Email: "alice@example.com", Password: strings.Repeat("p", 41)},
	}
	for name, req := range invalid {
		_, err := svc.Signup(context.Background(), req)
		assert.ErrorIs(t, err, failure.ErrInvalidRequest, name)
	}
}

func TestUserService_Lookups(t *testing.T) {
	t.Parallel()

	svc := newUserService(newMemUsers(), seededRoles())
	created, err := svc.Signup(context.Background(), signup("alice"))
	require.NoError(t, err)

	byID, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, failure.ErrNotFound)

	_, err = svc.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, failure.ErrNotFound)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
