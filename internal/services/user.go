package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/store"
	"github.com/securenotes/apiserver/types"
)

const (
	signUpMethodEmail  = "email"
	accountValidity    = 1 // years
	minUsernameLength  = 3
	maxUsernameLength  = 50
	maxEmailLength     = 50
	minPasswordLength  = 6
	maxPasswordLength  = 40
	requestedAdminRole = "admin"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// RoleRepository reads the seeded roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name types.AppRole) (types.Role, error)
}

// PasswordEncoder hashes plaintext passwords.
type PasswordEncoder interface {
	Encode(plain string) (string, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo    UserRepository
	roles   RoleRepository
	encoder PasswordEncoder
	now     func() time.Time
}

func NewUserService(repo UserRepository, roles RoleRepository, encoder PasswordEncoder) *UserService {
	return &UserService{
		repo:    repo,
		roles:   roles,
		encoder: encoder,
		now:     time.Now,
	}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, failure.New(failure.ErrNotFound, "User not found with userId : %d", id)
	}
	return user, err
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, failure.New(failure.ErrNotFound, "User not found with username : %s", username)
	}
	return user, err
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// Signup validates the request, resolves the requested role against the
// seeded roles, and creates an enabled account valid for one year. Nothing
// is written when the role cannot be resolved.
func (s *UserService) Signup(ctx context.Context, req types.SignupRequest) (types.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateSignup(req); err != nil {
		return types.User{}, err
	}

	taken, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, failure.New(failure.ErrInvalidRequest, "Error: username is already taken")
	}
	taken, err = s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, failure.New(failure.ErrInvalidRequest, "Error: Email is already taken")
	}

	role, err := s.resolveRole(ctx, req.Role)
	if err != nil {
		return types.User{}, err
	}

	hashed, err := s.encoder.Encode(req.Password)
	if err != nil {
		return types.User{}, err
	}

	expiry := s.now().AddDate(accountValidity, 0, 0)
	credentialsExpiry, accountExpiry := expiry, expiry
	user, err := s.repo.Create(ctx, types.User{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          hashed,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
		CredentialsExpiryDate: &credentialsExpiry,
		AccountExpiryDate:     &accountExpiry,
		TwoFactorEnabled:      false,
		SignUpMethod:          signUpMethodEmail,
		Role:                  role,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, failure.New(failure.ErrInvalidRequest, "Error: username or email is already taken")
		}
		return types.User{}, err
	}
	return user, nil
}

// resolveRole maps requested role strings to a seeded role: "admin" anywhere
// in the list selects ADMIN, anything else selects USER.
func (s *UserService) resolveRole(ctx context.Context, requested []string) (types.Role, error) {
	name := types.RoleUser
	for _, r := range requested {
		if strings.EqualFold(strings.TrimSpace(r), requestedAdminRole) {
			name = types.RoleAdmin
			break
		}
	}

	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Role{}, failure.New(failure.ErrConfigurationMissing, "Error: Role is not found")
		}
		return types.Role{}, fmt.Errorf("load role %s: %w", name, err)
	}
	return role, nil
}

func validateSignup(req types.SignupRequest) error {
	if n := utf8.RuneCountInString(req.Username); n < minUsernameLength || n > maxUsernameLength {
		return failure.New(failure.ErrInvalidRequest, "username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if req.Email == "" {
		return failure.New(failure.ErrInvalidRequest, "email is required")
	}
	if utf8.RuneCountInString(req.Email) > maxEmailLength {
		return failure.New(failure.ErrInvalidRequest, "email must be at most %d characters", maxEmailLength)
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return failure.New(failure.ErrInvalidRequest, "email is not valid")
	}
	if n := utf8.RuneCountInString(req.Password); n < minPasswordLength || n > maxPasswordLength {
		return failure.New(failure.ErrInvalidRequest, "password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	return nil
}
