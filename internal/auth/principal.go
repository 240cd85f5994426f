package auth

import (
	"time"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/types"
)

// Principal is the authenticated view of a user bound to a request.
type Principal struct {
	ID       int64
	Username string
	Email    string
	// PasswordHash is only used to re-check credentials and is never serialized.
	PasswordHash string `json:"-"`
	Authority    string

	TwoFactorEnabled      bool
	Enabled               bool
	AccountNonLocked      bool
	AccountNonExpired     bool
	CredentialsNonExpired bool
}

// NewPrincipal builds a principal from the user's persisted state. Expiry
// dates are folded into the non-expired flags as of now; a date stays valid
// through the whole day it names.
func NewPrincipal(user types.User, now time.Time) *Principal {
	return &Principal{
		ID:                    user.ID,
		Username:              user.Username,
		Email:                 user.Email,
		PasswordHash:          user.PasswordHash,
		Authority:             user.Role.Authority(),
		TwoFactorEnabled:      user.TwoFactorEnabled,
		Enabled:               user.Enabled,
		AccountNonLocked:      user.AccountNonLocked,
		AccountNonExpired:     user.AccountNonExpired && !pastDate(user.AccountExpiryDate, now),
		CredentialsNonExpired: user.CredentialsNonExpired && !pastDate(user.CredentialsExpiryDate, now),
	}
}

// Authorities returns the granted authorities. There is always exactly one.
func (p *Principal) Authorities() []string {
	return []string{p.Authority}
}

func (p *Principal) HasAuthority(authority string) bool {
	return p != nil && p.Authority == authority
}

// CheckStatus returns nil when the account may be used, or an error naming
// the first failing status flag.
func (p *Principal) CheckStatus() error {
	switch {
	case !p.Enabled:
		return failure.New(failure.ErrInvalidCredentials, "user is disabled")
	case !p.AccountNonLocked:
		return failure.New(failure.ErrInvalidCredentials, "user account is locked")
	case !p.AccountNonExpired:
		return failure.New(failure.ErrInvalidCredentials, "user account has expired")
	case !p.CredentialsNonExpired:
		return failure.New(failure.ErrInvalidCredentials, "user credentials have expired")
	}
	return nil
}

func pastDate(date *time.Time, now time.Time) bool {
	if date == nil {
		return false
	}
	y, m, d := date.Date()
	expiry := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.After(expiry)
}
