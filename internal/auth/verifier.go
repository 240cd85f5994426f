package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/store"
	"github.com/securenotes/apiserver/types"
)

// UserLookup loads users by username.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
}

// CredentialVerifier checks a username/password pair against stored users.
type CredentialVerifier struct {
	users   UserLookup
	encoder *PasswordEncoder
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialVerifier(users UserLookup, encoder *PasswordEncoder) *CredentialVerifier {
	return &CredentialVerifier{
		users:   users,
		encoder: encoder,
		now:     time.Now,
	}
}

// Authenticate returns the principal for valid credentials. Unknown users,
// wrong passwords and unusable accounts all produce the same error.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Spend the same hashing work as a real comparison.
		v.encoder.Matches(password, v.fallbackHash())
		slog.DebugContext(ctx, "authentication failed", "username", username, "reason", "unknown user")
		return nil, invalidCredentials()
	}

	if !v.encoder.Matches(password, user.PasswordHash) {
		slog.DebugContext(ctx, "authentication failed", "username", username, "reason", "password mismatch")
		return nil, invalidCredentials()
	}

	principal := NewPrincipal(user, v.now())
	if err := principal.CheckStatus(); err != nil {
		slog.InfoContext(ctx, "authentication refused", "username", username, "reason", err.Error())
		return nil, invalidCredentials()
	}
	return principal, nil
}

func (v *CredentialVerifier) fallbackHash() string {
	v.dummyOnce.Do(func() {
		hash, err := v.encoder.Encode("securenotes-timing-equalizer")
		if err == nil {
			v.dummyHash = hash
		}
	})
	return v.dummyHash
}

func invalidCredentials() error {
	return failure.New(failure.ErrInvalidCredentials, "Bad credentials")
}
