package auth

import (
	"context"
	"errors"
	"time"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/store"
)

// IdentityResolver reloads a principal from the store. It never caches, so
// role and status changes apply to the next request.
type IdentityResolver struct {
	users UserLookup
	now   func() time.Time
}

func NewIdentityResolver(users UserLookup) *IdentityResolver {
	return &IdentityResolver{users: users, now: time.Now}
}

func (r *IdentityResolver) LoadPrincipal(ctx context.Context, username string) (*Principal, error) {
	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, failure.New(failure.ErrNotFound, "user not found with username: %s", username)
		}
		return nil, err
	}
	return NewPrincipal(user, r.now()), nil
}
