package auth

import "context"

// principalKey is a private type for the principal context key.
type principalKey struct{}

// WithPrincipal returns a context carrying p. A nil p marks the request as
// anonymous and hides any principal set further up the chain.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the bound principal, or nil when anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}
