package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/securenotes/apiserver/internal/audit"
)

// TokenVerifier validates a raw token string.
type TokenVerifier interface {
	Verify(tokenString string) (Claims, error)
}

// PrincipalLoader resolves the current principal for a username.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, username string) (*Principal, error)
}

// Authenticate binds the request's principal from an optional bearer token.
//
// A missing header, a bad token, an unknown subject, or an unusable account
// all leave the request anonymous; rejecting it is the access policy's job.
// The principal lives in the request context only, so it is gone when the
// request ends.
func Authenticate(verifier TokenVerifier, loader PrincipalLoader, events audit.Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := resolveRequest(r, verifier, loader, events)
			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveRequest(r *http.Request, verifier TokenVerifier, loader PrincipalLoader, events audit.Emitter) *Principal {
	ctx := r.Context()

	tokenString, ok := bearerToken(r)
	if !ok {
		return nil
	}

	claims, err := verifier.Verify(tokenString)
	if err != nil {
		slog.WarnContext(ctx, "bearer token rejected",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		emit(ctx, events, audit.Event{
			Type:       audit.EventTokenRejected,
			Path:       r.URL.Path,
			RemoteAddr: r.RemoteAddr,
			Reason:     err.Error(),
		})
		return nil
	}

	principal, err := loader.LoadPrincipal(ctx, claims.Subject)
	if err != nil {
		slog.WarnContext(ctx, "cannot set user authentication",
			"subject", claims.Subject,
			"path", r.URL.Path,
			"error", err,
		)
		return nil
	}

	if err := principal.CheckStatus(); err != nil {
		slog.WarnContext(ctx, "principal is not usable",
			"subject", claims.Subject,
			"path", r.URL.Path,
			"reason", err.Error(),
		)
		return nil
	}

	slog.DebugContext(ctx, "authentication succeeded",
		"subject", principal.Username,
		"authority", principal.Authority,
		"path", r.URL.Path,
	)
	return principal
}

// bearerToken reports the token after a Bearer scheme. ok is false when the
// header is absent or uses another scheme; an empty token with ok true is
// left for the verifier to reject.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	if len(parts) == 1 {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

func emit(ctx context.Context, events audit.Emitter, event audit.Event) {
	if events == nil {
		return
	}
	events.Emit(ctx, event)
}
