package auth

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/types"
)

// Access is what a rule demands of the bound principal.
type Access int

const (
	// PermitAll lets anonymous requests through.
	PermitAll Access = iota
	// Authenticated requires any principal.
	Authenticated
	// HasAuthority requires a principal holding Rule.Authority.
	HasAuthority
)

// Rule maps a path pattern to an access requirement. Patterns ending in
// "/**" match the prefix and everything below it; other patterns match
// the path exactly.
type Rule struct {
	Pattern   string
	Access    Access
	Authority string
}

func (r Rule) matches(p string) bool {
	if r.Pattern == "/**" {
		return true
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == r.Pattern
}

// Policy is an ordered rule table. The first matching rule decides.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

var (
	AuthorityUser  = types.Role{Name: types.RoleUser}.Authority()
	AuthorityAdmin = types.Role{Name: types.RoleAdmin}.Authority()
)

// DefaultPolicy is the route table of the notes API.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Pattern: "/api/admin/**", Access: HasAuthority, Authority: AuthorityAdmin},
		Rule{Pattern: "/api/auth/public/**", Access: PermitAll},
		Rule{Pattern: "/api/auth/**", Access: PermitAll},
		Rule{Pattern: "/api/csrf", Access: PermitAll},
		Rule{Pattern: "/api/notes/**", Access: HasAuthority, Authority: AuthorityUser},
		Rule{Pattern: "/healthz", Access: PermitAll},
		Rule{Pattern: "/**", Access: Authenticated},
	)
}

// Match returns the first rule matching the cleaned request path. A table
// without a catch-all falls back to Authenticated.
func (p *Policy) Match(requestPath string) Rule {
	cleaned := cleanPath(requestPath)
	for _, rule := range p.rules {
		if rule.matches(cleaned) {
			return rule
		}
	}
	return Rule{Pattern: "/**", Access: Authenticated}
}

// Check decides whether principal may reach requestPath. A nil principal is
// anonymous.
func (p *Policy) Check(requestPath string, principal *Principal) error {
	return checkRule(p.Match(requestPath), principal)
}

func checkRule(rule Rule, principal *Principal) error {
	switch rule.Access {
	case PermitAll:
		return nil
	case Authenticated:
		if principal == nil {
			return failure.ErrUnauthenticated
		}
		return nil
	default:
		if principal == nil {
			return failure.ErrUnauthenticated
		}
		if !principal.HasAuthority(rule.Authority) {
			return failure.ErrForbidden
		}
		return nil
	}
}

// Enforce rejects requests the policy does not allow. It must run after
// Authenticate.
func (p *Policy) Enforce(events audit.Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if err := p.Check(r.URL.Path, principal); err != nil {
				deny(w, r, principal, err, events)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated guards a single route on top of the table.
func RequireAuthenticated(events audit.Emitter) func(http.Handler) http.Handler {
	return requireRule(Rule{Access: Authenticated}, events)
}

// RequireAuthority guards a single route with an authority check.
func RequireAuthority(authority string, events audit.Emitter) func(http.Handler) http.Handler {
	return requireRule(Rule{Access: HasAuthority, Authority: authority}, events)
}

func requireRule(rule Rule, events audit.Emitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if err := checkRule(rule, principal); err != nil {
				deny(w, r, principal, err, events)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, principal *Principal, err error, events audit.Emitter) {
	username := ""
	if principal != nil {
		username = principal.Username
	}
	slog.WarnContext(r.Context(), "access denied",
		"path", r.URL.Path,
		"username", username,
		"error", err,
	)
	emit(r.Context(), events, audit.Event{
		Type:       audit.EventAccessDenied,
		Username:   username,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Reason:     err.Error(),
	})
	failure.Respond(w, r, err)
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
