package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/auth"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/services"
	"github.com/securenotes/apiserver/types"
)

// AuthHandler provides sign-in, sign-up and current-user endpoints.
type AuthHandler struct {
	userService *services.UserService
	verifier    *auth.CredentialVerifier
	codec       *auth.TokenCodec
	events      audit.Emitter
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	userService *services.UserService,
	verifier *auth.CredentialVerifier,
	codec *auth.TokenCodec,
	events audit.Emitter,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		verifier:    verifier,
		codec:       codec,
		events:      orNoOp(events),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/public/signin", handler.Signin)
	r.Post("/public/signup", handler.Signup)
	r.With(auth.RequireAuthenticated(handler.events)).Get("/user", handler.User)
	r.Get("/username", handler.Username)
}

// Signin verifies credentials and returns a signed token. Bad credentials
// answer 404 with the uniform error envelope.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		failure.Respond(w, r, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		failure.Respond(w, r, failure.New(failure.ErrInvalidRequest, "missing credentials"))
		return
	}

	principal, err := h.verifier.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, failure.ErrInvalidCredentials) {
			h.events.Emit(r.Context(), audit.Event{
				Type:       audit.EventSigninFailure,
				Username:   req.Username,
				Path:       r.URL.Path,
				RemoteAddr: r.RemoteAddr,
			})
		}
		failure.Respond(w, r, err)
		return
	}

	token, err := h.codec.Issue(principal)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	h.events.Emit(r.Context(), audit.Event{
		Type:       audit.EventSigninSuccess,
		Username:   principal.Username,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
	})
	writeJSON(w, http.StatusOK, types.LoginResponse{
		ID:       principal.ID,
		Username: principal.Username,
		Roles:    principal.Authorities(),
		Token:    token,
	})
}

// Signup creates a new account with the requested role.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		failure.Respond(w, r, err)
		return
	}

	user, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, failure.ErrConfigurationMissing) {
			slog.ErrorContext(r.Context(), "signup aborted", "username", req.Username, "error", err)
		}
		failure.Respond(w, r, err)
		return
	}

	h.events.Emit(r.Context(), audit.Event{
		Type:       audit.EventSignup,
		Username:   user.Username,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Attributes: map[string]string{"role": user.Role.Authority()},
	})
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: "User registered successfully"})
}

// User returns the current user's account details. Status flags come from
// the bound principal, so expiry dates are already folded in.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), principal.Username)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.UserInfoResponse{
		ID:                    user.ID,
		Username:              user.Username,
		Email:                 user.Email,
		AccountNonLocked:      principal.AccountNonLocked,
		AccountNonExpired:     principal.AccountNonExpired,
		CredentialsNonExpired: principal.CredentialsNonExpired,
		Enabled:               principal.Enabled,
		CredentialsExpiryDate: user.CredentialsExpiryDate,
		AccountExpiryDate:     user.AccountExpiryDate,
		TwoFactorEnabled:      user.TwoFactorEnabled,
		Roles:                 principal.Authorities(),
	})
}

// Username returns the bound username as plain text, empty when anonymous.
func (h *AuthHandler) Username(w http.ResponseWriter, r *http.Request) {
	name := ""
	if principal := auth.PrincipalFromContext(r.Context()); principal != nil {
		name = principal.Username
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(name))
}
