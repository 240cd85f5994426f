// Package failure defines the error taxonomy of the security pipeline and
// the single responder that serializes rejections to clients.
package failure

import (
	"errors"
	"fmt"
)

// Kinds. Compare with errors.Is; every *Error unwraps to one of these.
var (
	ErrInvalidCredentials   = errors.New("bad credentials")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenExpired         = errors.New("token is expired")
	ErrTokenUnsupported     = errors.New("token is unsupported")
	ErrTokenBadSignature    = errors.New("token signature is invalid")
	ErrTokenInvalidArgument = errors.New("token string is empty")
	ErrUnauthenticated      = errors.New("full authentication is required to access this resource")
	ErrForbidden            = errors.New("access denied")
	ErrNotFound             = errors.New("resource not found")
	ErrAlreadyExists        = errors.New("resource already exists")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrConfigurationMissing = errors.New("required configuration is missing")
	ErrUnavailable          = errors.New("service unavailable")
)

// Error pairs a kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind with a formatted client message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsToken reports whether err is any token verification failure.
func IsToken(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenUnsupported) ||
		errors.Is(err, ErrTokenBadSignature) ||
		errors.Is(err, ErrTokenInvalidArgument)
}
