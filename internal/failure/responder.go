package failure

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const internalErrorMessage = "internal server error"

// Envelope is the JSON body of every rejected request.
type Envelope struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// Status maps an error to its HTTP status code.
//
// Bad sign-in credentials answer 404 rather than 401; clients depend on it.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated), IsToken(err):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the error envelope for err. Errors outside the taxonomy
// become a 500 with a generic message; their cause is logged only.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		var typed *Error
		if !errors.As(err, &typed) {
			message = internalErrorMessage
		}
	}
	write(w, r, status, message)
}

// RespondStatus writes an envelope with an explicit status and message, for
// rejections made by the router itself.
func RespondStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, message)
}

func write(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
		Path:    r.URL.Path,
	})
}
