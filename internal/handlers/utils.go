package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/auth"
	"github.com/securenotes/apiserver/internal/failure"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return failure.New(failure.ErrInvalidRequest, "invalid request body")
	}
	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, failure.New(failure.ErrInvalidRequest, "invalid %s", name)
	}
	return id, nil
}

// currentPrincipal returns the bound principal or an Unauthenticated error.
// Routes behind the access policy always have one; this covers misrouting.
func currentPrincipal(r *http.Request) (*auth.Principal, error) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil, failure.ErrUnauthenticated
	}
	return principal, nil
}

func orNoOp(events audit.Emitter) audit.Emitter {
	if events == nil {
		return audit.NoOpSink{}
	}
	return events
}
