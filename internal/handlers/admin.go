package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/auth"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/services"
	"github.com/securenotes/apiserver/types"
)

// AdminHandler exposes read-only user administration.
type AdminHandler struct {
	userService *services.UserService
	events      audit.Emitter
}

func NewAdminHandler(userService *services.UserService, events audit.Emitter) *AdminHandler {
	return &AdminHandler{userService: userService, events: orNoOp(events)}
}

// AdminRouter registers admin routes. The access policy already restricts the
// prefix to ROLE_ADMIN; the route group checks it again.
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Use(auth.RequireAuthority(auth.AuthorityAdmin, handler.events))
	r.Get("/getusers", handler.ListUsers)
	r.Get("/user/{userID}", handler.GetUser)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
