package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/services"
	"github.com/securenotes/apiserver/types"
)

// NoteHandler provides HTTP handlers for the current user's notes.
type NoteHandler struct {
	noteService   *services.NoteService
	exportService *services.ExportService
	events        audit.Emitter
}

// NewNoteHandler constructs a note handler. exportService may be disabled.
func NewNoteHandler(noteService *services.NoteService, exportService *services.ExportService, events audit.Emitter) *NoteHandler {
	return &NoteHandler{
		noteService:   noteService,
		exportService: exportService,
		events:        orNoOp(events),
	}
}

// NoteRouter registers note routes on the given router.
func NoteRouter(r chi.Router, handler *NoteHandler) {
	r.Post("/create", handler.CreateNote)
	r.Get("/allNotes", handler.ListNotes)
	r.Put("/update/{noteID}", handler.UpdateNote)
	r.Delete("/delete/{noteID}", handler.DeleteNote)
	r.Post("/export", handler.ExportNotes)
	r.Get("/export/{exportID}", handler.GetExport)
	r.Delete("/export/{exportID}", handler.DeleteExport)
	r.Get("/{noteID}", handler.GetNote)
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	var req types.NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		failure.Respond(w, r, err)
		return
	}

	note, err := h.noteService.Create(r.Context(), principal.Username, req.Content)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	h.noteEvent(r, audit.EventNoteCreated, principal.Username, note.ID)
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	notes, err := h.noteService.List(r.Context(), principal.Username)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	if notes == nil {
		notes = []types.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	note, err := h.noteService.Get(r.Context(), principal.Username, noteID)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	var req types.NoteRequest
	if err := decodeJSON(r, &req); err != nil {
		failure.Respond(w, r, err)
		return
	}

	note, err := h.noteService.Update(r.Context(), principal.Username, noteID, req.Content)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	h.noteEvent(r, audit.EventNoteUpdated, principal.Username, note.ID)
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	if err := h.noteService.Delete(r.Context(), principal.Username, noteID); err != nil {
		failure.Respond(w, r, err)
		return
	}

	h.noteEvent(r, audit.EventNoteDeleted, principal.Username, noteID)
	w.WriteHeader(http.StatusNoContent)
}

// ExportNotes writes a snapshot of the caller's notes to object storage.
func (h *NoteHandler) ExportNotes(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	export, err := h.exportService.Export(r.Context(), principal.Username)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	h.events.Emit(r.Context(), audit.Event{
		Type:       audit.EventNoteExported,
		Username:   principal.Username,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Attributes: map[string]string{
			"export_id": export.ID,
			"count":     strconv.Itoa(export.Count),
		},
	})
	writeJSON(w, http.StatusCreated, export)
}

// GetExport streams back one of the caller's exports.
func (h *NoteHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	rc, err := h.exportService.Open(r.Context(), principal.Username, chi.URLParam(r, "exportID"))
	if err != nil {
		failure.Respond(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.WarnContext(r.Context(), "export stream interrupted", "username", principal.Username, "error", err)
	}
}

func (h *NoteHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(r)
	if err != nil {
		failure.Respond(w, r, err)
		return
	}

	if err := h.exportService.Delete(r.Context(), principal.Username, chi.URLParam(r, "exportID")); err != nil {
		failure.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) noteEvent(r *http.Request, eventType audit.EventType, username string, noteID int64) {
	h.events.Emit(r.Context(), audit.Event{
		Type:       eventType,
		Username:   username,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		Attributes: map[string]string{"note_id": strconv.FormatInt(noteID, 10)},
	})
}
