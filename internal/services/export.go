package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/storage"
	"github.com/securenotes/apiserver/types"
)

const exportContentType = "application/json"

// ExportStore is the object storage used for note exports.
type ExportStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ExportService snapshots a user's notes into object storage. Object keys
// are namespaced by username, so a user can only reach their own exports.
type ExportService struct {
	notes *NoteService
	store ExportStore
	now   func() time.Time
}

// NewExportService returns an export service. A nil store disables exports.
func NewExportService(notes *NoteService, store ExportStore) *ExportService {
	return &ExportService{notes: notes, store: store, now: time.Now}
}

type exportDocument struct {
	Owner      string       `json:"owner"`
	ExportedAt time.Time    `json:"exportedAt"`
	Notes      []types.Note `json:"notes"`
}

func (s *ExportService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *ExportService) Export(ctx context.Context, owner string) (types.NoteExport, error) {
	if !s.Enabled() {
		return types.NoteExport{}, failure.New(failure.ErrUnavailable, "note export is not configured")
	}

	notes, err := s.notes.List(ctx, owner)
	if err != nil {
		return types.NoteExport{}, err
	}

	now := s.now().UTC()
	data, err := json.Marshal(exportDocument{Owner: owner, ExportedAt: now, Notes: notes})
	if err != nil {
		return types.NoteExport{}, err
	}

	id := uuid.NewString()
	key := exportKey(owner, id)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), exportContentType); err != nil {
		return types.NoteExport{}, fmt.Errorf("store export: %w", err)
	}

	return types.NoteExport{ID: id, Key: key, Count: len(notes), CreatedAt: now}, nil
}

// Open returns the export with the given id if it belongs to owner.
func (s *ExportService) Open(ctx context.Context, owner, id string) (io.ReadCloser, error) {
	if !s.Enabled() {
		return nil, failure.New(failure.ErrUnavailable, "note export is not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, exportNotFound(id)
	}

	rc, err := s.store.Get(ctx, exportKey(owner, id))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, exportNotFound(id)
		}
		return nil, err
	}
	return rc, nil
}

// Delete removes one of owner's exports.
func (s *ExportService) Delete(ctx context.Context, owner, id string) error {
	if !s.Enabled() {
		return failure.New(failure.ErrUnavailable, "note export is not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return exportNotFound(id)
	}
	if err := s.store.Delete(ctx, exportKey(owner, id)); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return exportNotFound(id)
		}
		return err
	}
	return nil
}

func exportKey(owner, id string) string {
	return fmt.Sprintf("exports/%s/%s.json", url.PathEscape(owner), id)
}

func exportNotFound(id string) error {
	return failure.New(failure.ErrNotFound, "Export not found with id : %s", id)
}
