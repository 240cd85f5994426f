package services

import (
	"context"
	"errors"
	"strings"

	"github.com/securenotes/apiserver/internal/failure"
	"github.com/securenotes/apiserver/internal/store"
	"github.com/securenotes/apiserver/types"
)

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]types.Note, error)
	Get(ctx context.Context, id int64) (types.Note, error)
	ExistsByContentAndOwner(ctx context.Context, content, owner string) (bool, error)
	Create(ctx context.Context, note types.Note) (types.Note, error)
	Update(ctx context.Context, note types.Note) (types.Note, error)
	Delete(ctx context.Context, id int64, owner string) error
}

// NoteService encapsulates note use-cases. Every operation is scoped to the
// username passed in; notes of other users behave as if they did not exist.
type NoteService struct {
	repo NoteRepository
}

func NewNoteService(repo NoteRepository) *NoteService {
	return &NoteService{repo: repo}
}

// Create stores a new note for owner. The same content twice for the same
// owner is rejected; other owners are unaffected.
func (s *NoteService) Create(ctx context.Context, owner, content string) (types.Note, error) {
	if strings.TrimSpace(content) == "" {
		return types.Note{}, failure.New(failure.ErrInvalidRequest, "note content is required")
	}

	exists, err := s.repo.ExistsByContentAndOwner(ctx, content, owner)
	if err != nil {
		return types.Note{}, err
	}
	if exists {
		return types.Note{}, failure.New(failure.ErrAlreadyExists, "Note already exists for this user")
	}

	return s.repo.Create(ctx, types.Note{Content: content, OwnerUsername: owner})
}

func (s *NoteService) List(ctx context.Context, owner string) ([]types.Note, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Get returns the note if owner owns it.
func (s *NoteService) Get(ctx context.Context, owner string, id int64) (types.Note, error) {
	return s.owned(ctx, owner, id)
}

// Update replaces the content of an owned note. The owner never changes.
func (s *NoteService) Update(ctx context.Context, owner string, id int64, content string) (types.Note, error) {
	if strings.TrimSpace(content) == "" {
		return types.Note{}, failure.New(failure.ErrInvalidRequest, "note content is required")
	}

	note, err := s.owned(ctx, owner, id)
	if err != nil {
		return types.Note{}, err
	}

	note.Content = content
	updated, err := s.repo.Update(ctx, note)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Note{}, noteNotFound(id)
		}
		return types.Note{}, err
	}
	return updated, nil
}

func (s *NoteService) Delete(ctx context.Context, owner string, id int64) error {
	if _, err := s.owned(ctx, owner, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, owner); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return noteNotFound(id)
		}
		return err
	}
	return nil
}

// owned loads a note and applies the ownership guard. A note owned by
// someone else yields the same error as a missing one.
func (s *NoteService) owned(ctx context.Context, owner string, id int64) (types.Note, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Note{}, noteNotFound(id)
		}
		return types.Note{}, err
	}
	if owner == "" || note.OwnerUsername != owner {
		return types.Note{}, noteNotFound(id)
	}
	return note, nil
}

func noteNotFound(id int64) error {
	return failure.New(failure.ErrNotFound, "Notes not found with NotesId : %d", id)
}
