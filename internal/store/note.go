package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/securenotes/apiserver/types"
)

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) ListByOwner(ctx context.Context, owner string) ([]types.Note, error) {
	const query = `
		SELECT id, content, owner_username, created_at, updated_at
		FROM notes
		WHERE owner_username = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		var note types.Note
		if err := rows.Scan(
			&note.ID,
			&note.Content,
			&note.OwnerUsername,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Get(ctx context.Context, id int64) (types.Note, error) {
	const query = `
		SELECT id, content, owner_username, created_at, updated_at
		FROM notes
		WHERE id = $1`
	var note types.Note
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.Content,
		&note.OwnerUsername,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) ExistsByContentAndOwner(ctx context.Context, content, owner string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notes WHERE content = $1 AND owner_username = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, content, owner).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (types.Note, error) {
	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	const query = `
		INSERT INTO notes (content, owner_username, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		note.Content,
		note.OwnerUsername,
		note.CreatedAt,
		note.UpdatedAt,
	).Scan(&note.ID); err != nil {
		return types.Note{}, err
	}
	return note, nil
}

// Update rewrites the content of a note. The owner column is part of the
// WHERE clause so a note can only be changed under its recorded owner.
func (r *NoteRepository) Update(ctx context.Context, note types.Note) (types.Note, error) {
	note.UpdatedAt = time.Now()

	const query = `
		UPDATE notes
		SET content = $1,
			updated_at = $2
		WHERE id = $3 AND owner_username = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		note.Content,
		note.UpdatedAt,
		note.ID,
		note.OwnerUsername,
	)
	if err != nil {
		return types.Note{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Note{}, err
	}
	if affected == 0 {
		return types.Note{}, ErrNotFound
	}
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int64, owner string) error {
	const query = `DELETE FROM notes WHERE id = $1 AND owner_username = $2`
	result, err := r.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
