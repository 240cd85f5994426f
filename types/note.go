package types

import "time"

// Note is a free-form text record owned by a single user.
type Note struct {
	// ID is the unique identifier of the note.
	ID int64 `json:"id" db:"id"`

	// Content is the note body.
	Content string `json:"content" db:"content"`

	// OwnerUsername is the username of the owning user. It is a plain
	// string copy, not a foreign key: renaming or removing the user leaves
	// the note in place.
	OwnerUsername string `json:"ownerUserName" db:"owner_username"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NoteRequest is the payload accepted when creating or updating a note.
type NoteRequest struct {
	Content string `json:"content"`
}

// NoteExport describes a snapshot of a user's notes written to object storage.
type NoteExport struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}
