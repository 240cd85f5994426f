// Package audit records security-relevant events (sign-ins, rejected tokens,
// access denials, note changes) without slowing down the request path.
package audit

import (
	"context"
	"time"
)

// EventType names a kind of security event.
type EventType string

const (
	EventSigninSuccess EventType = "signin.success"
	EventSigninFailure EventType = "signin.failure"
	EventSignup        EventType = "signup"
	EventTokenRejected EventType = "token.rejected"
	EventAccessDenied  EventType = "access.denied"
	EventNoteCreated   EventType = "note.created"
	EventNoteUpdated   EventType = "note.updated"
	EventNoteDeleted   EventType = "note.deleted"
	EventNoteExported  EventType = "note.exported"
)

// Event is a single audit record.
type Event struct {
	Type       EventType         `json:"type"`
	Username   string            `json:"username,omitempty"`
	Path       string            `json:"path,omitempty"`
	RemoteAddr string            `json:"remoteAddr,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Time       time.Time         `json:"time"`
}

// Sink receives events from the dispatcher goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Emitter is what request-path code depends on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}
