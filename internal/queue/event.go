package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a post lifecycle change. It doubles as the AMQP routing key.
type EventType string

const (
	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"
)

// Event is published after a post mutation commits.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an event stamped with a fresh id and the current time.
func NewEvent(eventType EventType, postID, authorID uuid.UUID) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		PostID:     postID,
		AuthorID:   authorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Valid reports whether e names a known type and carries its ids.
func (e *Event) Valid() bool {
	switch e.Type {
	case EventPostCreated, EventPostUpdated, EventPostDeleted:
	default:
		return false
	}
	return e.ID != uuid.Nil && e.PostID != uuid.Nil && e.AuthorID != uuid.Nil
}

// DecodeEvent parses and validates a message body.
func DecodeEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if !e.Valid() {
		return nil, fmt.Errorf("invalid event %q", e.Type)
	}
	return &e, nil
}
