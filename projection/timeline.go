// Package projection builds local timelines from observed events.
// Handles ordering, deduplication, and projections.
// Does not emit events or interact with UI directly.
package projection

import (
	"counsel-chat/domain"
	"counsel-chat/domain/event"

	"github.com/google/uuid"
)

// Timeline is the single append path for a room's rendered view: persisted
// history first, then live events in arrival order. Message ids dedupe the
// overlap window where a message is both fetched as history and delivered
// live during room entry.
type Timeline struct {
	Messages []domain.Message
	seen     map[uuid.UUID]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{
		Messages: nil,
		seen:     make(map[uuid.UUID]struct{}),
	}
}

// Seed installs the fetched history in front of any live messages already
// observed. Live messages that the history fetch also captured are kept
// once, in their history position.
func (t *Timeline) Seed(history []domain.Message) {
	merged := make([]domain.Message, 0, len(history)+len(t.Messages))
	inHistory := make(map[uuid.UUID]struct{}, len(history))

	for _, m := range history {
		if _, dup := inHistory[m.ID]; dup {
			continue
		}
		inHistory[m.ID] = struct{}{}
		t.seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range t.Messages {
		if _, dup := inHistory[m.ID]; dup {
			continue
		}
		merged = append(merged, m)
	}
	t.Messages = merged
}

// Consume appends a live message in arrival order, once.
func (t *Timeline) Consume(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessagePosted:
		if _, dup := t.seen[evt.ID]; dup {
			return
		}
		t.seen[evt.ID] = struct{}{}
		t.Messages = append(t.Messages, fromEvent(evt))
	}
}

// Snapshot returns a copy of the rendered sequence.
func (t *Timeline) Snapshot() []domain.Message {
	out := make([]domain.Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

func fromEvent(event event.MessagePosted) domain.Message {
	return domain.Message{
		ID:         event.ID,
		Room:       event.Room,
		SenderID:   event.SenderID,
		SenderName: event.SenderName,
		Content:    event.Content,
		CreatedAt:  event.At,
	}
}
