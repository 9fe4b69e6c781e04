package event

import (
	"time"

	"counsel-chat/domain"

	"github.com/google/uuid"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessagePosted is emitted by the broker once a message has been accepted,
// stamped with a server timestamp, and is about to be fanned out.
// The same event is echoed to every member of the room, sender included.
type MessagePosted struct {
	ID         uuid.UUID
	Room       domain.RoomID
	SenderID   string
	SenderName string
	Content    string
	At         time.Time
}

func (m MessagePosted) RoomID() domain.RoomID {
	return m.Room
}
