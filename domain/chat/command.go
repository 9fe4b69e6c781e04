package chat

import (
	"time"

	"counsel-chat/domain"
)

type Command interface {
	RoomID() domain.RoomID
}

// PostMessageCommand carries a sending intent into the broker.
// SenderID and SenderName are resolved server-side from the authenticated
// session; ClientSentAt is only advisory for display before the echo returns.
type PostMessageCommand struct {
	Room         domain.RoomID `validate:"required"`
	SenderID     string        `validate:"required"`
	SenderName   string
	Content      string `validate:"required"`
	ClientSentAt time.Time
}

func (p PostMessageCommand) RoomID() domain.RoomID {
	return p.Room
}

type HistoryCommand struct {
	Room  domain.RoomID `validate:"required"`
	Limit *int
}

func (p HistoryCommand) RoomID() domain.RoomID {
	return p.Room
}
