package session

import (
	"time"

	"counsel-chat/domain"
	"counsel-chat/domain/event"
	"counsel-chat/infrastructure/ws"

	"github.com/google/uuid"
)

// historyMessageBody mirrors one record of the history-retrieval contract.
type historyMessageBody struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m historyMessageBody) toDomain(room domain.RoomID) domain.Message {
	id, err := uuid.Parse(m.MessageID)
	if err != nil {
		id = uuid.New() // keep unparseable ids distinct so dedup cannot collapse them
	}
	return domain.Message{
		ID:         id,
		Room:       room,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func toDomainEvent(evt ws.MessageEvent) event.MessagePosted {
	id, err := uuid.Parse(evt.MessageID)
	if err != nil {
		id = uuid.New() // keep unparseable ids distinct so dedup cannot collapse them
	}
	return event.MessagePosted{
		ID:         id,
		Room:       domain.RoomID(evt.RoomID),
		SenderID:   evt.SenderID,
		SenderName: evt.SenderName,
		Content:    evt.Text,
		At:         evt.Time,
	}
}
