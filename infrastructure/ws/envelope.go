package ws

import "time"

// Inbound envelope types accepted from a connected client.
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypeSend  = "send"
)

// Outbound envelope types pushed to a connected client.
const (
	TypeMessage = "message"
	TypeJoined  = "joined"
	TypeError   = "error"
)

// Envelope is the inbound frame. Identity fields are intentionally absent:
// sender identity comes from the verified handshake token, and anything a
// client asserts about itself in the payload is ignored.
type Envelope struct {
	Type   string     `json:"type"`
	RoomID string     `json:"room_id,omitempty"`
	Text   string     `json:"text,omitempty"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// MessageEvent mirrors the live delivery contract:
// message_received({room_id, sender_id, sender_name, text, time}).
type MessageEvent struct {
	Type       string    `json:"type"`
	RoomID     string    `json:"room_id"`
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	Time       time.Time `json:"time"`
}

type JoinedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Code: code, Message: message}
}
