// Package domain contains core concepts of the counseling chat system.
// This file defines Message events and related rules.
// Messages are immutable once created; there is no update or delete.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event inside a room.
// CreatedAt is always server-assigned; client timestamps are advisory only.
type Message struct {
	ID         uuid.UUID
	Room       RoomID
	SenderID   string
	SenderName string
	Content    string
	CreatedAt  time.Time
}
