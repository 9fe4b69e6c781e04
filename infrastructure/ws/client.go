package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"counsel-chat/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live websocket connection with its verified participant.
type Client struct {
	ID          string
	Participant domain.Participant
	Conn        *websocket.Conn
	Send        chan []byte
	log         *slog.Logger
}

func NewClient(id string, participant domain.Participant, conn *websocket.Conn,
	bufferSize int, log *slog.Logger) *Client {
	return &Client{
		ID:          id,
		Participant: participant,
		Conn:        conn,
		Send:        make(chan []byte, bufferSize),
		log:         log,
	}
}

// ReadPump consumes inbound frames until the connection breaks, forwarding
// each frame to the handler. It owns the read side exclusively.
func (c *Client) ReadPump(handler func(*Client, []byte), done func(*Client)) {
	defer func() {
		done(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Websocket read error", "connection_id", c.ID, "error", err)
			}
			return
		}
		handler(c, message)
	}
}

// WritePump serializes all outbound traffic for the connection and keeps it
// alive with periodic pings. It owns the write side exclusively.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Push marshals and enqueues one outbound payload. A full send buffer drops
// the payload for this connection only; live chat is best-effort and the
// durable history covers the gap.
func (c *Client) Push(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("Failed to marshal outbound payload", "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		c.log.Debug("Send buffer full, dropping payload", "connection_id", c.ID)
	}
}
