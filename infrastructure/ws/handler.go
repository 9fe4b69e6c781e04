package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"counsel-chat/auth"
	"counsel-chat/domain"
	"counsel-chat/domain/chat"
	"counsel-chat/domain/event"
	cerrors "counsel-chat/errors"
	"counsel-chat/services"
	"counsel-chat/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler exposes the live channel: join(room_id), send(room_id, text) and
// message_received pushes. One Handler serves every room of the process.
type Handler struct {
	service    services.IChatService
	verifier   *auth.TokenVerifier
	bufferSize int
	log        *slog.Logger
}

func NewHandler(log *slog.Logger, service services.IChatService,
	verifier *auth.TokenVerifier, bufferSize int) *Handler {
	return &Handler{service: service, verifier: verifier, bufferSize: bufferSize, log: log}
}

// HandleWS upgrades the connection after verifying the participant's token.
// The verified claims are the only identity source for everything the
// connection sends afterwards.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(uuid.NewString(), claims.Participant(), conn, h.bufferSize, h.log)
	connectionSink := sink.NewChannelSink(h.bufferSize)
	stop := make(chan struct{})

	go client.WritePump()
	go h.forwardEvents(client, connectionSink, stop)

	h.log.Info("Participant connected",
		"connection_id", client.ID, "participant_id", client.Participant.ID)

	// Blocks until the connection breaks; membership is cleared before
	// the pumps stop.
	client.ReadPump(
		func(c *Client, frame []byte) { h.handleFrame(c, connectionSink, frame) },
		func(c *Client) {
			h.service.Disconnect(c.ID)
			close(stop)
			h.log.Info("Participant disconnected", "connection_id", c.ID)
		},
	)
}

// forwardEvents bridges the connection's sink to its write pump.
// The fanout worker stays decoupled from websocket write latency.
func (h *Handler) forwardEvents(client *Client, connectionSink *sink.ChannelSink, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case evt := <-connectionSink.Events:
			if posted, ok := evt.(event.MessagePosted); ok {
				client.Push(MessageEvent{
					Type:       TypeMessage,
					RoomID:     posted.Room.String(),
					MessageID:  posted.ID.String(),
					SenderID:   posted.SenderID,
					SenderName: posted.SenderName,
					Text:       posted.Content,
					Time:       posted.At,
				})
			}
		}
	}
}

func (h *Handler) handleFrame(client *Client, connectionSink *sink.ChannelSink, frame []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		client.Push(NewErrorEvent("bad_request", "invalid frame"))
		return
	}

	switch envelope.Type {
	case TypeJoin:
		if envelope.RoomID == "" {
			client.Push(NewErrorEvent("bad_request", "room_id is required"))
			return
		}
		h.service.JoinRoom(client.ID, domain.RoomID(envelope.RoomID), connectionSink)
		client.Push(JoinedEvent{Type: TypeJoined, RoomID: envelope.RoomID})

	case TypeLeave:
		if envelope.RoomID == "" {
			client.Push(NewErrorEvent("bad_request", "room_id is required"))
			return
		}
		h.service.LeaveRoom(client.ID, domain.RoomID(envelope.RoomID))

	case TypeSend:
		cmd := chat.PostMessageCommand{
			Room:       domain.RoomID(envelope.RoomID),
			SenderID:   client.Participant.ID,
			SenderName: client.Participant.DisplayName,
			Content:    envelope.Text,
		}
		if envelope.SentAt != nil {
			cmd.ClientSentAt = *envelope.SentAt
		}
		if err := h.service.PostMessage(context.Background(), cmd); err != nil {
			if errors.Is(err, cerrors.ErrEmptyContent) || errors.Is(err, cerrors.ErrMissingRoom) {
				client.Push(NewErrorEvent("validation", err.Error()))
				return
			}
			h.log.Warn("Post message failed", "connection_id", client.ID, "error", err)
		}

	default:
		client.Push(NewErrorEvent("bad_request", "unknown frame type"))
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
