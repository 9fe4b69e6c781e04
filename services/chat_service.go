//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"strings"

	"counsel-chat/contract"
	"counsel-chat/domain"
	"counsel-chat/domain/chat"
	cerrors "counsel-chat/errors"
	"counsel-chat/repositories"
	"counsel-chat/runtime"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type IChatService interface {
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) error
	History(ctx context.Context, cmd chat.HistoryCommand) ([]domain.Message, error)
	JoinRoom(connectionID string, roomID domain.RoomID, sink contract.EventSink)
	LeaveRoom(connectionID string, roomID domain.RoomID)
	Disconnect(connectionID string)
}

type ChatService struct {
	broker     *runtime.Broker
	messages   repositories.IMessageRepository
	identities repositories.IIdentityRepository
	validate   *validator.Validate
}

func NewChatService(broker *runtime.Broker, messages repositories.IMessageRepository,
	identities repositories.IIdentityRepository) *ChatService {
	return &ChatService{
		broker:     broker,
		messages:   messages,
		identities: identities,
		validate:   validator.New(),
	}
}

// PostMessage validates a sending intent and hands it to the broker.
// Validation failures never reach the dispatch loop, so an empty submit
// costs no round trip. The sender identity on the command comes from the
// authenticated session, never from client-supplied payload fields.
func (s *ChatService) PostMessage(_ context.Context, cmd chat.PostMessageCommand) error {
	cmd.Content = strings.TrimSpace(cmd.Content)
	if cmd.Content == "" {
		return cerrors.ErrEmptyContent
	}
	if cmd.Room == "" {
		return cerrors.ErrMissingRoom
	}
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if cmd.SenderName == "" {
		names := s.identities.ResolveNames([]string{cmd.SenderID})
		cmd.SenderName = names[cmd.SenderID]
	}
	s.broker.Dispatch(cmd)
	return nil
}

// History returns the durable, ascending message list of a room, with
// sender names joined against the identity store at read time. A historical
// message therefore always displays the sender's current display name.
func (s *ChatService) History(_ context.Context, cmd chat.HistoryCommand) ([]domain.Message, error) {
	if cmd.Room == "" {
		return nil, cerrors.ErrMissingRoom
	}
	stored, err := s.messages.History(cmd.Room)
	if err != nil {
		return nil, err
	}
	if cmd.Limit != nil && len(stored) > *cmd.Limit {
		stored = stored[len(stored)-*cmd.Limit:]
	}
	names := s.identities.ResolveNames(lo.Map(stored, func(m repositories.DiskMessage, _ int) string {
		return m.SenderID
	}))
	return lo.Map(stored, func(m repositories.DiskMessage, _ int) domain.Message {
		return domain.Message{
			ID:         m.ID,
			Room:       m.Room,
			SenderID:   m.SenderID,
			SenderName: names[m.SenderID],
			Content:    m.Content,
			CreatedAt:  m.At,
		}
	}), nil
}

func (s *ChatService) JoinRoom(connectionID string, roomID domain.RoomID, sink contract.EventSink) {
	s.broker.Join(connectionID, roomID, sink)
}

func (s *ChatService) LeaveRoom(connectionID string, roomID domain.RoomID) {
	s.broker.Leave(connectionID, roomID)
}

func (s *ChatService) Disconnect(connectionID string) {
	s.broker.Disconnect(connectionID)
}
