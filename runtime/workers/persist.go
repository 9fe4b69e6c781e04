package workers

import (
	"context"
	"log/slog"

	"counsel-chat/domain/event"
	"counsel-chat/repositories"
)

// PersistWorker drains the persistence queue into the message store.
// It runs apart from the fanout loop so storage latency or an unreachable
// store never gates live delivery. A failed write is logged for operational
// visibility and the event is lost; there is no retry queue.
type PersistWorker struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	queue    <-chan event.MessagePosted
}

func NewPersistWorker(log *slog.Logger, messages repositories.IMessageRepository,
	queue <-chan event.MessagePosted) *PersistWorker {
	return &PersistWorker{log: log, messages: messages, queue: queue}
}

func (w *PersistWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping persist worker")
			return nil
		case evt, ok := <-w.queue:
			if !ok {
				return nil
			}
			if err := w.messages.StoreMessage(toDiskMessage(evt)); err != nil {
				w.log.Warn("Message not persisted",
					"room", evt.Room,
					"message_id", evt.ID,
					"error", err)
			}
		}
	}
}

func toDiskMessage(evt event.MessagePosted) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:       evt.ID,
		Room:     evt.Room,
		SenderID: evt.SenderID,
		Content:  evt.Content,
		At:       evt.At,
	}
}
