package sink

import (
	"context"
	"fmt"
	"log/slog"

	"counsel-chat/domain/event"
)

// DiskSink is the permanent sink feeding the persistence queue.
// Consume never blocks the fanout loop: if the queue is full the event is
// dropped with a warning, honoring best-effort durability.
type DiskSink struct {
	queue chan<- event.MessagePosted
	log   *slog.Logger
}

func NewDiskSink(queue chan<- event.MessagePosted, log *slog.Logger) DiskSink {
	return DiskSink{queue: queue, log: log}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		select {
		case d.queue <- evt:
		default:
			d.log.Warn("Persistence queue full, dropping message",
				"room", evt.Room, "message_id", evt.ID)
		}
		return nil
	default:
		d.log.Debug(fmt.Sprintf("Not persisted event : %v", evt))
		return nil
	}
}
