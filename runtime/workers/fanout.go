package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"counsel-chat/contract"
	"counsel-chat/domain/chat"
	"counsel-chat/domain/event"

	"github.com/google/uuid"
)

// FanoutWorker is the broker's single dispatch point. It drains the command
// channel sequentially, stamps each accepted message with a server timestamp
// and id, and delivers the resulting event to every sink of the room,
// sender included.
//
// One drain goroutine means all members of a room observe relayed messages
// in the same order. Across rooms there is no ordering relationship.
//
// Delivery is fire-and-forget: a sink that errors or exceeds the sink
// timeout loses that one event; other members are unaffected and nothing is
// retried. Durable history is the source of truth on the next history fetch.
type FanoutWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	commands       <-chan chat.Command
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	now            func() time.Time
}

func NewFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	commands <-chan chat.Command, permanentSinks []contract.EventSink,
	sinkTimeout time.Duration) *FanoutWorker {
	return &FanoutWorker{
		log:            log,
		registry:       registry,
		commands:       commands,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping fanout worker")
			return nil
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			if postCmd, ok := cmd.(chat.PostMessageCommand); ok {
				w.Fanout(ctx, toEvent(postCmd, w.now()))
			}
		}
	}
}

// Fanout delivers one event to the room's current members plus the
// permanent sinks (persistence, projections). Permanent sinks go first so a
// message is queued for durability before any member sees it, but nothing
// waits on the write itself.
func (w *FanoutWorker) Fanout(ctx context.Context, evt event.MessagePosted) {
	sinks := append(append([]contract.EventSink{}, w.permanentSinks...),
		w.registry.SinksForRoom(evt.Room)...)
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Debug(fmt.Sprintf("Dropped delivery for room %s: %v", evt.Room, err))
		}
		cancel()
	}
}

func toEvent(c chat.PostMessageCommand, at time.Time) event.MessagePosted {
	return event.MessagePosted{
		ID:         uuid.New(),
		Room:       c.Room,
		SenderID:   c.SenderID,
		SenderName: c.SenderName,
		Content:    c.Content,
		At:         at,
	}
}
