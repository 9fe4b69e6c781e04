package sink

import (
	"context"

	"counsel-chat/domain/event"
)

// ChannelSink bridges fanned-out events to one connected client.
// The fanout worker writes into Events; the transport handler owns the
// reading side and pushes each event down its connection.
type ChannelSink struct {
	Events chan event.DomainEvent
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fanout.
// A full buffer means the connection cannot keep up: the event is dropped
// for this member only, and the durable history remains the source of truth
// on its next reconnect.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
