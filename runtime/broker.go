// Package runtime hosts the realtime broker: membership, dispatch, fan-out
// and asynchronous persistence. It orchestrates delivery without containing
// domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"counsel-chat/contract"
	"counsel-chat/domain"
	"counsel-chat/domain/chat"
	"counsel-chat/domain/event"
	"counsel-chat/repositories"
	"counsel-chat/runtime/workers"
	"counsel-chat/sink"
)

// Broker is the process-wide publish/subscribe transport. It is explicitly
// constructed and injected wherever needed; there is no implicit global
// instance, which keeps tests free to run several independent brokers.
type Broker struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	messages       repositories.IMessageRepository
	commands       chan chat.Command
	persistQueue   chan event.MessagePosted
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
	started        bool
}

func NewBroker(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, messages repositories.IMessageRepository,
	bufferSize int, sinkTimeout time.Duration) *Broker {
	return &Broker{
		log:          log,
		supervisor:   supervisor,
		registry:     registry,
		messages:     messages,
		commands:     make(chan chat.Command, bufferSize),
		persistQueue: make(chan event.MessagePosted, bufferSize),
		sinkTimeout:  sinkTimeout,
	}
}

// Add registers permanent sinks delivered on every fan-out regardless of
// room membership (projections, audit). Must be called before Start.
func (b *Broker) Add(sinks ...contract.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.permanentSinks = append(b.permanentSinks, sinks...)
}

// Dispatch hands a sending intent to the dispatch loop. The call never
// blocks: under backpressure the command is dropped with a warning rather
// than stalling a connection's read loop.
func (b *Broker) Dispatch(cmd chat.Command) {
	select {
	case b.commands <- cmd:
	default:
		b.log.Warn(fmt.Sprintf("Command channel full for room %s, dropping command", cmd.RoomID()))
	}
}

// Join subscribes a connection to a room. No acknowledgment payload beyond
// success; joining twice is the same as joining once.
func (b *Broker) Join(connectionID string, roomID domain.RoomID, s contract.EventSink) {
	b.registry.Join(connectionID, roomID, s)
}

func (b *Broker) Leave(connectionID string, roomID domain.RoomID) {
	b.registry.Leave(connectionID, roomID)
}

// Disconnect clears every membership of a connection.
func (b *Broker) Disconnect(connectionID string) {
	b.registry.LeaveAll(connectionID)
}

// Start wires the pipeline and launches supervision in the background:
// a single fanout worker (per-room order) and a persist worker (best-effort
// durability, decoupled from delivery).
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("broker already started")
	}
	b.started = true

	b.permanentSinks = append(b.permanentSinks, sink.NewDiskSink(b.persistQueue, b.log))
	fanoutWorker := workers.NewFanoutWorker(b.log, b.registry, b.commands, b.permanentSinks, b.sinkTimeout)
	persistWorker := workers.NewPersistWorker(b.log, b.messages, b.persistQueue)
	b.supervisor.Add(fanoutWorker, persistWorker)
	b.mu.Unlock()

	b.log.Info("Starting broker and all supervised workers")
	go b.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown by canceling the supervised context.
func (b *Broker) Stop() {
	b.log.Info("Requesting broker shutdown")
	b.supervisor.Stop()
}
