//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"counsel-chat/domain"
	"counsel-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one delivery target for fanned-out events.
// A sink must never block the caller beyond the configured sink timeout;
// a sink that cannot keep up drops events rather than stalling the room.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks which live connection is subscribed to which room.
// State is process-local and rebuilt empty on restart: a reconnecting client
// simply rejoins and re-fetches history.
type IRegistry interface {
	SinksForRoom(roomID domain.RoomID) []EventSink
	Join(connectionID string, roomID domain.RoomID, sink EventSink)
	Leave(connectionID string, roomID domain.RoomID)
	LeaveAll(connectionID string)
}
