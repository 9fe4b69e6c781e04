package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Validation failures are rejected locally, before any network round trip.
	ErrEmptyContent = fmt.Errorf("message content is empty")
	ErrMissingRoom  = fmt.Errorf("room id is missing")
	ErrInvalidToken = fmt.Errorf("invalid token")

	// ErrTransportDown means the realtime channel is unavailable. History
	// stays readable; sending is disabled until the transport recovers.
	ErrTransportDown = fmt.Errorf("realtime transport unavailable")

	// ErrPersistence is never surfaced to the sender on the live path.
	// Durability is best-effort; fan-out does not wait for it.
	ErrPersistence = fmt.Errorf("message persistence failed")

	// ErrHistoryFetch degrades to an empty history instead of blocking entry.
	ErrHistoryFetch = fmt.Errorf("history fetch failed")

	ErrUnknownParticipant = fmt.Errorf("unknown participant")
	ErrNotJoined          = fmt.Errorf("room is not joined")
)
