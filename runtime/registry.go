package runtime

import (
	"sync"

	"counsel-chat/contract"
	"counsel-chat/domain"
)

type Set map[string]struct{}

// Registry tracks live room membership. It is the only owner of this state:
// nothing here is durable, and a process restart rebuilds it empty.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[string]contract.EventSink   // connection id -> sink
	RoomMembers map[domain.RoomID]Set           // room -> connection ids
	ConnRooms   map[string]map[domain.RoomID]struct{} // connection id -> joined rooms
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[string]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
		ConnRooms:   make(map[string]map[domain.RoomID]struct{}),
	}
}

// SinksForRoom retrieves all active delivery channels for a specific room.
// It performs a two-step lookup:
// 1. Identifies connection ids associated with the room via RoomMembers.
// 2. Resolves those ids into actual EventSinks using the Sessions map.
//
// This decoupled approach ensures that even if a connection is in multiple
// rooms, its sink is managed in a single place.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connectionID := range members {
		if sink, exists := r.Sessions[connectionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Join registers a connection's sink and assigns it to a specific room.
// Joining the same room twice has the same effect as joining once: the
// membership set is keyed by connection id, so no duplicate delivery can
// result from a repeated join.
func (r *Registry) Join(connectionID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[connectionID] = sink

	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][connectionID] = struct{}{}

	if _, ok := r.ConnRooms[connectionID]; !ok {
		r.ConnRooms[connectionID] = make(map[domain.RoomID]struct{})
	}
	r.ConnRooms[connectionID][roomID] = struct{}{}
}

// Leave removes a connection from one room. The sink stays registered while
// the connection is a member of any other room; empty sets are cleaned up to
// prevent memory leaks over time.
func (r *Registry) Leave(connectionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connectionID, roomID)
}

// LeaveAll removes a connection from every room it joined and drops its
// session entirely. Invoked implicitly on disconnect.
func (r *Registry) LeaveAll(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.ConnRooms[connectionID] {
		r.leaveLocked(connectionID, roomID)
	}
	delete(r.Sessions, connectionID)
}

func (r *Registry) leaveLocked(connectionID string, roomID domain.RoomID) {
	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, connectionID)
		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
	if rooms, ok := r.ConnRooms[connectionID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.ConnRooms, connectionID)
			delete(r.Sessions, connectionID)
		}
	}
}
