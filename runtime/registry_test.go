package runtime

import (
	"context"
	"testing"

	"counsel-chat/domain"
	"counsel-chat/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Join_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	roomID := domain.RoomForAppointment("42")
	sink := Sink{}

	// Given no connection exists
	// And no room exists
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)

	// When a connection joins a room
	registry.Join(connectionID, roomID, sink)

	// Then
	req.Len(registry.Sessions, 1)
	req.Equal(sink, registry.Sessions[connectionID])

	req.Len(registry.RoomMembers, 1)
	req.Contains(registry.RoomMembers[roomID], connectionID)

	req.Len(registry.SinksForRoom(roomID), 1)
	req.Contains(registry.SinksForRoom(roomID), sink)
}

func TestRegistry_Join_One_Room_Multiple_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID1 := uuid.NewString()
	connectionID2 := uuid.NewString()
	roomID := domain.RoomForAppointment("42")
	sink1 := Sink{}
	sink2 := Sink{}

	// When connections join a room
	registry.Join(connectionID1, roomID, sink1)
	registry.Join(connectionID2, roomID, sink2)

	// Then
	req.Len(registry.Sessions, 2)
	req.Len(registry.RoomMembers[roomID], 2)

	req.Len(registry.SinksForRoom(roomID), 2)
	req.Contains(registry.SinksForRoom(roomID), sink1)
}

func TestRegistry_Join_Twice_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	roomID := domain.RoomForAppointment("42")
	sink := Sink{}

	// When the same connection joins the same room twice
	registry.Join(connectionID, roomID, sink)
	registry.Join(connectionID, roomID, sink)

	// Then membership is unchanged: one member, one sink, no duplicates
	req.Len(registry.Sessions, 1)
	req.Len(registry.RoomMembers[roomID], 1)
	req.Len(registry.SinksForRoom(roomID), 1)
}

func TestRegistry_Leave_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	roomID := domain.RoomForAppointment("42")
	sink := Sink{}

	// Given a connection joined a room
	registry.Join(connectionID, roomID, sink)

	// When the connection leaves the room
	registry.Leave(connectionID, roomID)

	// Then no connection left
	// And the room doesn't exist anymore
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)

	// And no delivery channel left for the room
	req.Nil(registry.SinksForRoom(roomID))
}

func TestRegistry_Leave_One_Room_Multiple_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID1 := uuid.NewString()
	connectionID2 := uuid.NewString()
	roomID := domain.RoomForAppointment("42")
	sink1 := Sink{}
	sink2 := Sink{}

	// Given connections joined a room
	registry.Join(connectionID1, roomID, sink1)
	registry.Join(connectionID2, roomID, sink2)

	// When one connection leaves the room
	registry.Leave(connectionID1, roomID)

	// Then only one connection left
	req.Len(registry.Sessions, 1)
	req.Len(registry.RoomMembers[roomID], 1)

	req.Len(registry.SinksForRoom(roomID), 1)
	req.Contains(registry.SinksForRoom(roomID), sink2)
}

func TestRegistry_LeaveAll_Removes_Every_Membership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	otherID := uuid.NewString()
	roomID1 := domain.RoomForAppointment("42")
	roomID2 := domain.RoomForAppointment("43")
	sink := Sink{}
	otherSink := Sink{}

	// Given a connection joined two rooms, next to another member
	registry.Join(connectionID, roomID1, sink)
	registry.Join(connectionID, roomID2, sink)
	registry.Join(otherID, roomID1, otherSink)

	// When the connection drops
	registry.LeaveAll(connectionID)

	// Then its session and memberships are gone
	req.NotContains(registry.Sessions, connectionID)
	req.NotContains(registry.ConnRooms, connectionID)
	req.Empty(registry.RoomMembers[roomID2])

	// And the other member is untouched
	req.Len(registry.SinksForRoom(roomID1), 1)
	req.Contains(registry.Sessions, otherID)
}
