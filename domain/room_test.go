package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomForAppointment_Is_Deterministic(t *testing.T) {
	req := require.New(t)

	// The same appointment always maps to the same room
	req.Equal(RoomForAppointment("42"), RoomForAppointment("42"))
	req.Equal("appt-42", RoomForAppointment("42").String())

	// Different appointments never collide
	req.NotEqual(RoomForAppointment("42"), RoomForAppointment("43"))
}
