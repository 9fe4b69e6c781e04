package domain

// RoomID is the namespace scoping one appointment's conversation.
// A room is not persisted on its own: the identifier is the room.
type RoomID string

const roomPrefix = "appt-"

// RoomForAppointment derives the chat room for an appointment.
// The mapping is deterministic and 1:1 so that every subsystem
// (appointments, history, realtime) agrees on the namespace.
func RoomForAppointment(appointmentID string) RoomID {
	return RoomID(roomPrefix + appointmentID)
}

func (r RoomID) String() string {
	return string(r)
}
