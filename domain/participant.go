// Package domain contains core concepts of the counseling chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

type Role string

const (
	RoleStudent      Role = "student"
	RolePsychologist Role = "psychologist"
	RoleAdmin        Role = "admin"
)

// Participant is the identity attached to a connection, as asserted by the
// external token issuer. The chat subsystem never lets clients override it.
type Participant struct {
	ID          string
	DisplayName string
	Role        Role
}
