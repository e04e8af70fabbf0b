package domain

// RoomID identifies a room. The value is opaque and externally supplied.
type RoomID string

// Role is one of the two membership slots of a room.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// ParseRole maps a wire value to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSender:
		return RoleSender, true
	case RoleReceiver:
		return RoleReceiver, true
	}
	return "", false
}

// Opposite returns the other membership role.
func (r Role) Opposite() Role {
	if r == RoleSender {
		return RoleReceiver
	}
	return RoleSender
}
