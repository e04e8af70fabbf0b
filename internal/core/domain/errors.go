package domain

import "errors"

// Admission and relay failures. These are non-fatal: they are reported to
// the client as error envelopes and the connection stays usable.
var (
	ErrMissingJoinFields = errors.New("roomId, token and role are required")
	ErrInvalidRole       = errors.New("invalid role")
	ErrBadToken          = errors.New("bad token")
	ErrSenderExists      = errors.New("sender exists")
	ErrReceiverExists    = errors.New("receiver exists")
	ErrRoomFull          = errors.New("room full")
	ErrAlreadyJoined     = errors.New("already joined")
	ErrNotJoined         = errors.New("join first")
	ErrRoomMissing       = errors.New("no room")
	ErrPeerNotConnected  = errors.New("peer not connected")
	ErrUnknownType       = errors.New("unknown type")
)
