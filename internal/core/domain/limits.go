package domain

import "time"

// Protocol constants. These are part of the wire contract and are not
// runtime-configurable.
const (
	MaxRoomOccupants = 2
	MaxPayloadBytes  = 64 * 1024

	RateWindow = 10 * time.Second
	RateLimit  = 60

	RoomTTL       = 30 * time.Minute
	SweepInterval = 5 * time.Minute
)

// WebSocket close codes used by the relay. 1001, 1002, 1008 and 1009 are
// standard codes; 4429 is an application code in the private range.
const (
	CloseRoomExpired     = 1001
	CloseProtocolError   = 1002
	ClosePolicyViolation = 1008
	CloseMessageTooBig   = 1009
	CloseRateLimited     = 4429
)
