package domain

import "encoding/json"

// MessageType discriminates envelope payloads on the wire.
type MessageType string

// Client-originated message types.
const (
	TypeJoin   MessageType = "join"
	TypeOffer  MessageType = "offer"
	TypeAnswer MessageType = "answer"
	TypeICE    MessageType = "ice"
	TypeLeave  MessageType = "leave"
)

// Server-originated message types.
const (
	TypeJoined   MessageType = "joined"
	TypeReady    MessageType = "ready"
	TypePeerLeft MessageType = "peer-left"
	TypeError    MessageType = "error"
)

// Envelope is the single frame format for both directions. Data is kept
// raw: the relay forwards handshake payloads verbatim and never inspects
// their contents.
type Envelope struct {
	Type    MessageType     `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Token   string          `json:"token,omitempty"`
	Role    string          `json:"role,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorEnvelope builds an error envelope from a domain error.
func ErrorEnvelope(err error) Envelope {
	return Envelope{Type: TypeError, Message: err.Error()}
}

// IsRelayType reports whether t is one of the handshake message types
// relayed between peers.
func IsRelayType(t MessageType) bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICE:
		return true
	}
	return false
}
