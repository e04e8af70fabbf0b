package domain

// Conn is the transport-layer channel as the core sees it. The core never
// owns the underlying connection; it only sends envelopes and issues
// closes against it. Sends on a channel that is already closed must be
// no-ops.
type Conn interface {
	ID() string
	RemoteAddr() string
	Send(env Envelope) error
	Close(code int, reason string) error
}
