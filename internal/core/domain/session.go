package domain

// SessionState makes the per-connection protocol state explicit.
type SessionState int

const (
	StateUnjoined SessionState = iota
	StateJoined
)

// Session is the core-owned record wrapped around one transport channel.
// It carries the routing metadata (room, role) and the connection-local
// rate window. All fields except Conn are owned by the connection's
// handler goroutine; other goroutines may only touch Conn, which is safe
// for concurrent use.
type Session struct {
	Conn    Conn
	Limiter *SlidingWindow

	state  SessionState
	roomID RoomID
	role   Role
}

// NewSession wraps a transport channel in a fresh unjoined session.
func NewSession(conn Conn) *Session {
	return &Session{
		Conn:    conn,
		Limiter: NewSlidingWindow(RateWindow, RateLimit),
		state:   StateUnjoined,
	}
}

// Joined reports whether the session holds a (room, role) binding.
func (s *Session) Joined() bool {
	return s.state == StateJoined
}

// Bind records the (room, role) binding after a successful join.
func (s *Session) Bind(roomID RoomID, role Role) {
	s.state = StateJoined
	s.roomID = roomID
	s.role = role
}

// Reset clears the binding after a leave so the channel may join again.
func (s *Session) Reset() {
	s.state = StateUnjoined
	s.roomID = ""
	s.role = ""
}

// RoomID returns the bound room, or "" when unjoined.
func (s *Session) RoomID() RoomID {
	return s.roomID
}

// Role returns the bound role, or "" when unjoined.
func (s *Session) Role() Role {
	return s.role
}
