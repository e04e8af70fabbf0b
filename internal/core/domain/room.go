package domain

import (
	"sync"
	"time"
)

// Room holds at most one sender and one receiver, the shared secret set
// by the first occupant, and a last-activity timestamp. Every
// read-modify-write on a room goes through its own mutex, so handlers
// touching different rooms never serialize against each other.
type Room struct {
	ID RoomID

	mu           sync.Mutex
	secret       string
	sender       *Session
	receiver     *Session
	lastActivity time.Time
}

// NewRoom creates an empty room, stamping the current time as activity.
func NewRoom(id RoomID) *Room {
	return &Room{ID: id, lastActivity: time.Now()}
}

// JoinOutcome describes a successful admission.
type JoinOutcome struct {
	// Rejoin is set when the session already held the requested slot;
	// the join is idempotent and only refreshes activity.
	Rejoin bool
	// Paired is set when this join filled the second slot.
	Paired bool
	// Peer is the opposite occupant, non-nil when Paired.
	Peer *Session
}

// Join admits a session into the requested role slot. The first joiner's
// token becomes the room secret; afterwards the secret is immutable and
// compared by equality. Failures never mutate membership.
func (r *Room) Join(s *Session, token string, role Role) (JoinOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.secret == "" {
		r.secret = token
	} else if r.secret != token {
		return JoinOutcome{}, ErrBadToken
	}

	mine := r.slot(role)
	other := r.slot(role.Opposite())

	if *mine == s {
		r.lastActivity = time.Now()
		return JoinOutcome{Rejoin: true, Paired: *other != nil}, nil
	}
	if *mine != nil && *other != nil && *other != s {
		return JoinOutcome{}, ErrRoomFull
	}
	if *mine != nil {
		if role == RoleSender {
			return JoinOutcome{}, ErrSenderExists
		}
		return JoinOutcome{}, ErrReceiverExists
	}

	*mine = s
	r.lastActivity = time.Now()
	return JoinOutcome{Paired: *other != nil, Peer: *other}, nil
}

// Peer resolves the occupant of the opposite role, or nil when the
// session is not an occupant or the other slot is empty.
func (r *Room) Peer(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch s {
	case r.sender:
		return r.receiver
	case r.receiver:
		return r.sender
	}
	return nil
}

// Remove clears the session's slot, but only if that slot still
// references this exact session. This guards against stale cleanup after
// the slot was reclaimed by a faster re-join. It returns the remaining
// occupant (if any) and whether the room is now empty.
func (r *Room) Remove(s *Session) (peer *Session, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch s {
	case r.sender:
		r.sender = nil
		peer = r.receiver
	case r.receiver:
		r.receiver = nil
		peer = r.sender
	default:
		return nil, r.sender == nil && r.receiver == nil
	}

	r.lastActivity = time.Now()
	return peer, r.sender == nil && r.receiver == nil
}

// Touch refreshes the last-activity timestamp.
func (r *Room) Touch() {
	r.mu.Lock()
	r.lastActivity = time.Now()
	r.mu.Unlock()
}

// Occupants returns the sessions currently holding slots.
func (r *Room) Occupants() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ := make([]*Session, 0, MaxRoomOccupants)
	if r.sender != nil {
		occ = append(occ, r.sender)
	}
	if r.receiver != nil {
		occ = append(occ, r.receiver)
	}
	return occ
}

// Empty reports whether both slots are vacant.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sender == nil && r.receiver == nil
}

// IdleLongerThan reports whether the room has seen no activity for more
// than the given threshold as of now.
func (r *Room) IdleLongerThan(threshold time.Duration, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Sub(r.lastActivity) > threshold
}

// LastActivity returns the last-activity timestamp.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

func (r *Room) slot(role Role) **Session {
	if role == RoleSender {
		return &r.sender
	}
	return &r.receiver
}
