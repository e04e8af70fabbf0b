package services

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
)

// RelayService is the protocol state machine bound to connections by the
// transport layer. It applies the per-message pipeline (size check, rate
// check, parse, dispatch), mutates room state through the registry and
// routes envelopes to the opposite occupant.
type RelayService struct {
	rooms   ports.RoomRegistry
	metrics ports.Metrics
	logger  *zap.SugaredLogger
}

func NewRelayService(rooms ports.RoomRegistry, metrics ports.Metrics, logger *zap.SugaredLogger) *RelayService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &RelayService{
		rooms:   rooms,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleMessage runs one inbound payload through the pipeline. A non-nil
// return means the connection was closed by the service and the caller
// must stop processing it. Admission failures are reported to the client
// as error envelopes and return nil.
func (s *RelayService) HandleMessage(sess *domain.Session, payload []byte) error {
	if len(payload) > domain.MaxPayloadBytes {
		sess.Conn.Close(domain.CloseMessageTooBig, "message too large")
		return fmt.Errorf("payload of %d bytes exceeds %d byte limit", len(payload), domain.MaxPayloadBytes)
	}

	if !sess.Limiter.Allow(time.Now()) {
		s.metrics.RateLimitClosed()
		sess.Conn.Close(domain.CloseRateLimited, "rate limit exceeded")
		return fmt.Errorf("connection %s exceeded %d messages per %s", sess.Conn.ID(), domain.RateLimit, domain.RateWindow)
	}

	var env domain.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		sess.Conn.Close(domain.CloseProtocolError, "malformed payload")
		return fmt.Errorf("malformed envelope: %w", err)
	}

	switch {
	case env.Type == domain.TypeJoin:
		s.handleJoin(sess, env)
	case domain.IsRelayType(env.Type):
		s.handleRelay(sess, env)
	case env.Type == domain.TypeLeave:
		s.handleLeave(sess)
	default:
		s.metrics.RelayRejected("unknown type")
		s.sendError(sess, domain.ErrUnknownType)
	}
	return nil
}

func (s *RelayService) handleJoin(sess *domain.Session, env domain.Envelope) {
	if env.RoomID == "" || env.Token == "" || env.Role == "" {
		s.reject(sess, domain.ErrMissingJoinFields)
		return
	}
	role, ok := domain.ParseRole(env.Role)
	if !ok {
		s.reject(sess, domain.ErrInvalidRole)
		return
	}

	// A connection holds at most one (room, role) binding for its
	// lifetime; switching requires an explicit leave first.
	if sess.Joined() && (sess.RoomID() != domain.RoomID(env.RoomID) || sess.Role() != role) {
		s.reject(sess, domain.ErrAlreadyJoined)
		return
	}

	room := s.rooms.GetOrCreate(domain.RoomID(env.RoomID))
	outcome, err := room.Join(sess, env.Token, role)
	if err != nil {
		s.reject(sess, err)
		return
	}

	sess.Bind(room.ID, role)
	s.sendOrDrop(sess, domain.Envelope{
		Type:   domain.TypeJoined,
		RoomID: string(room.ID),
		Role:   string(role),
	})

	// Peer is only set when this join completed the pair, so ready is
	// emitted to both occupants exactly once.
	if outcome.Peer != nil {
		s.sendOrDrop(sess, domain.Envelope{Type: domain.TypeReady})
		s.sendOrDrop(outcome.Peer, domain.Envelope{Type: domain.TypeReady})
	}

	s.logger.Infow("session joined",
		"conn_id", sess.Conn.ID(),
		"room_id", env.RoomID,
		"role", role,
		"rejoin", outcome.Rejoin,
		"paired", outcome.Paired,
	)
}

func (s *RelayService) handleRelay(sess *domain.Session, env domain.Envelope) {
	if !sess.Joined() {
		s.reject(sess, domain.ErrNotJoined)
		return
	}

	room, ok := s.rooms.Get(sess.RoomID())
	if !ok {
		s.reject(sess, domain.ErrRoomMissing)
		return
	}

	peer := room.Peer(sess)
	if peer == nil {
		s.reject(sess, domain.ErrPeerNotConnected)
		return
	}

	// Forward the envelope unchanged: original type, data verbatim. The
	// payload is opaque to the relay. Send failures mean the peer is
	// already going away and are dropped silently.
	if err := peer.Conn.Send(domain.Envelope{Type: env.Type, Data: env.Data}); err != nil {
		s.logger.Debugw("relay send dropped",
			"conn_id", sess.Conn.ID(),
			"peer_id", peer.Conn.ID(),
			"error", err,
		)
	}
	room.Touch()
	s.metrics.MessageRelayed(string(env.Type))
}

func (s *RelayService) handleLeave(sess *domain.Session) {
	s.Cleanup(sess)
	// The channel stays open and may join again.
	sess.Reset()
}

// Cleanup releases the session's room slot, notifies the remaining
// occupant and deletes the room once both slots are empty. It is the only
// path that removes membership and is safe to invoke more than once for
// the same session.
func (s *RelayService) Cleanup(sess *domain.Session) {
	if !sess.Joined() {
		return
	}

	room, ok := s.rooms.Get(sess.RoomID())
	if !ok {
		return
	}

	peer, empty := room.Remove(sess)
	if peer != nil {
		s.sendOrDrop(peer, domain.Envelope{Type: domain.TypePeerLeft})
	}
	if empty {
		s.rooms.DeleteIfEmpty(room.ID)
	}

	s.logger.Infow("session cleaned up",
		"conn_id", sess.Conn.ID(),
		"room_id", room.ID,
		"room_empty", empty,
	)
}

func (s *RelayService) reject(sess *domain.Session, err error) {
	s.metrics.RelayRejected(err.Error())
	s.sendError(sess, err)
}

func (s *RelayService) sendError(sess *domain.Session, err error) {
	s.sendOrDrop(sess, domain.ErrorEnvelope(err))
}

func (s *RelayService) sendOrDrop(sess *domain.Session, env domain.Envelope) {
	if err := sess.Conn.Send(env); err != nil {
		s.logger.Debugw("outbound envelope dropped",
			"conn_id", sess.Conn.ID(),
			"type", env.Type,
			"error", err,
		)
	}
}
