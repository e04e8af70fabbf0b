package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
	"pairlink/internal/infrastructure/repositories/memory"
)

type fakeConn struct {
	id string

	mu          sync.Mutex
	sent        []domain.Envelope
	closed      bool
	closeCode   int
	closeReason string
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) Send(env domain.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.closeCode = code
		c.closeReason = reason
	}
	return nil
}

func (c *fakeConn) envelopes() []domain.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Envelope, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) types() []domain.MessageType {
	var out []domain.MessageType
	for _, env := range c.envelopes() {
		out = append(out, env.Type)
	}
	return out
}

func (c *fakeConn) countType(t domain.MessageType) int {
	n := 0
	for _, env := range c.envelopes() {
		if env.Type == t {
			n++
		}
	}
	return n
}

func (c *fakeConn) lastError() string {
	envs := c.envelopes()
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == domain.TypeError {
			return envs[i].Message
		}
	}
	return ""
}

func newRelay(t *testing.T) (*RelayService, ports.RoomRegistry) {
	t.Helper()
	registry := memory.NewMemoryRoomRegistry(nil)
	relay := NewRelayService(registry, nil, zap.NewNop().Sugar())
	return relay, registry
}

func newConnSession(id string) (*fakeConn, *domain.Session) {
	fc := &fakeConn{id: id}
	return fc, domain.NewSession(fc)
}

func send(t *testing.T, relay *RelayService, sess *domain.Session, msg map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, relay.HandleMessage(sess, payload))
}

func join(t *testing.T, relay *RelayService, sess *domain.Session, roomID, token, role string) {
	t.Helper()
	send(t, relay, sess, map[string]interface{}{
		"type": "join", "roomId": roomID, "token": token, "role": role,
	})
}

func TestRelay_FullSignalingScenario(t *testing.T) {
	relay, registry := newRelay(t)
	fcA, sessA := newConnSession("a")
	fcB, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")
	envs := fcA.envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, domain.TypeJoined, envs[0].Type)
	assert.Equal(t, "r1", envs[0].RoomID)
	assert.Equal(t, "sender", envs[0].Role)

	join(t, relay, sessB, "r1", "t", "receiver")
	assert.Equal(t, []domain.MessageType{domain.TypeJoined, domain.TypeReady}, fcB.types())
	assert.Equal(t, []domain.MessageType{domain.TypeJoined, domain.TypeReady}, fcA.types())

	send(t, relay, sessA, map[string]interface{}{
		"type": "offer", "data": map[string]string{"sdp": "v=0..."},
	})
	envs = fcB.envelopes()
	require.Len(t, envs, 3)
	assert.Equal(t, domain.TypeOffer, envs[2].Type)
	assert.JSONEq(t, `{"sdp":"v=0..."}`, string(envs[2].Data))

	send(t, relay, sessB, map[string]interface{}{
		"type": "answer", "data": map[string]string{"sdp": "v=0..."},
	})
	assert.Equal(t, domain.TypeAnswer, fcA.envelopes()[2].Type)

	send(t, relay, sessB, map[string]interface{}{
		"type": "ice", "data": map[string]string{"candidate": "candidate:1"},
	})
	assert.Equal(t, domain.TypeICE, fcA.envelopes()[3].Type)

	// B disconnects: A learns about it and the room dies with A's cleanup.
	relay.Cleanup(sessB)
	assert.Equal(t, 1, fcA.countType(domain.TypePeerLeft))
	relay.Cleanup(sessA)
	assert.Equal(t, 0, registry.Count())
}

func TestRelay_ReadyEmittedExactlyOnce(t *testing.T) {
	relay, _ := newRelay(t)
	fcA, sessA := newConnSession("a")
	fcB, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessB, "r1", "t", "receiver")

	// Idempotent re-join must not re-emit ready to either side.
	join(t, relay, sessA, "r1", "t", "sender")
	assert.Equal(t, 1, fcA.countType(domain.TypeReady))
	assert.Equal(t, 1, fcB.countType(domain.TypeReady))
	assert.Equal(t, 2, fcA.countType(domain.TypeJoined))
}

func TestRelay_JoinValidation(t *testing.T) {
	cases := []struct {
		name    string
		msg     map[string]interface{}
		wantErr string
	}{
		{
			name:    "missing token",
			msg:     map[string]interface{}{"type": "join", "roomId": "r1", "role": "sender"},
			wantErr: domain.ErrMissingJoinFields.Error(),
		},
		{
			name:    "missing room",
			msg:     map[string]interface{}{"type": "join", "token": "t", "role": "sender"},
			wantErr: domain.ErrMissingJoinFields.Error(),
		},
		{
			name:    "missing role",
			msg:     map[string]interface{}{"type": "join", "roomId": "r1", "token": "t"},
			wantErr: domain.ErrMissingJoinFields.Error(),
		},
		{
			name:    "unknown role",
			msg:     map[string]interface{}{"type": "join", "roomId": "r1", "token": "t", "role": "observer"},
			wantErr: domain.ErrInvalidRole.Error(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			relay, registry := newRelay(t)
			fc, sess := newConnSession("a")

			send(t, relay, sess, tc.msg)
			assert.Equal(t, tc.wantErr, fc.lastError())
			assert.False(t, sess.Joined())
			assert.Equal(t, 0, registry.Count())
		})
	}
}

func TestRelay_BadTokenIsRecoverable(t *testing.T) {
	relay, _ := newRelay(t)
	_, sessA := newConnSession("a")
	fcB, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")

	join(t, relay, sessB, "r1", "wrong", "receiver")
	assert.Equal(t, domain.ErrBadToken.Error(), fcB.lastError())
	assert.False(t, sessB.Joined())

	// Same channel retries with corrected credentials.
	join(t, relay, sessB, "r1", "t", "receiver")
	assert.True(t, sessB.Joined())
	assert.Equal(t, 1, fcB.countType(domain.TypeJoined))
}

func TestRelay_RoomFull(t *testing.T) {
	relay, _ := newRelay(t)
	_, sessA := newConnSession("a")
	_, sessB := newConnSession("b")
	fcC, sessC := newConnSession("c")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessB, "r1", "t", "receiver")

	join(t, relay, sessC, "r1", "t", "sender")
	assert.Equal(t, domain.ErrRoomFull.Error(), fcC.lastError())
	assert.False(t, sessC.Joined())
}

func TestRelay_SecondBindingRejected(t *testing.T) {
	relay, _ := newRelay(t)
	fcA, sessA := newConnSession("a")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessA, "r2", "t", "sender")
	assert.Equal(t, domain.ErrAlreadyJoined.Error(), fcA.lastError())
	assert.Equal(t, domain.RoomID("r1"), sessA.RoomID())

	join(t, relay, sessA, "r1", "t", "receiver")
	assert.Equal(t, domain.ErrAlreadyJoined.Error(), fcA.lastError())
	assert.Equal(t, domain.RoleSender, sessA.Role())
}

func TestRelay_OfferBeforeJoin(t *testing.T) {
	relay, _ := newRelay(t)
	fc, sess := newConnSession("a")

	send(t, relay, sess, map[string]interface{}{"type": "offer", "data": "x"})
	assert.Equal(t, domain.ErrNotJoined.Error(), fc.lastError())
}

func TestRelay_RelayWithoutPeer(t *testing.T) {
	relay, _ := newRelay(t)
	fcA, sessA := newConnSession("a")

	join(t, relay, sessA, "r1", "t", "sender")
	send(t, relay, sessA, map[string]interface{}{"type": "offer", "data": "x"})
	assert.Equal(t, domain.ErrPeerNotConnected.Error(), fcA.lastError())
}

func TestRelay_RelayWhenRoomGone(t *testing.T) {
	relay, registry := newRelay(t)
	fcA, sessA := newConnSession("a")

	join(t, relay, sessA, "r1", "t", "sender")
	registry.Delete("r1")

	send(t, relay, sessA, map[string]interface{}{"type": "offer", "data": "x"})
	assert.Equal(t, domain.ErrRoomMissing.Error(), fcA.lastError())
}

func TestRelay_UnknownTypeKeepsConnectionOpen(t *testing.T) {
	relay, _ := newRelay(t)
	fc, sess := newConnSession("a")

	send(t, relay, sess, map[string]interface{}{"type": "subscribe"})
	assert.Equal(t, domain.ErrUnknownType.Error(), fc.lastError())
	assert.False(t, fc.closed)
}

func TestRelay_OversizedPayloadClosesConnection(t *testing.T) {
	relay, _ := newRelay(t)
	fc, sess := newConnSession("a")

	payload := bytes.Repeat([]byte("a"), domain.MaxPayloadBytes+1)
	err := relay.HandleMessage(sess, payload)
	require.Error(t, err)
	assert.True(t, fc.closed)
	assert.Equal(t, domain.CloseMessageTooBig, fc.closeCode)
}

func TestRelay_MalformedPayloadClosesConnection(t *testing.T) {
	relay, _ := newRelay(t)
	fc, sess := newConnSession("a")

	err := relay.HandleMessage(sess, []byte("{not json"))
	require.Error(t, err)
	assert.True(t, fc.closed)
	assert.Equal(t, domain.CloseProtocolError, fc.closeCode)
}

func TestRelay_RateLimitClosesConnection(t *testing.T) {
	relay, _ := newRelay(t)
	fc, sess := newConnSession("a")

	payload := []byte(`{"type":"leave"}`)
	for i := 0; i < domain.RateLimit; i++ {
		require.NoError(t, relay.HandleMessage(sess, payload), "message %d should pass", i+1)
	}

	err := relay.HandleMessage(sess, payload)
	require.Error(t, err)
	assert.True(t, fc.closed)
	assert.Equal(t, domain.CloseRateLimited, fc.closeCode)
}

func TestRelay_LeaveNotifiesPeerAndDeletesRoom(t *testing.T) {
	relay, registry := newRelay(t)
	_, sessA := newConnSession("a")
	fcB, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessB, "r1", "t", "receiver")

	send(t, relay, sessA, map[string]interface{}{"type": "leave"})
	assert.Equal(t, 1, fcB.countType(domain.TypePeerLeft))
	assert.False(t, sessA.Joined())
	assert.Equal(t, 1, registry.Count(), "room lives while the receiver stays")

	send(t, relay, sessB, map[string]interface{}{"type": "leave"})
	assert.Equal(t, 0, registry.Count())
}

func TestRelay_LeaveThenRejoinSameChannel(t *testing.T) {
	relay, _ := newRelay(t)
	fcA, sessA := newConnSession("a")

	join(t, relay, sessA, "r1", "t", "sender")
	send(t, relay, sessA, map[string]interface{}{"type": "leave"})

	join(t, relay, sessA, "r2", "s", "receiver")
	assert.True(t, sessA.Joined())
	assert.Equal(t, domain.RoomID("r2"), sessA.RoomID())
	assert.Equal(t, 2, fcA.countType(domain.TypeJoined))
}

func TestRelay_CleanupIsIdempotent(t *testing.T) {
	relay, registry := newRelay(t)
	_, sessA := newConnSession("a")
	fcB, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessB, "r1", "t", "receiver")

	relay.Cleanup(sessA)
	relay.Cleanup(sessA)
	assert.Equal(t, 1, fcB.countType(domain.TypePeerLeft), "peer must be notified exactly once")
	assert.Equal(t, 1, registry.Count())
}

func TestRelay_StaleCleanupDoesNotEvictReclaimedSlot(t *testing.T) {
	relay, registry := newRelay(t)
	_, sessA := newConnSession("a")
	_, sessA2 := newConnSession("a2")
	_, sessB := newConnSession("b")

	join(t, relay, sessA, "r1", "t", "sender")
	join(t, relay, sessB, "r1", "t", "receiver")

	relay.Cleanup(sessA)
	join(t, relay, sessA2, "r1", "t", "sender")

	// The old session's second cleanup races in after the slot was
	// reclaimed; the new sender must survive it.
	relay.Cleanup(sessA)
	room, ok := registry.Get("r1")
	require.True(t, ok)
	assert.Len(t, room.Occupants(), 2)
}

func TestRelay_OccupancyNeverExceedsTwo(t *testing.T) {
	relay, registry := newRelay(t)

	for i := 0; i < 10; i++ {
		_, sess := newConnSession(fmt.Sprintf("conn-%d", i))
		role := "sender"
		if i%2 == 1 {
			role = "receiver"
		}
		join(t, relay, sess, "r1", "t", role)

		room, ok := registry.Get("r1")
		require.True(t, ok)
		n := len(room.Occupants())
		assert.LessOrEqual(t, n, domain.MaxRoomOccupants)
	}
}
