package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairlink/internal/core/domain"
)

type noopConn struct{ id string }

func (c *noopConn) ID() string                 { return c.id }
func (c *noopConn) RemoteAddr() string         { return "noop" }
func (c *noopConn) Send(domain.Envelope) error { return nil }
func (c *noopConn) Close(int, string) error    { return nil }

func TestGetOrCreate_ReturnsSameRoom(t *testing.T) {
	registry := NewMemoryRoomRegistry(nil)

	room := registry.GetOrCreate("r1")
	require.NotNil(t, room)
	assert.Same(t, room, registry.GetOrCreate("r1"))
	assert.Equal(t, 1, registry.Count())
}

func TestGet_DoesNotCreate(t *testing.T) {
	registry := NewMemoryRoomRegistry(nil)

	_, ok := registry.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Count())

	created := registry.GetOrCreate("r1")
	got, ok := registry.Get("r1")
	assert.True(t, ok)
	assert.Same(t, created, got)
}

func TestDelete_IsNoOpWhenAbsent(t *testing.T) {
	registry := NewMemoryRoomRegistry(nil)

	registry.Delete("missing")

	registry.GetOrCreate("r1")
	registry.Delete("r1")
	assert.Equal(t, 0, registry.Count())
}

func TestDeleteIfEmpty_KeepsOccupiedRoom(t *testing.T) {
	registry := NewMemoryRoomRegistry(nil)

	room := registry.GetOrCreate("r1")
	sess := domain.NewSession(&noopConn{id: "a"})
	_, err := room.Join(sess, "t", domain.RoleSender)
	require.NoError(t, err)

	registry.DeleteIfEmpty("r1")
	assert.Equal(t, 1, registry.Count(), "occupied room must survive")

	room.Remove(sess)
	registry.DeleteIfEmpty("r1")
	assert.Equal(t, 0, registry.Count())
}

func TestForEachStale_UnlinksOnlyStaleRooms(t *testing.T) {
	registry := NewMemoryRoomRegistry(nil)

	registry.GetOrCreate("stale")
	time.Sleep(25 * time.Millisecond)
	registry.GetOrCreate("fresh")

	var evicted []domain.RoomID
	registry.ForEachStale(10*time.Millisecond, func(room *domain.Room) {
		evicted = append(evicted, room.ID)
	})

	assert.Equal(t, []domain.RoomID{"stale"}, evicted)
	assert.Equal(t, 1, registry.Count())
	_, ok := registry.Get("fresh")
	assert.True(t, ok)
}
