package memory

import (
	"sync"
	"time"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
)

// MemoryRoomRegistry keeps all rooms in a map guarded by its own mutex.
// Per-room state is guarded by the room's mutex; lock order is always
// registry then room, so eviction can re-check staleness under both
// locks without deadlocking against the join path.
type MemoryRoomRegistry struct {
	rooms   map[domain.RoomID]*domain.Room
	mu      sync.RWMutex
	metrics ports.Metrics
}

func NewMemoryRoomRegistry(metrics ports.Metrics) ports.RoomRegistry {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &MemoryRoomRegistry{
		rooms:   make(map[domain.RoomID]*domain.Room),
		metrics: metrics,
	}
}

func (r *MemoryRoomRegistry) GetOrCreate(id domain.RoomID) *domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		room = domain.NewRoom(id)
		r.rooms[id] = room
		r.metrics.RoomCreated()
	}
	return room
}

func (r *MemoryRoomRegistry) Get(id domain.RoomID) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	return room, exists
}

func (r *MemoryRoomRegistry) Delete(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; exists {
		delete(r.rooms, id)
		r.metrics.RoomDeleted()
	}
}

func (r *MemoryRoomRegistry) DeleteIfEmpty(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return
	}
	// Re-check under the registry lock: a join that slipped in between
	// the caller's cleanup and this call must keep the room alive.
	if room.Empty() {
		delete(r.rooms, id)
		r.metrics.RoomDeleted()
	}
}

func (r *MemoryRoomRegistry) ForEachStale(threshold time.Duration, fn func(room *domain.Room)) {
	now := time.Now()

	r.mu.Lock()
	var stale []*domain.Room
	for id, room := range r.rooms {
		if room.IdleLongerThan(threshold, now) {
			stale = append(stale, room)
			delete(r.rooms, id)
			r.metrics.RoomDeleted()
		}
	}
	r.mu.Unlock()

	// fn closes occupant channels; run it outside the registry lock so
	// unrelated rooms never wait on eviction.
	for _, room := range stale {
		fn(room)
	}
}

func (r *MemoryRoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
