package ports

import (
	"time"

	"pairlink/internal/core/domain"
)

// RoomRegistry is the mapping from room identifier to room state.
// Implementations must make GetOrCreate, DeleteIfEmpty and ForEachStale
// atomic with respect to each other so that a room being evicted cannot
// be resurrected mid-delete.
type RoomRegistry interface {
	// GetOrCreate returns the existing room or creates an empty one,
	// recording the current time as last activity. It never fails.
	GetOrCreate(id domain.RoomID) *domain.Room

	// Get looks a room up without creating it.
	Get(id domain.RoomID) (*domain.Room, bool)

	// Delete removes a room. No-op if absent.
	Delete(id domain.RoomID)

	// DeleteIfEmpty removes the room only if both slots are still
	// vacant, closing the race against a concurrent join.
	DeleteIfEmpty(id domain.RoomID)

	// ForEachStale atomically unlinks every room whose last activity is
	// older than threshold and invokes fn on it. Used solely by the
	// janitor.
	ForEachStale(threshold time.Duration, fn func(room *domain.Room))

	// Count returns the number of live rooms.
	Count() int
}
