package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
)

// Janitor periodically evicts rooms that have seen no activity for longer
// than the room TTL. It is the backstop against rooms leaked by crashed
// clients that never send leave or cleanly disconnect.
type Janitor struct {
	rooms    ports.RoomRegistry
	metrics  ports.Metrics
	logger   *zap.SugaredLogger
	ttl      time.Duration
	interval time.Duration
}

func NewJanitor(rooms ports.RoomRegistry, metrics ports.Metrics, logger *zap.SugaredLogger) *Janitor {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Janitor{
		rooms:    rooms,
		metrics:  metrics,
		logger:   logger,
		ttl:      domain.RoomTTL,
		interval: domain.SweepInterval,
	}
}

// Run sweeps on a fixed period until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep evicts every stale room, force-closing any occupant channels.
// Each close triggers that connection's own disconnect cleanup.
func (j *Janitor) Sweep() {
	j.rooms.ForEachStale(j.ttl, func(room *domain.Room) {
		occupants := room.Occupants()
		for _, sess := range occupants {
			sess.Conn.Close(domain.CloseRoomExpired, "room expired")
		}
		j.metrics.RoomEvicted()
		j.logger.Infow("evicted stale room",
			"room_id", room.ID,
			"occupants", len(occupants),
		)
	})
}
