package monitoring

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus coarse occupancy counts. It never touches
// room state directly; the counts come from closures supplied by the
// owning layers.
type Health struct {
	instanceID  string
	startedAt   time.Time
	connections func() int
	rooms       func() int
}

func NewHealth(instanceID string, connections, rooms func() int) *Health {
	return &Health{
		instanceID:  instanceID,
		startedAt:   time.Now(),
		connections: connections,
		rooms:       rooms,
	}
}

func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "healthy",
			"instance_id":    h.instanceID,
			"timestamp":      time.Now().Unix(),
			"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
			"connections":    h.connections(),
			"rooms":          h.rooms(),
		})
	}
}
