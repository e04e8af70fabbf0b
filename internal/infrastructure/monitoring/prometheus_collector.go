package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics on the default registry.
type PrometheusCollector struct {
	connectionsActive prometheus.Gauge
	roomsActive       prometheus.Gauge
	messagesRelayed   *prometheus.CounterVec
	relayRejected     *prometheus.CounterVec
	rateLimitCloses   prometheus.Counter
	roomsEvicted      prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairlink_connections_active",
			Help: "Number of open signaling channels",
		}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pairlink_rooms_active",
			Help: "Number of live rooms in the registry",
		}),

		messagesRelayed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairlink_messages_relayed_total",
			Help: "Handshake envelopes relayed between peers",
		}, []string{"type"}),

		relayRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pairlink_messages_rejected_total",
			Help: "Inbound envelopes rejected with an error envelope",
		}, []string{"reason"}),

		rateLimitCloses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairlink_rate_limit_closes_total",
			Help: "Connections closed for exceeding the message rate cap",
		}),

		roomsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pairlink_rooms_evicted_total",
			Help: "Stale rooms removed by the janitor",
		}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsActive.Inc()
}

func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

func (c *PrometheusCollector) RoomCreated() {
	c.roomsActive.Inc()
}

func (c *PrometheusCollector) RoomDeleted() {
	c.roomsActive.Dec()
}

func (c *PrometheusCollector) MessageRelayed(msgType string) {
	c.messagesRelayed.WithLabelValues(msgType).Inc()
}

func (c *PrometheusCollector) RelayRejected(reason string) {
	c.relayRejected.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) RateLimitClosed() {
	c.rateLimitCloses.Inc()
}

func (c *PrometheusCollector) RoomEvicted() {
	c.roomsEvicted.Inc()
}
