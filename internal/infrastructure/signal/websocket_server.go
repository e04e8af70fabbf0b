package signal

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
	"pairlink/internal/core/services"
	"pairlink/pkg/config"
	"pairlink/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocketServer upgrades inbound requests into duplex message channels
// and drives the relay service with every discrete frame. One handler
// goroutine per connection processes messages in arrival order.
type WebSocketServer struct {
	relay   *services.RelayService
	metrics ports.Metrics

	connections map[string]*wsConn
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func NewWebSocketServer(relay *services.RelayService, metrics ports.Metrics, cfg *config.Config, logger *zap.SugaredLogger) *WebSocketServer {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &WebSocketServer{
		relay:        relay,
		metrics:      metrics,
		connections:  make(map[string]*wsConn),
		pingInterval: cfg.Signal.PingInterval,
		pongTimeout:  cfg.Signal.PongTimeout,
		writeTimeout: cfg.Signal.WriteTimeout,
		logger:       logger,
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	wc := &wsConn{
		id:           utils.GenerateConnID(),
		remoteAddr:   r.RemoteAddr,
		conn:         conn,
		writeTimeout: s.writeTimeout,
	}
	sess := domain.NewSession(wc)

	s.mu.Lock()
	s.connections[wc.id] = wc
	s.mu.Unlock()
	s.metrics.ConnectionOpened()
	s.logger.Infow("peer connected", "conn_id", wc.id, "remote_addr", wc.remoteAddr)

	// Read limit sits above the protocol ceiling so the relay's own size
	// check decides the close, not the transport.
	conn.SetReadLimit(domain.MaxPayloadBytes + 1024)
	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan []byte, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
			messageChan <- payload
		}
	}()

	for {
		select {
		case payload := <-messageChan:
			if err := s.relay.HandleMessage(sess, payload); err != nil {
				s.logger.Warnw("connection closed by relay", "conn_id", wc.id, "error", err)
				goto cleanup
			}

		case <-pingTicker.C:
			if err := wc.ping(); err != nil {
				s.logger.Infow("error sending ping", "conn_id", wc.id, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading message", "conn_id", wc.id, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	s.relay.Cleanup(sess)
	wc.Close(websocket.CloseNormalClosure, "closing")

	s.mu.Lock()
	delete(s.connections, wc.id)
	s.mu.Unlock()
	s.metrics.ConnectionClosed()

	s.logger.Infow("peer disconnected", "conn_id", wc.id)
}

// ConnectionCount returns the number of open channels.
func (s *WebSocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
