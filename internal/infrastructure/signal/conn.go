package signal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairlink/internal/core/domain"
)

// wsConn adapts a gorilla connection to the domain.Conn contract. The
// write mutex serializes frames from the handler goroutine, the relay
// paths of other connections and the janitor. Once closed, sends and
// further closes are no-ops.
type wsConn struct {
	id           string
	remoteAddr   string
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}

func (c *wsConn) Send(env domain.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(env)
}

func (c *wsConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	return c.conn.Close()
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}
