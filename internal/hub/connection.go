package hub

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"chathub/pkg/log"
)

// ConnTimings holds per-connection transport deadlines.
type ConnTimings struct {
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Connection is one live websocket session for an authenticated user.
// The id is assigned by the handler at upgrade time and is unique for
// the connection's lifetime; the owning user id never changes.
type Connection struct {
	id        string
	userID    string
	createdAt time.Time

	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound payloads. The dispatcher enqueues
	// non-blocking; writePump drains.
	send chan []byte

	timings ConnTimings
	logger  log.Logger

	done chan struct{}
}

// NewConnection creates a Connection for a completed handshake.
func NewConnection(h *Hub, conn *websocket.Conn, id, userID string, timings ConnTimings, sendBuffer int, logger log.Logger) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Connection{
		id:        id,
		userID:    userID,
		createdAt: time.Now(),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		timings:   timings,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Connection) ID() string { return c.id }

// UserID returns the owning user id.
func (c *Connection) UserID() string { return c.userID }

// enqueue hands a payload to the connection's send buffer without
// blocking. It reports false when the buffer is full or the connection
// is closing; the caller drops the payload in that case.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump pumps control frames from the websocket connection into the
// hub. It is the sole reader of the connection; when it returns the
// connection is unregistered and the cleanup cascade runs.
func (c *Connection) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.timings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.timings.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Errorf(context.Background(), "read error for user %s conn %s: %v", c.userID, c.id, err)
			}
			return
		}

		frame, err := ParseClientFrame(data)
		if err != nil {
			c.logger.Warnf(context.Background(), "dropping bad frame from user %s conn %s: %v", c.userID, c.id, err)
			continue
		}
		c.hub.HandleFrame(c, frame)
	}
}

// writePump pumps payloads from the send buffer to the websocket
// connection and keeps the transport alive with pings. It is the sole
// writer of the connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.timings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.timings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// Start starts the connection's read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears down the transport. Safe to call more than once.
func (c *Connection) Close() {
	select {
	case <-c.done:
		return
	default:
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}
