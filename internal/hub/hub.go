package hub

import (
	"context"
	"sync/atomic"

	"chathub/pkg/log"
)

// Config tunes the hub.
type Config struct {
	MaxConnections int
	CommandBuffer  int
}

// Hub owns the connection registry and the room membership table and
// applies all mutations through a single command loop. It is an injected
// service instance: no package-level state, lifecycle bounded by
// Run/Shutdown.
type Hub struct {
	registry *Registry
	rooms    *RoomTable
	presence *Presence

	dispatcher *Dispatcher

	commands chan command

	maxConnections int

	// Metrics
	fanoutsReceived atomic.Int64
	payloadsSent    atomic.Int64
	payloadsFailed  atomic.Int64

	logger log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a new Hub instance.
func NewHub(logger log.Logger, cfg Config) *Hub {
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = 1024
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10000
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		registry:       NewRegistry(),
		rooms:          NewRoomTable(),
		commands:       make(chan command, cfg.CommandBuffer),
		maxConnections: cfg.MaxConnections,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	h.presence = NewPresence(h.registry)
	h.dispatcher = NewDispatcher(h.registry, h.rooms, logger, &h.payloadsSent, &h.payloadsFailed)
	return h
}

// Run starts the hub's command loop. It returns when Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info(context.Background(), "hub shutting down")
			h.closeAllConnections()
			return

		case cmd := <-h.commands:
			h.apply(cmd)
		}
	}
}

func (h *Hub) apply(cmd command) {
	switch c := cmd.(type) {
	case registerCmd:
		h.applyRegister(c.conn)
	case unregisterCmd:
		h.applyUnregister(c.connID)
	case joinCmd:
		h.rooms.Join(c.room, c.connID)
		h.logger.Debugf(h.ctx, "conn %s joined room %s", c.connID, c.room)
	case leaveCmd:
		h.rooms.Leave(c.room, c.connID)
		h.logger.Debugf(h.ctx, "conn %s left room %s", c.connID, c.room)
	case fanoutCmd:
		h.dispatcher.Dispatch(c.desc)
	case flushCmd:
		close(c.done)
	}
}

func (h *Hub) applyRegister(conn *Connection) {
	total, _ := h.registry.Counts()
	if total >= h.maxConnections {
		h.logger.Warnf(h.ctx, "max connections reached, rejecting user %s", conn.userID)
		go conn.Close()
		return
	}

	if err := h.registry.Register(conn); err != nil {
		// Duplicate connection id: a registration race. Treat the new
		// registration as a logical reconnect of the old one.
		h.logger.Warnf(h.ctx, "duplicate connection id %s, recovering as reconnect", conn.id)
		h.applyUnregister(conn.id)
		if err := h.registry.Register(conn); err != nil {
			h.logger.Errorf(h.ctx, "re-register after reconnect failed for conn %s: %v", conn.id, err)
			go conn.Close()
			return
		}
	}

	// Every connection subscribes to its owner's inbox room.
	h.rooms.Join(PersonalRoom(conn.userID), conn.id)

	conns, users := h.registry.Counts()
	h.logger.Infof(h.ctx, "user %s connected (conn %s, connections: %d, users: %d)",
		conn.userID, conn.id, conns, users)
}

func (h *Hub) applyUnregister(connID string) {
	conn := h.registry.Unregister(connID)
	if conn == nil {
		// Duplicate disconnect notification; already cleaned up.
		return
	}

	h.rooms.RemoveConnectionEverywhere(connID)

	// The command loop is the only sender on conn.send, so the close
	// cannot race an enqueue.
	close(conn.send)
	conn.Close()

	conns, users := h.registry.Counts()
	h.logger.Infof(h.ctx, "user %s disconnected (conn %s, connections: %d, users: %d)",
		conn.userID, connID, conns, users)
}

func (h *Hub) closeAllConnections() {
	for _, conn := range h.registry.drain() {
		h.rooms.RemoveConnectionEverywhere(conn.id)
		close(conn.send)
		conn.Close()
	}
}

// submit enqueues a command unless the hub is shut down.
func (h *Hub) submit(cmd command) error {
	select {
	case <-h.ctx.Done():
		return ErrHubClosed
	default:
	}
	select {
	case h.commands <- cmd:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Register hands a freshly upgraded connection to the hub. The hub takes
// ownership: it registers the connection and auto-joins its personal room.
func (h *Hub) Register(conn *Connection) error {
	return h.submit(registerCmd{conn: conn})
}

// Unregister removes a connection and cascades room cleanup. Idempotent.
func (h *Hub) Unregister(connID string) {
	if err := h.submit(unregisterCmd{connID: connID}); err != nil {
		h.logger.Debugf(context.Background(), "unregister after shutdown for conn %s", connID)
	}
}

// HandleFrame applies a validated client control frame for the connection.
func (h *Hub) HandleFrame(conn *Connection, frame *ClientFrame) {
	switch frame.Action {
	case FrameActionJoin:
		if frame.Room.Kind == RoomKindPersonal && frame.Room.ID != conn.userID {
			// A connection may only subscribe to its own inbox room.
			h.logger.Warnf(h.ctx, "conn %s (user %s) tried to join foreign personal room %s",
				conn.id, conn.userID, frame.Room)
			return
		}
		h.submit(joinCmd{room: frame.Room, connID: conn.id})

	case FrameActionLeave:
		h.submit(leaveCmd{room: frame.Room, connID: conn.id})

	case FrameActionInitPrivate:
		// Legacy pairwise room: joined for compatibility with existing
		// clients, never a fanout target.
		h.submit(joinCmd{room: PairRoom(conn.userID, frame.TargetUserID), connID: conn.id})
	}
}

// Fanout validates the descriptor and queues it for delivery. Fanouts are
// applied in submission order, which preserves per-room delivery order
// for sequentially completed message writes.
func (h *Hub) Fanout(desc *MessageDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	h.fanoutsReceived.Add(1)
	return h.submit(fanoutCmd{desc: desc})
}

// Presence returns the read-only presence view.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// ConnectionsOf returns a snapshot of the user's live connection ids.
// Presence queries only; delivery always resolves through room
// membership.
func (h *Hub) ConnectionsOf(userID string) []string {
	return h.registry.ConnectionsOf(userID)
}

// Stats is a point-in-time snapshot of hub counters.
type Stats struct {
	ActiveConnections int   `json:"active_connections"`
	OnlineUsers       int   `json:"online_users"`
	ActiveRooms       int   `json:"active_rooms"`
	FanoutsReceived   int64 `json:"fanouts_received"`
	PayloadsSent      int64 `json:"payloads_sent"`
	PayloadsFailed    int64 `json:"payloads_failed"`
}

// GetStats returns hub statistics.
func (h *Hub) GetStats() Stats {
	conns, users := h.registry.Counts()
	return Stats{
		ActiveConnections: conns,
		OnlineUsers:       users,
		ActiveRooms:       h.rooms.Len(),
		FanoutsReceived:   h.fanoutsReceived.Load(),
		PayloadsSent:      h.payloadsSent.Load(),
		PayloadsFailed:    h.payloadsFailed.Load(),
	}
}

// flush blocks until every command submitted before the call has been
// applied.
func (h *Hub) flush() {
	done := make(chan struct{})
	if err := h.submit(flushCmd{done: done}); err != nil {
		return
	}
	<-done
}

// Shutdown stops the command loop and closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
