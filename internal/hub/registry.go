package hub

import "sync"

// Registry is the source of truth for presence: a bidirectional mapping
// between live connections and the users that own them. All methods are
// safe for concurrent use; mutations hold the write lock only for map
// operations, never while iterating members for delivery.
type Registry struct {
	mu sync.RWMutex

	// connection id -> connection
	conns map[string]*Connection

	// user id -> set of that user's connections, keyed by connection id
	users map[string]map[string]*Connection
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		users: make(map[string]map[string]*Connection),
	}
}

// Register records the connection. It fails with ErrDuplicateConnection
// if the id is already registered; the hub resolves that by treating the
// second registration as a logical reconnect.
func (r *Registry) Register(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.id]; exists {
		return ErrDuplicateConnection
	}

	r.conns[conn.id] = conn
	userConns, ok := r.users[conn.userID]
	if !ok {
		userConns = make(map[string]*Connection)
		r.users[conn.userID] = userConns
	}
	userConns[conn.id] = conn
	return nil
}

// Unregister removes the mapping for the connection id and returns the
// removed connection. It is a no-op returning nil when the id is already
// gone, so duplicate disconnect notifications from the transport layer
// are harmless.
func (r *Registry) Unregister(connID string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)

	if userConns, ok := r.users[conn.userID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.users, conn.userID)
		}
	}
	return conn
}

// Get returns the connection with the given id.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}

// ConnectionsOf returns a snapshot of the user's live connection ids.
// Used for presence queries only; delivery resolves through room
// membership.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns, ok := r.users[userID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(userConns))
	for id := range userConns {
		ids = append(ids, id)
	}
	return ids
}

// Counts returns the number of live connections and distinct online users.
func (r *Registry) Counts() (connections, users int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns), len(r.users)
}

// drain removes and returns every registered connection. Used during
// shutdown.
func (r *Registry) drain() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.users = make(map[string]map[string]*Connection)
	return conns
}
