package hub

// Presence is a read-only projection over the registry: a user is online
// iff it owns at least one live connection. It holds no state of its own,
// so it can never disagree with the registry.
type Presence struct {
	registry *Registry
}

// NewPresence creates a presence view over the registry.
func NewPresence(registry *Registry) *Presence {
	return &Presence{registry: registry}
}

// Online reports whether the user has at least one live connection.
func (p *Presence) Online(userID string) bool {
	return len(p.registry.ConnectionsOf(userID)) > 0
}

// OnlineCount returns the number of distinct online users.
func (p *Presence) OnlineCount() int {
	_, users := p.registry.Counts()
	return users
}
