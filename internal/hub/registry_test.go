package hub

import (
	"errors"
	"testing"
)

func newTestConn(id, userID string) *Connection {
	return &Connection{
		id:     id,
		userID: userID,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		logger: &testLogger{},
	}
}

func TestRegistryPresence(t *testing.T) {
	r := NewRegistry()

	if got := r.ConnectionsOf("alice"); len(got) != 0 {
		t.Fatalf("ConnectionsOf on empty registry = %v, want empty", got)
	}

	if err := r.Register(newTestConn("c1", "alice")); err != nil {
		t.Fatalf("Register(c1) error: %v", err)
	}
	if err := r.Register(newTestConn("c2", "alice")); err != nil {
		t.Fatalf("Register(c2) error: %v", err)
	}
	if err := r.Register(newTestConn("c3", "bob")); err != nil {
		t.Fatalf("Register(c3) error: %v", err)
	}

	if got := len(r.ConnectionsOf("alice")); got != 2 {
		t.Errorf("alice has %d connections, want 2", got)
	}
	if got := len(r.ConnectionsOf("bob")); got != 1 {
		t.Errorf("bob has %d connections, want 1", got)
	}

	// User stays online while at least one connection remains.
	r.Unregister("c1")
	if got := len(r.ConnectionsOf("alice")); got != 1 {
		t.Errorf("alice has %d connections after one unregister, want 1", got)
	}

	r.Unregister("c2")
	if got := r.ConnectionsOf("alice"); len(got) != 0 {
		t.Errorf("alice still has connections after full unregister: %v", got)
	}

	conns, users := r.Counts()
	if conns != 1 || users != 1 {
		t.Errorf("Counts() = (%d, %d), want (1, 1)", conns, users)
	}
}

func TestRegistryDuplicateConnection(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(newTestConn("c1", "alice")); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	err := r.Register(newTestConn("c1", "bob"))
	if !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("Register with duplicate id = %v, want ErrDuplicateConnection", err)
	}

	// The original mapping is untouched.
	if got := len(r.ConnectionsOf("alice")); got != 1 {
		t.Errorf("alice has %d connections, want 1", got)
	}
	if got := r.ConnectionsOf("bob"); len(got) != 0 {
		t.Errorf("bob has connections after failed register: %v", got)
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Register(newTestConn("c1", "alice"))

	if conn := r.Unregister("c1"); conn == nil {
		t.Fatal("first Unregister returned nil")
	}
	// Duplicate disconnect notifications are no-ops, not errors.
	if conn := r.Unregister("c1"); conn != nil {
		t.Errorf("second Unregister returned %v, want nil", conn)
	}
	if conn := r.Unregister("never-existed"); conn != nil {
		t.Errorf("Unregister of unknown id returned %v, want nil", conn)
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	r.Register(newTestConn("c1", "alice"))

	snapshot := r.ConnectionsOf("alice")
	r.Register(newTestConn("c2", "alice"))

	if len(snapshot) != 1 {
		t.Errorf("snapshot mutated by later register: %v", snapshot)
	}
}
