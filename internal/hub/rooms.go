package hub

import "sync"

// RoomTable tracks, per room key, the set of connection ids currently
// subscribed. Absence of an entry is equivalent to an empty member set;
// rooms themselves persist in the chat service's data store. A reverse
// index keeps the disconnect cascade proportional to the number of rooms
// the connection actually joined.
type RoomTable struct {
	mu sync.RWMutex

	// room key -> set of member connection ids
	rooms map[RoomKey]map[string]struct{}

	// connection id -> set of rooms it belongs to
	memberships map[string]map[RoomKey]struct{}
}

// NewRoomTable creates an empty RoomTable.
func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms:       make(map[RoomKey]map[string]struct{}),
		memberships: make(map[string]map[RoomKey]struct{}),
	}
}

// Join adds the connection to the room. Joining twice is a no-op.
func (t *RoomTable) Join(room RoomKey, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		t.rooms[room] = members
	}
	members[connID] = struct{}{}

	joined, ok := t.memberships[connID]
	if !ok {
		joined = make(map[RoomKey]struct{})
		t.memberships[connID] = joined
	}
	joined[room] = struct{}{}
}

// Leave removes the connection from the room. Leaving a room the
// connection is not in is a no-op.
func (t *RoomTable) Leave(room RoomKey, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaveLocked(room, connID)
}

func (t *RoomTable) leaveLocked(room RoomKey, connID string) {
	if members, ok := t.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(t.rooms, room)
		}
	}
	if joined, ok := t.memberships[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(t.memberships, connID)
		}
	}
}

// MembersOf returns a snapshot of the connection ids in the room at call
// time. The snapshot is taken under the read lock and delivery happens
// against the copy, so a slow send never holds the table.
func (t *RoomTable) MembersOf(room RoomKey) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	members, ok := t.rooms[room]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// RoomsOf returns a snapshot of the rooms the connection has joined.
func (t *RoomTable) RoomsOf(connID string) []RoomKey {
	t.mu.RLock()
	defer t.mu.RUnlock()

	joined, ok := t.memberships[connID]
	if !ok {
		return nil
	}
	keys := make([]RoomKey, 0, len(joined))
	for key := range joined {
		keys = append(keys, key)
	}
	return keys
}

// RemoveConnectionEverywhere removes the connection from every room it
// belongs to in one pass. Called by the hub's disconnect cascade so that
// membership never outlives its connection.
func (t *RoomTable) RemoveConnectionEverywhere(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	joined, ok := t.memberships[connID]
	if !ok {
		return
	}
	for room := range joined {
		if members, ok := t.rooms[room]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(t.rooms, room)
			}
		}
	}
	delete(t.memberships, connID)
}

// Len returns the number of rooms with at least one member.
func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
