package hub

import (
	"sort"
	"testing"
)

func TestRoomTableJoinLeave(t *testing.T) {
	rt := NewRoomTable()
	room := GroupRoom("7")

	t.Run("join then leave restores pre-join state", func(t *testing.T) {
		rt.Join(room, "c1")
		rt.Leave(room, "c1")

		if got := rt.MembersOf(room); len(got) != 0 {
			t.Errorf("MembersOf after join+leave = %v, want empty", got)
		}
		if rt.Len() != 0 {
			t.Errorf("Len() = %d, want 0 (empty room entry dropped)", rt.Len())
		}
	})

	t.Run("join is idempotent", func(t *testing.T) {
		rt.Join(room, "c1")
		rt.Join(room, "c1")

		if got := rt.MembersOf(room); len(got) != 1 {
			t.Errorf("MembersOf after double join = %v, want one member", got)
		}
		rt.Leave(room, "c1")
	})

	t.Run("leave is idempotent", func(t *testing.T) {
		rt.Leave(room, "c1")
		rt.Leave(GroupRoom("never-joined"), "c1")

		if rt.Len() != 0 {
			t.Errorf("Len() = %d, want 0", rt.Len())
		}
	})
}

func TestRoomTableRemoveConnectionEverywhere(t *testing.T) {
	rt := NewRoomTable()

	rt.Join(PersonalRoom("alice"), "c1")
	rt.Join(GroupRoom("7"), "c1")
	rt.Join(GroupRoom("8"), "c1")
	rt.Join(GroupRoom("7"), "c2")

	rt.RemoveConnectionEverywhere("c1")

	// No dangling membership in any room.
	for _, room := range []RoomKey{PersonalRoom("alice"), GroupRoom("7"), GroupRoom("8")} {
		for _, id := range rt.MembersOf(room) {
			if id == "c1" {
				t.Errorf("c1 still a member of %s after removal", room)
			}
		}
	}
	if got := rt.RoomsOf("c1"); len(got) != 0 {
		t.Errorf("RoomsOf(c1) = %v, want empty", got)
	}

	// Unrelated membership survives.
	if got := rt.MembersOf(GroupRoom("7")); len(got) != 1 || got[0] != "c2" {
		t.Errorf("MembersOf(group:7) = %v, want [c2]", got)
	}

	// Removing a connection with no memberships is a no-op.
	rt.RemoveConnectionEverywhere("c1")
	rt.RemoveConnectionEverywhere("ghost")
}

func TestRoomTableMembersSnapshot(t *testing.T) {
	rt := NewRoomTable()
	room := GroupRoom("7")

	rt.Join(room, "c1")
	snapshot := rt.MembersOf(room)
	rt.Join(room, "c2")

	if len(snapshot) != 1 {
		t.Errorf("snapshot mutated by later join: %v", snapshot)
	}

	got := rt.MembersOf(room)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Errorf("MembersOf = %v, want [c1 c2]", got)
	}
}

func TestRoomKeys(t *testing.T) {
	t.Run("pair room is order independent", func(t *testing.T) {
		if PairRoom("alice", "bob") != PairRoom("bob", "alice") {
			t.Error("PairRoom is order dependent")
		}
	})

	t.Run("only personal and group rooms are deliverable", func(t *testing.T) {
		if !PersonalRoom("alice").Deliverable() {
			t.Error("personal room should be deliverable")
		}
		if !GroupRoom("7").Deliverable() {
			t.Error("group room should be deliverable")
		}
		if PairRoom("alice", "bob").Deliverable() {
			t.Error("pair room must never be deliverable")
		}
	})

	t.Run("validity", func(t *testing.T) {
		if (RoomKey{Kind: "bogus", ID: "x"}).Valid() {
			t.Error("unknown kind should be invalid")
		}
		if (RoomKey{Kind: RoomKindGroup}).Valid() {
			t.Error("empty id should be invalid")
		}
		if !GroupRoom("7").Valid() {
			t.Error("group room with id should be valid")
		}
	})
}
