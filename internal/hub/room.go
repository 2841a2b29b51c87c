package hub

import "fmt"

// RoomKind discriminates the kinds of delivery rooms.
type RoomKind string

const (
	// RoomKindPersonal is a user's inbox room. Every connection joins its
	// owner's personal room at registration; private messages target the
	// sender's and recipient's personal rooms.
	RoomKindPersonal RoomKind = "personal"

	// RoomKindGroup is a group conversation room. Membership is
	// connection-scoped: each connection joins explicitly while the user
	// is viewing the group.
	RoomKindGroup RoomKind = "group"

	// RoomKindPair is the legacy pairwise private-chat room. Clients
	// still announce it when opening a private conversation, but it is
	// never a fanout target.
	RoomKindPair RoomKind = "pair"
)

// RoomKey identifies a delivery room.
type RoomKey struct {
	Kind RoomKind `json:"kind"`
	ID   string   `json:"id"`
}

// PersonalRoom returns the room key of a user's inbox room.
func PersonalRoom(userID string) RoomKey {
	return RoomKey{Kind: RoomKindPersonal, ID: userID}
}

// GroupRoom returns the room key of a group conversation room.
func GroupRoom(groupID string) RoomKey {
	return RoomKey{Kind: RoomKindGroup, ID: groupID}
}

// PairRoom returns the legacy pairwise room key for two users. The id is
// order-independent so both sides resolve the same room.
func PairRoom(userA, userB string) RoomKey {
	if userB < userA {
		userA, userB = userB, userA
	}
	return RoomKey{Kind: RoomKindPair, ID: userA + "-" + userB}
}

// Deliverable reports whether the room may be targeted by a fanout.
func (k RoomKey) Deliverable() bool {
	return k.Kind == RoomKindPersonal || k.Kind == RoomKindGroup
}

// Valid reports whether the key names a known room kind and carries an id.
func (k RoomKey) Valid() bool {
	switch k.Kind {
	case RoomKindPersonal, RoomKindGroup, RoomKindPair:
		return k.ID != ""
	}
	return false
}

func (k RoomKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.ID)
}
