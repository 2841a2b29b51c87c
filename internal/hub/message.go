package hub

import (
	"encoding/json"
	"time"
)

// MessageDescriptor describes a freshly persisted chat message handed to
// the dispatcher for fanout. The hub never stores or mutates it; message
// history lives in the message service. Exactly one of RecipientID and
// GroupID is set, matching the wire contract.
type MessageDescriptor struct {
	MessageID   string    `json:"messageId"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId,omitempty"`
	GroupID     string    `json:"groupId,omitempty"`
	Content     string    `json:"content"`
	ImageRef    string    `json:"imageRef,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// Validate checks the descriptor before fanout.
func (d *MessageDescriptor) Validate() error {
	if d.MessageID == "" || d.SenderID == "" {
		return ErrInvalidDescriptor
	}
	if (d.RecipientID == "") == (d.GroupID == "") {
		return ErrInvalidDescriptor
	}
	if d.Content == "" && d.ImageRef == "" {
		return ErrInvalidDescriptor
	}
	return nil
}

// TargetRooms derives the delivery rooms for the descriptor: the sender's
// and recipient's personal rooms for a private message, the group room
// for a group message.
func (d *MessageDescriptor) TargetRooms() []RoomKey {
	if d.GroupID != "" {
		return []RoomKey{GroupRoom(d.GroupID)}
	}
	if d.SenderID == d.RecipientID {
		// Self-message: one personal room, delivered once.
		return []RoomKey{PersonalRoom(d.SenderID)}
	}
	return []RoomKey{PersonalRoom(d.SenderID), PersonalRoom(d.RecipientID)}
}

// Encode serializes the fanout payload pushed to clients.
func (d *MessageDescriptor) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// FrameAction is the closed set of actions a client may request over an
// established connection.
type FrameAction string

const (
	FrameActionJoin        FrameAction = "join"
	FrameActionLeave       FrameAction = "leave"
	FrameActionInitPrivate FrameAction = "init_private"
)

// ClientFrame is a control frame read from a client connection.
type ClientFrame struct {
	Action FrameAction `json:"action"`
	Room   RoomKey     `json:"room,omitempty"`

	// TargetUserID is set for init_private: the other side of the
	// private conversation being opened.
	TargetUserID string `json:"targetUserId,omitempty"`
}

// ParseClientFrame decodes and validates a control frame.
func ParseClientFrame(data []byte) (*ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, ErrInvalidFrame
	}

	switch frame.Action {
	case FrameActionJoin, FrameActionLeave:
		if !frame.Room.Valid() {
			return nil, ErrInvalidRoom
		}
	case FrameActionInitPrivate:
		if frame.TargetUserID == "" {
			return nil, ErrInvalidFrame
		}
	default:
		return nil, ErrInvalidFrame
	}

	return &frame, nil
}
