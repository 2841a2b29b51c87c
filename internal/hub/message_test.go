package hub

import (
	"errors"
	"testing"
	"time"
)

func validPrivateDescriptor() *MessageDescriptor {
	return &MessageDescriptor{
		MessageID:   "m1",
		SenderID:    "alice",
		RecipientID: "bob",
		Content:     "ciphertext",
		SentAt:      time.Now(),
	}
}

func TestDescriptorValidate(t *testing.T) {
	t.Run("valid private message", func(t *testing.T) {
		if err := validPrivateDescriptor().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("valid group message", func(t *testing.T) {
		d := &MessageDescriptor{MessageID: "m1", SenderID: "alice", GroupID: "7", Content: "x"}
		if err := d.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("image-only message is valid", func(t *testing.T) {
		d := &MessageDescriptor{MessageID: "m1", SenderID: "alice", RecipientID: "bob", ImageRef: "img/42"}
		if err := d.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("both recipient and group set", func(t *testing.T) {
		d := validPrivateDescriptor()
		d.GroupID = "7"
		if !errors.Is(d.Validate(), ErrInvalidDescriptor) {
			t.Error("want ErrInvalidDescriptor when both targets set")
		}
	})

	t.Run("neither recipient nor group set", func(t *testing.T) {
		d := validPrivateDescriptor()
		d.RecipientID = ""
		if !errors.Is(d.Validate(), ErrInvalidDescriptor) {
			t.Error("want ErrInvalidDescriptor when no target set")
		}
	})

	t.Run("empty content and image", func(t *testing.T) {
		d := validPrivateDescriptor()
		d.Content = ""
		if !errors.Is(d.Validate(), ErrInvalidDescriptor) {
			t.Error("want ErrInvalidDescriptor for empty message")
		}
	})
}

func TestDescriptorTargetRooms(t *testing.T) {
	t.Run("private message targets both personal rooms", func(t *testing.T) {
		rooms := validPrivateDescriptor().TargetRooms()
		if len(rooms) != 2 {
			t.Fatalf("TargetRooms() = %v, want 2 rooms", rooms)
		}
		if rooms[0] != PersonalRoom("alice") || rooms[1] != PersonalRoom("bob") {
			t.Errorf("TargetRooms() = %v", rooms)
		}
	})

	t.Run("group message targets the group room", func(t *testing.T) {
		d := &MessageDescriptor{MessageID: "m1", SenderID: "alice", GroupID: "7", Content: "x"}
		rooms := d.TargetRooms()
		if len(rooms) != 1 || rooms[0] != GroupRoom("7") {
			t.Errorf("TargetRooms() = %v, want [group:7]", rooms)
		}
	})

	t.Run("self message targets one room", func(t *testing.T) {
		d := validPrivateDescriptor()
		d.RecipientID = "alice"
		rooms := d.TargetRooms()
		if len(rooms) != 1 || rooms[0] != PersonalRoom("alice") {
			t.Errorf("TargetRooms() = %v, want [personal:alice]", rooms)
		}
	})
}

func TestParseClientFrame(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"join group", `{"action":"join","room":{"kind":"group","id":"7"}}`, nil},
		{"leave group", `{"action":"leave","room":{"kind":"group","id":"7"}}`, nil},
		{"init private", `{"action":"init_private","targetUserId":"bob"}`, nil},
		{"unknown action", `{"action":"shout","room":{"kind":"group","id":"7"}}`, ErrInvalidFrame},
		{"join without room", `{"action":"join"}`, ErrInvalidRoom},
		{"join bad kind", `{"action":"join","room":{"kind":"planet","id":"7"}}`, ErrInvalidRoom},
		{"init private without target", `{"action":"init_private"}`, ErrInvalidFrame},
		{"not json", `join group 7`, ErrInvalidFrame},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := ParseClientFrame([]byte(tc.raw))
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("ParseClientFrame() error = %v", err)
				}
				if frame == nil {
					t.Fatal("ParseClientFrame() returned nil frame")
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ParseClientFrame() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
