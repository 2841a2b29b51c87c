package hub

import (
	"context"
	"sync/atomic"

	"chathub/pkg/log"
)

// Dispatcher resolves a message descriptor's target rooms to their
// current member connections and pushes the payload to each. Delivery is
// best-effort and at-most-once per subscribed connection: the member set
// is the snapshot taken at dispatch time, sends never block, and a
// failed send is dropped. The client recovers the message from history
// on its next fetch.
type Dispatcher struct {
	registry *Registry
	rooms    *RoomTable
	logger   log.Logger

	sent   *atomic.Int64
	failed *atomic.Int64
}

// NewDispatcher creates a Dispatcher over the given registry and room table.
func NewDispatcher(registry *Registry, rooms *RoomTable, logger log.Logger, sent, failed *atomic.Int64) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		rooms:    rooms,
		logger:   logger,
		sent:     sent,
		failed:   failed,
	}
}

// Dispatch fans the descriptor out to its target rooms. Called from the
// hub command loop, so dispatches for the same room run in submission
// order.
func (d *Dispatcher) Dispatch(desc *MessageDescriptor) {
	payload, err := desc.Encode()
	if err != nil {
		d.logger.Errorf(context.Background(), "marshal payload for message %s: %v", desc.MessageID, err)
		d.failed.Add(1)
		return
	}

	targets := desc.TargetRooms()

	// A private message targets two personal rooms; make sure a
	// connection subscribed to both sides sees the payload once.
	var seen map[string]struct{}
	if len(targets) > 1 {
		seen = make(map[string]struct{})
	}

	for _, room := range targets {
		if !room.Deliverable() {
			d.logger.Warnf(context.Background(), "skipping non-deliverable room %s for message %s", room, desc.MessageID)
			continue
		}
		d.deliverToRoom(room, payload, desc.MessageID, seen)
	}
}

func (d *Dispatcher) deliverToRoom(room RoomKey, payload []byte, messageID string, seen map[string]struct{}) {
	// Snapshot first, send after: the table lock is never held across a
	// send, and members joining mid-fanout wait for the next message.
	members := d.rooms.MembersOf(room)
	if len(members) == 0 {
		return
	}

	delivered := 0
	for _, connID := range members {
		if seen != nil {
			if _, dup := seen[connID]; dup {
				continue
			}
			seen[connID] = struct{}{}
		}

		conn, ok := d.registry.Get(connID)
		if !ok {
			// Disconnected between snapshot and send; the cascade
			// already removed it. Drop silently.
			continue
		}

		if conn.enqueue(payload) {
			delivered++
			d.sent.Add(1)
		} else {
			d.failed.Add(1)
			d.logger.Warnf(context.Background(), "send buffer full for user %s conn %s, dropping message %s",
				conn.userID, connID, messageID)
		}
	}

	d.logger.Debugf(context.Background(), "delivered message %s to %d/%d members of room %s",
		messageID, delivered, len(members), room)
}
