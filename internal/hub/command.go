package hub

// command is the closed set of operations applied to hub state. Every
// mutation, whether it originates from a transport event or from the
// message-write path, travels through the hub's command loop as one of
// these variants, so the loop is the single writer and per-room fanout
// order follows command order.
type command interface {
	isCommand()
}

type registerCmd struct {
	conn *Connection
}

type unregisterCmd struct {
	connID string
}

type joinCmd struct {
	room   RoomKey
	connID string
}

type leaveCmd struct {
	room   RoomKey
	connID string
}

type fanoutCmd struct {
	desc *MessageDescriptor
}

// flushCmd is a barrier: the loop closes done when every previously
// submitted command has been applied. Used by tests.
type flushCmd struct {
	done chan struct{}
}

func (registerCmd) isCommand()   {}
func (unregisterCmd) isCommand() {}
func (joinCmd) isCommand()       {}
func (leaveCmd) isCommand()      {}
func (fanoutCmd) isCommand()     {}
func (flushCmd) isCommand()      {}
