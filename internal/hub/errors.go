package hub

import "errors"

var (
	// ErrInvalidToken is returned when the handshake JWT is invalid.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMissingToken is returned when the handshake JWT is missing.
	ErrMissingToken = errors.New("missing token")

	// ErrDuplicateConnection is returned by the registry when a connection
	// id is already registered. The hub recovers by treating the second
	// registration as a logical reconnect.
	ErrDuplicateConnection = errors.New("connection id already registered")

	// ErrInvalidFrame is returned when a client control frame cannot be parsed.
	ErrInvalidFrame = errors.New("invalid control frame")

	// ErrInvalidRoom is returned when a frame or descriptor names a room
	// with an unknown kind or empty id.
	ErrInvalidRoom = errors.New("invalid room key")

	// ErrInvalidDescriptor is returned when a message descriptor fails
	// validation before fanout.
	ErrInvalidDescriptor = errors.New("invalid message descriptor")

	// ErrHubClosed is returned when a command is submitted after shutdown.
	ErrHubClosed = errors.New("hub is shut down")
)
