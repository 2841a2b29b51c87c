// Package client implements the hub's client-side contract: a websocket
// session that reconnects with a fixed delay and re-issues every join
// after the transport comes back, since the hub keeps no membership for
// a new connection id.
package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chathub/internal/hub"
	"chathub/pkg/cipher"
	"chathub/pkg/log"
)

// Message is a delivered chat payload. Content is plaintext when the
// client was built with a cipher, otherwise the raw ciphertext.
type Message struct {
	MessageID   string    `json:"messageId"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId,omitempty"`
	GroupID     string    `json:"groupId,omitempty"`
	Content     string    `json:"content"`
	ImageRef    string    `json:"imageRef,omitempty"`
	SentAt      time.Time `json:"sentAt"`
}

// Handler consumes a delivered message.
type Handler func(msg Message)

// Unsubscribe removes a previously registered handler. Calling it more
// than once is harmless.
type Unsubscribe func()

// Option configures a Client.
type Option func(*Client)

// WithRetryDelay overrides the fixed reconnect delay (default 5s,
// matching the delay web clients have always used).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithCipher makes the client decrypt message content before invoking
// handlers. Messages that fail to decrypt are delivered as-is.
func WithCipher(ci cipher.Cipher) Option {
	return func(c *Client) { c.cipher = ci }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client is a reconnecting hub client.
type Client struct {
	url    string
	token  string
	dialer *websocket.Dialer
	logger log.Logger
	cipher cipher.Cipher

	retryDelay time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	// Rooms this client wants to be in. Re-issued on every reconnect.
	groups map[string]struct{}
	pairs  map[string]struct{}

	nextHandlerID   int
	privateHandlers map[int]Handler
	groupHandlers   map[int]Handler

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a client for the given websocket URL (e.g.
// "ws://localhost:8082/ws") authenticating with the given token.
func New(url, token string, logger log.Logger, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		url:             url,
		token:           token,
		dialer:          websocket.DefaultDialer,
		logger:          logger,
		retryDelay:      5 * time.Second,
		groups:          make(map[string]struct{}),
		pairs:           make(map[string]struct{}),
		privateHandlers: make(map[int]Handler),
		groupHandlers:   make(map[int]Handler),
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start connects and keeps the session alive until Close. It returns
// after the first connection attempt resolves; reconnection continues in
// the background.
func (c *Client) Start() {
	go c.run()
}

func (c *Client) run() {
	defer close(c.done)

	for {
		if c.ctx.Err() != nil {
			return
		}

		if err := c.connect(); err != nil {
			c.logger.Warnf(c.ctx, "connect failed, retrying in %s: %v", c.retryDelay, err)
			select {
			case <-time.After(c.retryDelay):
				continue
			case <-c.ctx.Done():
				return
			}
		}

		// Blocks until the transport drops.
		c.readLoop()

		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()

		select {
		case <-time.After(c.retryDelay):
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) connect() error {
	conn, _, err := c.dialer.DialContext(c.ctx, c.url+"?token="+c.token, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	groups := make([]string, 0, len(c.groups))
	for g := range c.groups {
		groups = append(groups, g)
	}
	pairs := make([]string, 0, len(c.pairs))
	for p := range c.pairs {
		pairs = append(pairs, p)
	}
	c.mu.Unlock()

	// The hub auto-joins the personal room for the new connection id;
	// everything else must be re-announced.
	for _, g := range groups {
		c.sendFrame(hub.ClientFrame{Action: hub.FrameActionJoin, Room: hub.GroupRoom(g)})
	}
	for _, p := range pairs {
		c.sendFrame(hub.ClientFrame{Action: hub.FrameActionInitPrivate, TargetUserID: p})
	}

	c.logger.Infof(c.ctx, "connected to hub, rejoined %d group rooms", len(groups))
	return nil
}

func (c *Client) readLoop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warnf(c.ctx, "connection lost: %v", err)
			}
			conn.Close()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warnf(c.ctx, "dropping malformed payload: %v", err)
			continue
		}

		if c.cipher != nil && msg.Content != "" {
			if plaintext, err := c.cipher.Decrypt(msg.Content); err == nil {
				msg.Content = plaintext
			}
		}

		c.deliver(msg)
	}
}

func (c *Client) deliver(msg Message) {
	c.mu.Lock()
	var handlers []Handler
	if msg.GroupID != "" {
		for _, h := range c.groupHandlers {
			handlers = append(handlers, h)
		}
	} else {
		for _, h := range c.privateHandlers {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (c *Client) sendFrame(frame hub.ClientFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil // queued state only; applied on next connect
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// JoinGroup subscribes this client to a group room and remembers the
// subscription across reconnects.
func (c *Client) JoinGroup(groupID string) error {
	c.mu.Lock()
	c.groups[groupID] = struct{}{}
	c.mu.Unlock()
	return c.sendFrame(hub.ClientFrame{Action: hub.FrameActionJoin, Room: hub.GroupRoom(groupID)})
}

// LeaveGroup unsubscribes from a group room.
func (c *Client) LeaveGroup(groupID string) error {
	c.mu.Lock()
	delete(c.groups, groupID)
	c.mu.Unlock()
	return c.sendFrame(hub.ClientFrame{Action: hub.FrameActionLeave, Room: hub.GroupRoom(groupID)})
}

// InitPrivate announces that a private conversation with the target user
// is open. Kept for protocol compatibility; private delivery arrives
// through the personal room either way.
func (c *Client) InitPrivate(targetUserID string) error {
	c.mu.Lock()
	c.pairs[targetUserID] = struct{}{}
	c.mu.Unlock()
	return c.sendFrame(hub.ClientFrame{Action: hub.FrameActionInitPrivate, TargetUserID: targetUserID})
}

// OnPrivateMessage registers a handler for private messages and returns
// its unsubscribe handle.
func (c *Client) OnPrivateMessage(h Handler) Unsubscribe {
	return c.subscribe(c.privateHandlers, h)
}

// OnGroupMessage registers a handler for group messages and returns its
// unsubscribe handle.
func (c *Client) OnGroupMessage(h Handler) Unsubscribe {
	return c.subscribe(c.groupHandlers, h)
}

func (c *Client) subscribe(handlers map[int]Handler, h Handler) Unsubscribe {
	c.mu.Lock()
	id := c.nextHandlerID
	c.nextHandlerID++
	handlers[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(handlers, id)
		c.mu.Unlock()
	}
}

// Connected reports whether the transport is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the session down and stops reconnecting.
func (c *Client) Close() {
	c.cancel()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	<-c.done
}
