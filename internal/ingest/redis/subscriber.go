// Package redis subscribes to the message service's fanout channel so the
// hub can be fed over pub/sub when the two services are not co-deployed.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis_client "github.com/redis/go-redis/v9"

	"chathub/internal/hub"
	"chathub/pkg/log"
	"chathub/pkg/redis"
)

// FanoutChannel is the channel the message service publishes descriptors on.
const FanoutChannel = "chat:fanout"

// Subscriber consumes message descriptors from Redis Pub/Sub and hands
// them to the hub.
type Subscriber struct {
	client *redis.Client
	hub    *hub.Hub
	logger log.Logger

	pubsub *redis_client.PubSub

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	maxRetries int
	retryDelay time.Duration

	mu            sync.RWMutex
	lastMessageAt time.Time
	active        bool
}

// NewSubscriber creates a new Redis subscriber.
func NewSubscriber(client *redis.Client, h *hub.Hub, logger log.Logger) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())

	return &Subscriber{
		client:     client,
		hub:        h,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		maxRetries: 10,
		retryDelay: 5 * time.Second,
	}
}

// Start subscribes and begins routing messages.
func (s *Subscriber) Start() error {
	s.pubsub = s.client.Subscribe(s.ctx, FanoutChannel)

	s.mu.Lock()
	s.active = true
	s.mu.Unlock()

	s.logger.Infof(s.ctx, "redis subscriber started on channel %s", FanoutChannel)

	go s.listen()
	return nil
}

func (s *Subscriber) listen() {
	defer close(s.done)

	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info(context.Background(), "redis subscriber shutting down")
			return

		case msg, ok := <-ch:
			if !ok {
				s.logger.Error(s.ctx, "redis pub/sub channel closed, attempting to reconnect")
				if err := s.reconnect(); err != nil {
					s.logger.Errorf(s.ctx, "failed to reconnect to redis: %v", err)
					return
				}
				ch = s.pubsub.Channel()
				continue
			}

			s.handleMessage(msg.Payload)
		}
	}
}

func (s *Subscriber) handleMessage(payload string) {
	s.mu.Lock()
	s.lastMessageAt = time.Now()
	s.mu.Unlock()

	var desc hub.MessageDescriptor
	if err := json.Unmarshal([]byte(payload), &desc); err != nil {
		s.logger.Errorf(s.ctx, "unmarshal fanout payload: %v", err)
		return
	}

	if err := s.hub.Fanout(&desc); err != nil {
		s.logger.Warnf(s.ctx, "fanout rejected for message %s: %v", desc.MessageID, err)
		return
	}

	s.logger.Debugf(s.ctx, "routed message %s from redis", desc.MessageID)
}

func (s *Subscriber) reconnect() error {
	for i := 0; i < s.maxRetries; i++ {
		s.logger.Infof(s.ctx, "reconnecting to redis (attempt %d/%d)", i+1, s.maxRetries)

		if s.pubsub != nil {
			s.pubsub.Close()
		}
		s.pubsub = s.client.Subscribe(s.ctx, FanoutChannel)

		if _, err := s.pubsub.Receive(s.ctx); err == nil {
			s.logger.Info(s.ctx, "reconnected to redis")
			return nil
		}

		time.Sleep(s.retryDelay)
	}

	return fmt.Errorf("failed to reconnect to redis after %d attempts", s.maxRetries)
}

// GetHealthInfo returns the subscriber's health snapshot.
func (s *Subscriber) GetHealthInfo() (active bool, lastMessageAt time.Time, channel string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.lastMessageAt, FanoutChannel
}

// Shutdown stops the subscriber.
func (s *Subscriber) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	s.cancel()

	if s.pubsub != nil {
		if err := s.pubsub.Close(); err != nil {
			s.logger.Errorf(context.Background(), "close pub/sub: %v", err)
		}
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
