package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	EventEntrySaved   = "entry.saved"
	EventEntryDeleted = "entry.deleted"

	journalEventsChannelPrefix = "journal:events:"
	subscriberBuffer           = 16
)

// JournalEvent is broadcast over Redis and the live feed websocket.
type JournalEvent struct {
	Type      string               `json:"type"`
	UserName  string               `json:"userName"`
	EntryID   string               `json:"entryId"`
	Entry     *models.JournalEntry `json:"entry,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// EventPublisher delivers journal events to live feed subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event JournalEvent) error
}

// Subscription receives the events of one user name until Close is called.
type Subscription struct {
	hub      *EventHub
	userName string
	ch       chan JournalEvent
	once     sync.Once
}

// Events is closed when the subscription is closed.
func (s *Subscription) Events() <-chan JournalEvent {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// EventHub fans events out to the subscriptions of this instance.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subscribers: make(map[string]map[*Subscription]struct{})}
}

func (h *EventHub) Subscribe(userName string) *Subscription {
	sub := &Subscription{
		hub:      h,
		userName: userName,
		ch:       make(chan JournalEvent, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[userName]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.subscribers[userName] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *EventHub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscribers[sub.userName]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, sub.userName)
		}
	}
	close(sub.ch)
}

// Subscribers returns the number of open subscriptions for userName.
func (h *EventHub) Subscribers(userName string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userName])
}

// FanOut delivers the event to local subscribers of its user. Slow subscribers miss events.
func (h *EventHub) FanOut(event JournalEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[event.UserName] {
		select {
		case sub.ch <- event:
		default:
			logger.Default().WithField("userName", event.UserName).Warn("live feed subscriber is full, dropping event")
		}
	}
}

// Publish fans out locally. It is used when no Redis bus is configured.
func (h *EventHub) Publish(ctx context.Context, event JournalEvent) error {
	h.FanOut(stamp(event))
	return nil
}

func stamp(event JournalEvent) JournalEvent {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}

// RedisEventBus shares journal events between instances through Redis pub/sub.
type RedisEventBus struct {
	client *redis.Client
	hub    *EventHub
}

func NewRedisEventBus(client *redis.Client, hub *EventHub) *RedisEventBus {
	return &RedisEventBus{client: client, hub: hub}
}

// Publish sends the event to journal:events:{userName}; Run on every instance delivers it locally.
func (b *RedisEventBus) Publish(ctx context.Context, event JournalEvent) error {
	data, err := json.Marshal(stamp(event))
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, journalEventsChannelPrefix+event.UserName, data).Err()
}

// Run listens on journal:events:* until ctx is done, reconnecting with backoff.
func (b *RedisEventBus) Run(ctx context.Context) {
	backoff := time.Second

	for ctx.Err() == nil {
		b.receive(ctx, &backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (b *RedisEventBus) receive(ctx context.Context, backoff *time.Duration) {
	log := logger.Default()
	pubsub := b.client.PSubscribe(ctx, journalEventsChannelPrefix+"*")
	defer pubsub.Close()

	log.Info("✅ Journal event subscriber started (pattern: journal:events:*)")

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Warn("journal event subscriber error")
			}
			return
		}
		*backoff = time.Second

		var event JournalEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.WithError(err).Warn("failed to unmarshal journal event")
			continue
		}
		b.hub.FanOut(event)
	}
}
