package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) JournalEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return JournalEvent{}
}

func TestEventHub_FanOutByUser(t *testing.T) {
	hub := NewEventHub()
	alice := hub.Subscribe("alice")
	bob := hub.Subscribe("bob")
	defer bob.Close()

	require.NoError(t, hub.Publish(context.Background(), JournalEvent{Type: EventEntrySaved, UserName: "alice", EntryID: "1"}))

	ev := receive(t, alice)
	assert.Equal(t, "1", ev.EntryID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Empty(t, bob.Events())

	alice.Close()
	alice.Close()
	_, open := <-alice.Events()
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("alice"))
	assert.Equal(t, 1, hub.Subscribers("bob"))
}

func TestEventHub_DropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewEventHub()
	sub := hub.Subscribe("alice")
	defer sub.Close()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.FanOut(JournalEvent{UserName: "alice"})
	}
	assert.Len(t, sub.Events(), subscriberBuffer)
}

func TestRedisEventBus_DeliversAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the subscribing instance
	hub := NewEventHub()
	go NewRedisEventBus(client, hub).Run(ctx)
	sub := hub.Subscribe("alice")
	defer sub.Close()

	require.Eventually(t, func() bool { return mr.PubSubNumPat() > 0 }, 2*time.Second, 10*time.Millisecond)

	// a publishing instance with its own hub
	publisher := NewRedisEventBus(client, NewEventHub())
	require.NoError(t, publisher.Publish(ctx, JournalEvent{Type: EventEntryDeleted, UserName: "alice", EntryID: "abc"}))
	require.NoError(t, publisher.Publish(ctx, JournalEvent{Type: EventEntryDeleted, UserName: "bob", EntryID: "def"}))

	ev := receive(t, sub)
	assert.Equal(t, EventEntryDeleted, ev.Type)
	assert.Equal(t, "abc", ev.EntryID)
	assert.False(t, ev.Timestamp.IsZero())
}
