package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_PublishReachesAllSubscribers(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	unsub1, ch1 := f.Subscribe()
	defer unsub1()
	unsub2, ch2 := f.Subscribe()
	defer unsub2()

	dropped := f.Publish(Event{SessionID: "s1", Identity: &Identity{Subject: "u1"}})
	assert.Zero(t, dropped)

	ev1 := <-ch1
	ev2 := <-ch2
	assert.Equal(t, "s1", ev1.SessionID)
	assert.Equal(t, "s1", ev2.SessionID)
	require.NotNil(t, ev1.Identity)
	assert.Equal(t, "u1", ev1.Identity.Subject)
}

func TestFeed_NilIdentityMeansSignOut(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	unsub, ch := f.Subscribe()
	defer unsub()

	f.Publish(Event{SessionID: "s1", Identity: nil})
	ev := <-ch
	assert.Nil(t, ev.Identity)
}

func TestFeed_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	unsub, _ := f.Subscribe()
	defer unsub()

	// Fill the subscriber buffer without reading.
	for i := 0; i < subscriberBuffer; i++ {
		assert.Zero(t, f.Publish(Event{SessionID: "s1"}))
	}
	assert.Equal(t, 1, f.Publish(Event{SessionID: "s1"}))
}

func TestFeed_UnsubscribeClosesChannel(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	unsub, ch := f.Subscribe()
	unsub()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe reaches nobody.
	assert.Zero(t, f.Publish(Event{SessionID: "s1"}))
}

func TestFeed_CloseClosesAllSubscribers(t *testing.T) {
	f := NewFeed()
	_, ch := f.Subscribe()

	f.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// Subscribing after close yields an already-closed channel.
	_, late := f.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestFeed_UnsubscribeIdempotent(t *testing.T) {
	f := NewFeed()
	defer f.Close()

	unsub, _ := f.Subscribe()
	unsub()
	unsub() // must not panic
}
