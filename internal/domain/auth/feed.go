package auth

import "sync"

// Event carries an identity change for one principal session. A nil Identity
// means the principal signed out.
type Event struct {
	SessionID string
	Identity  *Identity
}

// Feed is a single-producer broadcast of identity change events. Each
// subscriber gets its own buffered channel and keeps its own last-seen value;
// a slow subscriber drops events rather than blocking the producer.
type Feed struct {
	mu     sync.Mutex
	closed bool
	subs   map[chan Event]struct{}
}

const subscriberBuffer = 64

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. Unsubscribe closes the channel.
func (f *Feed) Subscribe() (func(), <-chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if f.closed {
		close(ch)
		return func() {}, ch
	}
	f.subs[ch] = struct{}{}

	unsub := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; !ok {
			return
		}
		delete(f.subs, ch)
		drainAndClose(ch)
	}
	return unsub, ch
}

// Publish delivers the event to every subscriber without blocking. Returns
// the number of subscribers that could not accept the event.
func (f *Feed) Publish(ev Event) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

// Close tears down the feed and closes all subscriber channels.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subs {
		drainAndClose(ch)
		delete(f.subs, ch)
	}
}

// drainAndClose removes any buffered events before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan Event) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
