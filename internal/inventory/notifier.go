package inventory

// notifier.go fans dataset change events out to subscribers.
//
// Events are signals, not payloads: consumers re-pull the dataset when they
// see "updated" or "connected". Delivery is best-effort. Each subscriber has a
// small buffer and a full buffer drops the event rather than blocking the
// writer that published it.

import (
	"sync"
)

// DefaultSubscriberBuffer is the per-subscriber event buffer.
const DefaultSubscriberBuffer = 8

// EventKind tags a change notification.
type EventKind string

const (
	EventConnected EventKind = "connected"
	EventUpdated   EventKind = "updated"
	EventDeleted   EventKind = "deleted"
)

// Event is a change notification. Snapshot is only set on "connected", where
// it references (not copies) the dataset visible at subscription time.
type Event struct {
	Kind     EventKind `json:"type"`
	Version  uint64    `json:"version"`
	Snapshot *Snapshot `json:"-"`
}

// Subscription is a registered observer. Events arrive on C until the
// subscription is cancelled or the notifier is closed, which closes C.
type Subscription struct {
	C <-chan Event

	id uint64
	ch chan Event
}

// Notifier is an observer registry. It is safe for concurrent use.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	buffer int
	closed bool
}

// NewNotifier creates a notifier whose subscribers buffer up to buffer events.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Notifier{
		subs:   make(map[uint64]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers an observer and immediately queues a "connected" event
// carrying current(). current is evaluated under the registry lock so a
// concurrent Publish is either reflected in that snapshot or delivered
// afterwards, never lost.
//
// Subscribing to a closed notifier returns a subscription whose channel is
// already closed.
func (n *Notifier) Subscribe(current func() *Snapshot) *Subscription {
	ch := make(chan Event, n.buffer)
	sub := &Subscription{C: ch, ch: ch}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		close(ch)
		return sub
	}

	n.nextID++
	sub.id = n.nextID
	n.subs[sub.id] = ch

	snap := current()
	var version uint64
	if snap != nil {
		version = snap.Version
	}
	ch <- Event{Kind: EventConnected, Version: version, Snapshot: snap}

	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call more
// than once.
func (n *Notifier) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subs[sub.id]; ok {
		delete(n.subs, sub.id)
		close(ch)
	}
}

// Publish queues ev for every subscriber without blocking and returns how
// many subscribers received it.
func (n *Notifier) Publish(ev Event) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	delivered := 0
	for _, ch := range n.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			// Subscriber is slow, skip this event
		}
	}
	return delivered
}

// Count returns the number of active subscribers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close closes every subscriber channel and rejects future subscriptions.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		close(ch)
		delete(n.subs, id)
	}
}
