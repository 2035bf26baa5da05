package inventory

import (
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNotifier_SubscribeDeliversConnected(t *testing.T) {
	n := NewNotifier(4)
	snap := &Snapshot{Version: 7}

	sub := n.Subscribe(func() *Snapshot { return snap })
	ev := receive(t, sub)

	if ev.Kind != EventConnected {
		t.Errorf("first event = %q, want connected", ev.Kind)
	}
	if ev.Version != 7 {
		t.Errorf("Version = %d, want 7", ev.Version)
	}
	if ev.Snapshot != snap {
		t.Error("connected event does not reference the current snapshot")
	}
	if got := n.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
}

func TestNotifier_PublishFanOut(t *testing.T) {
	n := NewNotifier(4)
	empty := func() *Snapshot { return nil }

	a := n.Subscribe(empty)
	b := n.Subscribe(empty)
	receive(t, a)
	receive(t, b)

	if got := n.Publish(Event{Kind: EventUpdated, Version: 1}); got != 2 {
		t.Errorf("Publish delivered to %d, want 2", got)
	}

	for _, sub := range []*Subscription{a, b} {
		if ev := receive(t, sub); ev.Kind != EventUpdated || ev.Version != 1 {
			t.Errorf("got %+v, want updated v1", ev)
		}
	}
}

func TestNotifier_PublishNeverBlocks(t *testing.T) {
	n := NewNotifier(1)
	sub := n.Subscribe(func() *Snapshot { return nil })
	// Buffer already holds "connected"; further events are dropped.

	done := make(chan int)
	go func() {
		total := 0
		for i := 0; i < 100; i++ {
			total += n.Publish(Event{Kind: EventUpdated, Version: uint64(i)})
		}
		done <- total
	}()

	select {
	case total := <-done:
		if total != 0 {
			t.Errorf("delivered %d events to a full subscriber, want 0", total)
		}
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if ev := receive(t, sub); ev.Kind != EventConnected {
		t.Errorf("buffered event = %q, want connected", ev.Kind)
	}
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier(4)
	sub := n.Subscribe(func() *Snapshot { return nil })
	receive(t, sub)

	n.Unsubscribe(sub)
	n.Unsubscribe(sub) // second call is a no-op

	if _, ok := <-sub.C; ok {
		t.Error("channel still open after Unsubscribe")
	}
	if got := n.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
	if got := n.Publish(Event{Kind: EventDeleted}); got != 0 {
		t.Errorf("Publish delivered to %d, want 0", got)
	}
}

func TestNotifier_Close(t *testing.T) {
	n := NewNotifier(4)
	sub := n.Subscribe(func() *Snapshot { return nil })
	receive(t, sub)

	n.Close()
	n.Close()

	if _, ok := <-sub.C; ok {
		t.Error("channel still open after Close")
	}

	late := n.Subscribe(func() *Snapshot { return nil })
	if _, ok := <-late.C; ok {
		t.Error("subscription after Close should be closed")
	}

	// Unsubscribing after Close must not double-close.
	n.Unsubscribe(sub)
}

func TestNotifier_ConcurrentSubscribePublish(t *testing.T) {
	n := NewNotifier(64)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := n.Subscribe(func() *Snapshot { return nil })
			n.Unsubscribe(sub)
		}()
		go func(v int) {
			defer wg.Done()
			n.Publish(Event{Kind: EventUpdated, Version: uint64(v)})
		}(i)
	}
	wg.Wait()

	if got := n.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}
