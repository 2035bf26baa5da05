package inventory

// write_gate.go serializes writes to the dataset.
//
// The gate is a one-slot semaphore. A writer that finds it taken waits up to
// maxWait before failing with ErrConcurrentWrite; with a non-positive maxWait
// it fails immediately. WaitForIdle supports graceful shutdown by blocking
// until the in-flight write finishes.

import (
	"context"
	"sync"
	"time"
)

// DefaultWriteWait is how long a second writer waits for the gate.
const DefaultWriteWait = 5 * time.Second

// WriteGate admits one dataset write at a time.
type WriteGate struct {
	slot    chan struct{}
	maxWait time.Duration

	mu       sync.RWMutex
	op       string
	since    time.Time
	waited   int64
	rejected int64
}

// NewWriteGate creates a gate whose waiters give up after maxWait.
func NewWriteGate(maxWait time.Duration) *WriteGate {
	return &WriteGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the gate for op. It returns ErrConcurrentWrite when the
// gate stays busy for maxWait, or the context error if ctx ends first.
// The caller MUST call Release when the write completes (use defer).
func (g *WriteGate) Acquire(ctx context.Context, op string) error {
	if g.TryAcquire(op) {
		return nil
	}
	if g.maxWait <= 0 {
		g.countRejected()
		return ErrConcurrentWrite
	}

	g.mu.Lock()
	g.waited++
	g.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.hold(op)
		return nil

	case <-waitCtx.Done():
		// Check if original context was cancelled vs timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.countRejected()
		return ErrConcurrentWrite
	}
}

// TryAcquire takes the gate without waiting.
func (g *WriteGate) TryAcquire(op string) bool {
	select {
	case g.slot <- struct{}{}:
		g.hold(op)
		return true
	default:
		return false
	}
}

// Release frees the gate. Must be called exactly once per successful
// Acquire or TryAcquire.
func (g *WriteGate) Release() {
	g.mu.Lock()
	g.op = ""
	g.since = time.Time{}
	g.mu.Unlock()

	<-g.slot
}

// Busy reports whether a write currently holds the gate.
func (g *WriteGate) Busy() bool {
	return len(g.slot) > 0
}

// WaitForIdle blocks until no write holds the gate or ctx ends.
func (g *WriteGate) WaitForIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GateStatus is a snapshot of the gate for health reporting.
type GateStatus struct {
	Busy      bool       `json:"busy"`
	Operation string     `json:"operation,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	Waited    int64      `json:"waited"`
	Rejected  int64      `json:"rejected"`
}

// Status returns the current gate state.
func (g *WriteGate) Status() GateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := GateStatus{
		Busy:      g.Busy(),
		Operation: g.op,
		Waited:    g.waited,
		Rejected:  g.rejected,
	}
	if !g.since.IsZero() {
		since := g.since
		st.Since = &since
	}
	return st
}

func (g *WriteGate) hold(op string) {
	g.mu.Lock()
	g.op = op
	g.since = time.Now()
	g.mu.Unlock()
}

func (g *WriteGate) countRejected() {
	g.mu.Lock()
	g.rejected++
	g.mu.Unlock()
}
