package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMemoryCapacity bounds a MemoryStore created with a non-positive size.
const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent entries in process memory. When full,
// the oldest entry is dropped.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	now      func() time.Time
}

// NewMemoryStore creates a store holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		now:      time.Now,
	}
}

// Record implements Store.
func (m *MemoryStore) Record(_ context.Context, e Entry) (Entry, error) {
	e = fillDefaults(e, m.now)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.capacity {
		m.entries = append(m.entries[:0], m.entries[1:]...)
	}
	m.entries = append(m.entries, e)
	return e, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, len(m.entries))
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var removed int64
	for _, e := range m.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

// fillDefaults assigns an id, severity and timestamp where unset.
func fillDefaults(e Entry, now func() time.Time) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Severity == "" {
		e.Severity = SeverityFor(e.Action)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
	return e
}
