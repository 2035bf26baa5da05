package inventory

import (
	"sync/atomic"
	"time"
)

// State is the lifecycle state of the process-wide dataset.
type State string

const (
	StateIdle  State = "idle"
	StateReady State = "dataset_ready"
)

// Snapshot is one committed version of the dataset. Snapshots are never
// mutated after they become visible; a write builds a new one and swaps it in.
type Snapshot struct {
	Version     uint64
	UpdatedAt   *time.Time
	FileName    string
	Format      Format
	IngestionID string

	header *Header
	rows   []Row
}

// Rows returns the snapshot's rows. The slice is shared and must not be
// modified.
func (s *Snapshot) Rows() []Row {
	if s == nil {
		return nil
	}
	return s.rows
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Columns returns the header field names of the ingested file.
func (s *Snapshot) Columns() []string {
	if s == nil {
		return nil
	}
	return s.header.Names()
}

// State reports IDLE for an empty or cleared dataset and DATASET_READY
// once a file has been ingested.
func (s *Snapshot) State() State {
	if s == nil || s.UpdatedAt == nil {
		return StateIdle
	}
	return StateReady
}

// Store holds the visible snapshot. Loads are lock-free; swaps are only
// performed by the Service while it holds the write gate.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding an empty version-0 snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{rows: []Row{}})
	return s
}

// Current returns the visible snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// replace publishes rows as the next version. The caller must hold the
// write gate.
func (s *Store) replace(h *Header, rows []Row, fileName string, format Format, ingestionID string, at time.Time) *Snapshot {
	prev := s.current.Load()
	next := &Snapshot{
		Version:     prev.Version + 1,
		UpdatedAt:   &at,
		FileName:    fileName,
		Format:      format,
		IngestionID: ingestionID,
		header:      h,
		rows:        rows,
	}
	s.current.Store(next)
	return next
}

// clear publishes an empty next version with no update time. An already
// idle dataset is returned as is, so its version does not move. The caller
// must hold the write gate.
func (s *Store) clear() *Snapshot {
	prev := s.current.Load()
	if prev.State() == StateIdle {
		return prev
	}
	next := &Snapshot{
		Version: prev.Version + 1,
		rows:    []Row{},
	}
	s.current.Store(next)
	return next
}
