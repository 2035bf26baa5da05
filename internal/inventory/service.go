package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/inventory/internal/audit"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/google/uuid"
)

// Options configures a Service. Zero values select defaults.
type Options struct {
	// MaxWriteWait is how long a second writer waits for the gate before
	// failing with ErrConcurrentWrite (default: DefaultWriteWait, negative
	// rejects immediately).
	MaxWriteWait time.Duration

	// SubscriberBuffer is the per-subscriber event buffer.
	SubscriberBuffer int

	// Audit receives ingest and delete records (default: in-memory store).
	Audit audit.Store

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service owns the process-wide dataset and coordinates writes, reads and
// change notification.
type Service struct {
	store    *Store
	notifier *Notifier
	gate     *WriteGate
	audit    audit.Store
	now      func() time.Time
}

// NewService creates a Service holding an empty dataset.
func NewService(opts Options) *Service {
	wait := opts.MaxWriteWait
	if wait == 0 {
		wait = DefaultWriteWait
	}
	if opts.Audit == nil {
		opts.Audit = audit.NewMemoryStore(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:    NewStore(),
		notifier: NewNotifier(opts.SubscriberBuffer),
		gate:     NewWriteGate(wait),
		audit:    opts.Audit,
		now:      opts.Now,
	}
}

// IngestResult describes a committed ingestion.
type IngestResult struct {
	IngestionID string        `json:"ingestionId"`
	FileName    string        `json:"fileName"`
	Format      Format        `json:"format"`
	Rows        int           `json:"rows"`
	Columns     []string      `json:"columns"`
	Version     uint64        `json:"version"`
	UpdatedAt   time.Time     `json:"updated"`
	Duration    time.Duration `json:"-"`
}

// Snapshot returns the currently visible dataset. It never blocks.
func (s *Service) Snapshot() *Snapshot {
	return s.store.Current()
}

// Ingest parses data according to fileName's extension and, on success,
// replaces the dataset and notifies subscribers with "updated".
//
// Any error leaves the previous dataset visible and its version unchanged.
func (s *Service) Ingest(ctx context.Context, fileName string, data []byte) (*IngestResult, error) {
	start := time.Now()
	ingestionID := uuid.New().String()
	logger := logging.WithFields(ctx,
		"ingestion_id", ingestionID,
		"file_name", fileName,
		"bytes", len(data),
	)

	format, err := DetectFormat(fileName)
	if err != nil {
		logger.Warn("ingest rejected", "error", err)
		s.recordFailure(ctx, ingestionID, fileName, "", err)
		return nil, err
	}

	// Parsing is pure, so it runs before taking the gate.
	header, rows, err := parse(data, format)
	if err != nil {
		logger.Warn("ingest parse failed", "format", format, "error", err)
		s.recordFailure(ctx, ingestionID, fileName, format, err)
		return nil, err
	}

	if err := s.gate.Acquire(ctx, "ingest"); err != nil {
		logger.Warn("ingest could not acquire dataset", "error", err)
		if errors.Is(err, ErrConcurrentWrite) {
			s.recordFailure(ctx, ingestionID, fileName, format, err)
		}
		return nil, err
	}
	defer s.gate.Release()

	at := s.now().UTC()
	snap := s.store.replace(header, rows, fileName, format, ingestionID, at)
	delivered := s.notifier.Publish(Event{Kind: EventUpdated, Version: snap.Version})

	result := &IngestResult{
		IngestionID: ingestionID,
		FileName:    fileName,
		Format:      format,
		Rows:        snap.Len(),
		Columns:     snap.Columns(),
		Version:     snap.Version,
		UpdatedAt:   at,
		Duration:    time.Since(start),
	}

	logger.Info("dataset replaced",
		"format", format,
		"rows", result.Rows,
		"columns", len(result.Columns),
		"version", snap.Version,
		"subscribers_notified", delivered,
		"duration_ms", result.Duration.Milliseconds(),
	)

	s.record(ctx, audit.Entry{
		Action:      audit.ActionIngest,
		FileName:    fileName,
		Format:      string(format),
		Rows:        result.Rows,
		Version:     snap.Version,
		IngestionID: ingestionID,
	})

	return result, nil
}

// Delete clears the dataset and notifies subscribers with "deleted".
// Deleting an idle dataset is a no-op that keeps the version but still
// emits the event.
func (s *Service) Delete(ctx context.Context) (*Snapshot, error) {
	if err := s.gate.Acquire(ctx, "delete"); err != nil {
		logging.FromContext(ctx).Warn("delete could not acquire dataset", "error", err)
		return nil, err
	}
	defer s.gate.Release()

	prev := s.store.Current()
	snap := s.store.clear()
	delivered := s.notifier.Publish(Event{Kind: EventDeleted, Version: snap.Version})

	logging.FromContext(ctx).Info("dataset cleared",
		"rows_removed", prev.Len(),
		"version", snap.Version,
		"subscribers_notified", delivered,
	)

	s.record(ctx, audit.Entry{
		Action:   audit.ActionDelete,
		FileName: prev.FileName,
		Rows:     prev.Len(),
		Version:  snap.Version,
	})

	return snap, nil
}

// Subscribe registers an observer; the first event is always "connected"
// carrying the current snapshot.
func (s *Service) Subscribe() *Subscription {
	return s.notifier.Subscribe(s.store.Current)
}

// Unsubscribe removes an observer registered with Subscribe.
func (s *Service) Unsubscribe(sub *Subscription) {
	s.notifier.Unsubscribe(sub)
}

// Subscribers returns the number of connected observers.
func (s *Service) Subscribers() int {
	return s.notifier.Count()
}

// WriterStatus reports whether a write is in flight.
func (s *Service) WriterStatus() GateStatus {
	return s.gate.Status()
}

// WaitForWrites blocks until no write is in flight or ctx ends.
func (s *Service) WaitForWrites(ctx context.Context) error {
	return s.gate.WaitForIdle(ctx)
}

// History returns recent audit entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]audit.Entry, error) {
	entries, err := s.audit.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// Close disconnects every subscriber. Used during shutdown.
func (s *Service) Close() {
	s.notifier.Close()
}

// recordFailure logs a rejected ingestion to the audit store.
func (s *Service) recordFailure(ctx context.Context, ingestionID, fileName string, format Format, cause error) {
	s.record(ctx, audit.Entry{
		Action:      audit.ActionIngestFailed,
		FileName:    fileName,
		Format:      string(format),
		Version:     s.store.Current().Version,
		IngestionID: ingestionID,
		Reason:      cause.Error(),
	})
}

// record writes an audit entry. Audit failures are logged, never returned:
// the dataset change has already happened.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	e.IPAddress, e.UserAgent = audit.ClientFromContext(ctx)
	if _, err := s.audit.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Error("audit record failed",
			"action", e.Action,
			"error", err,
		)
	}
}
