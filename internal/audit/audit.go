// Package audit records dataset changes (ingestions, failed ingestions and
// deletions) so operators can see who replaced the inventory and when.
//
// Two stores are provided: [MemoryStore], a bounded in-process log used when
// no database is configured, and [PostgresStore], backed by pgx.
package audit

import (
	"context"
	"time"
)

// Action is the kind of change being recorded.
type Action string

const (
	ActionIngest       Action = "ingest"
	ActionIngestFailed Action = "ingest_failed"
	ActionDelete       Action = "delete"
)

// Severity ranks entries for filtering in the history view.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFor returns the severity recorded for an action.
func SeverityFor(action Action) Severity {
	switch action {
	case ActionIngest:
		return SeverityHigh
	case ActionDelete:
		return SeverityCritical
	case ActionIngestFailed:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Entry is a single audit record.
type Entry struct {
	ID          string    `json:"id"`
	Action      Action    `json:"action"`
	Severity    Severity  `json:"severity"`
	FileName    string    `json:"fileName,omitempty"`
	Format      string    `json:"format,omitempty"`
	Rows        int       `json:"rows"`
	Version     uint64    `json:"version"`
	IngestionID string    `json:"ingestionId,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// Store persists audit entries.
type Store interface {
	// Record stores e, filling ID, Severity and CreatedAt when unset, and
	// returns the stored entry.
	Record(ctx context.Context, e Entry) (Entry, error)

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Prune deletes entries created before cutoff and returns the count.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
)

// ContextWithClient attaches the client address and user agent for audit
// entries recorded while handling a request.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyIPAddress, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// ClientFromContext returns the client address and user agent, if any.
func ClientFromContext(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ctxKeyIPAddress).(string)
	userAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	return ip, userAgent
}
