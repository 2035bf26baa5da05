package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by PostgresStore.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// schemaStatements create the audit table on first use.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inventory_audit_log (
		id              uuid PRIMARY KEY,
		action          text NOT NULL,
		severity        text NOT NULL,
		file_name       text,
		format          text,
		rows_affected   integer NOT NULL DEFAULT 0,
		dataset_version bigint NOT NULL DEFAULT 0,
		ingestion_id    uuid,
		ip_address      text,
		user_agent      text,
		reason          text,
		created_at      timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_audit_log_created_at_idx
		ON inventory_audit_log (created_at DESC)`,
}

const insertEntrySQL = `
INSERT INTO inventory_audit_log (
	id, action, severity, file_name, format, rows_affected,
	dataset_version, ingestion_id, ip_address, user_agent, reason, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const listEntriesSQL = `
SELECT id::text, action, severity, COALESCE(file_name, ''), COALESCE(format, ''),
	rows_affected, dataset_version, COALESCE(ingestion_id::text, ''),
	COALESCE(ip_address, ''), COALESCE(user_agent, ''), COALESCE(reason, ''), created_at
FROM inventory_audit_log
ORDER BY created_at DESC
LIMIT $1`

const pruneEntriesSQL = `DELETE FROM inventory_audit_log WHERE created_at < $1`

// PostgresStore persists entries in the inventory_audit_log table.
type PostgresStore struct {
	db  DBTX
	now func() time.Time
}

// NewPostgresStore ensures the audit schema exists and returns a store.
func NewPostgresStore(ctx context.Context, db DBTX) (*PostgresStore, error) {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create audit schema: %w", err)
		}
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

// Record implements Store.
func (p *PostgresStore) Record(ctx context.Context, e Entry) (Entry, error) {
	e = fillDefaults(e, p.now)

	id, err := uuid.Parse(e.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("audit entry id %q: %w", e.ID, err)
	}

	_, err = p.db.Exec(ctx, insertEntrySQL,
		pgtype.UUID{Bytes: id, Valid: true},
		string(e.Action),
		string(e.Severity),
		toText(e.FileName),
		toText(e.Format),
		int32(e.Rows),
		int64(e.Version),
		toUUID(e.IngestionID),
		toText(e.IPAddress),
		toText(e.UserAgent),
		toText(e.Reason),
		e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

// List implements Store.
func (p *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := p.db.Query(ctx, listEntriesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e       Entry
			action  string
			sev     string
			rowsAff int32
			version int64
		)
		if err := rows.Scan(
			&e.ID, &action, &sev, &e.FileName, &e.Format,
			&rowsAff, &version, &e.IngestionID,
			&e.IPAddress, &e.UserAgent, &e.Reason, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Action = Action(action)
		e.Severity = Severity(sev)
		e.Rows = int(rowsAff)
		e.Version = uint64(version)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}

// Prune implements Store.
func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, pruneEntriesSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toText converts a string to pgtype.Text, NULL when blank.
func toText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toUUID converts a string to pgtype.UUID, NULL when blank or malformed.
func toUUID(s string) pgtype.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}
