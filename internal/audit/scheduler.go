package audit

// scheduler.go runs periodic retention pruning of the audit log.
//
// The pruner is long-running and context-aware for graceful shutdown. It
// logs failures but never stops the application over a failed cycle.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// PruneConfig controls the retention job.
type PruneConfig struct {
	RetentionDays int           // Entries older than this are deleted (default: 90)
	Interval      time.Duration // How often to run (default: 24h)
	Schedule      string        // Standard cron spec; overrides Interval when set
}

func (c PruneConfig) withDefaults() PruneConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// RunPruner prunes immediately, then on cfg.Schedule (or every cfg.Interval)
// until ctx ends. It returns an error only for an invalid schedule.
func RunPruner(ctx context.Context, store Store, cfg PruneConfig) error {
	cfg = cfg.withDefaults()

	c := cron.New()
	job := func() { pruneOnce(ctx, store, cfg.RetentionDays, time.Now) }

	if cfg.Schedule != "" {
		if _, err := c.AddFunc(cfg.Schedule, job); err != nil {
			return fmt.Errorf("audit prune schedule %q: %w", cfg.Schedule, err)
		}
		slog.Info("audit pruner started",
			"retention_days", cfg.RetentionDays,
			"schedule", cfg.Schedule,
		)
	} else {
		c.Schedule(cron.Every(cfg.Interval), cron.FuncJob(job))
		slog.Info("audit pruner started",
			"retention_days", cfg.RetentionDays,
			"interval", cfg.Interval.String(),
		)
	}

	job()
	c.Start()

	<-ctx.Done()
	// Wait for a prune that is already running.
	<-c.Stop().Done()
	slog.Info("audit pruner stopped")
	return nil
}

// pruneOnce performs one retention cycle and returns the number removed.
func pruneOnce(ctx context.Context, store Store, retentionDays int, now func() time.Time) int64 {
	start := time.Now()
	cutoff := now().AddDate(0, 0, -retentionDays)

	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return 0
	}

	slog.Info("pruned audit entries",
		"entries_pruned", removed,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
