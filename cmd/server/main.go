package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/inventory/internal/audit"
	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/inventory"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/JonMunkholm/inventory/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists; real environment variables win.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.Database.Enabled(),
		"max_file_size", cfg.Upload.MaxFileSize,
		"max_write_wait", cfg.Upload.MaxWaitTime.String(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openAuditStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	service := inventory.NewService(inventory.Options{
		MaxWriteWait:     cfg.Upload.MaxWaitTime,
		SubscriberBuffer: cfg.Events.Buffer,
		Audit:            store,
	})
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return audit.RunPruner(gctx, store, audit.PruneConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			Interval:      cfg.Audit.PruneInterval,
			Schedule:      cfg.Audit.PruneSchedule,
		})
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if service.WriterStatus().Busy {
			slog.Info("waiting for dataset write to complete")
			if err := service.WaitForWrites(shutdownCtx); err != nil {
				slog.Warn("dataset write did not complete in time", "error", err)
			}
		}

		// Ends open event streams so Shutdown does not wait on them.
		service.Close()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openAuditStore connects to PostgreSQL when a database URL is configured
// and falls back to the in-memory log otherwise. The returned func releases
// the pool.
func openAuditStore(ctx context.Context, cfg *config.Config) (audit.Store, func(), error) {
	if !cfg.Database.Enabled() {
		slog.Info("no database configured, audit log kept in memory",
			"capacity", cfg.Audit.MemoryCapacity,
		)
		return audit.NewMemoryStore(cfg.Audit.MemoryCapacity), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store, err := audit.NewPostgresStore(connectCtx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
