package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// WaitConfig controls how long WaitForDB keeps trying
type WaitConfig struct {
	Retries  int
	Interval time.Duration
}

// WaitForDB blocks until the database behind dsn accepts connections or the
// retries run out. It opens a plain database/sql connection so it can run
// before the pool and migrations.
func WaitForDB(ctx context.Context, dsn string, cfg WaitConfig) error {
	if cfg.Retries <= 0 {
		cfg.Retries = 30
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}

	// lib/pq only understands the postgres:// scheme
	if strings.HasPrefix(dsn, "postgresql://") {
		dsn = "postgres://" + strings.TrimPrefix(dsn, "postgresql://")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	slog.Info("waiting for database")

	var lastErr error
	for attempt := 1; attempt <= cfg.Retries; attempt++ {
		if lastErr = db.PingContext(ctx); lastErr == nil {
			slog.Info("database is ready", "attempts", attempt)
			return nil
		}
		slog.Warn("database not ready", "attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}

	return fmt.Errorf("timed out waiting for database: %w", lastErr)
}
