package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const (
	connectAttempts   = 60
	connectRetryDelay = 2 * time.Second
)

// normalizeDatabaseURL rewrites postgresql:// to postgres:// and adds
// sslmode=disable when no sslmode is given.
func normalizeDatabaseURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql:") {
		databaseURL = "postgres" + strings.TrimPrefix(databaseURL, "postgresql")
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}
	return databaseURL
}

// openDB waits for Postgres to accept connections, retrying while the
// database container starts up.
func openDB(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	config, err := pgx.ParseConfig(normalizeDatabaseURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	var lastErr error
	for i := 0; i < connectAttempts; i++ {
		db := stdlib.OpenDB(*config)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			logger.Info("database connection established", "host", config.Host, "database", config.Database)
			return db, nil
		}
		db.Close()

		if i == connectAttempts-1 {
			break
		}
		// Log the error itself on the first few attempts and every tenth after.
		if i < 5 || i%10 == 0 {
			logger.Warn("database not ready, retrying",
				"attempt", i+1, "max_attempts", connectAttempts, "retry_in", connectRetryDelay, "error", lastErr)
		} else {
			logger.Warn("database not ready, retrying", "attempt", i+1, "max_attempts", connectAttempts)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectRetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}
