package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// runMigration creates the schema and, when seedDemo is set, the demo user.
func runMigration(ctx context.Context, databaseURL string, seedDemo bool, logger *slog.Logger) error {
	db, err := openDB(ctx, databaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("creating database schema")
	if err := ensureSchema(ctx, db); err != nil {
		return err
	}
	logger.Info("schema created successfully")

	if !seedDemo {
		return nil
	}
	logger.Info("seeding demo data", "user_id", demoUserID)
	if err := seedDemoData(ctx, db, time.Now()); err != nil {
		return fmt.Errorf("seeding demo data failed: %w", err)
	}
	return nil
}
