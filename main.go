package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"finhub-analytics-backend/internal/config"
	"finhub-analytics-backend/internal/jobs"
	"finhub-analytics-backend/internal/ratelimit"
	"finhub-analytics-backend/internal/store"
)

func main() {
	migrateCmd := flag.Bool("migrate", false, "Create the database schema and exit")
	seedDemoCmd := flag.Bool("seed-demo", false, "Create the schema and seed the demo user (idempotent)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, reading configuration from the environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateCmd || *seedDemoCmd {
		if err := runMigration(ctx, cfg.DatabaseURL, *seedDemoCmd, logger); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration completed successfully", "seed_demo", *seedDemoCmd)
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := openDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := ensureSchema(ctx, db); err != nil {
		return err
	}

	// Redis is optional: without it requests are not rate limited and the
	// bank list is read from Postgres every time.
	var cacheClient redis.UniversalClient
	redisClient, err := newRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("failed to initialize redis, continuing without rate limiting and cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheClient = redisClient
	}

	limiter := ratelimit.NewLimiter(cacheClient, cfg.RedisKeyPrefix, cfg.AnalyticsRateLimitPerMinute, time.Minute)
	cache := newBankListCache(cacheClient, cfg.RedisKeyPrefix, cfg.BankListCacheTTL())
	server := NewServer(cfg, logger, store.NewPostgres(db), cache, limiter)

	if cfg.SnapshotsEnabled() {
		scheduler := jobs.NewScheduler(server.snapshots, logger, cfg.DefaultWindowDays)
		if err := scheduler.Start(cfg.InsightSnapshotSchedule); err != nil {
			return err
		}
		defer func() {
			<-scheduler.Stop().Done()
		}()
	} else {
		logger.Info("nightly insight snapshots disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
