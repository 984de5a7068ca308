package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listingmap_backend/internal/adapters/storage"
	"listingmap_backend/internal/events"
	"listingmap_backend/internal/geocode"
	"listingmap_backend/internal/listings/source"
	"listingmap_backend/internal/maps"
	"listingmap_backend/internal/maps/repository"
	"listingmap_backend/internal/scheduler"
	"listingmap_backend/internal/variants"
	"listingmap_backend/platform/config"
	"listingmap_backend/platform/db"
	"listingmap_backend/platform/logger"
	"listingmap_backend/platform/redisconn"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "geocoder", cfg.GetGeocoder())

	if !cfg.IsSchedulerEnabled() {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisconn.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	resolver, err := geocode.New(cfg, rdb, log)
	if err != nil {
		log.Error("failed to initialize district resolver", "error", err)
		panic("failed to initialize district resolver: " + err.Error())
	}

	var registry *variants.Registry
	if path := cfg.GetVariantsFile(); path != "" {
		registry, err = variants.Load(path)
	} else {
		registry, err = variants.Default()
	}
	if err != nil {
		log.Error("failed to load variants", "error", err)
		panic("failed to load variants: " + err.Error())
	}

	var objects source.Fetcher
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		objects = source.Objects{Store: store}
	}
	loader := source.NewLoader(source.Files{}, source.NewHTTP(cfg.GetSourceFetchTimeout()), objects)

	eventBus := events.NewInMemoryBus(log)
	opts := maps.Options{
		Resolver:            resolver,
		DistrictConcurrency: cfg.GetGeocodeConcurrency(),
		LoadTimeout:         2 * cfg.GetSourceFetchTimeout(),
	}

	if cfg.IsDatabaseEnabled() {
		var pool *pgxpool.Pool
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()

		repo := repository.New(pool)
		maps.RegisterSnapshotHandlers(eventBus, repo, log)
		opts.History = repo

		cleanup := scheduler.NewHistoryCleanup(repo, log, time.Hour, cfg.GetLoadHistoryRetention())
		go cleanup.Run(ctx)
	}

	mapsService := maps.NewService(registry, loader, eventBus, log, opts)

	worker, err := scheduler.NewWorker(cfg, mapsService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
