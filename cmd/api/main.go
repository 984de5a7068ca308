package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listingmap_backend/internal/adapters/storage"
	"listingmap_backend/internal/events"
	"listingmap_backend/internal/geocode"
	apphttp "listingmap_backend/internal/http"
	"listingmap_backend/internal/http/router"
	"listingmap_backend/internal/listings/source"
	"listingmap_backend/internal/maps"
	"listingmap_backend/internal/maps/repository"
	"listingmap_backend/internal/scheduler"
	"listingmap_backend/internal/variants"
	"listingmap_backend/migrations"
	"listingmap_backend/platform/config"
	"listingmap_backend/platform/db"
	"listingmap_backend/platform/logger"
	"listingmap_backend/platform/redisconn"
	"listingmap_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "geocoder", cfg.GetGeocoder())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool := initDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	registry, err := loadVariants(cfg)
	if err != nil {
		log.Error("failed to load variants", "error", err)
		panic("failed to load variants: " + err.Error())
	}

	loader, err := newSourceLoader(cfg, log)
	if err != nil {
		log.Error("failed to initialize source loader", "error", err)
		panic("failed to initialize source loader: " + err.Error())
	}

	var cache redis.Cmdable
	if rdb != nil {
		cache = rdb
	}
	resolver, err := geocode.New(cfg, cache, log)
	if err != nil {
		log.Error("failed to initialize district resolver", "error", err)
		panic("failed to initialize district resolver: " + err.Error())
	}
	if resolver == nil {
		log.Warn("GEOCODER is none; district grouping disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	opts := maps.Options{
		Resolver:            resolver,
		DistrictConcurrency: cfg.GetGeocodeConcurrency(),
		LoadTimeout:         2 * cfg.GetSourceFetchTimeout(),
	}

	var health apphttp.HealthChecker
	if pool != nil {
		repo := repository.New(pool)
		maps.RegisterSnapshotHandlers(eventBus, repo, log)
		opts.History = repo
		health = db.NewPoolAdapter(pool)
	}

	warmups, closeScheduler := initWarmupScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
		scheduler.RegisterHandlers(eventBus, warmups, registry, log)
	}

	mapsService := maps.NewService(registry, loader, eventBus, log, opts)
	mapsModule := maps.NewModule(mapsService, val)

	// Warm every variant in the background so the first page view is served
	// from memory.
	go func() {
		for _, v := range registry.All() {
			if _, err := mapsService.View(ctx, v.Name); err != nil {
				log.Warn("variant warm-up failed", "variant", v.Name, "error", err)
			}
		}
	}()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			mapsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	if !cfg.IsDatabaseEnabled() {
		log.Warn("DATABASE_URL not configured; load history disabled")
		return nil
	}

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")
	return pool
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; geocode cache and district warm-ups disabled")
		return nil
	}

	rdb, err := redisconn.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		return nil
	}
	return rdb
}

func initWarmupScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.WarmupScheduler, func()) {
	if !cfg.IsSchedulerEnabled() {
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize warm-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func loadVariants(cfg config.SourceConfig) (*variants.Registry, error) {
	if path := cfg.GetVariantsFile(); path != "" {
		return variants.Load(path)
	}
	return variants.Default()
}

func newSourceLoader(cfg *config.Config, log *logger.Logger) (*source.Loader, error) {
	var objects source.Fetcher
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			return nil, err
		}
		objects = source.Objects{Store: store}
		log.Info("object storage sources enabled", "endpoint", cfg.GetMinIOEndpoint())
	}
	return source.NewLoader(source.Files{}, source.NewHTTP(cfg.GetSourceFetchTimeout()), objects), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
