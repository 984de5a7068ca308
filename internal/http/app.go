// Package http holds what the map API router is assembled from.
package http

import (
	"context"

	"listingmap_backend/internal/events"
	"listingmap_backend/platform/config"
	"listingmap_backend/platform/logger"
)

// HealthChecker backs /api/health with the load history database.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to router.New: the map modules plus the
// pieces the router itself needs.
type App struct {
	// Config carries the listen address, CORS origins and per-IP rate limits.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is pinged by /api/health. Nil when no database is configured.
	Health HealthChecker
	// EventBus carries load and district events to the history writers.
	EventBus events.Bus
	// Modules register routes under /api/v1; today that is the maps module.
	Modules []Module
}
