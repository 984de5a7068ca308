// Package logger wraps slog with the event helpers the listing map emits:
// source loads, geocode fallbacks, load history writes and HTTP access.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// VariantKey is the context key for the map variant being served
	VariantKey contextKey = "variant"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Tests pass io.Discard.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter("production", io.Discard)
}

// WithContext attaches the request_id and map variant carried by ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if variant, ok := ctx.Value(VariantKey).(string); ok && variant != "" {
		newLogger = newLogger.WithVariant(variant)
	}

	return newLogger
}

// WithRequestID tags entries with the X-Request-ID of the map request being served
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithVariant returns a logger scoped to a map variant
func (l *Logger) WithVariant(variant string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("variant", variant)),
	}
}

// HTTPRequest logs one access line for a map API call
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a map API call that ended with an error attached to the gin context
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// LoadCompleted logs the outcome of a source load
func (l *Logger) LoadCompleted(variant string, reference, comparison, dropped int, cells int) {
	l.Info("listings_loaded",
		slog.String("variant", variant),
		slog.Int("reference", reference),
		slog.Int("comparison", comparison),
		slog.Int("dropped", dropped),
		slog.Int("cells", cells),
	)
}

// LoadFailed logs a failed source load
func (l *Logger) LoadFailed(variant string, err error) {
	l.Error("listings_load_failed",
		slog.String("variant", variant),
		slog.String("error", err.Error()),
	)
}

// GeocodeFailed logs a reverse-geocode lookup that fell back to the unknown district
func (l *Logger) GeocodeFailed(lat, lng float64, err error) {
	l.Debug("geocode_failed",
		slog.Float64("lat", lat),
		slog.Float64("lng", lng),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs a failed load history write, named by operation
// ("record load", "record districts")
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs a client throttled by the per-IP map API limiter
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
