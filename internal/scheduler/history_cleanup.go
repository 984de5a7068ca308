package scheduler

import (
	"context"
	"time"

	"listingmap_backend/platform/logger"
)

const (
	defaultHistoryCleanupInterval = time.Hour
	defaultHistoryRetention       = 30 * 24 * time.Hour
)

// HistoryPruner deletes stored loads older than a cutoff.
type HistoryPruner interface {
	DeleteLoadsBefore(ctx context.Context, before time.Time) (int64, error)
}

// HistoryCleanup periodically removes old load history.
type HistoryCleanup struct {
	repo      HistoryPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewHistoryCleanup(repo HistoryPruner, log *logger.Logger, interval, retention time.Duration) *HistoryCleanup {
	if interval <= 0 {
		interval = defaultHistoryCleanupInterval
	}
	if retention <= 0 {
		retention = defaultHistoryRetention
	}

	return &HistoryCleanup{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *HistoryCleanup) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *HistoryCleanup) cleanup(ctx context.Context) {
	deleted, err := c.repo.DeleteLoadsBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("load history cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("load history cleanup deleted old loads", "deleted", deleted)
	}
}
