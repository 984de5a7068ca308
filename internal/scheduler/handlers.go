package scheduler

import (
	"context"
	"fmt"

	"listingmap_backend/internal/events"
	"listingmap_backend/internal/variants"
	"listingmap_backend/platform/logger"
)

// RegisterHandlers schedules a district warm-up after every load of a variant
// that offers district grouping.
func RegisterHandlers(bus events.Bus, scheduler WarmupScheduler, registry *variants.Registry, log *logger.Logger) {
	bus.Subscribe(events.ListingsLoaded{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		loaded, ok := e.(events.ListingsLoaded)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		v, ok := registry.Get(loaded.Variant)
		if !ok || !v.DistrictGrouping {
			return nil
		}
		if err := scheduler.ScheduleDistrictWarmup(ctx, loaded.Variant); err != nil {
			log.Warn("failed to schedule district warm-up", "variant", loaded.Variant, "error", err)
			return err
		}
		return nil
	}))
}
