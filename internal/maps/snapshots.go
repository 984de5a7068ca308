package maps

import (
	"context"
	"fmt"

	"listingmap_backend/internal/events"
	"listingmap_backend/internal/maps/repository"
	"listingmap_backend/platform/logger"

	"github.com/google/uuid"
)

// SnapshotWriter persists load history.
type SnapshotWriter interface {
	RecordLoad(ctx context.Context, load repository.Load, cells []repository.Cell) error
	RecordDistricts(ctx context.Context, loadID uuid.UUID, districts, unknown int) error
}

// RegisterSnapshotHandlers stores every successful load and district run.
func RegisterSnapshotHandlers(bus events.Bus, w SnapshotWriter, log *logger.Logger) {
	bus.Subscribe(events.ListingsLoaded{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		loaded, ok := e.(events.ListingsLoaded)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		load, cells := snapshotOf(loaded)
		if err := w.RecordLoad(ctx, load, cells); err != nil {
			log.DatabaseError("record load", err)
			return err
		}
		return nil
	}))

	bus.Subscribe(events.DistrictsComputed{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		computed, ok := e.(events.DistrictsComputed)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		if err := w.RecordDistricts(ctx, computed.LoadID, computed.Districts, computed.Unknown); err != nil {
			log.DatabaseError("record districts", err)
			return err
		}
		return nil
	}))
}

func snapshotOf(e events.ListingsLoaded) (repository.Load, []repository.Cell) {
	load := repository.Load{
		ID:              e.LoadID,
		Variant:         e.Variant,
		ReferenceRows:   e.ReferenceRows,
		ComparisonRows:  e.ComparisonRows,
		ReferenceCount:  e.ReferenceCount,
		ComparisonCount: e.ComparisonCount,
		Dropped:         e.Dropped,
		CellCount:       len(e.Cells),
		DurationMs:      e.Duration.Milliseconds(),
		LoadedAt:        e.OccurredAt(),
	}
	cells := make([]repository.Cell, 0, len(e.Cells))
	for _, c := range e.Cells {
		cells = append(cells, repository.Cell{
			LoadID:           e.LoadID,
			Key:              c.Key,
			ReferenceCount:   c.ReferenceCount,
			ComparisonCount:  c.ComparisonCount,
			AvgOccupancy:     c.AvgOccupancy,
			AvgFee:           c.AvgFee,
			AvgReferenceRent: c.AvgReferenceRent,
			AvgProfit:        c.AvgProfit,
			Tier:             c.Tier,
		})
	}
	return load, cells
}
