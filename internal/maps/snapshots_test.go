package maps

import (
	"context"
	"testing"
	"time"

	"listingmap_backend/internal/events"
	"listingmap_backend/internal/maps/repository"
	"listingmap_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingWriter struct {
	load      repository.Load
	cells     []repository.Cell
	districts int
}

func (w *recordingWriter) RecordLoad(ctx context.Context, load repository.Load, cells []repository.Cell) error {
	w.load, w.cells = load, cells
	return nil
}

func (w *recordingWriter) RecordDistricts(ctx context.Context, loadID uuid.UUID, districts, unknown int) error {
	w.districts = districts
	return nil
}

func TestSnapshotHandlersRecordLoads(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Discard())
	w := &recordingWriter{}
	RegisterSnapshotHandlers(bus, w, logger.Discard())

	loadID := uuid.New()
	rent := 100.0
	bus.Publish(context.Background(), events.ListingsLoaded{
		BaseEvent:       events.NewBaseEvent(),
		LoadID:          loadID,
		Variant:         "hybrid",
		ReferenceCount:  2,
		ComparisonCount: 1,
		Duration:        1500 * time.Millisecond,
		Cells: []events.CellSummary{
			{Key: "375000/1270000", ReferenceCount: 1, ComparisonCount: 1, AvgReferenceRent: &rent, Tier: "yellow"},
			{Key: "375100/1270200", ReferenceCount: 1},
		},
	})
	bus.Wait()

	if w.load.ID != loadID || w.load.CellCount != 2 || w.load.DurationMs != 1500 {
		t.Fatalf("unexpected load %+v", w.load)
	}
	if len(w.cells) != 2 || w.cells[0].LoadID != loadID || *w.cells[0].AvgReferenceRent != 100 {
		t.Fatalf("unexpected cells %+v", w.cells)
	}

	bus.Publish(context.Background(), events.DistrictsComputed{LoadID: loadID, Districts: 7})
	bus.Wait()
	if w.districts != 7 {
		t.Fatalf("expected 7 districts, got %d", w.districts)
	}
}
