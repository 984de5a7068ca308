package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/listings/grouping"
)

func loadedView() View {
	listings := []domain.Listing{
		{ID: "n1", Source: domain.SourceNaver, Lat: 37.5, Lng: 127.0},
		{ID: "s1", Source: domain.SourceSeoul, Lat: 37.6, Lng: 127.1},
	}
	return Initial("profit").Loaded("load-1", listings, grouping.ByGrid(listings, 3), Counts{}, time.Now())
}

func TestSelectAndClear(t *testing.T) {
	v := loadedView()
	v, err := v.Select("37500/127000", "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cell, ok := v.SelectedCell()
	if !ok || cell.Listings[0].ID != "n1" {
		t.Fatalf("expected selected cell with n1, got %+v", cell)
	}

	again, _ := v.Select("37500/127000", "t2")
	if again.Selection.MountToken == v.Selection.MountToken {
		t.Fatalf("expected reselecting to change the mount token")
	}

	cleared := again.ClearSelection()
	if _, ok := cleared.SelectedCell(); ok {
		t.Fatalf("expected no selection after clear")
	}
}

func TestSelectUnknownCell(t *testing.T) {
	if _, err := loadedView().Select("1/1", "t"); !errors.Is(err, ErrUnknownCell) {
		t.Fatalf("expected ErrUnknownCell, got %v", err)
	}
	if _, err := Initial("x").Select("1/1", "t"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestDistrictModeNeedsDistricts(t *testing.T) {
	v := loadedView()
	if _, err := v.SetMode(grouping.ModeDistrict); !errors.Is(err, ErrDistrictsUnavailable) {
		t.Fatalf("expected ErrDistrictsUnavailable, got %v", err)
	}

	districts := grouping.ByGrid(v.Listings, 1)
	v = v.WithDistricts("load-1", districts)
	v, _ = v.Select("37500/127000", "t1")
	v, err := v.SetMode(grouping.ModeDistrict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Active() != districts {
		t.Fatalf("expected district grouping to be active")
	}
	if v.Selection != nil {
		t.Fatalf("expected mode switch to clear selection")
	}
}

func TestWithDistrictsIgnoresStaleLoad(t *testing.T) {
	v := loadedView().WithDistricts("load-0", grouping.ByGrid(nil, 1))
	if v.Districts != nil {
		t.Fatalf("expected stale district result to be ignored")
	}
}

func TestLoadFailedKeepsRecordSetEmpty(t *testing.T) {
	v := loadedView().LoadFailed(errors.New("fetch failed"), time.Now())
	if v.Status != StatusFailed || len(v.Listings) != 0 || v.Grid != nil {
		t.Fatalf("expected empty failed view, got %+v", v)
	}
	if v.Err == nil {
		t.Fatalf("expected load error on view")
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	store := NewStore("profit")
	store.Update(func(View) (View, error) { return loadedView(), nil })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Update(func(v View) (View, error) {
				if i%2 == 0 {
					return v.Select("37500/127000", "t")
				}
				return v.ClearSelection(), nil
			})
		}(i)
	}
	wg.Wait()

	if _, err := store.Update(func(v View) (View, error) { return v.Select("nope", "t") }); err == nil {
		t.Fatalf("expected error")
	}
	if store.Get().Status != StatusReady {
		t.Fatalf("expected failed transition to leave view unchanged")
	}
}
