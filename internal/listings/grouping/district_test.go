package grouping

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"listingmap_backend/internal/geocode"
	"listingmap_backend/internal/listings/domain"
)

func TestByDistrictGroupsByLabelAndKeepsFailures(t *testing.T) {
	resolver := geocode.ResolverFunc(func(_ context.Context, lat, _ float64) (geocode.District, error) {
		switch {
		case lat < 37.5:
			return geocode.District{Region1: "서울특별시", Region2: "강남구"}, nil
		case lat < 37.6:
			return geocode.District{Region1: "서울특별시", Region2: "마포구"}, nil
		default:
			return geocode.District{}, errors.New("upstream down")
		}
	})
	in := []domain.Listing{
		listing("a", domain.SourceNaver, 37.4, 127.0),
		listing("b", domain.SourceSeoul, 37.55, 126.9),
		listing("c", domain.SourceSeoul, 37.7, 127.0),
		listing("d", domain.SourceSeoul, 37.45, 127.05),
	}

	var failures atomic.Int32
	g, err := ByDistrict(context.Background(), in, resolver, DistrictOptions{
		Concurrency:   2,
		OnLookupError: func(domain.Listing, error) { failures.Add(1) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cells := g.Cells()
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	if cells[0].Key != "서울특별시 강남구" || len(cells[0].Listings) != 2 {
		t.Fatalf("expected first cell 강남구 with 2 listings, got %q with %d", cells[0].Key, len(cells[0].Listings))
	}
	if cells[1].Key != "서울특별시 마포구" {
		t.Fatalf("expected second cell 마포구, got %q", cells[1].Key)
	}
	if cells[2].Key != geocode.UnknownLabel || cells[2].Listings[0].ID != "c" {
		t.Fatalf("expected failed lookup in unknown cell, got %+v", cells[2])
	}
	if failures.Load() != 1 {
		t.Fatalf("expected 1 reported failure, got %d", failures.Load())
	}
	if g.Mode() != ModeDistrict {
		t.Fatalf("expected district mode")
	}
}

func TestByDistrictBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	resolver := geocode.ResolverFunc(func(context.Context, float64, float64) (geocode.District, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return geocode.District{Region1: "서울특별시", Region2: "중구"}, nil
	})

	in := make([]domain.Listing, 0, 20)
	for i := 0; i < 20; i++ {
		in = append(in, listing("x", domain.SourceSeoul, 37.0+float64(i)*0.01, 127.0))
	}
	if _, err := ByDistrict(context.Background(), in, resolver, DistrictOptions{Concurrency: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent lookups, got %d", peak.Load())
	}
}

func TestByDistrictSharesIdenticalCoordinates(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	var once sync.Once
	resolver := geocode.ResolverFunc(func(context.Context, float64, float64) (geocode.District, error) {
		calls.Add(1)
		<-release
		return geocode.District{Region1: "서울특별시", Region2: "종로구"}, nil
	})

	in := []domain.Listing{
		listing("a", domain.SourceSeoul, 37.57, 126.98),
		listing("b", domain.SourceSeoul, 37.57, 126.98),
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		once.Do(func() { close(release) })
	}()
	g, err := ByDistrict(context.Background(), in, resolver, DistrictOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single shared lookup, got %d", calls.Load())
	}
	if g.Len() != 1 {
		t.Fatalf("expected 1 cell, got %d", g.Len())
	}
}

func TestByDistrictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	resolver := geocode.ResolverFunc(func(ctx context.Context, _, _ float64) (geocode.District, error) {
		cancel()
		<-ctx.Done()
		return geocode.District{}, ctx.Err()
	})
	in := []domain.Listing{
		listing("a", domain.SourceSeoul, 37.1, 127.0),
		listing("b", domain.SourceSeoul, 37.2, 127.0),
	}
	if _, err := ByDistrict(ctx, in, resolver, DistrictOptions{Concurrency: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
