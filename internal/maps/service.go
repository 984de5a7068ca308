package maps

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"listingmap_backend/internal/events"
	"listingmap_backend/internal/geocode"
	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/ingest"
	"listingmap_backend/internal/listings/metrics"
	"listingmap_backend/internal/listings/present"
	"listingmap_backend/internal/listings/state"
	"listingmap_backend/internal/maps/repository"
	"listingmap_backend/internal/variants"
	"listingmap_backend/platform/apperr"
	"listingmap_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

const (
	defaultLoadTimeout = 60 * time.Second
	defaultLoadsLimit  = 20
)

// PairFetcher fetches the two resources of a variant.
type PairFetcher interface {
	LoadPair(ctx context.Context, reference, comparison string) (ref, cmp []byte, err error)
}

// LoadHistory reads stored loads. Nil when no database is configured.
type LoadHistory interface {
	ListLoads(ctx context.Context, variant string, limit int) ([]repository.Load, error)
	GetLoad(ctx context.Context, variant string, id uuid.UUID) (repository.Load, error)
	ListCells(ctx context.Context, loadID uuid.UUID) ([]repository.Cell, error)
}

// Options are the optional collaborators of a Service.
type Options struct {
	// Resolver enables district grouping. Nil disables it.
	Resolver            geocode.Resolver
	DistrictConcurrency int
	History             LoadHistory
	LoadTimeout         time.Duration
	Language            language.Tag
}

// districtRun is an in-flight district computation.
type districtRun struct {
	cancel context.CancelFunc
}

// Service owns the state of every configured variant.
type Service struct {
	registry *variants.Registry
	fetcher  PairFetcher
	bus      events.Bus
	log      *logger.Logger
	opts     Options
	format   *present.Formatter

	stores map[string]*state.Store
	loads  singleflight.Group

	mu        sync.Mutex
	districts map[string]*districtRun

	now   func() time.Time
	newID func() uuid.UUID
}

func NewService(registry *variants.Registry, fetcher PairFetcher, bus events.Bus, log *logger.Logger, opts Options) *Service {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.Language == language.Und {
		opts.Language = language.Korean
	}

	stores := make(map[string]*state.Store)
	for _, v := range registry.All() {
		stores[v.Name] = state.NewStore(v.Name)
	}

	return &Service{
		registry:  registry,
		fetcher:   fetcher,
		bus:       bus,
		log:       log,
		opts:      opts,
		format:    present.NewFormatter(opts.Language),
		stores:    stores,
		districts: make(map[string]*districtRun),
		now:       time.Now,
		newID:     uuid.New,
	}
}

// Variants lists the configured variants in file order.
func (s *Service) Variants() []variants.Variant {
	return s.registry.All()
}

// DistrictsEnabled reports whether district lookups are configured.
func (s *Service) DistrictsEnabled() bool {
	return s.opts.Resolver != nil
}

func (s *Service) variant(name string) (variants.Variant, *state.Store, error) {
	v, ok := s.registry.Get(name)
	if !ok {
		return variants.Variant{}, nil, apperr.NotFound(fmt.Sprintf("variant %q not found", name))
	}
	return v, s.stores[name], nil
}

// View returns the variant's view, loading its sources on first use. Concurrent
// first callers share a single load.
func (s *Service) View(ctx context.Context, name string) (state.View, error) {
	v, store, err := s.variant(name)
	if err != nil {
		return state.View{}, err
	}
	if view := store.Get(); view.Status != state.StatusIdle {
		return view, nil
	}

	res, err, _ := s.loads.Do(name, func() (any, error) {
		if view := store.Get(); view.Status != state.StatusIdle {
			return view, nil
		}
		return s.load(ctx, v, store), nil
	})
	if err != nil {
		return state.View{}, err
	}
	return res.(state.View), nil
}

// Reload replaces the variant's listings wholesale.
func (s *Service) Reload(ctx context.Context, name string) (state.View, error) {
	v, store, err := s.variant(name)
	if err != nil {
		return state.View{}, err
	}
	res, err, _ := s.loads.Do(name, func() (any, error) {
		return s.load(ctx, v, store), nil
	})
	if err != nil {
		return state.View{}, err
	}
	return res.(state.View), nil
}

// load fetches, ingests and groups both resources. A failure leaves the
// variant with no records and the error on the view.
func (s *Service) load(ctx context.Context, v variants.Variant, store *state.Store) state.View {
	s.cancelDistricts(v.Name)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
	defer cancel()

	start := s.now()
	loadID := s.newID()
	log := s.log.WithVariant(v.Name)

	result, err := s.fetchAndIngest(ctx, v)
	if err != nil {
		log.LoadFailed(v.Name, err)
		view, _ := store.Update(func(cur state.View) (state.View, error) {
			return cur.LoadFailed(err, s.now()), nil
		})
		if s.bus != nil {
			s.bus.Publish(ctx, events.ListingsLoadFailed{
				BaseEvent: events.NewBaseEvent(),
				LoadID:    loadID,
				Variant:   v.Name,
				Error:     err.Error(),
			})
		}
		return view
	}

	grid := grouping.ByGrid(result.Listings, v.Precision)
	counts := state.Counts{Reference: result.Reference, Comparison: result.Comparison}
	view, _ := store.Update(func(cur state.View) (state.View, error) {
		return cur.Loaded(loadID.String(), result.Listings, grid, counts, s.now()), nil
	})

	dropped := result.Reference.Dropped + result.Comparison.Dropped
	log.LoadCompleted(v.Name, result.Reference.Kept, result.Comparison.Kept, dropped, grid.Len())

	if s.bus != nil {
		s.bus.Publish(ctx, events.ListingsLoaded{
			BaseEvent:       events.NewBaseEvent(),
			LoadID:          loadID,
			Variant:         v.Name,
			ReferenceRows:   result.Reference.Rows,
			ComparisonRows:  result.Comparison.Rows,
			ReferenceCount:  result.Reference.Kept,
			ComparisonCount: result.Comparison.Kept,
			Dropped:         dropped,
			Duration:        s.now().Sub(start),
			Cells:           cellSummaries(grid, v),
		})
	}
	return view
}

func (s *Service) fetchAndIngest(ctx context.Context, v variants.Variant) (*ingest.Result, error) {
	ref, cmp, err := s.fetcher.LoadPair(ctx, v.ReferenceURL, v.ComparisonURL)
	if err != nil {
		return nil, err
	}
	return ingest.Ingest(ref, cmp, ingest.Options{ComparisonSource: v.Provider, Dedupe: v.Dedupe})
}

func cellSummaries(g *grouping.Grouping, v variants.Variant) []events.CellSummary {
	cells := g.Cells()
	out := make([]events.CellSummary, 0, len(cells))
	for _, cell := range cells {
		sum := metrics.Summarize(cell.Listings, v)
		out = append(out, events.CellSummary{
			Key:              cell.Key,
			ReferenceCount:   sum.ReferenceCount,
			ComparisonCount:  sum.ComparisonCount,
			AvgOccupancy:     domain.ValueOr(sum.AvgOccupancy, 0),
			AvgFee:           domain.ValueOr(sum.AvgFee, 0),
			AvgReferenceRent: sum.AvgReferenceRent,
			AvgProfit:        domain.ValueOr(sum.AvgProfit, 0),
			Tier:             sum.Tier,
		})
	}
	return out
}

// MapView loads the variant if needed and builds its map descriptor.
func (s *Service) MapView(ctx context.Context, name string) (*present.MapView, error) {
	view, err := s.View(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.render(view)
}

func (s *Service) render(view state.View) (*present.MapView, error) {
	v, _ := s.registry.Get(view.Variant)
	mv, err := present.BuildMapView(view, v, s.format)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to build map view", err)
	}
	mv.DistrictGrouping = v.DistrictGrouping && s.DistrictsEnabled()
	return mv, nil
}

func (s *Service) ready(ctx context.Context, name string) (variants.Variant, *state.Store, state.View, error) {
	v, store, err := s.variant(name)
	if err != nil {
		return v, nil, state.View{}, err
	}
	view, err := s.View(ctx, name)
	if err != nil {
		return v, nil, state.View{}, err
	}
	if view.Status != state.StatusReady {
		return v, nil, view, apperr.Unavailable("listings unavailable", view.Err).WithOp("maps." + name)
	}
	return v, store, view, nil
}

// SetGrouping switches between grid and district grouping. District labels
// are computed on first use; a later switch cancels a computation still in
// flight for the variant.
func (s *Service) SetGrouping(ctx context.Context, name string, mode grouping.Mode) (*present.MapView, error) {
	if mode != grouping.ModeGrid && mode != grouping.ModeDistrict {
		return nil, apperr.Validation(fmt.Sprintf("unknown grouping mode %q", mode)).
			WithDetails(map[string][]grouping.Mode{"modes": {grouping.ModeGrid, grouping.ModeDistrict}})
	}
	v, store, view, err := s.ready(ctx, name)
	if err != nil {
		return nil, err
	}

	if mode == grouping.ModeDistrict && view.Districts == nil {
		if err := s.checkDistricts(v); err != nil {
			return nil, err
		}
		if _, err := s.computeDistricts(ctx, v, store, view); err != nil {
			return nil, err
		}
	}
	if mode == grouping.ModeGrid {
		s.cancelDistricts(name)
	}

	next, err := store.Update(func(cur state.View) (state.View, error) {
		return cur.SetMode(mode)
	})
	if err != nil {
		return nil, stateError(err)
	}
	return s.render(next)
}

func (s *Service) checkDistricts(v variants.Variant) error {
	if !v.DistrictGrouping {
		return apperr.Validation(fmt.Sprintf("variant %q does not support district grouping", v.Name))
	}
	if s.opts.Resolver == nil {
		return apperr.Unavailable("district lookup is not configured", nil)
	}
	return nil
}

// computeDistricts groups the view's listings by district and attaches the
// result to the view's load.
func (s *Service) computeDistricts(ctx context.Context, v variants.Variant, store *state.Store, view state.View) (*grouping.Grouping, error) {
	ctx, run := s.startDistricts(ctx, v.Name)
	defer s.finishDistricts(v.Name, run)

	log := s.log.WithVariant(v.Name)
	g, err := grouping.ByDistrict(ctx, view.Listings, s.opts.Resolver, grouping.DistrictOptions{
		Concurrency: s.opts.DistrictConcurrency,
		OnLookupError: func(l domain.Listing, err error) {
			log.Debug("district lookup fell back to unknown", "listing", l.ID, "error", err)
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperr.Conflict("district grouping was superseded")
		}
		return nil, apperr.Wrap(apperr.KindUnavailable, "district grouping interrupted", err)
	}

	if _, err := store.Update(func(cur state.View) (state.View, error) {
		return cur.WithDistricts(view.LoadID, g), nil
	}); err != nil {
		return nil, err
	}

	unknown := 0
	if cell, ok := g.Cell(geocode.UnknownLabel); ok {
		unknown = len(cell.Listings)
	}
	log.Info("district grouping computed", "districts", g.Len(), "unknown", unknown)

	if s.bus != nil {
		if loadID, err := uuid.Parse(view.LoadID); err == nil {
			s.bus.Publish(ctx, events.DistrictsComputed{
				BaseEvent: events.NewBaseEvent(),
				LoadID:    loadID,
				Variant:   v.Name,
				Districts: g.Len(),
				Unknown:   unknown,
			})
		}
	}
	return g, nil
}

func (s *Service) startDistricts(ctx context.Context, name string) (context.Context, *districtRun) {
	ctx, cancel := context.WithCancel(ctx)
	run := &districtRun{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.districts[name]; ok {
		prev.cancel()
	}
	s.districts[name] = run
	s.mu.Unlock()
	return ctx, run
}

func (s *Service) finishDistricts(name string, run *districtRun) {
	s.mu.Lock()
	if s.districts[name] == run {
		delete(s.districts, name)
	}
	s.mu.Unlock()
	run.cancel()
}

func (s *Service) cancelDistricts(name string) {
	s.mu.Lock()
	if run, ok := s.districts[name]; ok {
		run.cancel()
		delete(s.districts, name)
	}
	s.mu.Unlock()
}

// WarmDistricts computes district grouping for the current load without
// switching modes and returns listings per district label.
func (s *Service) WarmDistricts(ctx context.Context, name string) (map[string]int, error) {
	v, store, view, err := s.ready(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.checkDistricts(v); err != nil {
		return nil, err
	}

	g := view.Districts
	if g == nil {
		if g, err = s.computeDistricts(ctx, v, store, view); err != nil {
			return nil, err
		}
	}

	histogram := make(map[string]int, g.Len())
	for _, cell := range g.Cells() {
		histogram[cell.Key] = len(cell.Listings)
	}
	return histogram, nil
}

// Cell builds the detail panel of one cell without touching the selection.
// An empty mode means the active grouping.
func (s *Service) Cell(ctx context.Context, name, key string, mode grouping.Mode) (*present.Panel, error) {
	v, _, view, err := s.ready(ctx, name)
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = view.Mode
	}

	g := view.Grid
	if mode == grouping.ModeDistrict {
		g = view.Districts
	}
	if g == nil {
		return nil, stateError(state.ErrDistrictsUnavailable)
	}
	cell, ok := g.Cell(key)
	if !ok {
		return nil, stateError(state.ErrUnknownCell)
	}

	panel := present.BuildPanel(cell, mode, v, s.format)
	return &panel, nil
}

// Select opens the info window of a cell in the active grouping.
func (s *Service) Select(ctx context.Context, name, key string) (*present.MapView, error) {
	_, store, _, err := s.ready(ctx, name)
	if err != nil {
		return nil, err
	}
	token := s.newID().String()
	next, err := store.Update(func(cur state.View) (state.View, error) {
		return cur.Select(key, token)
	})
	if err != nil {
		return nil, stateError(err)
	}
	return s.render(next)
}

// ClearSelection closes the info window.
func (s *Service) ClearSelection(ctx context.Context, name string) (*present.MapView, error) {
	_, store, _, err := s.ready(ctx, name)
	if err != nil {
		return nil, err
	}
	next, _ := store.Update(func(cur state.View) (state.View, error) {
		return cur.ClearSelection(), nil
	})
	return s.render(next)
}

// Loads lists stored loads of a variant, newest first.
func (s *Service) Loads(ctx context.Context, name string, limit int) ([]repository.Load, error) {
	if _, _, err := s.variant(name); err != nil {
		return nil, err
	}
	if s.opts.History == nil {
		return nil, apperr.Unavailable("load history requires a database", nil)
	}
	if limit <= 0 {
		limit = defaultLoadsLimit
	}
	return s.opts.History.ListLoads(ctx, name, limit)
}

// LoadCells returns the stored cell aggregates of one load.
func (s *Service) LoadCells(ctx context.Context, name string, loadID uuid.UUID) ([]repository.Cell, error) {
	if _, _, err := s.variant(name); err != nil {
		return nil, err
	}
	if s.opts.History == nil {
		return nil, apperr.Unavailable("load history requires a database", nil)
	}
	if _, err := s.opts.History.GetLoad(ctx, name, loadID); err != nil {
		return nil, err
	}
	return s.opts.History.ListCells(ctx, loadID)
}

func stateError(err error) error {
	switch {
	case errors.Is(err, state.ErrUnknownCell):
		return apperr.NotFound("cell not found in active grouping")
	case errors.Is(err, state.ErrDistrictsUnavailable):
		return apperr.Conflict("district grouping has not been computed")
	case errors.Is(err, state.ErrNotLoaded):
		return apperr.Unavailable("listings unavailable", err)
	default:
		return err
	}
}
