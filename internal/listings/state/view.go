// Package state holds the single owned view of one map variant. Every
// transition returns a new View; the Store swaps views wholesale.
package state

import (
	"errors"
	"time"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/ingest"
)

// Status is the load state of a view.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusReady  Status = "ready"
	StatusFailed Status = "failed"
)

var (
	// ErrUnknownCell is returned when selecting a key that is not in the active grouping.
	ErrUnknownCell = errors.New("cell not found in active grouping")
	// ErrDistrictsUnavailable is returned when switching to district mode before districts exist.
	ErrDistrictsUnavailable = errors.New("district grouping not computed")
	// ErrNotLoaded is returned for transitions that need loaded listings.
	ErrNotLoaded = errors.New("listings not loaded")
)

// Selection is the open detail panel. MountToken changes on every selection,
// including reselecting the same cell, so clients remount the panel.
type Selection struct {
	CellKey    string        `json:"cellKey"`
	Mode       grouping.Mode `json:"mode"`
	MountToken string        `json:"mountToken"`
}

// Counts summarizes ingestion of both resources.
type Counts struct {
	Reference  ingest.Stats `json:"reference"`
	Comparison ingest.Stats `json:"comparison"`
}

// View is the complete state of one variant.
type View struct {
	Variant   string
	Status    Status
	LoadID    string
	LoadedAt  time.Time
	Listings  []domain.Listing
	Counts    Counts
	Grid      *grouping.Grouping
	Districts *grouping.Grouping
	Mode      grouping.Mode
	Err       error
	Selection *Selection
}

// Initial is the view before the first load.
func Initial(variant string) View {
	return View{Variant: variant, Status: StatusIdle, Mode: grouping.ModeGrid}
}

// Loaded replaces the record set and grid grouping. District grouping and
// selection are dropped since their keys refer to the previous load.
func (v View) Loaded(loadID string, listings []domain.Listing, grid *grouping.Grouping, counts Counts, at time.Time) View {
	return View{
		Variant:  v.Variant,
		Status:   StatusReady,
		LoadID:   loadID,
		LoadedAt: at,
		Listings: listings,
		Counts:   counts,
		Grid:     grid,
		Mode:     grouping.ModeGrid,
	}
}

// LoadFailed leaves the view with no records and the load error.
func (v View) LoadFailed(err error, at time.Time) View {
	return View{
		Variant:  v.Variant,
		Status:   StatusFailed,
		LoadedAt: at,
		Mode:     grouping.ModeGrid,
		Err:      err,
	}
}

// WithDistricts attaches a district grouping computed for loadID. A result
// for an older load is ignored.
func (v View) WithDistricts(loadID string, districts *grouping.Grouping) View {
	if v.Status != StatusReady || v.LoadID != loadID {
		return v
	}
	v.Districts = districts
	return v
}

// SetMode switches the active grouping. The selection is cleared because cell
// keys differ between modes.
func (v View) SetMode(mode grouping.Mode) (View, error) {
	if v.Status != StatusReady {
		return v, ErrNotLoaded
	}
	if mode == grouping.ModeDistrict && v.Districts == nil {
		return v, ErrDistrictsUnavailable
	}
	if mode == v.Mode {
		return v, nil
	}
	v.Mode = mode
	v.Selection = nil
	return v, nil
}

// Active is the grouping for the current mode.
func (v View) Active() *grouping.Grouping {
	if v.Mode == grouping.ModeDistrict && v.Districts != nil {
		return v.Districts
	}
	return v.Grid
}

// Select opens the panel for a cell of the active grouping.
func (v View) Select(key, mountToken string) (View, error) {
	active := v.Active()
	if active == nil {
		return v, ErrNotLoaded
	}
	if _, ok := active.Cell(key); !ok {
		return v, ErrUnknownCell
	}
	v.Selection = &Selection{CellKey: key, Mode: v.Mode, MountToken: mountToken}
	return v, nil
}

// ClearSelection closes the panel.
func (v View) ClearSelection() View {
	v.Selection = nil
	return v
}

// SelectedCell returns the selected cell, if any.
func (v View) SelectedCell() (grouping.Cell, bool) {
	if v.Selection == nil || v.Active() == nil {
		return grouping.Cell{}, false
	}
	return v.Active().Cell(v.Selection.CellKey)
}
