// Package grouping buckets listings into map cells, either by rounded
// coordinates or by reverse-geocoded district.
package grouping

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"listingmap_backend/internal/listings/domain"
)

// Mode selects how listings are bucketed.
type Mode string

const (
	ModeGrid     Mode = "grid"
	ModeDistrict Mode = "district"
)

// Cell is one bucket of co-located listings in ingestion order.
type Cell struct {
	Key      string           `json:"key"`
	Listings []domain.Listing `json:"-"`
}

// Grouping is an immutable, ordered set of cells. Cells keep the order in
// which their keys were first seen.
type Grouping struct {
	mode      Mode
	precision int
	cells     []Cell
	index     map[string]int
}

func newGrouping(mode Mode, precision int) *Grouping {
	return &Grouping{mode: mode, precision: precision, index: make(map[string]int)}
}

func (g *Grouping) add(key string, l domain.Listing) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.cells)
		g.index[key] = i
		g.cells = append(g.cells, Cell{Key: key})
	}
	g.cells[i].Listings = append(g.cells[i].Listings, l)
}

// Mode reports how the grouping was built.
func (g *Grouping) Mode() Mode { return g.mode }

// Precision is the number of decimal digits used for grid keys.
func (g *Grouping) Precision() int { return g.precision }

// Len is the number of cells.
func (g *Grouping) Len() int { return len(g.cells) }

// Cells returns the cells in first-seen order.
func (g *Grouping) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Cell looks up a cell by key.
func (g *Grouping) Cell(key string) (Cell, bool) {
	i, ok := g.index[key]
	if !ok {
		return Cell{}, false
	}
	return g.cells[i], true
}

// roundHalfUp rounds like JavaScript's Math.round: halves go toward +Inf.
// Adding zero folds -0 into 0.
func roundHalfUp(x float64) float64 {
	return math.Floor(x+0.5) + 0
}

func scale(precision int) float64 {
	return math.Pow10(precision)
}

// GridKey rounds a coordinate to precision decimal digits and encodes it as
// "<lat*10^p>/<lng*10^p>". The scaled values are never narrowed to a fixed
// width integer, so distinct rounded coordinates always give distinct keys.
func GridKey(lat, lng float64, precision int) string {
	s := scale(precision)
	return formatScaled(roundHalfUp(lat*s)) + "/" + formatScaled(roundHalfUp(lng*s))
}

func formatScaled(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func parseScaled(key, part string) (float64, error) {
	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, fmt.Errorf("grid key %q: %w", key, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) || v != math.Trunc(v) {
		return 0, fmt.Errorf("grid key %q: %q is not a whole number", key, part)
	}
	return v, nil
}

// DecodeGridKey returns the cell point a grid key stands for.
func DecodeGridKey(key string, precision int) (lat, lng float64, err error) {
	latPart, lngPart, ok := strings.Cut(key, "/")
	if !ok {
		return 0, 0, fmt.Errorf("grid key %q: missing separator", key)
	}
	latScaled, err := parseScaled(key, latPart)
	if err != nil {
		return 0, 0, err
	}
	lngScaled, err := parseScaled(key, lngPart)
	if err != nil {
		return 0, 0, err
	}
	s := scale(precision)
	return latScaled / s, lngScaled / s, nil
}

// ByGrid groups listings by rounded coordinates. Two listings share a cell
// exactly when their keys are equal.
func ByGrid(listings []domain.Listing, precision int) *Grouping {
	g := newGrouping(ModeGrid, precision)
	for _, l := range listings {
		g.add(GridKey(l.Lat, l.Lng, precision), l)
	}
	return g
}
