package present

import (
	"fmt"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/metrics"
	"listingmap_backend/internal/variants"

	"github.com/mmcloughlin/geohash"
)

// geohashChars is the geohash length attached to markers (about 5m).
const geohashChars = 9

// Marker layers. Higher layers draw on top.
const (
	LayerReference  = 0
	LayerComparison = 1
)

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is one clickable map pin.
type Marker struct {
	Key         string              `json:"key"`
	Position    LatLng              `json:"position"`
	Icon        string              `json:"icon"`
	Tier        string              `json:"tier,omitempty"`
	Layer       int                 `json:"layer"`
	Count       int                 `json:"count"`
	Geohash     string              `json:"geohash"`
	Composition metrics.Composition `json:"composition"`
}

// Markers emits one marker per cell. Reference-only cells come first so that
// markers with comparison listings draw over them.
func Markers(g *grouping.Grouping, v variants.Variant) ([]Marker, error) {
	if g == nil {
		return nil, nil
	}
	cells := g.Cells()
	lower := make([]Marker, 0, len(cells))
	upper := make([]Marker, 0, len(cells))

	for _, cell := range cells {
		pos, err := MarkerPosition(cell, g, v)
		if err != nil {
			return nil, err
		}
		summary := metrics.Summarize(cell.Listings, v)
		m := Marker{
			Key:         cell.Key,
			Position:    pos,
			Icon:        summary.Icon,
			Tier:        summary.Tier,
			Count:       len(cell.Listings),
			Geohash:     geohash.EncodeWithPrecision(pos.Lat, pos.Lng, geohashChars),
			Composition: summary.Composition,
		}
		if summary.ComparisonCount > 0 {
			m.Layer = LayerComparison
			upper = append(upper, m)
		} else {
			m.Layer = LayerReference
			lower = append(lower, m)
		}
	}
	return append(lower, upper...), nil
}

// MarkerPosition is the decoded grid key for grid-positioned variants in grid
// mode, and the mean of member coordinates otherwise.
func MarkerPosition(cell grouping.Cell, g *grouping.Grouping, v variants.Variant) (LatLng, error) {
	if g.Mode() == grouping.ModeGrid && v.Position == variants.PositionGrid {
		lat, lng, err := grouping.DecodeGridKey(cell.Key, g.Precision())
		if err != nil {
			return LatLng{}, fmt.Errorf("marker position: %w", err)
		}
		return LatLng{Lat: lat, Lng: lng}, nil
	}
	return Centroid(cell.Listings), nil
}

// Centroid is the arithmetic mean of listing coordinates.
func Centroid(listings []domain.Listing) LatLng {
	if len(listings) == 0 {
		return LatLng{}
	}
	var lat, lng float64
	for _, l := range listings {
		lat += l.Lat
		lng += l.Lng
	}
	n := float64(len(listings))
	return LatLng{Lat: lat / n, Lng: lng / n}
}
