package present

import (
	"time"

	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/state"
	"listingmap_backend/internal/variants"
)

// MapView is everything the map widget needs to render one variant.
type MapView struct {
	Variant          string        `json:"variant"`
	Title            string        `json:"title"`
	Center           LatLng        `json:"center"`
	Level            int           `json:"level"`
	Status           state.Status  `json:"status"`
	Error            string        `json:"error,omitempty"`
	LoadID           string        `json:"loadId,omitempty"`
	LoadedAt         *time.Time    `json:"loadedAt,omitempty"`
	Mode             grouping.Mode `json:"mode"`
	DistrictGrouping bool          `json:"districtGrouping"`
	DistrictsReady   bool          `json:"districtsReady"`
	Counts           state.Counts  `json:"counts"`
	Markers          []Marker      `json:"markers"`
	InfoWindow       *InfoWindow   `json:"infoWindow,omitempty"`
}

// BuildMapView assembles the map descriptor for a view.
func BuildMapView(view state.View, v variants.Variant, f *Formatter) (*MapView, error) {
	mv := &MapView{
		Variant:          v.Name,
		Title:            v.Title,
		Center:           LatLng{Lat: v.Map.CenterLat, Lng: v.Map.CenterLng},
		Level:            v.Map.Level,
		Status:           view.Status,
		LoadID:           view.LoadID,
		Mode:             view.Mode,
		DistrictGrouping: v.DistrictGrouping,
		DistrictsReady:   view.Districts != nil,
		Counts:           view.Counts,
		Markers:          []Marker{},
	}
	if !view.LoadedAt.IsZero() {
		at := view.LoadedAt
		mv.LoadedAt = &at
	}
	if view.Err != nil {
		mv.Error = view.Err.Error()
	}

	markers, err := Markers(view.Active(), v)
	if err != nil {
		return nil, err
	}
	if markers != nil {
		mv.Markers = markers
	}

	if cell, ok := view.SelectedCell(); ok {
		w, err := BuildInfoWindow(cell, view.Mode, view.Selection.MountToken, v, f)
		if err != nil {
			return nil, err
		}
		mv.InfoWindow = w
	}
	return mv, nil
}
