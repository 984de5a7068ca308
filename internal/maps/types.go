package maps

import (
	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/present"
	"listingmap_backend/internal/listings/state"
	"listingmap_backend/internal/variants"
)

// GroupingRequest switches the active grouping.
type GroupingRequest struct {
	Mode grouping.Mode `json:"mode" validate:"required,oneof=grid district"`
}

// SelectRequest opens the info window of a cell.
type SelectRequest struct {
	Key string `json:"key" validate:"required,max=200"`
}

// CellQuery selects a cell for the stateless panel endpoint.
type CellQuery struct {
	Key  string        `form:"key" validate:"required,max=200"`
	Mode grouping.Mode `form:"mode" validate:"omitempty,oneof=grid district"`
}

// LoadsQuery pages the load history.
type LoadsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// VariantSummary is one entry of the variant catalogue.
type VariantSummary struct {
	Name             string               `json:"name"`
	Title            string               `json:"title"`
	Provider         string               `json:"provider"`
	Precision        int                  `json:"precision"`
	DistrictGrouping bool                 `json:"districtGrouping"`
	Map              variants.MapDefaults `json:"map"`
}

// ReloadResponse reports the outcome of a reload.
type ReloadResponse struct {
	Variant string       `json:"variant"`
	Status  state.Status `json:"status"`
	LoadID  string       `json:"loadId,omitempty"`
	Error   string       `json:"error,omitempty"`
	Counts  state.Counts `json:"counts"`
	Cells   int          `json:"cells"`
}

// SelectionResponse is the map view after a selection change, with the
// opened panel when a cell is selected.
type SelectionResponse struct {
	*present.MapView
	Panel *present.Panel `json:"panel,omitempty"`
}
