// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"listingmap_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Listing Map Events
// =============================================================================

// CellSummary is the per-cell aggregate carried by ListingsLoaded.
type CellSummary struct {
	Key              string   `json:"key"`
	ReferenceCount   int      `json:"referenceCount"`
	ComparisonCount  int      `json:"comparisonCount"`
	AvgOccupancy     float64  `json:"avgOccupancy"`
	AvgFee           float64  `json:"avgFee"`
	AvgReferenceRent *float64 `json:"avgReferenceRent,omitempty"`
	AvgProfit        float64  `json:"avgProfit"`
	Tier             string   `json:"tier"`
}

// ListingsLoaded is published after a variant's sources load successfully.
type ListingsLoaded struct {
	BaseEvent
	LoadID          uuid.UUID     `json:"loadId"`
	Variant         string        `json:"variant"`
	ReferenceRows   int           `json:"referenceRows"`
	ComparisonRows  int           `json:"comparisonRows"`
	ReferenceCount  int           `json:"referenceCount"`
	ComparisonCount int           `json:"comparisonCount"`
	Dropped         int           `json:"dropped"`
	Duration        time.Duration `json:"duration"`
	Cells           []CellSummary `json:"cells"`
}

func (e ListingsLoaded) EventName() string { return "listings.loaded" }

// ListingsLoadFailed is published when a load leaves a variant empty.
type ListingsLoadFailed struct {
	BaseEvent
	LoadID  uuid.UUID `json:"loadId"`
	Variant string    `json:"variant"`
	Error   string    `json:"error"`
}

func (e ListingsLoadFailed) EventName() string { return "listings.load_failed" }

// DistrictsComputed is published when district grouping finishes for a load.
type DistrictsComputed struct {
	BaseEvent
	LoadID    uuid.UUID `json:"loadId"`
	Variant   string    `json:"variant"`
	Districts int       `json:"districts"`
	Unknown   int       `json:"unknown"`
}

func (e DistrictsComputed) EventName() string { return "listings.districts_computed" }
