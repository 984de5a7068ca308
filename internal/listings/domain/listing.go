// Package domain holds the listing records shared by every stage of the map pipeline.
package domain

import (
	"fmt"
	"math"
)

// Source identifies the provider a listing came from.
type Source string

const (
	// SourceNaver is the long-term rental provider used as the reference baseline.
	SourceNaver Source = "naver"
	// SourceSam is the short-stay provider that reports occupancy.
	SourceSam Source = "sam"
	// SourceSeoul is the premium officetel short-stay provider.
	SourceSeoul Source = "seoul"
)

// ParseSource validates a provider name.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceNaver, SourceSam, SourceSeoul:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown listing source %q", s)
}

// IsReference reports whether the source is the long-term rental baseline.
func (s Source) IsReference() bool {
	return s == SourceNaver
}

// AddressPlaceholder is shown when a provider row carries no address.
const AddressPlaceholder = "—"

// Listing is one normalized record. Optional numbers are nil when the provider
// left them unset; nil is never coerced to zero here.
type Listing struct {
	ID        string
	Source    Source
	Title     string
	Address   string
	Lat       float64
	Lng       float64
	Deposit   *float64 // 만원 for reference rows, weekly usage fee in KRW for short-stay rows
	Rent      *float64 // monthly rent in 만원, reference rows only
	Occupancy *float64 // percent, occupancy-aware short-stay rows only

	Reference *ReferenceRow `json:"-"`
	ShortStay *ShortStayRow `json:"-"`
}

// ValidCoordinates reports whether lat/lng are finite and inside the WGS84
// ranges |lat| <= 90 and |lng| <= 180.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 {
	return &v
}

// ValueOr dereferences p, falling back to def when unset.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// PartitionBySource splits listings into reference and comparison records, keeping order.
func PartitionBySource(listings []Listing) (reference, comparison []Listing) {
	for _, l := range listings {
		if l.Source.IsReference() {
			reference = append(reference, l)
		} else {
			comparison = append(comparison, l)
		}
	}
	return reference, comparison
}
