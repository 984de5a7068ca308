// Package geocode resolves coordinates to administrative districts.
package geocode

import (
	"context"
	"errors"
	"strings"
)

// UnknownLabel is the district label used when a lookup fails.
const UnknownLabel = "unknown"

// ErrNoDistrict is returned when a provider has no district for a point.
var ErrNoDistrict = errors.New("no district found for coordinates")

// District is a first and second level administrative region,
// e.g. "서울특별시" / "강남구".
type District struct {
	Region1 string `json:"region1"`
	Region2 string `json:"region2"`
}

// Label joins both levels with a space.
func (d District) Label() string {
	return strings.TrimSpace(d.Region1 + " " + d.Region2)
}

// Resolver looks up the district containing a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (District, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, lat, lng float64) (District, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, lat, lng float64) (District, error) {
	return f(ctx, lat, lng)
}
