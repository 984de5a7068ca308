package geocode

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding/korean"
)

// boundary is one district polygon (possibly multi-part) with its bounding box.
type boundary struct {
	District District
	Rings    [][][2]float64 // [lat, lng] points
	MinLat   float64
	MinLng   float64
	MaxLat   float64
	MaxLng   float64
}

// ShapefileOptions names the attribute columns holding the region names.
// Korean boundary files are usually CP949 encoded.
type ShapefileOptions struct {
	Region1Field string
	Region2Field string
	CP949        bool
}

// Shapefile resolves districts offline from administrative boundary polygons.
type Shapefile struct {
	boundaries []boundary
}

// LoadShapefile reads every polygon of the shapefile at path.
func LoadShapefile(path string, opts ShapefileOptions) (*Shapefile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return nil, fmt.Errorf("open shapefile %q: expected a .shp path", path)
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	region1, region2 := -1, -1
	for i, f := range r.Fields() {
		switch strings.TrimRight(f.String(), "\x00") {
		case opts.Region1Field:
			region1 = i
		case opts.Region2Field:
			region2 = i
		}
	}
	if region1 < 0 {
		return nil, fmt.Errorf("shapefile %s: field %q not found", path, opts.Region1Field)
	}

	decode := func(s string) string { return s }
	if opts.CP949 {
		dec := korean.EUCKR.NewDecoder()
		decode = func(s string) string {
			out, err := dec.String(s)
			if err != nil {
				return s
			}
			return out
		}
	}
	attr := func(idx, field int) string {
		if field < 0 {
			return ""
		}
		return decode(strings.TrimRight(r.ReadAttribute(idx, field), "\x00 "))
	}

	s := &Shapefile{}
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		b := polygonBoundary(poly)
		b.District = District{Region1: attr(idx, region1), Region2: attr(idx, region2)}
		s.boundaries = append(s.boundaries, b)
	}
	return s, nil
}

func polygonBoundary(poly *shp.Polygon) boundary {
	b := boundary{
		MinLat: math.MaxFloat64, MinLng: math.MaxFloat64,
		MaxLat: -math.MaxFloat64, MaxLng: -math.MaxFloat64,
	}
	numParts := len(poly.Parts)
	for part := 0; part < numParts; part++ {
		start := poly.Parts[part]
		end := int32(len(poly.Points))
		if part+1 < numParts {
			end = poly.Parts[part+1]
		}
		ring := make([][2]float64, 0, end-start)
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, [2]float64{pt.Y, pt.X})
			b.MinLat = math.Min(b.MinLat, pt.Y)
			b.MaxLat = math.Max(b.MaxLat, pt.Y)
			b.MinLng = math.Min(b.MinLng, pt.X)
			b.MaxLng = math.Max(b.MaxLng, pt.X)
		}
		b.Rings = append(b.Rings, ring)
	}
	return b
}

// Len is the number of loaded polygons.
func (s *Shapefile) Len() int { return len(s.boundaries) }

// Resolve returns the first polygon containing the point.
func (s *Shapefile) Resolve(ctx context.Context, lat, lng float64) (District, error) {
	if err := ctx.Err(); err != nil {
		return District{}, err
	}
	for _, b := range s.boundaries {
		if lat < b.MinLat || lat > b.MaxLat || lng < b.MinLng || lng > b.MaxLng {
			continue
		}
		for _, ring := range b.Rings {
			if pointInRing(lat, lng, ring) {
				return b.District, nil
			}
		}
	}
	return District{}, ErrNoDistrict
}

// pointInRing is the even-odd ray casting test.
func pointInRing(lat, lng float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		yi, xi := ring[i][0], ring[i][1]
		yj, xj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) && lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

var _ Resolver = (*Shapefile)(nil)
