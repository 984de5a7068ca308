// Package variants defines the map variants as data: which sources they load,
// how they group, classify and label listings.
package variants

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var defaultVariants []byte

// ClassificationKind selects the metric a cell is classified by.
type ClassificationKind string

const (
	ClassifyOccupancy ClassificationKind = "occupancy"
	ClassifyFee       ClassificationKind = "fee"
	ClassifyProfit    ClassificationKind = "profit"
)

// RevenueFormula selects how projected monthly revenue is computed.
type RevenueFormula string

const (
	// RevenueOccupancy is fee × 4 × occupancy / 100.
	RevenueOccupancy RevenueFormula = "occupancy"
	// RevenueFlat is fee × 4.
	RevenueFlat RevenueFormula = "flat"
)

// MarkerPosition selects where a grid cell's marker sits.
type MarkerPosition string

const (
	// PositionGrid places the marker on the decoded grid key.
	PositionGrid MarkerPosition = "grid"
	// PositionMean places the marker on the mean of member coordinates.
	PositionMean MarkerPosition = "mean"
)

// ColorPlaceholder is replaced by the tier color in icon templates.
const ColorPlaceholder = "{color}"

// Tier maps values at or above (or strictly above, see Classification.Strict)
// Threshold to Color.
type Tier struct {
	Threshold float64 `yaml:"threshold"`
	Color     string  `yaml:"color" validate:"required"`
}

// Classification buckets a cell metric into colored tiers. Tiers are ordered
// from the highest threshold down; the first match wins.
type Classification struct {
	Kind     ClassificationKind `yaml:"kind" validate:"required,oneof=occupancy fee profit"`
	Strict   bool               `yaml:"strict"`
	Tiers    []Tier             `yaml:"tiers" validate:"required,min=1,dive"`
	Fallback string             `yaml:"fallback" validate:"required"`
}

// Classify returns the tier color for v.
func (c Classification) Classify(v float64) string {
	for _, t := range c.Tiers {
		if (c.Strict && v > t.Threshold) || (!c.Strict && v >= t.Threshold) {
			return t.Color
		}
	}
	return c.Fallback
}

// Icons are marker image templates. "{color}" is replaced by the tier color.
type Icons struct {
	Mixed          string `yaml:"mixed" validate:"required"`
	ComparisonOnly string `yaml:"comparisonOnly" validate:"required"`
	ReferenceOnly  string `yaml:"referenceOnly" validate:"required"`
}

// MapDefaults is the initial map viewport.
type MapDefaults struct {
	CenterLat float64 `yaml:"centerLat" validate:"latitude"`
	CenterLng float64 `yaml:"centerLng" validate:"longitude"`
	Level     int     `yaml:"level" validate:"min=1,max=14"`
}

// Panel holds the detail-panel wording.
type Panel struct {
	Header          string `yaml:"header"`
	RevenueLabel    string `yaml:"revenueLabel" validate:"required"`
	DiffLabel       string `yaml:"diffLabel" validate:"required"`
	NoReferenceNote string `yaml:"noReferenceNote" validate:"required"`
	ShowProfitRate  bool   `yaml:"showProfitRate"`
	ShowOccupancy   bool   `yaml:"showOccupancy"`
}

// Variant is one configured map.
type Variant struct {
	Name             string         `yaml:"name" validate:"required,alphanum,lowercase"`
	Title            string         `yaml:"title" validate:"required"`
	ReferenceURL     string         `yaml:"reference" validate:"required,locator"`
	ComparisonURL    string         `yaml:"comparison" validate:"required,locator"`
	Provider         domain.Source  `yaml:"provider" validate:"required,oneof=sam seoul"`
	Precision        int            `yaml:"precision" validate:"min=0,max=7"`
	Revenue          RevenueFormula `yaml:"revenue" validate:"required,oneof=occupancy flat"`
	Position         MarkerPosition `yaml:"position" validate:"required,oneof=grid mean"`
	DistrictGrouping bool           `yaml:"districtGrouping"`
	Dedupe           bool           `yaml:"dedupe"`
	Classification   Classification `yaml:"classification"`
	Icons            Icons          `yaml:"icons"`
	Map              MapDefaults    `yaml:"map"`
	Panel            Panel          `yaml:"panel"`
}

// Icon renders an icon template for a tier color.
func Icon(template, color string) string {
	return strings.ReplaceAll(template, ColorPlaceholder, color)
}

// Registry is the set of configured variants.
type Registry struct {
	byName map[string]Variant
	names  []string
}

type file struct {
	Variants []Variant `yaml:"variants" validate:"required,min=1,dive"`
}

// Default returns the built-in variants.
func Default() (*Registry, error) {
	return Parse(defaultVariants)
}

// Load reads variants from path, or the built-in set when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a variants YAML document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	val := validator.New()
	if err := val.RegisterValidation("locator", validLocator); err != nil {
		return nil, err
	}
	if err := val.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid variants: %w", err)
	}

	reg := &Registry{byName: make(map[string]Variant, len(f.Variants))}
	for _, v := range f.Variants {
		if _, dup := reg.byName[v.Name]; dup {
			return nil, fmt.Errorf("duplicate variant %q", v.Name)
		}
		if !sort.SliceIsSorted(v.Classification.Tiers, func(i, j int) bool {
			return v.Classification.Tiers[i].Threshold > v.Classification.Tiers[j].Threshold
		}) {
			return nil, fmt.Errorf("variant %q: tiers must be ordered by descending threshold", v.Name)
		}
		if v.Revenue == RevenueOccupancy && v.Provider != domain.SourceSam {
			return nil, fmt.Errorf("variant %q: occupancy revenue needs the %q provider", v.Name, domain.SourceSam)
		}
		reg.byName[v.Name] = v
		reg.names = append(reg.names, v.Name)
	}
	return reg, nil
}

// Get looks up a variant by name.
func (r *Registry) Get(name string) (Variant, bool) {
	v, ok := r.byName[name]
	return v, ok
}

// All returns the variants in file order.
func (r *Registry) All() []Variant {
	out := make([]Variant, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// validLocator accepts plain paths, file:// and http(s) URLs, and
// minio://bucket/key.
func validLocator(fl playground.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "", "file":
		return u.Path != "" || u.Opaque != ""
	case "http", "https":
		return u.Host != ""
	case "minio":
		return u.Host != "" && strings.TrimPrefix(u.Path, "/") != ""
	default:
		return false
	}
}
