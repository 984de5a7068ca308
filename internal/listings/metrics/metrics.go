// Package metrics computes per-cell aggregates, profit figures and marker
// classification.
package metrics

import (
	"math"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/variants"
)

const (
	// ManwonToWon converts the reference provider's 만원 amounts to won.
	ManwonToWon = 10000
	// WeeksPerMonth is the multiplier from weekly usage fee to monthly revenue.
	WeeksPerMonth = 4
	// SquareMetersPerPyeong is the area conversion factor.
	SquareMetersPerPyeong = 3.3058
	// NeutralColor fills icon templates for cells that cannot be classified.
	NeutralColor = "default"
)

// Composition describes which sources a cell contains.
type Composition string

const (
	ReferenceOnly  Composition = "reference_only"
	ComparisonOnly Composition = "comparison_only"
	Mixed          Composition = "mixed"
	Empty          Composition = "empty"
)

// Summary holds the aggregates for one cell. Averages are nil when the cell
// has no member of the source they are computed over.
type Summary struct {
	Composition      Composition `json:"composition"`
	ReferenceCount   int         `json:"referenceCount"`
	ComparisonCount  int         `json:"comparisonCount"`
	AvgOccupancy     *float64    `json:"avgOccupancy,omitempty"`
	AvgFee           *float64    `json:"avgFee,omitempty"`
	AvgReferenceRent *float64    `json:"avgReferenceRent,omitempty"`
	AvgProfit        *float64    `json:"avgProfit,omitempty"`
	Tier             string      `json:"tier,omitempty"`
	Icon             string      `json:"icon"`
}

// Summarize aggregates a cell's listings and classifies it for the variant.
// Missing occupancy, fee and rent values count as zero in their averages.
func Summarize(listings []domain.Listing, v variants.Variant) Summary {
	ref, cmp := domain.PartitionBySource(listings)
	s := Summary{
		ReferenceCount:  len(ref),
		ComparisonCount: len(cmp),
	}

	switch {
	case len(ref) > 0 && len(cmp) > 0:
		s.Composition = Mixed
	case len(cmp) > 0:
		s.Composition = ComparisonOnly
	case len(ref) > 0:
		s.Composition = ReferenceOnly
	default:
		s.Composition = Empty
	}

	s.AvgReferenceRent = ReferenceAverageRent(listings)
	if len(cmp) > 0 {
		s.AvgOccupancy = average(cmp, func(l domain.Listing) float64 { return domain.ValueOr(l.Occupancy, 0) })
		s.AvgFee = average(cmp, func(l domain.Listing) float64 { return domain.ValueOr(l.Deposit, 0) })
		if s.AvgReferenceRent != nil {
			refRent := *s.AvgReferenceRent
			s.AvgProfit = average(cmp, func(l domain.Listing) float64 {
				return ProfitDiff(Revenue(l, v.Revenue), refRent)
			})
		}
	}

	s.Tier, s.Icon = classify(s, v)
	return s
}

func classify(s Summary, v variants.Variant) (tier, icon string) {
	template := v.Icons.ReferenceOnly
	switch s.Composition {
	case Mixed:
		template = v.Icons.Mixed
	case ComparisonOnly:
		template = v.Icons.ComparisonOnly
	default:
		return "", variants.Icon(template, NeutralColor)
	}

	var value *float64
	switch v.Classification.Kind {
	case variants.ClassifyOccupancy:
		value = s.AvgOccupancy
	case variants.ClassifyFee:
		value = s.AvgFee
	case variants.ClassifyProfit:
		value = s.AvgProfit
	}
	if value == nil {
		return "", variants.Icon(template, NeutralColor)
	}
	tier = v.Classification.Classify(*value)
	return tier, variants.Icon(template, tier)
}

// ReferenceAverageRent is the mean monthly rent (만원) of the cell's reference
// listings, or nil when the cell has none.
func ReferenceAverageRent(listings []domain.Listing) *float64 {
	ref, _ := domain.PartitionBySource(listings)
	if len(ref) == 0 {
		return nil
	}
	return average(ref, func(l domain.Listing) float64 { return domain.ValueOr(l.Rent, 0) })
}

func average(listings []domain.Listing, value func(domain.Listing) float64) *float64 {
	if len(listings) == 0 {
		return nil
	}
	var sum float64
	for _, l := range listings {
		sum += value(l)
	}
	avg := sum / float64(len(listings))
	return &avg
}

// MonthlyRevenue projects monthly revenue in won from a weekly usage fee.
// Unset fee or occupancy count as zero.
func MonthlyRevenue(fee, occupancy *float64, formula variants.RevenueFormula) float64 {
	base := domain.ValueOr(fee, 0) * WeeksPerMonth
	if formula == variants.RevenueOccupancy {
		return base * (domain.ValueOr(occupancy, 0) / 100)
	}
	return base
}

// Revenue projects a short-stay listing's monthly revenue.
func Revenue(l domain.Listing, formula variants.RevenueFormula) float64 {
	return MonthlyRevenue(l.Deposit, l.Occupancy, formula)
}

// ProfitDiff is revenue in won minus a reference rent given in 만원.
func ProfitDiff(revenue, referenceRent float64) float64 {
	return revenue - referenceRent*ManwonToWon
}

// ProfitRate is the percentage margin of revenue over a reference rent in 만원.
// A zero reference rent yields 0.
func ProfitRate(revenue, referenceRent float64) float64 {
	if referenceRent == 0 {
		return 0
	}
	rentWon := referenceRent * ManwonToWon
	return (revenue - rentWon) / rentWon * 100
}

// ToM2 converts pyeong to whole square meters. nil stays nil.
func ToM2(pyeong *float64) *float64 {
	if pyeong == nil {
		return nil
	}
	v := jsRound(*pyeong * SquareMetersPerPyeong)
	return &v
}

// ToPyeong converts square meters to pyeong with one decimal. nil stays nil.
func ToPyeong(m2 *float64) *float64 {
	if m2 == nil {
		return nil
	}
	v := jsRound(*m2/SquareMetersPerPyeong*10) / 10
	return &v
}

// jsRound rounds halves toward +Inf.
func jsRound(x float64) float64 {
	return math.Floor(x + 0.5)
}
