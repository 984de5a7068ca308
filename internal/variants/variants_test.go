package variants

import (
	"strings"
	"testing"

	"listingmap_backend/internal/listings/domain"
)

func TestDefaultVariants(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(all))
	}
	if all[0].Name != "hybrid" || all[1].Name != "premium" || all[2].Name != "profit" {
		t.Fatalf("expected file order hybrid, premium, profit")
	}

	hybrid, _ := reg.Get("hybrid")
	if hybrid.Precision != 4 || hybrid.Provider != domain.SourceSam || hybrid.Revenue != RevenueOccupancy {
		t.Fatalf("unexpected hybrid variant: %+v", hybrid)
	}
	profit, _ := reg.Get("profit")
	if profit.Precision != 3 || !profit.DistrictGrouping || profit.Position != PositionMean {
		t.Fatalf("unexpected profit variant: %+v", profit)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Fatalf("expected unknown variant lookup to fail")
	}
}

func TestOccupancyTiersAreStrict(t *testing.T) {
	reg, _ := Default()
	v, _ := reg.Get("hybrid")
	cases := map[float64]string{
		100: "green", 80.01: "green", 80: "blue", 60: "yellow",
		40: "orange", 20: "red", 0: "red",
	}
	for occ, want := range cases {
		if got := v.Classification.Classify(occ); got != want {
			t.Fatalf("occupancy %v: expected %q, got %q", occ, want, got)
		}
	}
}

func TestFeeAndProfitTiersAreInclusive(t *testing.T) {
	reg, _ := Default()
	premium, _ := reg.Get("premium")
	if got := premium.Classification.Classify(300000); got != "green" {
		t.Fatalf("expected fee 300000 to be green, got %q", got)
	}
	if got := premium.Classification.Classify(299999); got != "purple" {
		t.Fatalf("expected fee 299999 to be purple, got %q", got)
	}

	profit, _ := reg.Get("profit")
	cases := map[float64]string{
		700000: "green", 699999: "blue", 500000: "blue", 300000: "yellow",
		200000: "orange", 199999: "red", -600000: "red",
	}
	for diff, want := range cases {
		if got := profit.Classification.Classify(diff); got != want {
			t.Fatalf("profit %v: expected %q, got %q", diff, want, got)
		}
	}
}

func TestIconTemplate(t *testing.T) {
	if got := Icon("/home-{color}.svg", "green"); got != "/home-green.svg" {
		t.Fatalf("expected /home-green.svg, got %q", got)
	}
	if got := Icon("/pin-purple.svg", "red"); got != "/pin-purple.svg" {
		t.Fatalf("expected template without placeholder to be unchanged, got %q", got)
	}
}

const minimalVariant = `
variants:
  - name: test
    title: Test
    reference: a.csv
    comparison: b.csv
    provider: seoul
    precision: 3
    revenue: flat
    position: grid
    classification:
      kind: fee
      tiers:
        - {threshold: 1, color: green}
        - {threshold: 2, color: blue}
      fallback: red
    icons: {mixed: /m.svg, comparisonOnly: /c.svg, referenceOnly: /r.svg}
    map: {centerLat: 37.5, centerLng: 127, level: 6}
    panel: {revenueLabel: r, diffLabel: d, noReferenceNote: n}
`

func TestParseRejectsAscendingTiers(t *testing.T) {
	_, err := Parse([]byte(minimalVariant))
	if err == nil || !strings.Contains(err.Error(), "descending") {
		t.Fatalf("expected descending tiers error, got %v", err)
	}
}

func TestParseRejectsUnknownProvider(t *testing.T) {
	doc := strings.Replace(minimalVariant, "provider: seoul", "provider: airbnb", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected validation error for unknown provider")
	}
}

func TestParseRejectsOccupancyRevenueWithoutOccupancyProvider(t *testing.T) {
	doc := strings.Replace(minimalVariant, "revenue: flat", "revenue: occupancy", 1)
	doc = strings.Replace(doc, "- {threshold: 1, color: green}\n        - {threshold: 2, color: blue}", "- {threshold: 2, color: blue}", 1)
	_, err := Parse([]byte(doc))
	if err == nil || !strings.Contains(err.Error(), "occupancy revenue") {
		t.Fatalf("expected occupancy revenue error, got %v", err)
	}
}

func TestParseValidatesLocators(t *testing.T) {
	cases := []struct {
		locator string
		valid   bool
	}{
		{"minio://listings/naver.csv", true},
		{"https://example.com/naver.csv", true},
		{"file:///data/naver.csv", true},
		{"minio://listings", false},
		{"ftp://example.com/naver.csv", false},
	}

	for _, tc := range cases {
		doc := strings.Replace(minimalVariant, "reference: a.csv", "reference: "+tc.locator, 1)
		doc = strings.Replace(doc, "- {threshold: 1, color: green}\n        - {threshold: 2, color: blue}", "- {threshold: 2, color: blue}", 1)
		_, err := Parse([]byte(doc))
		if tc.valid && err != nil {
			t.Fatalf("expected %q to be accepted, got %v", tc.locator, err)
		}
		if !tc.valid && (err == nil || !strings.Contains(err.Error(), "locator")) {
			t.Fatalf("expected locator error for %q, got %v", tc.locator, err)
		}
	}
}
