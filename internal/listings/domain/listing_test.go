package domain

import (
	"math"
	"testing"
)

func TestParseSource(t *testing.T) {
	for _, name := range []string{"naver", "sam", "seoul"} {
		if _, err := ParseSource(name); err != nil {
			t.Fatalf("expected %q to parse, got %v", name, err)
		}
	}
	if _, err := ParseSource("airbnb"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(37.5, 127) {
		t.Fatalf("expected finite coordinates to be valid")
	}
	if ValidCoordinates(math.NaN(), 127) || ValidCoordinates(37.5, math.Inf(1)) {
		t.Fatalf("expected non-finite coordinates to be invalid")
	}
	if !ValidCoordinates(-90, 180) {
		t.Fatalf("expected range edges to be valid")
	}
	if ValidCoordinates(1e16, 127) || ValidCoordinates(37.5, -180.5) {
		t.Fatalf("expected out-of-range coordinates to be invalid")
	}
}

func TestPartitionBySourceKeepsOrder(t *testing.T) {
	in := []Listing{
		{ID: "s1", Source: SourceSam},
		{ID: "n1", Source: SourceNaver},
		{ID: "s2", Source: SourceSam},
	}
	ref, cmp := PartitionBySource(in)
	if len(ref) != 1 || ref[0].ID != "n1" {
		t.Fatalf("expected one reference n1, got %+v", ref)
	}
	if len(cmp) != 2 || cmp[0].ID != "s1" || cmp[1].ID != "s2" {
		t.Fatalf("expected comparison s1,s2 in order, got %+v", cmp)
	}
}
