package ingest

import (
	"bytes"
	"fmt"

	"listingmap_backend/internal/listings/domain"
)

// Stats counts what happened to the rows of one resource.
type Stats struct {
	Rows       int `json:"rows"`
	Kept       int `json:"kept"`
	Dropped    int `json:"dropped"`    // rows without numeric coordinates
	Duplicates int `json:"duplicates"` // rows whose id was already seen for the source
	Malformed  int `json:"malformed"`  // records the CSV reader rejected
}

// Result is the joined output of one variant load.
type Result struct {
	Listings   []domain.Listing
	Reference  Stats
	Comparison Stats
}

// Options tune ingestion for a variant.
type Options struct {
	ComparisonSource domain.Source
	// Dedupe drops rows whose id repeats within a source, keeping the first one.
	Dedupe bool
}

// Normalize maps a parsed table through a normalizer.
func Normalize(table *Table, normalize Normalizer, dedupe bool) ([]domain.Listing, Stats) {
	stats := Stats{Rows: len(table.Rows), Malformed: table.Skipped}
	out := make([]domain.Listing, 0, len(table.Rows))
	seen := make(map[string]struct{}, len(table.Rows))

	for _, row := range table.Rows {
		listing, ok := normalize(row)
		if !ok {
			stats.Dropped++
			continue
		}
		if dedupe && listing.ID != "" {
			if _, dup := seen[listing.ID]; dup {
				stats.Duplicates++
				continue
			}
			seen[listing.ID] = struct{}{}
		}
		out = append(out, listing)
	}
	stats.Kept = len(out)
	return out, stats
}

// Ingest parses both resources of a variant and returns reference listings
// followed by comparison listings, each in file order.
func Ingest(reference, comparison []byte, opts Options) (*Result, error) {
	cmpNormalizer, err := NormalizerFor(opts.ComparisonSource)
	if err != nil {
		return nil, err
	}
	if opts.ComparisonSource.IsReference() {
		return nil, fmt.Errorf("comparison source %q is the reference provider", opts.ComparisonSource)
	}

	refTable, err := ParseRows(bytes.NewReader(reference))
	if err != nil {
		return nil, fmt.Errorf("parse reference csv: %w", err)
	}
	cmpTable, err := ParseRows(bytes.NewReader(comparison))
	if err != nil {
		return nil, fmt.Errorf("parse comparison csv: %w", err)
	}

	refListings, refStats := Normalize(refTable, NormalizeReference, opts.Dedupe)
	cmpListings, cmpStats := Normalize(cmpTable, cmpNormalizer, opts.Dedupe)

	listings := make([]domain.Listing, 0, len(refListings)+len(cmpListings))
	listings = append(listings, refListings...)
	listings = append(listings, cmpListings...)

	return &Result{
		Listings:   listings,
		Reference:  refStats,
		Comparison: cmpStats,
	}, nil
}
