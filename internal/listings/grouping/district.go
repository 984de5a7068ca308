package grouping

import (
	"context"
	"strconv"

	"listingmap_backend/internal/geocode"
	"listingmap_backend/internal/listings/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency bounds in-flight district lookups when none is configured.
const DefaultConcurrency = 4

// DistrictOptions tune ByDistrict.
type DistrictOptions struct {
	Concurrency int
	// OnLookupError is called, possibly concurrently, for every lookup that fell
	// back to the unknown label.
	OnLookupError func(l domain.Listing, err error)
}

// ByDistrict groups listings by the district label of each listing's
// coordinates. Failed lookups go to geocode.UnknownLabel and are never
// dropped. Lookups run through a bounded queue; identical coordinates share a
// single lookup. Cells follow input order regardless of lookup completion
// order. The only error returned is ctx's, when the computation was cancelled.
func ByDistrict(ctx context.Context, listings []domain.Listing, resolver geocode.Resolver, opts DistrictOptions) (*Grouping, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	labels := make([]string, len(listings))
	var flight singleflight.Group
	var g errgroup.Group
	g.SetLimit(limit)

	for i := range listings {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			l := listings[i]
			key := coordKey(l.Lat, l.Lng)
			v, err, _ := flight.Do(key, func() (any, error) {
				d, err := resolver.Resolve(ctx, l.Lat, l.Lng)
				if err != nil {
					return "", err
				}
				label := d.Label()
				if label == "" {
					return "", geocode.ErrNoDistrict
				}
				return label, nil
			})
			if err != nil {
				labels[i] = geocode.UnknownLabel
				if opts.OnLookupError != nil && ctx.Err() == nil {
					opts.OnLookupError(l, err)
				}
				return nil
			}
			labels[i] = v.(string)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grouping := newGrouping(ModeDistrict, 0)
	for i, l := range listings {
		grouping.add(labels[i], l)
	}
	return grouping, nil
}

func coordKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
