package geocode

import (
	"fmt"

	"listingmap_backend/platform/config"
	"listingmap_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// New builds the configured resolver, wrapped in the Redis cache when rdb is
// non-nil. It returns nil for the "none" geocoder.
func New(cfg config.GeocoderConfig, rdb redis.Cmdable, log *logger.Logger) (Resolver, error) {
	var r Resolver
	switch cfg.GetGeocoder() {
	case config.GeocoderKakao:
		r = NewKakao(KakaoOptions{APIKey: cfg.GetKakaoRESTAPIKey(), RatePerSec: cfg.GetGeocodeRatePerSec()}, log)
	case config.GeocoderNominatim:
		r = NewNominatim(NominatimOptions{RatePerSec: cfg.GetGeocodeRatePerSec()}, log)
	case config.GeocoderShapefile:
		shape, err := LoadShapefile(cfg.GetDistrictShapefile(), ShapefileOptions{
			Region1Field: cfg.GetDistrictRegion1Field(),
			Region2Field: cfg.GetDistrictRegion2Field(),
			CP949:        cfg.GetDistrictShapefileCP949(),
		})
		if err != nil {
			return nil, err
		}
		log.Info("district boundaries loaded", "polygons", shape.Len())
		r = shape
	case config.GeocoderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q", cfg.GetGeocoder())
	}

	if rdb != nil {
		r = NewCached(r, rdb, cfg.GetGeocodeCacheTTL(), log)
	}
	return r, nil
}
