package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"listingmap_backend/internal/adapters/storage"
	"listingmap_backend/internal/events"
	"listingmap_backend/internal/geocode"
	"listingmap_backend/internal/listings/source"
	"listingmap_backend/internal/maps"
	"listingmap_backend/internal/variants"
	"listingmap_backend/platform/config"
	"listingmap_backend/platform/logger"
	"listingmap_backend/platform/redisconn"

	"github.com/redis/go-redis/v9"
)

type districtCount struct {
	label string
	count int
}

func main() {
	variant := flag.String("variant", "profit", "variant whose listings are resolved")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting district backfill", "variant", *variant, "geocoder", cfg.GetGeocoder())

	ctx := context.Background()

	var cache redis.Cmdable
	if cfg.GetRedisURL() != "" {
		rdb, err := redisconn.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
		if err != nil {
			log.Error("failed to initialize redis client", "error", err)
			panic("failed to initialize redis client: " + err.Error())
		}
		defer func() { _ = rdb.Close() }()
		cache = rdb
	} else {
		log.Warn("REDIS_URL not configured; districts are resolved without a cache")
	}

	resolver, err := geocode.New(cfg, cache, log)
	if err != nil {
		log.Error("failed to initialize district resolver", "error", err)
		panic("failed to initialize district resolver: " + err.Error())
	}

	registry, err := variants.Default()
	if path := cfg.GetVariantsFile(); path != "" {
		registry, err = variants.Load(path)
	}
	if err != nil {
		log.Error("failed to load variants", "error", err)
		panic("failed to load variants: " + err.Error())
	}

	var objects source.Fetcher
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		objects = source.Objects{Store: store}
	}
	loader := source.NewLoader(source.Files{}, source.NewHTTP(cfg.GetSourceFetchTimeout()), objects)

	mapsService := maps.NewService(registry, loader, events.NewInMemoryBus(log), log, maps.Options{
		Resolver:            resolver,
		DistrictConcurrency: cfg.GetGeocodeConcurrency(),
		LoadTimeout:         2 * cfg.GetSourceFetchTimeout(),
	})

	histogram, err := mapsService.WarmDistricts(ctx, *variant)
	if err != nil {
		log.Error("district backfill failed", "variant", *variant, "error", err)
		os.Exit(1)
	}

	counts := make([]districtCount, 0, len(histogram))
	total := 0
	for label, n := range histogram {
		counts = append(counts, districtCount{label: label, count: n})
		total += n
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].label < counts[j].label
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.label, c.count)
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	_ = w.Flush()

	log.Info("district backfill complete", "variant", *variant, "districts", len(histogram), "unknown", histogram[geocode.UnknownLabel])
}
