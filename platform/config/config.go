// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	IsDatabaseEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage used by minio:// sources.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

// SourceConfig provides settings for loading listing sources.
type SourceConfig interface {
	GetVariantsFile() string
	GetSourceFetchTimeout() time.Duration
}

// GeocoderConfig provides settings for district resolution.
type GeocoderConfig interface {
	GetGeocoder() string
	GetKakaoRESTAPIKey() string
	GetGeocodeConcurrency() int
	GetGeocodeRatePerSec() float64
	GetGeocodeCacheTTL() time.Duration
	GetDistrictShapefile() string
	GetDistrictRegion1Field() string
	GetDistrictRegion2Field() string
	GetDistrictShapefileCP949() bool
}

// SchedulerConfig provides settings for the background task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueue() string
	GetAsynqConcurrency() int
	IsSchedulerEnabled() bool
	GetLoadHistoryRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowAll         bool
	CORSOrigins          []string
	RateLimitRPS         float64
	RateLimitBurst       int
	VariantsFile         string
	SourceFetchTimeout   time.Duration
	Geocoder             string
	KakaoRESTAPIKey      string
	GeocodeConcurrency   int
	GeocodeRatePerSec    float64
	GeocodeCacheTTL      time.Duration
	DistrictShapefile    string
	DistrictRegion1Field string
	DistrictRegion2Field string
	DistrictCP949        bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueue           string
	AsynqConcurrency     int
	LoadHistoryRetention time.Duration
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
}

// Geocoder provider names accepted by GEOCODER.
const (
	GeocoderKakao     = "kakao"
	GeocoderNominatim = "nominatim"
	GeocoderShapefile = "shapefile"
	GeocoderNone      = "none"
)

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) IsDatabaseEnabled() bool { return c.DatabaseURL != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// SourceConfig implementation
func (c *Config) GetVariantsFile() string              { return c.VariantsFile }
func (c *Config) GetSourceFetchTimeout() time.Duration { return c.SourceFetchTimeout }

// GeocoderConfig implementation
func (c *Config) GetGeocoder() string               { return c.Geocoder }
func (c *Config) GetKakaoRESTAPIKey() string        { return c.KakaoRESTAPIKey }
func (c *Config) GetGeocodeConcurrency() int        { return c.GeocodeConcurrency }
func (c *Config) GetGeocodeRatePerSec() float64     { return c.GeocodeRatePerSec }
func (c *Config) GetGeocodeCacheTTL() time.Duration { return c.GeocodeCacheTTL }
func (c *Config) GetDistrictShapefile() string      { return c.DistrictShapefile }
func (c *Config) GetDistrictRegion1Field() string   { return c.DistrictRegion1Field }
func (c *Config) GetDistrictRegion2Field() string   { return c.DistrictRegion2Field }
func (c *Config) GetDistrictShapefileCP949() bool   { return c.DistrictCP949 }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueue() string     { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }
func (c *Config) GetLoadHistoryRetention() time.Duration {
	return c.LoadHistoryRetention
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	kakaoKey := getEnv("KAKAO_REST_API_KEY", "")
	geocoder := strings.ToLower(getEnv("GEOCODER", ""))
	if geocoder == "" {
		geocoder = defaultGeocoder(kakaoKey)
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		RateLimitRPS:         mustFloat64(getEnv("RATE_LIMIT_RPS", "20")),
		RateLimitBurst:       mustInt(getEnv("RATE_LIMIT_BURST", "40")),
		VariantsFile:         getEnv("VARIANTS_FILE", ""),
		SourceFetchTimeout:   mustDuration(getEnv("SOURCE_FETCH_TIMEOUT", "30s")),
		Geocoder:             geocoder,
		KakaoRESTAPIKey:      kakaoKey,
		GeocodeConcurrency:   mustInt(getEnv("GEOCODE_CONCURRENCY", "4")),
		GeocodeRatePerSec:    mustFloat64(getEnv("GEOCODE_RATE_PER_SEC", "10")),
		GeocodeCacheTTL:      mustDuration(getEnv("GEOCODE_CACHE_TTL", "720h")),
		DistrictShapefile:    getEnv("DISTRICT_SHAPEFILE", ""),
		DistrictRegion1Field: getEnv("DISTRICT_REGION1_FIELD", "SIDO_NM"),
		DistrictRegion2Field: getEnv("DISTRICT_REGION2_FIELD", "SIGUNGU_NM"),
		DistrictCP949:        strings.EqualFold(getEnv("DISTRICT_SHAPEFILE_CP949", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:           getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		LoadHistoryRetention: mustDuration(getEnv("LOAD_HISTORY_RETENTION", "720h")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Geocoder {
	case GeocoderKakao:
		if c.KakaoRESTAPIKey == "" {
			return fmt.Errorf("KAKAO_REST_API_KEY is required when GEOCODER is %q", GeocoderKakao)
		}
	case GeocoderShapefile:
		if c.DistrictShapefile == "" {
			return fmt.Errorf("DISTRICT_SHAPEFILE is required when GEOCODER is %q", GeocoderShapefile)
		}
	case GeocoderNominatim, GeocoderNone:
	default:
		return fmt.Errorf("GEOCODER must be one of kakao, nominatim, shapefile, none; got %q", c.Geocoder)
	}
	if c.GeocodeConcurrency <= 0 {
		return fmt.Errorf("GEOCODE_CONCURRENCY must be positive")
	}
	if c.GeocodeRatePerSec <= 0 {
		return fmt.Errorf("GEOCODE_RATE_PER_SEC must be positive")
	}
	if c.SourceFetchTimeout <= 0 {
		return fmt.Errorf("SOURCE_FETCH_TIMEOUT must be a positive duration")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.MinIOEndpoint != "" && (c.MinIOAccessKey == "" || c.MinIOSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	return nil
}

func defaultGeocoder(kakaoKey string) string {
	if kakaoKey != "" {
		return GeocoderKakao
	}
	return GeocoderNominatim
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
