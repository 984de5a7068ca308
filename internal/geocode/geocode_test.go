package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"listingmap_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	shp "github.com/jonas-p/go-shp"
	"github.com/redis/go-redis/v9"
)

func TestKakaoResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "KakaoAK test-key" {
			t.Errorf("expected KakaoAK header, got %q", got)
		}
		if r.URL.Query().Get("x") != "127.0276" || r.URL.Query().Get("y") != "37.4979" {
			t.Errorf("expected x=lng y=lat, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"meta":{"total_count":1},"documents":[{"road_address":null,"address":{"address_name":"서울 강남구 역삼동 825","region_1depth_name":"서울","region_2depth_name":"강남구"}}]}`))
	}))
	defer srv.Close()

	k := NewKakao(KakaoOptions{APIKey: "test-key", BaseURL: srv.URL}, logger.Discard())
	d, err := k.Resolve(context.Background(), 37.4979, 127.0276)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label() != "서울 강남구" {
		t.Fatalf("expected 서울 강남구, got %q", d.Label())
	}
}

func TestKakaoFallsBackToRoadAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[{"address":null,"road_address":{"region_1depth_name":"경기","region_2depth_name":"성남시 분당구"}}]}`))
	}))
	defer srv.Close()

	k := NewKakao(KakaoOptions{BaseURL: srv.URL}, logger.Discard())
	d, err := k.Resolve(context.Background(), 37.38, 127.11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Region2 != "성남시 분당구" {
		t.Fatalf("expected road address district, got %+v", d)
	}
}

func TestKakaoNoDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	k := NewKakao(KakaoOptions{BaseURL: srv.URL}, logger.Discard())
	if _, err := k.Resolve(context.Background(), 0, 0); !errors.Is(err, ErrNoDistrict) {
		t.Fatalf("expected ErrNoDistrict, got %v", err)
	}
}

func TestKakaoUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	k := NewKakao(KakaoOptions{BaseURL: srv.URL}, logger.Discard())
	if _, err := k.Resolve(context.Background(), 37.5, 127); err == nil {
		t.Fatalf("expected error for 401")
	}
}

func TestNominatimResolveSeoul(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lon") != "127.0276" {
			t.Errorf("expected lon parameter, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"address":{"city":"서울특별시","borough":"강남구","country":"대한민국"}}`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimOptions{BaseURL: srv.URL}, logger.Discard())
	d, err := n.Resolve(context.Background(), 37.4979, 127.0276)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label() != "서울특별시 강남구" {
		t.Fatalf("expected 서울특별시 강남구, got %q", d.Label())
	}
}

func TestNominatimResolveProvince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"province":"경기도","city":"수원시"}}`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimOptions{BaseURL: srv.URL}, logger.Discard())
	d, err := n.Resolve(context.Background(), 37.26, 127.02)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label() != "경기도 수원시" {
		t.Fatalf("expected 경기도 수원시, got %q", d.Label())
	}
}

func TestNominatimUnableToGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	n := NewNominatim(NominatimOptions{BaseURL: srv.URL}, logger.Discard())
	if _, err := n.Resolve(context.Background(), 0, 0); !errors.Is(err, ErrNoDistrict) {
		t.Fatalf("expected ErrNoDistrict, got %v", err)
	}
}

func writeSquare(t *testing.T, w *shp.Writer, row int, minLng, minLat, maxLng, maxLat float64, region1, region2 string) {
	t.Helper()
	ring := []shp.Point{
		{X: minLng, Y: minLat}, {X: minLng, Y: maxLat}, {X: maxLng, Y: maxLat}, {X: maxLng, Y: minLat}, {X: minLng, Y: minLat},
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	w.Write(&poly)
	if err := w.WriteAttribute(row, 0, region1); err != nil {
		t.Fatalf("write attribute: %v", err)
	}
	if err := w.WriteAttribute(row, 1, region2); err != nil {
		t.Fatalf("write attribute: %v", err)
	}
}

// closeShapefile flushes w and moves the attribute table to <base>.dbf, where
// shp.Open looks for it. The writer leaves it at <base>dbf.
func closeShapefile(t *testing.T, w *shp.Writer, path string) {
	t.Helper()
	w.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if _, err := os.Stat(base + ".dbf"); err == nil {
		return
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		t.Fatalf("move attribute table: %v", err)
	}
}

func TestShapefileResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "districts.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	if err := w.SetFields([]shp.Field{shp.StringField("SIDO_NM", 40), shp.StringField("SIGUNGU_NM", 40)}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	writeSquare(t, w, 0, 127.00, 37.45, 127.10, 37.55, "서울특별시", "강남구")
	writeSquare(t, w, 1, 126.90, 37.45, 127.00, 37.55, "서울특별시", "동작구")
	closeShapefile(t, w, path)

	s, err := LoadShapefile(path, ShapefileOptions{Region1Field: "SIDO_NM", Region2Field: "SIGUNGU_NM"})
	if err != nil {
		t.Fatalf("load shapefile: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 polygons, got %d", s.Len())
	}

	d, err := s.Resolve(context.Background(), 37.50, 127.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Label() != "서울특별시 강남구" {
		t.Fatalf("expected 서울특별시 강남구, got %q", d.Label())
	}
	d, _ = s.Resolve(context.Background(), 37.50, 126.95)
	if d.Region2 != "동작구" {
		t.Fatalf("expected 동작구, got %q", d.Region2)
	}
	if _, err := s.Resolve(context.Background(), 35.1, 129.0); !errors.Is(err, ErrNoDistrict) {
		t.Fatalf("expected ErrNoDistrict outside every polygon, got %v", err)
	}
}

func TestShapefileMissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}
	_ = w.SetFields([]shp.Field{shp.StringField("NAME", 20)})
	closeShapefile(t, w, path)

	_, err = LoadShapefile(path, ShapefileOptions{Region1Field: "SIDO_NM"})
	if err == nil || !strings.Contains(err.Error(), `field "SIDO_NM" not found`) {
		t.Fatalf("expected missing region field error, got %v", err)
	}
}

func TestLoadShapefileRejectsNonShpPaths(t *testing.T) {
	for _, path := range []string{"", "a", "districts.dbf", filepath.Join(t.TempDir(), "districts")} {
		_, err := LoadShapefile(path, ShapefileOptions{Region1Field: "SIDO_NM"})
		if err == nil || !strings.Contains(err.Error(), "expected a .shp path") {
			t.Fatalf("expected .shp path error for %q, got %v", path, err)
		}
	}
}

func TestCachedServesRepeatLookupsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	var calls atomic.Int32
	next := ResolverFunc(func(ctx context.Context, lat, lng float64) (District, error) {
		calls.Add(1)
		return District{Region1: "서울특별시", Region2: "마포구"}, nil
	})
	c := NewCached(next, rdb, time.Hour, logger.Discard())

	for i := 0; i < 3; i++ {
		d, err := c.Resolve(context.Background(), 37.5563, 126.9236)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Region2 != "마포구" {
			t.Fatalf("expected 마포구, got %q", d.Region2)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}
	if ttl := mr.TTL(CacheKey(37.5563, 126.9236)); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	var calls atomic.Int32
	next := ResolverFunc(func(ctx context.Context, lat, lng float64) (District, error) {
		calls.Add(1)
		return District{}, ErrNoDistrict
	})
	c := NewCached(next, rdb, time.Hour, logger.Discard())

	for i := 0; i < 2; i++ {
		if _, err := c.Resolve(context.Background(), 1, 1); !errors.Is(err, ErrNoDistrict) {
			t.Fatalf("expected ErrNoDistrict, got %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected failures to reach upstream each time, got %d calls", calls.Load())
	}
	if mr.Exists(CacheKey(1, 1)) {
		t.Fatalf("expected failure not to be cached")
	}
}

func TestCachedFallsThroughWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	next := ResolverFunc(func(ctx context.Context, lat, lng float64) (District, error) {
		return District{Region1: "부산광역시", Region2: "해운대구"}, nil
	})
	c := NewCached(next, rdb, time.Hour, logger.Discard())
	d, err := c.Resolve(context.Background(), 35.16, 129.16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Region2 != "해운대구" {
		t.Fatalf("expected upstream result, got %+v", d)
	}
}

type stubConfig struct {
	geocoder string
}

func (s stubConfig) GetGeocoder() string               { return s.geocoder }
func (s stubConfig) GetKakaoRESTAPIKey() string        { return "key" }
func (s stubConfig) GetGeocodeConcurrency() int        { return 4 }
func (s stubConfig) GetGeocodeRatePerSec() float64     { return 10 }
func (s stubConfig) GetGeocodeCacheTTL() time.Duration { return time.Hour }
func (s stubConfig) GetDistrictShapefile() string      { return "" }
func (s stubConfig) GetDistrictRegion1Field() string   { return "SIDO_NM" }
func (s stubConfig) GetDistrictRegion2Field() string   { return "SIGUNGU_NM" }
func (s stubConfig) GetDistrictShapefileCP949() bool   { return false }

func TestNewFromConfig(t *testing.T) {
	r, err := New(stubConfig{geocoder: "none"}, nil, logger.Discard())
	if err != nil || r != nil {
		t.Fatalf("expected nil resolver for none, got %v %v", r, err)
	}

	r, err = New(stubConfig{geocoder: "kakao"}, nil, logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(*Kakao); !ok {
		t.Fatalf("expected *Kakao, got %T", r)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r, _ = New(stubConfig{geocoder: "nominatim"}, rdb, logger.Discard())
	if _, ok := r.(*Cached); !ok {
		t.Fatalf("expected cached resolver, got %T", r)
	}

	if _, err := New(stubConfig{geocoder: "shapefile"}, nil, logger.Discard()); err == nil {
		t.Fatalf("expected error for missing shapefile")
	}
}
