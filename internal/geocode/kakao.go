package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"listingmap_backend/platform/logger"
)

const kakaoCoord2AddressURL = "https://dapi.kakao.com/v2/local/geo/coord2address.json"

// Kakao resolves districts with the Kakao Local coord2address API.
type Kakao struct {
	http    httpClient
	baseURL string
	apiKey  string
	log     *logger.Logger
}

// KakaoOptions configures a Kakao resolver.
type KakaoOptions struct {
	APIKey     string
	RatePerSec float64
	Client     *http.Client
	BaseURL    string
}

type kakaoRegion struct {
	Region1 string `json:"region_1depth_name"`
	Region2 string `json:"region_2depth_name"`
}

type kakaoDocument struct {
	Address     *kakaoRegion `json:"address"`
	RoadAddress *kakaoRegion `json:"road_address"`
}

type kakaoResponse struct {
	Documents []kakaoDocument `json:"documents"`
}

func NewKakao(opts KakaoOptions, log *logger.Logger) *Kakao {
	base := opts.BaseURL
	if base == "" {
		base = kakaoCoord2AddressURL
	}
	return &Kakao{
		http:    newHTTPClient(opts.Client, opts.RatePerSec),
		baseURL: base,
		apiKey:  opts.APIKey,
		log:     log,
	}
}

// Resolve prefers the lot-number address and falls back to the road address.
func (k *Kakao) Resolve(ctx context.Context, lat, lng float64) (District, error) {
	params := url.Values{}
	params.Add("x", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Add("y", strconv.FormatFloat(lat, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return District{}, err
	}
	req.Header.Set("Authorization", "KakaoAK "+k.apiKey)

	var payload kakaoResponse
	if err := k.http.getJSON(ctx, req, &payload); err != nil {
		k.log.GeocodeFailed(lat, lng, err)
		return District{}, fmt.Errorf("kakao coord2address: %w", err)
	}
	if len(payload.Documents) == 0 {
		return District{}, ErrNoDistrict
	}

	doc := payload.Documents[0]
	region := doc.Address
	if region == nil {
		region = doc.RoadAddress
	}
	if region == nil || region.Region1 == "" {
		return District{}, ErrNoDistrict
	}
	return District{Region1: region.Region1, Region2: region.Region2}, nil
}

var _ Resolver = (*Kakao)(nil)
