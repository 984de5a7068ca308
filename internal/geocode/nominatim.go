package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"listingmap_backend/platform/logger"
)

const nominatimReverseURL = "https://nominatim.openstreetmap.org/reverse"

// Nominatim resolves districts with the OSM reverse endpoint. The public
// instance allows one request per second.
type Nominatim struct {
	http    httpClient
	baseURL string
	log     *logger.Logger
}

type NominatimOptions struct {
	RatePerSec float64
	Client     *http.Client
	BaseURL    string
}

type nominatimAddress struct {
	Province     string `json:"province"`
	State        string `json:"state"`
	City         string `json:"city"`
	Borough      string `json:"borough"`
	CityDistrict string `json:"city_district"`
	County       string `json:"county"`
	Town         string `json:"town"`
}

type nominatimResponse struct {
	Error   string           `json:"error"`
	Address nominatimAddress `json:"address"`
}

func NewNominatim(opts NominatimOptions, log *logger.Logger) *Nominatim {
	base := opts.BaseURL
	if base == "" {
		base = nominatimReverseURL
	}
	perSec := opts.RatePerSec
	if perSec <= 0 || perSec > 1 {
		perSec = 1
	}
	return &Nominatim{
		http:    newHTTPClient(opts.Client, perSec),
		baseURL: base,
		log:     log,
	}
}

func (n *Nominatim) Resolve(ctx context.Context, lat, lng float64) (District, error) {
	params := url.Values{}
	params.Add("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Add("format", "json")
	params.Add("zoom", "10")
	params.Add("accept-language", "ko")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return District{}, err
	}
	req.Header.Set("User-Agent", "ListingMap/1.0")

	var payload nominatimResponse
	if err := n.http.getJSON(ctx, req, &payload); err != nil {
		n.log.GeocodeFailed(lat, lng, err)
		return District{}, fmt.Errorf("nominatim reverse: %w", err)
	}
	if payload.Error != "" {
		return District{}, ErrNoDistrict
	}

	d := District{Region1: pickRegion1(payload.Address), Region2: pickRegion2(payload.Address)}
	if d.Region1 == "" {
		return District{}, ErrNoDistrict
	}
	return d, nil
}

// pickRegion1 returns the province or special city. Seoul comes back as city
// without a province.
func pickRegion1(a nominatimAddress) string {
	if a.Province != "" {
		return a.Province
	}
	if a.State != "" {
		return a.State
	}
	return a.City
}

func pickRegion2(a nominatimAddress) string {
	if a.Borough != "" {
		return a.Borough
	}
	if a.CityDistrict != "" {
		return a.CityDistrict
	}
	if a.County != "" {
		return a.County
	}
	if a.Province != "" || a.State != "" {
		if a.City != "" {
			return a.City
		}
	}
	return a.Town
}

var _ Resolver = (*Nominatim)(nil)
