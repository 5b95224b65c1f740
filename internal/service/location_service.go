package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Place is one Nominatim result.  Nominatim sends coordinates as strings.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Type        string            `json:"type,omitempty"`
	Importance  float64           `json:"importance,omitempty"`
	Address     map[string]string `json:"address,omitempty"`
}

// LocationService proxies forward and reverse geocoding to Nominatim.
type LocationService struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewLocationService returns a proxy for baseURL.  Nominatim's usage policy
// requires an identifying User-Agent.
func NewLocationService(baseURL, userAgent string, timeout time.Duration) *LocationService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LocationService{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// Geocode searches places matching query, at most five.
func (s *LocationService) Geocode(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("q", "No query provided")
	}
	if runeLen(query) < 3 {
		return nil, invalid("q", "Query must be at least 3 characters")
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", "5")
	q.Set("addressdetails", "1")

	var places []Place
	if err := s.get(ctx, "/search", q, &places); err != nil {
		return nil, fmt.Errorf("geocoding service unavailable: %w", err)
	}
	if places == nil {
		places = []Place{}
	}
	return places, nil
}

// ReverseGeocode resolves coordinates to the nearest address.
func (s *LocationService) ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Place{}, invalid("lat", "Coordinates out of range")
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("addressdetails", "1")

	var out struct {
		Place
		Error string `json:"error"`
	}
	if err := s.get(ctx, "/reverse", q, &out); err != nil {
		return Place{}, fmt.Errorf("reverse geocoding unavailable: %w", err)
	}
	if out.Error != "" {
		return Place{}, ErrNotFound
	}
	return out.Place, nil
}

func (s *LocationService) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		log.Printf("location: nominatim %s returned %d", path, resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}
