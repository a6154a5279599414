// Package geocode resolves free-text addresses to coordinates through the
// AMap web service geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripplan/internal/core"
)

const geoPath = "/v3/geocode/geo"

// Response is the subset of the upstream payload the service relies on.
type Response struct {
	Status   string    `json:"status"`
	Info     string    `json:"info"`
	Geocodes []Geocode `json:"geocodes"`
}

// Geocode is one candidate. Location is "longitude,latitude".
type Geocode struct {
	FormattedAddress string `json:"formatted_address"`
	Location         string `json:"location"`
	Level            string `json:"level"`
}

// Geocoder is the seam the proxy depends on.
type Geocoder interface {
	Geocode(ctx context.Context, key, address, city string) (Response, error)
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ Geocoder = (*Client)(nil)

// NewClient creates a client for baseURL (https://restapi.amap.com in production).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + geoPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL renders the request URL. City is omitted when blank.
func (c *Client) URL(key, address, city string) string {
	q := url.Values{}
	q.Set("address", address)
	if strings.TrimSpace(city) != "" {
		q.Set("city", city)
	}
	q.Set("key", key)
	return c.endpoint + "?" + q.Encode()
}

// Geocode performs a single lookup. Non-2xx responses become *core.UpstreamError.
// An upstream "status":"0" payload is returned as is; callers see it as a
// response without candidates.
func (c *Client) Geocode(ctx context.Context, key, address, city string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(key, address, city), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &core.UpstreamError{Service: "geocode", Status: resp.StatusCode, Body: string(raw)}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("geocode: %w: %v", core.ErrMalformedUpstream, err)
	}
	return out, nil
}

// ParseLocation converts a "lng,lat" string into a validated coordinate.
func ParseLocation(s string) (core.Coordinate, error) {
	lngStr, latStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return core.Coordinate{}, fmt.Errorf("invalid location %q: want \"lng,lat\"", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return core.Coordinate{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return core.Coordinate{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	c := core.Coordinate{Lng: lng, Lat: lat}
	if err := c.Validate(); err != nil {
		return core.Coordinate{}, err
	}
	return c, nil
}
