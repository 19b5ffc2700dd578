package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

// Provider resolves place names to coordinates. A (nil, nil) return is a
// miss — the place did not resolve; a non-nil error means the provider
// itself was unavailable (network failure, bad response). Callers fold
// both into drop-on-failure but must count them separately.
type Provider interface {
	Geocode(ctx context.Context, address, city string) (*types.GeoPoint, error)
	SearchPlace(ctx context.Context, keyword, city string) (*types.GeoPoint, error)
	StaticMapURL(points []types.GeoPoint) string
}

const defaultAmapBaseURL = "https://restapi.amap.com"

// AmapClient talks to the Amap (高德) web service API. An empty API key
// disables the client: every lookup is a miss, no request is made and no
// error is surfaced.
type AmapClient struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewAmapClient(apiKey, baseURL string, logger *slog.Logger) *AmapClient {
	if baseURL == "" {
		baseURL = defaultAmapBaseURL
	}
	return &AmapClient{
		logger:  logger,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

var _ Provider = (*AmapClient)(nil)

type amapGeocodeResponse struct {
	Status   string `json:"status"`
	Geocodes []struct {
		Location         string `json:"location"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"geocodes"`
}

type amapPlaceResponse struct {
	Status string `json:"status"`
	POIs   []struct {
		Name     string `json:"name"`
		Address  string `json:"address"`
		Location string `json:"location"`
	} `json:"pois"`
}

// Geocode resolves an exact address via /v3/geocode/geo, biased by the
// advisory city when present.
func (c *AmapClient) Geocode(ctx context.Context, address, city string) (*types.GeoPoint, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("address", address)
	if city != "" {
		params.Set("city", city)
	}

	var resp amapGeocodeResponse
	if err := c.get(ctx, "/v3/geocode/geo", params, &resp); err != nil {
		return nil, fmt.Errorf("amap geocode %q: %w", address, err)
	}
	if resp.Status != "1" || len(resp.Geocodes) == 0 {
		c.logger.DebugContext(ctx, "Geocode miss", slog.String("address", address), slog.String("city", city))
		return nil, nil
	}
	return parseAmapLocation(resp.Geocodes[0].Location)
}

// SearchPlace falls back to keyword POI search via /v3/place/text, which
// is far more tolerant of fuzzy names than exact geocoding.
func (c *AmapClient) SearchPlace(ctx context.Context, keyword, city string) (*types.GeoPoint, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("keywords", keyword)
	params.Set("output", "json")
	params.Set("offset", "1")
	params.Set("page", "1")
	params.Set("extensions", "base")
	if city != "" {
		params.Set("city", city)
		params.Set("citylimit", "true")
	}

	var resp amapPlaceResponse
	if err := c.get(ctx, "/v3/place/text", params, &resp); err != nil {
		return nil, fmt.Errorf("amap place search %q: %w", keyword, err)
	}
	if resp.Status != "1" || len(resp.POIs) == 0 {
		return nil, nil
	}
	return parseAmapLocation(resp.POIs[0].Location)
}

// StaticMapURL builds the provider's static map image URL with red
// markers and a blue path polyline through the points, centered on the
// first one. Empty when there is nothing to draw or the client is
// disabled.
func (c *AmapClient) StaticMapURL(points []types.GeoPoint) string {
	if c.apiKey == "" || len(points) == 0 {
		return ""
	}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%f,%f", p.Lng, p.Lat)
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("size", "800*600")
	params.Set("zoom", "13")
	params.Set("center", coords[0])
	params.Set("markers", "-1,https://webapi.amap.com/theme/v1.3/markers/n/mark_r.png,0:"+strings.Join(coords, "|"))
	params.Set("paths", "10,0x0000FF,1,,:"+strings.Join(coords, ";"))
	return c.baseURL + "/v3/staticmap?" + params.Encode()
}

func (c *AmapClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseAmapLocation parses the provider's "lng,lat" pair.
func parseAmapLocation(location string) (*types.GeoPoint, error) {
	parts := strings.Split(location, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed location %q", location)
	}
	lng, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed latitude %q: %w", parts[1], err)
	}
	return &types.GeoPoint{Lat: lat, Lng: lng}, nil
}
