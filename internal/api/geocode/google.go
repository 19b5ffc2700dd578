package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

// GoogleClient is the Google Maps rendition of Provider, for deployments
// outside Amap's coverage. Same disabled-without-a-key behavior as the
// Amap client.
type GoogleClient struct {
	logger *slog.Logger
	client *maps.Client
	apiKey string
}

func NewGoogleClient(apiKey string, logger *slog.Logger) (*GoogleClient, error) {
	g := &GoogleClient{logger: logger, apiKey: apiKey}
	if apiKey == "" {
		return g, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	g.client = client
	return g, nil
}

var _ Provider = (*GoogleClient)(nil)

func (g *GoogleClient) Geocode(ctx context.Context, address, city string) (*types.GeoPoint, error) {
	if g.client == nil {
		return nil, nil
	}

	req := &maps.GeocodingRequest{Address: address}
	if city != "" {
		req.Components = map[maps.Component]string{maps.ComponentLocality: city}
	}

	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		g.logger.DebugContext(ctx, "Geocode miss", slog.String("address", address), slog.String("city", city))
		return nil, nil
	}
	loc := results[0].Geometry.Location
	return &types.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleClient) SearchPlace(ctx context.Context, keyword, city string) (*types.GeoPoint, error) {
	if g.client == nil {
		return nil, nil
	}

	query := keyword
	if city != "" {
		query = city + " " + keyword
	}
	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("google place search %q: %w", keyword, err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	loc := resp.Results[0].Geometry.Location
	return &types.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleClient) StaticMapURL(points []types.GeoPoint) string {
	if g.apiKey == "" || len(points) == 0 {
		return ""
	}

	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%f,%f", p.Lat, p.Lng)
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("size", "800x600")
	params.Set("markers", "color:red|"+strings.Join(coords, "|"))
	params.Set("path", "color:blue|weight:3|"+strings.Join(coords, "|"))
	return "https://maps.googleapis.com/maps/api/staticmap?" + params.Encode()
}
