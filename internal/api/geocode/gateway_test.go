package geocode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

func TestAmapGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/geocode/geo", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "东城区景山前街4号", r.URL.Query().Get("address"))
		assert.Equal(t, "北京", r.URL.Query().Get("city"))
		w.Write([]byte(`{"status":"1","geocodes":[{"location":"116.397026,39.918058","formatted_address":"北京市东城区景山前街4号"}]}`))
	}))
	defer srv.Close()

	client := NewAmapClient("test-key", srv.URL, slog.Default())
	point, err := client.Geocode(context.Background(), "东城区景山前街4号", "北京")

	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, 39.918058, point.Lat)
	assert.Equal(t, 116.397026, point.Lng)
}

func TestAmapGeocodeMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","geocodes":[]}`))
	}))
	defer srv.Close()

	client := NewAmapClient("test-key", srv.URL, slog.Default())
	point, err := client.Geocode(context.Background(), "不存在的地方", "")

	// A miss is not an error.
	require.NoError(t, err)
	assert.Nil(t, point)
}

func TestAmapSearchPlace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/place/text", r.URL.Path)
		assert.Equal(t, "外滩", r.URL.Query().Get("keywords"))
		assert.Equal(t, "true", r.URL.Query().Get("citylimit"))
		w.Write([]byte(`{"status":"1","pois":[{"name":"外滩","address":"中山东一路","location":"121.490317,31.236288"}]}`))
	}))
	defer srv.Close()

	client := NewAmapClient("test-key", srv.URL, slog.Default())
	point, err := client.SearchPlace(context.Background(), "外滩", "上海")

	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, 31.236288, point.Lat)
}

func TestAmapUpstreamErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewAmapClient("test-key", srv.URL, slog.Default())
	point, err := client.Geocode(context.Background(), "外滩", "")

	require.Error(t, err)
	assert.Nil(t, point)
}

func TestAmapDisabledWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected when the key is absent")
	}))
	defer srv.Close()

	client := NewAmapClient("", srv.URL, slog.Default())

	point, err := client.Geocode(context.Background(), "外滩", "")
	require.NoError(t, err)
	assert.Nil(t, point)

	point, err = client.SearchPlace(context.Background(), "外滩", "")
	require.NoError(t, err)
	assert.Nil(t, point)

	assert.Empty(t, client.StaticMapURL([]types.GeoPoint{{Lat: 1, Lng: 1}}))
}

func TestAmapMalformedLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"1","geocodes":[{"location":"garbage"}]}`))
	}))
	defer srv.Close()

	client := NewAmapClient("test-key", srv.URL, slog.Default())
	_, err := client.Geocode(context.Background(), "外滩", "")
	require.Error(t, err)
}

func TestAmapStaticMapURL(t *testing.T) {
	client := NewAmapClient("test-key", "", slog.Default())
	url := client.StaticMapURL([]types.GeoPoint{
		{Lat: 39.918058, Lng: 116.397026},
		{Lat: 39.924091, Lng: 116.403414},
	})

	assert.Contains(t, url, "/v3/staticmap?")
	assert.Contains(t, url, "key=test-key")
	assert.Contains(t, url, "markers=")
	assert.Contains(t, url, "paths=")

	assert.Empty(t, client.StaticMapURL(nil))
}
