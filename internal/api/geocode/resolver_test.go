package geocode

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

// MockProvider is a mock implementation of the Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Geocode(ctx context.Context, address, city string) (*types.GeoPoint, error) {
	args := m.Called(ctx, address, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeoPoint), args.Error(1)
}

func (m *MockProvider) SearchPlace(ctx context.Context, keyword, city string) (*types.GeoPoint, error) {
	args := m.Called(ctx, keyword, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeoPoint), args.Error(1)
}

func (m *MockProvider) StaticMapURL(points []types.GeoPoint) string {
	args := m.Called(points)
	return args.String(0)
}

func newTestResolver(provider Provider) *Resolver {
	return NewResolver(provider, nil, 1000, 100, 4, time.Minute, slog.Default())
}

func day(label string, locs ...types.Location) types.DayItinerary {
	return types.DayItinerary{Day: label, Locations: locs}
}

func loc(name string) types.Location {
	return types.Location{Name: name, Address: name, Type: types.LocationAttraction}
}

func TestResolveAttachesCoordinates(t *testing.T) {
	provider := new(MockProvider)
	point := &types.GeoPoint{Lat: 39.9087, Lng: 116.3975}
	provider.On("Geocode", mock.Anything, "天安门广场", "北京").Return(point, nil)
	provider.On("StaticMapURL", mock.Anything).Return("https://example.test/map")

	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("天安门广场"))}, "北京")

	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Locations, 1)
	got := days[0].Locations[0]
	require.True(t, got.Resolved())
	assert.Equal(t, 39.9087, *got.Lat)
	assert.Equal(t, 116.3975, *got.Lng)
	assert.Equal(t, "https://example.test/map", days[0].StaticMapURL)
	assert.Equal(t, 1, stats.Geocoded)
	provider.AssertExpectations(t)
}

func TestResolveDropsUnresolvableKeepingOrder(t *testing.T) {
	provider := new(MockProvider)
	first := &types.GeoPoint{Lat: 1, Lng: 1}
	third := &types.GeoPoint{Lat: 3, Lng: 3}
	provider.On("Geocode", mock.Anything, "甲地", "").Return(first, nil)
	provider.On("Geocode", mock.Anything, "乙地", "").Return(nil, nil)
	provider.On("SearchPlace", mock.Anything, "乙地", "").Return(nil, nil)
	provider.On("Geocode", mock.Anything, "丙地", "").Return(third, nil)
	provider.On("StaticMapURL", mock.Anything).Return("")

	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("甲地"), loc("乙地"), loc("丙地"))}, "")

	require.NoError(t, err)
	require.Len(t, days[0].Locations, 2)
	assert.Equal(t, "甲地", days[0].Locations[0].Name)
	assert.Equal(t, "丙地", days[0].Locations[1].Name)
	assert.Equal(t, 2, stats.Geocoded)
	assert.Equal(t, 1, stats.Misses)
}

func TestResolveFallsBackToPlaceSearch(t *testing.T) {
	provider := new(MockProvider)
	point := &types.GeoPoint{Lat: 31.2304, Lng: 121.4737}
	provider.On("Geocode", mock.Anything, "外滩", "上海").Return(nil, nil)
	provider.On("SearchPlace", mock.Anything, "外滩", "上海").Return(point, nil)
	provider.On("StaticMapURL", mock.Anything).Return("")

	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("外滩"))}, "上海")

	require.NoError(t, err)
	require.Len(t, days[0].Locations, 1)
	assert.True(t, days[0].Locations[0].Resolved())
	assert.Equal(t, 1, stats.Geocoded)
	provider.AssertExpectations(t)
}

func TestResolveSkipsTransportPseudoDay(t *testing.T) {
	provider := new(MockProvider)
	provider.On("StaticMapURL", mock.Anything).Return("")

	transport := day(types.DayLabelTransport, types.Location{
		Name: "高铁 G102", Address: "高铁 G102：北京南 → 上海虹桥", Type: types.LocationTransport,
	})
	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{transport}, "")

	require.NoError(t, err)
	// Legs pass through unresolved rather than being dropped.
	require.Len(t, days[0].Locations, 1)
	assert.False(t, days[0].Locations[0].Resolved())
	assert.Zero(t, stats.Geocoded)
	provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolvePreScreensUnusableNames(t *testing.T) {
	provider := new(MockProvider)
	provider.On("StaticMapURL", mock.Anything).Return("")

	junk := types.Location{Name: "60分钟", Address: "45"}
	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", junk)}, "")

	require.NoError(t, err)
	assert.Empty(t, days[0].Locations)
	assert.Equal(t, 1, stats.Skipped)
	provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "SearchPlace", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolvePassesThroughExistingCoordinates(t *testing.T) {
	provider := new(MockProvider)
	provider.On("StaticMapURL", mock.Anything).Return("")

	lat, lng := 30.0, 120.0
	preset := loc("西湖")
	preset.Lat, preset.Lng = &lat, &lng

	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", preset)}, "")

	require.NoError(t, err)
	require.Len(t, days[0].Locations, 1)
	assert.Equal(t, 1, stats.Geocoded)
	provider.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCountsUpstreamErrorsSeparately(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Geocode", mock.Anything, "甲地", "").Return(nil, errors.New("connection refused"))
	provider.On("StaticMapURL", mock.Anything).Return("")

	days, stats, err := newTestResolver(provider).Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("甲地"))}, "")

	require.NoError(t, err)
	assert.Empty(t, days[0].Locations)
	assert.Equal(t, 1, stats.UpstreamErrors)
	assert.Zero(t, stats.Misses)
}

func TestResolveUsesMemoryCacheOnRepeat(t *testing.T) {
	provider := new(MockProvider)
	point := &types.GeoPoint{Lat: 39.9, Lng: 116.4}
	provider.On("Geocode", mock.Anything, "故宫博物院", "北京").Return(point, nil).Once()
	provider.On("StaticMapURL", mock.Anything).Return("")

	r := newTestResolver(provider)
	_, _, err := r.Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("故宫博物院"))}, "北京")
	require.NoError(t, err)

	days, stats, err := r.Resolve(context.Background(),
		[]types.DayItinerary{day("第一天", loc("故宫博物院"))}, "北京")
	require.NoError(t, err)
	assert.True(t, days[0].Locations[0].Resolved())
	assert.Equal(t, 1, stats.Geocoded)
	provider.AssertExpectations(t)
}
