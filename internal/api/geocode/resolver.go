package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tripweave/go-itinerary-extraction/app/observability/metrics"
	"github.com/tripweave/go-itinerary-extraction/internal/api/itinerary"
	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

// outcome classifies what happened to one location during resolution.
type outcome int

const (
	outcomeResolved outcome = iota
	outcomeMiss
	outcomeUpstreamError
	outcomeSkipped
)

// ResolveStats is the resolver's slice of the extraction report.
type ResolveStats struct {
	Geocoded       int
	Misses         int
	UpstreamErrors int
	Skipped        int
}

// workItem references one location back to its (day, location) slot so
// concurrent completions can be re-attached regardless of finish order.
type workItem struct {
	dayIdx  int
	locIdx  int
	point   *types.GeoPoint
	outcome outcome
}

// Resolver geocodes every location of a parsed itinerary against a
// Provider, under a shared token-bucket limiter, and drops locations
// that cannot be resolved. The intercity-transport pseudo-day is
// excluded: its legs span two cities and are not point-geocodable.
type Resolver struct {
	logger      *slog.Logger
	provider    Provider
	cacheRepo   CacheRepository // optional, nil disables persistence
	memCache    *cache.Cache
	limiter     *rate.Limiter
	concurrency int
}

// NewResolver builds a resolver issuing at most ratePerSecond lookups
// with the given burst, and at most concurrency lookups in flight.
func NewResolver(provider Provider, cacheRepo CacheRepository, ratePerSecond float64, burst, concurrency int, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst <= 0 {
		burst = 1
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Resolver{
		logger:      logger,
		provider:    provider,
		cacheRepo:   cacheRepo,
		memCache:    cache.New(cacheTTL, 2*cacheTTL),
		limiter:     rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		concurrency: concurrency,
	}
}

// Resolve attaches coordinates to every resolvable location and removes
// the rest. Geocode misses and provider outages never surface as errors,
// only as absences plus stats; the returned error is reserved for
// context cancellation. Days may come back with zero locations.
func (r *Resolver) Resolve(ctx context.Context, days []types.DayItinerary, cityHint string) ([]types.DayItinerary, ResolveStats, error) {
	ctx, span := otel.Tracer("GeocodeResolver").Start(ctx, "Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("city_hint", cityHint), attribute.Int("days", len(days)))

	items := r.flatten(days)
	span.SetAttributes(attribute.Int("locations", len(items)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range items {
		item := &items[i]
		if item.outcome == outcomeSkipped || item.point != nil {
			continue
		}
		g.Go(func() error {
			loc := &days[item.dayIdx].Locations[item.locIdx]
			return r.resolveOne(gctx, item, loc, cityHint)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Batch resolution aborted")
		return nil, ResolveStats{}, fmt.Errorf("batch resolution aborted: %w", err)
	}

	stats := ResolveStats{}
	for i := range items {
		item := &items[i]
		switch item.outcome {
		case outcomeResolved:
			stats.Geocoded++
			loc := &days[item.dayIdx].Locations[item.locIdx]
			loc.Lat = &item.point.Lat
			loc.Lng = &item.point.Lng
		case outcomeMiss:
			stats.Misses++
		case outcomeUpstreamError:
			stats.UpstreamErrors++
		case outcomeSkipped:
			stats.Skipped++
		}
	}

	m := metrics.Get()
	m.GeocodeResolvedTotal.Add(ctx, int64(stats.Geocoded))
	m.GeocodeMissesTotal.Add(ctx, int64(stats.Misses))
	m.GeocodeUpstreamErrorsTotal.Add(ctx, int64(stats.UpstreamErrors))

	resolved := r.rebuild(days)
	span.SetStatus(codes.Ok, "Batch resolved")
	return resolved, stats, nil
}

// flatten builds the worklist, pre-screening entries that would waste a
// request and passing through locations that already carry coordinates.
func (r *Resolver) flatten(days []types.DayItinerary) []workItem {
	var items []workItem
	for d := range days {
		if days[d].Day == types.DayLabelTransport {
			continue
		}
		for l := range days[d].Locations {
			loc := &days[d].Locations[l]
			item := workItem{dayIdx: d, locIdx: l}
			switch {
			case loc.Resolved():
				item.point = &types.GeoPoint{Lat: *loc.Lat, Lng: *loc.Lng}
				item.outcome = outcomeResolved
			case !itinerary.UsableForGeocode(loc.Name) && !itinerary.UsableForGeocode(loc.Address):
				r.logger.Warn("Skipping unusable location",
					slog.String("name", loc.Name), slog.String("address", loc.Address))
				item.outcome = outcomeSkipped
			}
			items = append(items, item)
		}
	}
	return items
}

// resolveOne runs the lookup cascade for a single location: memory
// cache, persistent cache, exact geocode, keyword search. Each result is
// written to the item's own slot, so no locking is needed.
func (r *Resolver) resolveOne(ctx context.Context, item *workItem, loc *types.Location, cityHint string) error {
	cacheKey := cityHint + "|" + loc.Name
	if cached, ok := r.memCache.Get(cacheKey); ok {
		point := cached.(types.GeoPoint)
		item.point = &point
		item.outcome = outcomeResolved
		return nil
	}
	if r.cacheRepo != nil {
		point, err := r.cacheRepo.Lookup(ctx, loc.Name, cityHint)
		if err != nil {
			r.logger.WarnContext(ctx, "Cache lookup failed", slog.Any("error", err))
		} else if point != nil {
			r.memCache.Set(cacheKey, *point, cache.DefaultExpiration)
			item.point = point
			item.outcome = outcomeResolved
			return nil
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var point *types.GeoPoint
	var err error
	if itinerary.UsableForGeocode(loc.Address) {
		point, err = r.provider.Geocode(ctx, loc.Address, cityHint)
	}
	if point == nil && err == nil {
		point, err = r.provider.SearchPlace(ctx, loc.Name, cityHint)
	}

	switch {
	case err != nil:
		if ctx.Err() != nil {
			return fmt.Errorf("resolution cancelled: %w", ctx.Err())
		}
		r.logger.WarnContext(ctx, "Geocode upstream failure",
			slog.String("name", loc.Name), slog.Any("error", err))
		item.outcome = outcomeUpstreamError
	case point == nil:
		r.logger.DebugContext(ctx, "All lookup strategies missed",
			slog.String("name", loc.Name), slog.String("address", loc.Address))
		item.outcome = outcomeMiss
	default:
		item.point = point
		item.outcome = outcomeResolved
		r.memCache.Set(cacheKey, *point, cache.DefaultExpiration)
		if r.cacheRepo != nil {
			if saveErr := r.cacheRepo.Save(ctx, loc.Name, cityHint, *point); saveErr != nil {
				r.logger.WarnContext(ctx, "Cache save failed", slog.Any("error", saveErr))
			}
		}
	}
	return nil
}

// rebuild filters unresolved locations out of each day, keeping relative
// order, and attaches the day's static map URL. The transport pseudo-day
// passes through untouched.
func (r *Resolver) rebuild(days []types.DayItinerary) []types.DayItinerary {
	out := make([]types.DayItinerary, 0, len(days))
	for _, day := range days {
		if day.Day != types.DayLabelTransport {
			kept := day.Locations[:0:0]
			var points []types.GeoPoint
			for _, loc := range day.Locations {
				if loc.Resolved() {
					kept = append(kept, loc)
					points = append(points, types.GeoPoint{Lat: *loc.Lat, Lng: *loc.Lng})
				}
			}
			day.Locations = kept
			day.StaticMapURL = r.provider.StaticMapURL(points)
		}
		out = append(out, day)
	}
	return out
}
