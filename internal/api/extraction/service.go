package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tripweave/go-itinerary-extraction/app/observability/metrics"
	"github.com/tripweave/go-itinerary-extraction/internal/api/geocode"
	"github.com/tripweave/go-itinerary-extraction/internal/api/itinerary"
	"github.com/tripweave/go-itinerary-extraction/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service is the business logic contract for turning assistant Markdown
// into geocoded itineraries.
type Service interface {
	Extract(ctx context.Context, content string, geocode bool) (*types.ExtractionResponse, error)
	GenerateAndExtract(ctx context.Context, prompt string) (*types.ExtractionResponse, error)
}

// Resolver is the geocoding collaborator; satisfied by
// geocode.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, days []types.DayItinerary, cityHint string) ([]types.DayItinerary, geocode.ResolveStats, error)
}

// Generator drafts itinerary Markdown from a free-text prompt; satisfied
// by plangen.AIClient.
type Generator interface {
	Enabled() bool
	GenerateItinerary(ctx context.Context, prompt string) (string, error)
}

// ErrGeneratorDisabled signals that no LLM key is configured.
var ErrGeneratorDisabled = fmt.Errorf("itinerary generator is disabled")

// ServiceImpl implements Service. Extraction results are cached by
// content hash: the chat frontend re-sends the identical full message on
// every render, and a full re-parse plus re-geocode of an unchanged
// document is pure waste.
type ServiceImpl struct {
	logger    *slog.Logger
	resolver  Resolver
	generator Generator
	cache     *cache.Cache
}

func NewService(resolver Resolver, generator Generator, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		resolver:  resolver,
		generator: generator,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Extract runs the full pipeline: city detection, table parse, batch
// geocode. Parsing never fails; the error return covers only resolver
// cancellation. With geocode=false the parsed days are returned without
// coordinates, useful for previewing while the assistant is still
// streaming.
func (s *ServiceImpl) Extract(ctx context.Context, content string, geocode bool) (*types.ExtractionResponse, error) {
	ctx, span := otel.Tracer("ExtractionService").Start(ctx, "Extract")
	defer span.End()

	start := time.Now()
	cacheKey := extractionCacheKey(content, geocode)
	if cached, ok := s.cache.Get(cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached.(*types.ExtractionResponse), nil
	}

	city := itinerary.DetectCity(content)
	parsed := itinerary.Parse(content)
	span.SetAttributes(
		attribute.String("city", city),
		attribute.Int("days", len(parsed.Days)),
		attribute.Int("rows_parsed", parsed.RowsParsed),
		attribute.Int("rows_skipped", parsed.RowsSkipped),
	)

	resp := &types.ExtractionResponse{
		City: city,
		Days: parsed.Days,
		Report: types.ExtractionReport{
			RowsParsed:     parsed.RowsParsed,
			RowsSkipped:    parsed.RowsSkipped,
			PositionalRows: parsed.PositionalRows,
		},
	}

	if geocode && len(parsed.Days) > 0 {
		days, stats, err := s.resolver.Resolve(ctx, parsed.Days, city)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Resolution failed")
			return nil, fmt.Errorf("failed to resolve locations: %w", err)
		}
		resp.Days = days
		resp.Report.Geocoded = stats.Geocoded
		resp.Report.GeocodeMisses = stats.Misses
		resp.Report.UpstreamErrors = stats.UpstreamErrors
	}

	if resp.Days == nil {
		resp.Days = []types.DayItinerary{}
	}

	m := metrics.Get()
	m.ExtractionsTotal.Add(ctx, 1)
	m.ExtractionDurationSeconds.Record(ctx, time.Since(start).Seconds())
	m.RowsParsedTotal.Add(ctx, int64(parsed.RowsParsed))
	m.RowsSkippedTotal.Add(ctx, int64(parsed.RowsSkipped))
	m.PositionalRowsTotal.Add(ctx, int64(parsed.PositionalRows))

	s.cache.Set(cacheKey, resp, cache.DefaultExpiration)

	s.logger.InfoContext(ctx, "Extraction completed",
		slog.String("city", city),
		slog.Int("days", len(resp.Days)),
		slog.Int("rows_parsed", parsed.RowsParsed),
		slog.Int("rows_skipped", parsed.RowsSkipped),
		slog.Int("geocoded", resp.Report.Geocoded),
		slog.Duration("elapsed", time.Since(start)),
	)
	span.SetStatus(codes.Ok, "Extraction completed")
	return resp, nil
}

// GenerateAndExtract drafts an itinerary with the LLM and feeds it
// straight through Extract.
func (s *ServiceImpl) GenerateAndExtract(ctx context.Context, prompt string) (*types.ExtractionResponse, error) {
	ctx, span := otel.Tracer("ExtractionService").Start(ctx, "GenerateAndExtract")
	defer span.End()

	if s.generator == nil || !s.generator.Enabled() {
		span.SetStatus(codes.Error, "Generator disabled")
		return nil, ErrGeneratorDisabled
	}

	content, err := s.generator.GenerateItinerary(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Draft generation failed")
		return nil, fmt.Errorf("failed to generate draft: %w", err)
	}
	return s.Extract(ctx, content, true)
}

func extractionCacheKey(content string, geocode bool) string {
	sum := sha256.Sum256([]byte(content))
	key := hex.EncodeToString(sum[:])
	if geocode {
		return key + ":geo"
	}
	return key
}
