package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ExtractionsTotal           metric.Int64Counter
	ExtractionDurationSeconds  metric.Float64Histogram
	RowsParsedTotal            metric.Int64Counter
	RowsSkippedTotal           metric.Int64Counter
	PositionalRowsTotal        metric.Int64Counter
	GeocodeResolvedTotal       metric.Int64Counter
	GeocodeMissesTotal         metric.Int64Counter
	GeocodeUpstreamErrorsTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// Get returns the global metrics instance, creating the instruments from
// the globally configured MeterProvider on first use. Call after the
// meter provider is installed; earlier calls bind to the default
// provider.
func Get() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("itinerary-extraction")
		m := &AppMetrics{}
		var err error

		m.ExtractionsTotal, err = meter.Int64Counter(
			"extractions_total",
			metric.WithDescription("Total number of extraction requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create extractions_total: %v", err)
		}

		m.ExtractionDurationSeconds, err = meter.Float64Histogram(
			"extraction_duration_seconds",
			metric.WithDescription("Duration of extraction requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create extraction_duration_seconds: %v", err)
		}

		m.RowsParsedTotal, err = meter.Int64Counter(
			"itinerary_rows_parsed_total",
			metric.WithDescription("Table rows successfully parsed into locations"),
			metric.WithUnit("{row}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_rows_parsed_total: %v", err)
		}

		m.RowsSkippedTotal, err = meter.Int64Counter(
			"itinerary_rows_skipped_total",
			metric.WithDescription("Table rows dropped as noise or malformed"),
			metric.WithUnit("{row}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_rows_skipped_total: %v", err)
		}

		m.PositionalRowsTotal, err = meter.Int64Counter(
			"itinerary_positional_rows_total",
			metric.WithDescription("Rows whose fields were mapped by positional guess instead of header"),
			metric.WithUnit("{row}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create itinerary_positional_rows_total: %v", err)
		}

		m.GeocodeResolvedTotal, err = meter.Int64Counter(
			"geocode_resolved_total",
			metric.WithDescription("Locations that received coordinates"),
			metric.WithUnit("{location}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_resolved_total: %v", err)
		}

		m.GeocodeMissesTotal, err = meter.Int64Counter(
			"geocode_misses_total",
			metric.WithDescription("Locations no lookup strategy could resolve"),
			metric.WithUnit("{location}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_misses_total: %v", err)
		}

		m.GeocodeUpstreamErrorsTotal, err = meter.Int64Counter(
			"geocode_upstream_errors_total",
			metric.WithDescription("Lookups that failed because the provider was unavailable"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_upstream_errors_total: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}
