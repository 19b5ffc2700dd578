package extraction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/tripweave/go-itinerary-extraction/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Extract handles POST /itinerary/extract. The body carries the raw
// assistant message; ?geocode=false skips resolution and returns the
// parsed structure only.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExtractionHandler").Start(r.Context(), "Extract")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Extract"))

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		span.SetStatus(codes.Error, "Empty content")
		api.ErrorResponse(w, r, http.StatusBadRequest, "content must not be empty")
		return
	}

	geocode := r.URL.Query().Get("geocode") != "false"

	resp, err := h.service.Extract(ctx, req.Content, geocode)
	if err != nil {
		l.ErrorContext(ctx, "Extraction failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Extraction failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to extract itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Extraction completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Generate handles POST /itinerary/generate: LLM draft plus extraction
// in one call. Returns 503 when no LLM key is configured.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExtractionHandler").Start(r.Context(), "Generate")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Generate"))

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		span.SetStatus(codes.Error, "Empty prompt")
		api.ErrorResponse(w, r, http.StatusBadRequest, "prompt must not be empty")
		return
	}

	resp, err := h.service.GenerateAndExtract(ctx, req.Prompt)
	if err != nil {
		if errors.Is(err, ErrGeneratorDisabled) {
			span.SetStatus(codes.Error, "Generator disabled")
			api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Itinerary generation is not configured")
			return
		}
		l.ErrorContext(ctx, "Generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate itinerary")
		return
	}

	span.SetStatus(codes.Ok, "Generation completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
