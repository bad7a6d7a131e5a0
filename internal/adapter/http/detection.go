package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	"github.com/google/uuid"
)

const maxRequestBytes = 1 << 20

// Detection bundles what the detection endpoints need. Content is optional.
type Detection struct {
	Detector        *domain.Detector
	Governorates    []geo.Governorate
	Content         domain.ContentSource
	ContentRadiusKm float64
	Metrics         *observability.Metrics
}

type detectionHandler struct {
	Detection
	logger *slog.Logger
}

// handleSync runs the fast path: boundary, discontinuity and coverage rules.
func (h *detectionHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "sync", func(_ context.Context, req domain.DetectionRequest) []domain.DetectedPattern {
		return h.Detector.DetectSync(req, h.Governorates)
	})
}

// handleAsync runs the slow path: road network and content density rules.
func (h *detectionHandler) handleAsync(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "async", func(ctx context.Context, req domain.DetectionRequest) []domain.DetectedPattern {
		req = domain.EnrichWithContentStats(ctx, req, h.Content, h.ContentRadiusKm, h.logger)
		return h.Detector.DetectAsync(ctx, req)
	})
}

func (h *detectionHandler) handleAll(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "all", func(ctx context.Context, req domain.DetectionRequest) []domain.DetectedPattern {
		req = domain.EnrichWithContentStats(ctx, req, h.Content, h.ContentRadiusKm, h.logger)
		return h.Detector.Detect(ctx, req, h.Governorates).Patterns
	})
}

func (h *detectionHandler) handleRegistry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"patterns":             h.Detector.Registry().Configs(),
		"confidence_threshold": domain.ConfidenceThreshold,
	})
}

func (h *detectionHandler) serve(w http.ResponseWriter, r *http.Request, endpoint string, run func(context.Context, domain.DetectionRequest) []domain.DetectedPattern) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.Metrics.HTTPDetections.WithLabelValues(endpoint, "bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := domain.NewDetectionResult(req, run(r.Context(), req))
	for _, p := range result.Patterns {
		h.Metrics.PatternsDetected.WithLabelValues(string(p.ID)).Inc()
	}
	h.Metrics.HTTPDetections.WithLabelValues(endpoint, "ok").Inc()
	h.logger.Debug("patterns detected", "endpoint", endpoint, "request_id", result.RequestID, "count", len(result.Patterns))

	writeJSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (domain.DetectionRequest, error) {
	var req domain.DetectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if !req.Geometry.Valid() {
		return req, errors.New("geometry is required")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}
