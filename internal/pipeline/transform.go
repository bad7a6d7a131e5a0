package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
)

// ErrMissingGeometry rejects requests whose geometry cannot be evaluated.
var ErrMissingGeometry = errors.New("detection request has no valid geometry")

// DetectionTransformer implements Transformer by running both detector
// families over each request, with optional content-density enrichment.
type DetectionTransformer struct {
	detector      *domain.Detector
	governorates  []geo.Governorate
	content       domain.ContentSource
	contentRadius float64
	logger        *slog.Logger
}

// NewTransformer creates a DetectionTransformer. Pass a nil content source
// to rely only on the signals carried by each request.
func NewTransformer(detector *domain.Detector, governorates []geo.Governorate, content domain.ContentSource, contentRadiusKm float64, logger *slog.Logger) *DetectionTransformer {
	return &DetectionTransformer{
		detector:      detector,
		governorates:  governorates,
		content:       content,
		contentRadius: contentRadiusKm,
		logger:        logger,
	}
}

func (t *DetectionTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.DetectionResult, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.DetectionResult{}, err
	}
	if !req.Geometry.Valid() {
		return domain.DetectionResult{}, ErrMissingGeometry
	}

	req = domain.EnrichWithContentStats(ctx, req, t.content, t.contentRadius, t.logger)
	return t.detector.Detect(ctx, req, t.governorates), nil
}
