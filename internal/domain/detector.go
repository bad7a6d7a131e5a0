package domain

import (
	"log/slog"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
)

// underservedGovernorates is the placeholder allow-list of large, sparsely
// surveyed governorates used by P2 until point-of-interest density data
// replaces it.
var underservedGovernorates = map[string]struct{}{
	"Deir-ez-Zor":    {},
	"Al-Hasakeh":     {},
	"Homs":           {},
	"Ar-Raqqa":       {},
	"Rural Damascus": {},
}

// UnderservedFunc decides whether a governorate warrants a service coverage question.
type UnderservedFunc func(governorate string) bool

// DefaultUnderserved reports whether the governorate is on the built-in allow-list.
func DefaultUnderserved(governorate string) bool {
	_, ok := underservedGovernorates[governorate]
	return ok
}

// Detector runs the pattern rules against a registry. It holds no mutable
// state and is safe for concurrent use.
type Detector struct {
	registry    Registry
	roads       RoadAnalyzer
	underserved UnderservedFunc
	logger      *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithUnderserved replaces the P2 allow-list with a custom predicate.
func WithUnderserved(fn UnderservedFunc) Option {
	return func(d *Detector) {
		if fn != nil {
			d.underserved = fn
		}
	}
}

// NewDetector creates a Detector. Pass a nil roads analyzer to disable P1.
func NewDetector(registry Registry, roads RoadAnalyzer, logger *slog.Logger, opts ...Option) *Detector {
	d := &Detector{
		registry:    registry,
		roads:       roads,
		underserved: DefaultUnderserved,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the pattern definitions the detector evaluates.
func (d *Detector) Registry() Registry {
	return d.registry
}

// pattern returns the config for id when it is enabled.
func (d *Detector) pattern(id PatternID) (PatternConfig, bool) {
	cfg, ok := d.registry.Get(id)
	if !ok || !cfg.Enabled {
		return PatternConfig{}, false
	}
	return cfg, true
}

// emit scores a matched pattern and applies the confidence threshold.
func emit(cfg PatternConfig, in ConfidenceInputs, md Metadata) *DetectedPattern {
	confidence := CalculateConfidence(in)
	if !in.PatternMatch || confidence < ConfidenceThreshold {
		return nil
	}
	return &DetectedPattern{
		ID:         cfg.ID,
		Name:       cfg.Name,
		NameAr:     cfg.NameAr,
		Message:    cfg.Message,
		MessageAr:  cfg.MessageAr,
		Confidence: confidence,
		Metadata:   md,
	}
}

func recency(observedAt time.Time) float64 {
	return geo.TemporalRelevance(observedAt, clock.Now())
}
