package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
)

const (
	// BottleneckRadiusKm is the search radius of the road network lookup.
	BottleneckRadiusKm = 15.0

	bottleneckCompleteness       = 0.9
	bottleneckSparseCompleteness = 0.5
	bottleneckTrust              = 0.85
	aidActivityPostThreshold     = 5
	aidActivityCompleteness      = 0.7
	aidActivityTrust             = 0.75
)

// DetectNetworkBottleneck flags points whose surrounding road network looks
// limited (P1). Lookup errors and panics are logged and yield no detection.
func (d *Detector) DetectNetworkBottleneck(ctx context.Context, p geo.Point, observedAt time.Time) (detected *DetectedPattern) {
	cfg, ok := d.pattern(PatternNetworkBottleneck)
	if !ok || d.roads == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("road network analysis panicked",
				"pattern", PatternNetworkBottleneck,
				"lat", p.Lat,
				"lng", p.Lng,
				"panic", r,
			)
			detected = nil
		}
	}()

	summary, err := d.roads.AnalyzeRoadNetwork(ctx, p.Lat, p.Lng, BottleneckRadiusKm)
	if err != nil {
		d.logger.Warn("road network analysis failed",
			"pattern", PatternNetworkBottleneck,
			"lat", p.Lat,
			"lng", p.Lng,
			"error", err,
		)
		return nil
	}
	if !summary.HasLimitedAccess {
		return nil
	}

	completeness := bottleneckSparseCompleteness
	if summary.RoadCount > 0 {
		completeness = bottleneckCompleteness
	}

	return emit(cfg, ConfidenceInputs{
		PatternMatch:      true,
		DataCompleteness:  completeness,
		TemporalRelevance: recency(observedAt),
		SourceTrust:       bottleneckTrust,
	}, NetworkBottleneckMetadata{
		RoadCount:     summary.RoadCount,
		PrimaryRoads:  summary.PrimaryRoads,
		TotalLengthKm: summary.TotalLengthKm,
		RadiusKm:      BottleneckRadiusKm,
	})
}

// DetectAidActivityPattern flags areas with sparse, non-humanitarian
// content (P5). The aggregates are computed by the caller.
func (d *Detector) DetectAidActivityPattern(_ geo.Point, postCount int, hasHumanitarianPosts bool, observedAt time.Time) *DetectedPattern {
	cfg, ok := d.pattern(PatternAidActivity)
	if !ok {
		return nil
	}
	if hasHumanitarianPosts || postCount >= aidActivityPostThreshold {
		return nil
	}

	return emit(cfg, ConfidenceInputs{
		PatternMatch:      true,
		DataCompleteness:  aidActivityCompleteness,
		TemporalRelevance: recency(observedAt),
		SourceTrust:       aidActivityTrust,
	}, AidActivityMetadata{
		PostCount:            postCount,
		HasHumanitarianPosts: hasHumanitarianPosts,
	})
}
