package domain

import (
	"math"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
)

const (
	spilloverCompleteness = 1.0
	spilloverTrust        = 0.8

	// A point is discontinuous when its assigned center lies beyond
	// farThresholdKm while another center lies within nearThresholdKm.
	nearThresholdKm           = 30.0
	farThresholdKm            = 50.0
	discontinuityCompleteness = 0.8
	discontinuityTrust        = 0.7

	coverageCompleteness = 0.6
	coverageTrust        = 0.6
	coverageReason       = "large_governorate"
)

// DetectBoundarySpillover flags geometry overlapping two or more
// governorates (P3).
func (d *Detector) DetectBoundarySpillover(g *geo.Geometry, governorates []geo.Governorate, observedAt time.Time) *DetectedPattern {
	cfg, ok := d.pattern(PatternBoundarySpillover)
	if !ok || !g.Valid() {
		return nil
	}

	spanning := geo.FindSpanningGovernorates(g, governorates)
	if len(spanning) < 2 {
		return nil
	}

	var completeness float64
	if len(governorates) > 0 {
		completeness = spilloverCompleteness
	}

	return emit(cfg, ConfidenceInputs{
		PatternMatch:      true,
		DataCompleteness:  completeness,
		TemporalRelevance: recency(observedAt),
		SourceTrust:       spilloverTrust,
	}, SpilloverMetadata{Governorates: spanning})
}

// DetectAccessDiscontinuity flags a point whose assigned governorate center
// is far away while another center is close (P4).
//
// Only governorates represented by a center Point are considered. The
// assigned governorate is the first such entry in the list; callers that
// know the administrative assignment put it first (see Detect).
func (d *Detector) DetectAccessDiscontinuity(p geo.Point, governorates []geo.Governorate, observedAt time.Time) *DetectedPattern {
	cfg, ok := d.pattern(PatternAccessDiscontinuity)
	if !ok {
		return nil
	}

	assigned := -1
	var assignedDistance float64
	for i, gov := range governorates {
		center, ok := gov.Centroid()
		if !ok {
			continue
		}
		assigned = i
		assignedDistance = geo.HaversineDistance(p, center)
		break
	}
	if assigned < 0 {
		return nil
	}

	match := false
	for i, gov := range governorates {
		if i == assigned {
			continue
		}
		center, ok := gov.Centroid()
		if !ok {
			continue
		}
		if geo.HaversineDistance(p, center) < nearThresholdKm && assignedDistance > farThresholdKm {
			match = true
			break
		}
	}
	if !match {
		return nil
	}

	return emit(cfg, ConfidenceInputs{
		PatternMatch:      true,
		DataCompleteness:  discontinuityCompleteness,
		TemporalRelevance: recency(observedAt),
		SourceTrust:       discontinuityTrust,
	}, AccessDiscontinuityMetadata{
		DistanceToAssignedCenter: assignedDistance,
		NearestGovernorate:       governorates[assigned].Name,
	})
}

// DetectServiceCoverageQuestion raises a coverage question for points in
// large, sparsely surveyed governorates (P2).
func (d *Detector) DetectServiceCoverageQuestion(p geo.Point, governorates []geo.Governorate, observedAt time.Time) *DetectedPattern {
	cfg, ok := d.pattern(PatternServiceCoverage)
	if !ok {
		return nil
	}

	name, ok := containingGovernorate(p, governorates)
	if !ok || !d.underserved(name) {
		return nil
	}

	return emit(cfg, ConfidenceInputs{
		PatternMatch:      true,
		DataCompleteness:  coverageCompleteness,
		TemporalRelevance: recency(observedAt),
		SourceTrust:       coverageTrust,
	}, ServiceCoverageMetadata{Governorate: name, Reason: coverageReason})
}

// containingGovernorate resolves the governorate of p: the first boundary
// that contains it, otherwise the nearest center point.
func containingGovernorate(p geo.Point, governorates []geo.Governorate) (string, bool) {
	nearest := ""
	minDistance := math.Inf(1)

	for _, gov := range governorates {
		if polys, ok := gov.Geometry.Polygons(); ok {
			for _, poly := range polys {
				if geo.PointInPolygon(p, poly) {
					return gov.Name, true
				}
			}
			continue
		}
		if center, ok := gov.Centroid(); ok {
			if dist := geo.HaversineDistance(p, center); dist < minDistance {
				minDistance = dist
				nearest = gov.Name
			}
		}
	}

	return nearest, nearest != ""
}
