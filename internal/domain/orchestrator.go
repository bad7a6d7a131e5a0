package domain

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/slug"
)

// DetectPatterns runs the synchronous detectors. P3 is attempted for any
// geometry; P4 and P2 only for a Point. Results are ranked by confidence.
func (d *Detector) DetectPatterns(g *geo.Geometry, governorates []geo.Governorate, observedAt time.Time) []DetectedPattern {
	found := []DetectedPattern{}
	if g == nil {
		return found
	}

	found = appendDetected(found, d.DetectBoundarySpillover(g, governorates, observedAt))
	if p, ok := g.Point(); ok {
		found = appendDetected(found, d.DetectAccessDiscontinuity(p, governorates, observedAt))
		found = appendDetected(found, d.DetectServiceCoverageQuestion(p, governorates, observedAt))
	}
	return rankByConfidence(found)
}

// DetectPatternsAsync runs P1 and P5 concurrently for a Point geometry. A
// detector that panics is logged and does not affect the other.
func (d *Detector) DetectPatternsAsync(ctx context.Context, g *geo.Geometry, postCount int, hasHumanitarianPosts bool, observedAt time.Time) []DetectedPattern {
	p, ok := g.Point()
	if !ok {
		return []DetectedPattern{}
	}

	detectors := []struct {
		id  PatternID
		run func() *DetectedPattern
	}{
		{PatternNetworkBottleneck, func() *DetectedPattern {
			return d.DetectNetworkBottleneck(ctx, p, observedAt)
		}},
		{PatternAidActivity, func() *DetectedPattern {
			return d.DetectAidActivityPattern(p, postCount, hasHumanitarianPosts, observedAt)
		}},
	}

	results := make([]*DetectedPattern, len(detectors))
	var wg sync.WaitGroup
	for i, det := range detectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("pattern detector panicked", "pattern", det.id, "panic", r)
				}
			}()
			results[i] = det.run()
		}()
	}
	wg.Wait()

	found := []DetectedPattern{}
	for _, r := range results {
		found = appendDetected(found, r)
	}
	return rankByConfidence(found)
}

// Detect runs both detector families for a request and ranks the union.
func (d *Detector) Detect(ctx context.Context, req DetectionRequest, governorates []geo.Governorate) DetectionResult {
	patterns := d.DetectSync(req, governorates)
	patterns = append(patterns, d.DetectAsync(ctx, req)...)
	return NewDetectionResult(req, patterns)
}

// DetectSync runs the synchronous detectors for a request. The request's
// governorate, when named, is treated as the assigned one.
func (d *Detector) DetectSync(req DetectionRequest, governorates []geo.Governorate) []DetectedPattern {
	govs := assignedFirst(governorates, req.Governorate)
	return d.DetectPatterns(req.Geometry, govs, geo.ParseTemporal(req.ObservedAt))
}

// DetectAsync runs the asynchronous detectors for a request.
func (d *Detector) DetectAsync(ctx context.Context, req DetectionRequest) []DetectedPattern {
	postCount, hasHumanitarian := req.ContentSignals()
	return d.DetectPatternsAsync(ctx, req.Geometry, postCount, hasHumanitarian, geo.ParseTemporal(req.ObservedAt))
}

// NewDetectionResult ranks patterns and stamps them with the request id,
// a slug of the title and the detection time.
func NewDetectionResult(req DetectionRequest, patterns []DetectedPattern) DetectionResult {
	if patterns == nil {
		patterns = []DetectedPattern{}
	}
	result := DetectionResult{
		RequestID:  req.ID,
		Patterns:   rankByConfidence(patterns),
		DetectedAt: clock.Now().UTC(),
	}
	if req.Title != "" {
		result.Slug = slug.Make(req.Title)
	}
	return result
}

// rankByConfidence sorts in place, highest confidence first. Ties keep
// detector order.
func rankByConfidence(patterns []DetectedPattern) []DetectedPattern {
	slices.SortStableFunc(patterns, func(a, b DetectedPattern) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return patterns
}

func appendDetected(found []DetectedPattern, p *DetectedPattern) []DetectedPattern {
	if p == nil {
		return found
	}
	return append(found, *p)
}

// assignedFirst returns a copy of governorates with the named one moved to
// the front. The input slice is never reordered.
func assignedFirst(governorates []geo.Governorate, name string) []geo.Governorate {
	if name == "" {
		return governorates
	}
	idx := slices.IndexFunc(governorates, func(g geo.Governorate) bool { return g.Name == name })
	if idx <= 0 {
		return governorates
	}
	out := make([]geo.Governorate, 0, len(governorates))
	out = append(out, governorates[idx])
	out = append(out, governorates[:idx]...)
	out = append(out, governorates[idx+1:]...)
	return out
}
