package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPatterns_EndToEndDeirEzZor(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)
	g := geo.NewPointGeometry(geo.Point{Lat: 35.0, Lng: 40.5})

	got := d.DetectPatterns(g, []geo.Governorate{deirEzZor()}, testNow)

	require.Len(t, got, 1)
	assert.Equal(t, PatternServiceCoverage, got[0].ID)
	assert.GreaterOrEqual(t, got[0].Confidence, ConfidenceThreshold)
	assert.Equal(t, "Deir-ez-Zor", got[0].Metadata.(ServiceCoverageMetadata).Governorate)
}

func TestDetectPatterns_NilGeometry(t *testing.T) {
	got := newTestDetector(nil).DetectPatterns(nil, []geo.Governorate{deirEzZor()}, testNow)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectPatterns_NonPointSkipsPointDetectors(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)
	// The same coordinates fire P4 and P2 when treated as a Point.
	govs := []geo.Governorate{
		pointGov("Far", 35.72, 38.0),
		pointGov("Near", 34.91, 38.0),
		polygonGov("Homs", square(36, 34, 38.5, 35.5)),
	}

	asPoint := d.DetectPatterns(geo.NewPointGeometry(origin), govs, testNow)
	assert.ElementsMatch(t, []PatternID{PatternAccessDiscontinuity, PatternServiceCoverage}, patternIDs(asPoint))

	line := geo.NewGeometry(geo.TypeLineString, [][]float64{{origin.Lng, origin.Lat}, {origin.Lng + 0.01, origin.Lat}})
	assert.Empty(t, d.DetectPatterns(line, govs, testNow))
}

func TestDetectPatterns_PolygonSpillover(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)
	govs := []geo.Governorate{
		polygonGov("Homs", square(36, 34, 38, 35.5)),
		polygonGov("Hama", square(36, 35.5, 38, 36)),
	}
	g := geo.NewPolygonGeometry(orb.Polygon{square(36.5, 35.2, 37, 35.8)})

	got := d.DetectPatterns(g, govs, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, PatternBoundarySpillover, got[0].ID)
}

func TestDetectPatterns_SortedByConfidence(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)
	govs := []geo.Governorate{
		pointGov("Far", 35.72, 38.0),
		pointGov("Homs", 34.91, 38.0),
	}

	got := d.DetectPatterns(geo.NewPointGeometry(origin), govs, testNow)
	require.Len(t, got, 2)
	// P4 (0.91) outranks P2 (0.84).
	assert.Equal(t, []PatternID{PatternAccessDiscontinuity, PatternServiceCoverage}, patternIDs(got))
	assert.Greater(t, got[0].Confidence, got[1].Confidence)
}

func TestRankByConfidence(t *testing.T) {
	got := rankByConfidence([]DetectedPattern{
		{ID: PatternAidActivity, Confidence: 0.65},
		{ID: PatternNetworkBottleneck, Confidence: 0.9},
		{ID: PatternServiceCoverage, Confidence: 0.65},
	})

	want := []PatternID{PatternNetworkBottleneck, PatternAidActivity, PatternServiceCoverage}
	if diff := cmp.Diff(want, patternIDs(got)); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectPatternsAsync(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(limitedRoads())
	g := geo.NewPointGeometry(aleppoCountryside)

	got := d.DetectPatternsAsync(context.Background(), g, 2, false, testNow)

	// P1 (0.955) outranks P5 (0.885).
	assert.Equal(t, []PatternID{PatternNetworkBottleneck, PatternAidActivity}, patternIDs(got))
}

func TestDetectPatternsAsync_FailureIsIsolated(t *testing.T) {
	freezeClock(t)
	g := geo.NewPointGeometry(aleppoCountryside)

	for name, roads := range map[string]*mockRoads{
		"error": {err: errors.New("connection refused")},
		"panic": {panics: true},
	} {
		t.Run(name, func(t *testing.T) {
			d := newTestDetector(roads)
			got := d.DetectPatternsAsync(context.Background(), g, 0, false, testNow)
			assert.Equal(t, []PatternID{PatternAidActivity}, patternIDs(got))
		})
	}
}

func TestDetectPatternsAsync_NonPoint(t *testing.T) {
	roads := limitedRoads()
	d := newTestDetector(roads)
	poly := geo.NewPolygonGeometry(orb.Polygon{square(36, 34, 37, 35)})

	assert.Empty(t, d.DetectPatternsAsync(context.Background(), poly, 0, false, testNow))
	assert.Empty(t, d.DetectPatternsAsync(context.Background(), nil, 0, false, testNow))
	assert.Zero(t, roads.calls.Load())
}

func TestDetect(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(limitedRoads())
	posts := 1
	req := DetectionRequest{
		ID:         "req-1",
		Title:      "Water shortage reported near Deir-ez-Zor",
		Geometry:   geo.NewPointGeometry(geo.Point{Lat: 35.0, Lng: 40.5}),
		PostCount:  &posts,
		ObservedAt: testNow.Format("2006-01-02"),
	}

	got := d.Detect(context.Background(), req, []geo.Governorate{deirEzZor()})

	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "water-shortage-reported-near-deir-ez-zor", got.Slug)
	assert.Equal(t, testNow, got.DetectedAt)
	assert.Equal(t, []PatternID{PatternNetworkBottleneck, PatternAidActivity, PatternServiceCoverage}, patternIDs(got.Patterns))
}

func TestDetect_AssignedGovernorateLeads(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)
	govs := []geo.Governorate{
		pointGov("Near", 34.91, 38.0),
		pointGov("Far", 35.72, 38.0),
	}
	hum := true
	req := DetectionRequest{
		ID:                   "req-2",
		Geometry:             geo.NewPointGeometry(origin),
		Governorate:          "Far",
		HasHumanitarianPosts: &hum,
	}

	got := d.Detect(context.Background(), req, govs)

	require.Contains(t, patternIDs(got.Patterns), PatternAccessDiscontinuity)
	assert.Equal(t, "Near", govs[0].Name, "input slice must not be reordered")
}

func TestDetectSync_SkipsAsyncDetectors(t *testing.T) {
	freezeClock(t)
	roads := limitedRoads()
	d := newTestDetector(roads)
	req := DetectionRequest{
		ID:         "req-3",
		Geometry:   geo.NewPointGeometry(geo.Point{Lat: 35.0, Lng: 40.5}),
		ObservedAt: testNow.Format(time.RFC3339),
	}

	got := d.DetectSync(req, []geo.Governorate{deirEzZor()})

	assert.Equal(t, []PatternID{PatternServiceCoverage}, patternIDs(got))
	assert.Zero(t, roads.calls.Load())
}

func TestNewDetectionResult_EmptyPatterns(t *testing.T) {
	freezeClock(t)

	got := NewDetectionResult(DetectionRequest{ID: "req-4"}, nil)

	assert.NotNil(t, got.Patterns)
	assert.Empty(t, got.Patterns)
	assert.Empty(t, got.Slug)
	assert.Equal(t, testNow, got.DetectedAt)
}

func TestDetectedPattern_JSONRoundTrip(t *testing.T) {
	in := []DetectedPattern{
		{ID: PatternBoundarySpillover, Confidence: 0.98, Metadata: SpilloverMetadata{Governorates: []string{"Idlib", "Aleppo"}}},
		{ID: PatternAccessDiscontinuity, Confidence: 0.91, Metadata: AccessDiscontinuityMetadata{DistanceToAssignedCenter: 80.1, NearestGovernorate: "Far"}},
		{ID: PatternAidActivity, Confidence: 0.885, Metadata: AidActivityMetadata{PostCount: 2}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nearest_governorate":"Far"`)

	var out []DetectedPattern
	require.NoError(t, json.Unmarshal(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectedPattern_UnknownIDMetadata(t *testing.T) {
	var p DetectedPattern
	err := json.Unmarshal([]byte(`{"id":"P9","metadata":{"x":1}}`), &p)
	require.Error(t, err)
}

func patternIDs(patterns []DetectedPattern) []PatternID {
	ids := make([]PatternID, 0, len(patterns))
	for _, p := range patterns {
		ids = append(ids, p.ID)
	}
	return ids
}
