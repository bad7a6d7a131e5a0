package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aleppoCountryside = geo.Point{Lat: 36.2, Lng: 37.9}

// --- P1 network bottleneck ---

func TestDetectNetworkBottleneck_LimitedAccess(t *testing.T) {
	freezeClock(t)
	roads := limitedRoads()
	d := newTestDetector(roads)

	got := d.DetectNetworkBottleneck(context.Background(), aleppoCountryside, testNow)
	require.NotNil(t, got)

	assert.Equal(t, PatternNetworkBottleneck, got.ID)
	assert.Equal(t, NetworkBottleneckMetadata{
		RoadCount:     3,
		PrimaryRoads:  0,
		TotalLengthKm: 12.5,
		RadiusKm:      15,
	}, got.Metadata)
	// 0.4 + 0.3*0.9 + 0.2*1 + 0.1*0.85
	assert.InDelta(t, 0.955, got.Confidence, 1e-9)
	assert.Equal(t, int32(1), roads.calls.Load())
}

func TestDetectNetworkBottleneck_NoRoadsLowersCompleteness(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(&mockRoads{summary: RoadNetworkSummary{HasLimitedAccess: true}})

	got := d.DetectNetworkBottleneck(context.Background(), aleppoCountryside, testNow)
	require.NotNil(t, got)
	// 0.4 + 0.3*0.5 + 0.2*1 + 0.1*0.85
	assert.InDelta(t, 0.835, got.Confidence, 1e-9)
}

func TestDetectNetworkBottleneck_NoDetection(t *testing.T) {
	tests := []struct {
		name  string
		roads RoadAnalyzer
	}{
		{"good access", &mockRoads{summary: RoadNetworkSummary{RoadCount: 40, PrimaryRoads: 6}}},
		{"lookup error", &mockRoads{err: errors.New("overpass: 504 gateway timeout")}},
		{"analyzer panics", &mockRoads{panics: true}},
		{"no analyzer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(tt.roads)
			assert.NotPanics(t, func() {
				assert.Nil(t, d.DetectNetworkBottleneck(context.Background(), aleppoCountryside, testNow))
			})
		})
	}
}

func TestDetectNetworkBottleneck_DisabledSkipsLookup(t *testing.T) {
	roads := limitedRoads()
	d := NewDetector(DefaultRegistry().WithEnabled(PatternNetworkBottleneck, false), roads, discardLogger())

	assert.Nil(t, d.DetectNetworkBottleneck(context.Background(), aleppoCountryside, testNow))
	assert.Zero(t, roads.calls.Load())
}

// --- P5 aid activity ---

func TestDetectAidActivityPattern(t *testing.T) {
	freezeClock(t)
	d := newTestDetector(nil)

	tests := []struct {
		name         string
		postCount    int
		humanitarian bool
		wantFire     bool
	}{
		{"no posts", 0, false, true},
		{"four posts", 4, false, true},
		{"five posts", 5, false, false},
		{"humanitarian content present", 1, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.DetectAidActivityPattern(aleppoCountryside, tt.postCount, tt.humanitarian, testNow)
			if !tt.wantFire {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, AidActivityMetadata{PostCount: tt.postCount}, got.Metadata)
			// 0.4 + 0.3*0.7 + 0.2*1 + 0.1*0.75
			assert.InDelta(t, 0.885, got.Confidence, 1e-9)
		})
	}
}

func TestDetectAidActivityPattern_Disabled(t *testing.T) {
	d := NewDetector(DefaultRegistry().WithEnabled(PatternAidActivity, false), nil, discardLogger())
	assert.Nil(t, d.DetectAidActivityPattern(aleppoCountryside, 0, false, testNow))
}

// --- keywords ---

func TestContainsHumanitarianKeywords(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"WFP convoy reached the camp", true},
		{"New SHELTER opened near the bridge", true},
		{"Mobile medical team visiting", true},
		{"UNICEF water trucking", true},
		{"Road resurfaced, traffic is normal", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsHumanitarianKeywords(tt.text))
		})
	}
}
