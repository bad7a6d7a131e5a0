package domain

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// freezeClock pins the package clock to testNow for the duration of the test.
func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { SetClock(nil) })
}

func newTestDetector(roads RoadAnalyzer, opts ...Option) *Detector {
	return NewDetector(DefaultRegistry(), roads, discardLogger(), opts...)
}

func square(minLng, minLat, maxLng, maxLat float64) orb.Ring {
	return orb.Ring{
		{minLng, minLat},
		{maxLng, minLat},
		{maxLng, maxLat},
		{minLng, maxLat},
		{minLng, minLat},
	}
}

func polygonGov(name string, ring orb.Ring) geo.Governorate {
	return geo.Governorate{Name: name, Geometry: geo.NewPolygonGeometry(orb.Polygon{ring})}
}

func pointGov(name string, lat, lng float64) geo.Governorate {
	return geo.Governorate{Name: name, Geometry: geo.NewPointGeometry(geo.Point{Lat: lat, Lng: lng})}
}

// deirEzZor is a coarse box around the governorate containing (35.0, 40.5).
func deirEzZor() geo.Governorate {
	return polygonGov("Deir-ez-Zor", square(39.5, 34.2, 41.5, 35.8))
}

// --- mock road analyzer ---

type mockRoads struct {
	summary RoadNetworkSummary
	err     error
	panics  bool
	calls   atomic.Int32
}

func (m *mockRoads) AnalyzeRoadNetwork(_ context.Context, _, _, _ float64) (RoadNetworkSummary, error) {
	m.calls.Add(1)
	if m.panics {
		panic("overpass decoder exploded")
	}
	return m.summary, m.err
}

func limitedRoads() *mockRoads {
	return &mockRoads{summary: RoadNetworkSummary{
		HasLimitedAccess: true,
		RoadCount:        3,
		PrimaryRoads:     0,
		TotalLengthKm:    12.5,
	}}
}
