package geo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

// square returns a closed axis-aligned ring from (minLng,minLat) to (maxLng,maxLat).
func square(minLng, minLat, maxLng, maxLat float64) orb.Ring {
	return orb.Ring{
		{minLng, minLat},
		{maxLng, minLat},
		{maxLng, maxLat},
		{minLng, maxLat},
		{minLng, minLat},
	}
}

func polygonGov(name string, ring orb.Ring) Governorate {
	return Governorate{Name: name, Geometry: NewPolygonGeometry(orb.Polygon{ring})}
}

func pointGov(name string, p Point) Governorate {
	return Governorate{Name: name, Geometry: NewPointGeometry(p)}
}

func TestHaversineDistance(t *testing.T) {
	damascus := Point{Lat: 33.5138, Lng: 36.2765}
	aleppo := Point{Lat: 36.2021, Lng: 37.1343}

	assert.InDelta(t, 310, HaversineDistance(damascus, aleppo), 5)
	assert.InDelta(t, HaversineDistance(damascus, aleppo), HaversineDistance(aleppo, damascus), 1e-9)
	assert.Zero(t, HaversineDistance(damascus, damascus))
}

func TestHaversineDistance_OneDegreeLatitude(t *testing.T) {
	d := HaversineDistance(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0})
	assert.InDelta(t, 111.2, d, 0.5)
}

func TestPointInPolygon(t *testing.T) {
	withHole := NewPolygon(orb.Polygon{square(0, 0, 10, 10), square(4, 4, 6, 6)})

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside outer ring", Point{Lat: 2, Lng: 2}, true},
		{"inside hole", Point{Lat: 5, Lng: 5}, false},
		{"outside bbox", Point{Lat: 20, Lng: 20}, false},
		{"west of polygon", Point{Lat: 5, Lng: -1}, false},
		{"between hole and edge", Point{Lat: 8, Lng: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInPolygon(tt.p, withHole))
		})
	}
}

func TestPointInPolygon_InsideBBoxOutsideRing(t *testing.T) {
	// Right triangle: the upper-left half of its bbox is outside the ring.
	tri := NewPolygon(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 0}}})

	assert.True(t, tri.BBox.Contains(Point{Lat: 8, Lng: 2}))
	assert.False(t, PointInPolygon(Point{Lat: 8, Lng: 2}, tri))
	assert.True(t, PointInPolygon(Point{Lat: 2, Lng: 8}, tri))
}

func TestCalculateBBox(t *testing.T) {
	got := CalculateBBox(orb.Polygon{
		{{36.1, 33.2}, {38.5, 33.9}, {37.0, 35.4}, {36.1, 33.2}},
	})
	want := BBox{MinLng: 36.1, MinLat: 33.2, MaxLng: 38.5, MaxLat: 35.4}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateBBox mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateBBox_Empty(t *testing.T) {
	assert.Equal(t, BBox{}, CalculateBBox(nil))
	assert.Equal(t, BBox{}, CalculateBBox(orb.Polygon{{}}))
}

func TestFindSpanningGovernorates(t *testing.T) {
	govs := []Governorate{
		polygonGov("West", square(0, 0, 1, 1)),
		polygonGov("East", square(1, 0, 2, 1)),
		polygonGov("North", square(0, 5, 2, 6)),
	}

	tests := []struct {
		name string
		g    *Geometry
		want []string
	}{
		{
			name: "point inside one governorate",
			g:    NewPointGeometry(Point{Lat: 0.5, Lng: 0.5}),
			want: []string{"West"},
		},
		{
			name: "polygon straddling the shared border",
			g:    NewPolygonGeometry(orb.Polygon{square(0.5, 0.2, 1.5, 0.8)}),
			want: []string{"West", "East"},
		},
		{
			name: "line crossing the border",
			g:    NewGeometry(TypeLineString, [][]float64{{0.2, 0.5}, {1.8, 0.5}}),
			want: []string{"West", "East"},
		},
		{
			name: "polygon enclosing a whole governorate",
			g:    NewPolygonGeometry(orb.Polygon{square(-1, 4, 3, 7)}),
			want: []string{"North"},
		},
		{
			name: "point outside every governorate",
			g:    NewPointGeometry(Point{Lat: 3, Lng: 3}),
			want: nil,
		},
		{
			name: "missing coordinates",
			g:    &Geometry{Type: TypePolygon},
			want: nil,
		},
		{
			name: "nil geometry",
			g:    nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSpanningGovernorates(tt.g, govs))
		})
	}
}

func TestFindSpanningGovernorates_PointGovernorates(t *testing.T) {
	govs := []Governorate{
		pointGov("Inside", Point{Lat: 0.5, Lng: 0.5}),
		pointGov("Outside", Point{Lat: 9, Lng: 9}),
		{Name: "NoGeometry"},
	}

	got := FindSpanningGovernorates(NewPolygonGeometry(orb.Polygon{square(0, 0, 1, 1)}), govs)
	assert.Equal(t, []string{"Inside"}, got)

	// A point input never contains a centroid.
	assert.Nil(t, FindSpanningGovernorates(NewPointGeometry(Point{Lat: 0.5, Lng: 0.5}), govs))
}

func TestFindSpanningGovernorates_Deduplicates(t *testing.T) {
	govs := []Governorate{
		polygonGov("West", square(0, 0, 1, 1)),
		polygonGov("West", square(0, 0, 1, 1)),
	}

	got := FindSpanningGovernorates(NewPointGeometry(Point{Lat: 0.5, Lng: 0.5}), govs)
	assert.Equal(t, []string{"West"}, got)
}
