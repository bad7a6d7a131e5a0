package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// HaversineDistance returns the great-circle distance between a and b in kilometers.
func HaversineDistance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(a.orb(), b.orb()) / 1000
}

// PointInPolygon reports whether p lies inside poly, holes excluded and
// boundary included. The bounding box only short-circuits obvious misses;
// the result always matches the full ring test.
func PointInPolygon(p Point, poly Polygon) bool {
	if !poly.BBox.Contains(p) {
		return false
	}
	return planar.PolygonContains(poly.Rings, p.orb())
}

// CalculateBBox returns the bounding box over all ring vertices. Empty input
// yields the zero box.
func CalculateBBox(rings orb.Polygon) BBox {
	b := BBox{
		MinLng: math.Inf(1),
		MinLat: math.Inf(1),
		MaxLng: math.Inf(-1),
		MaxLat: math.Inf(-1),
	}
	seen := false
	for _, ring := range rings {
		for _, c := range ring {
			seen = true
			b.MinLng = math.Min(b.MinLng, c.Lon())
			b.MinLat = math.Min(b.MinLat, c.Lat())
			b.MaxLng = math.Max(b.MaxLng, c.Lon())
			b.MaxLat = math.Max(b.MaxLat, c.Lat())
		}
	}
	if !seen {
		return BBox{}
	}
	return b
}

// FindSpanningGovernorates returns, in input order and without duplicates,
// the names of every governorate the geometry overlaps.
//
// A boundary governorate is overlapped when one of the geometry's vertices
// falls inside it, or, for polygonal input, when one of its outer-ring
// vertices falls inside the input. A center-only governorate is overlapped
// when its point falls inside polygonal input.
func FindSpanningGovernorates(g *Geometry, governorates []Governorate) []string {
	vertices := g.Vertices()
	if len(vertices) == 0 {
		return nil
	}
	inputPolys, _ := g.Polygons()

	var names []string
	seen := make(map[string]struct{})
	for _, gov := range governorates {
		if _, dup := seen[gov.Name]; dup {
			continue
		}
		if overlaps(gov, vertices, inputPolys) {
			seen[gov.Name] = struct{}{}
			names = append(names, gov.Name)
		}
	}
	return names
}

func overlaps(gov Governorate, vertices []Point, inputPolys []Polygon) bool {
	if boundaries, ok := gov.Geometry.Polygons(); ok {
		for _, boundary := range boundaries {
			for _, v := range vertices {
				if PointInPolygon(v, boundary) {
					return true
				}
			}
			if len(boundary.Rings) == 0 {
				continue
			}
			for _, in := range inputPolys {
				for _, c := range boundary.Rings[0] {
					if PointInPolygon(pointFromOrb(c), in) {
						return true
					}
				}
			}
		}
		return false
	}

	if center, ok := gov.Centroid(); ok {
		for _, in := range inputPolys {
			if PointInPolygon(center, in) {
				return true
			}
		}
	}
	return false
}
