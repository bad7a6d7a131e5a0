// Package geo is the geometry kernel behind pattern detection: WGS84 value
// types, a lazily decoded GeoJSON-like geometry, and the spatial predicates
// the detectors rely on (haversine distance, point-in-polygon, bounding
// boxes, governorate spanning, temporal decay).
//
// Coordinates inside a Geometry follow GeoJSON order, [lng, lat]. Decoding
// never panics: a geometry whose type or coordinates cannot be interpreted
// simply reports false from its accessors.
package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// GeoJSON geometry type names understood by the kernel.
const (
	TypePoint           = "Point"
	TypeMultiPoint      = "MultiPoint"
	TypeLineString      = "LineString"
	TypeMultiLineString = "MultiLineString"
	TypePolygon         = "Polygon"
	TypeMultiPolygon    = "MultiPolygon"
)

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

func pointFromOrb(p orb.Point) Point { return Point{Lat: p.Lat(), Lng: p.Lon()} }

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether p lies inside or on the edge of the box.
func (b BBox) Contains(p Point) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Polygon is a set of closed rings (outer ring first, holes after) with a
// precomputed bounding box used for fast rejection.
type Polygon struct {
	Rings orb.Polygon
	BBox  BBox
}

// NewPolygon builds a Polygon and computes its bounding box.
func NewPolygon(rings orb.Polygon) Polygon {
	return Polygon{Rings: rings, BBox: CalculateBBox(rings)}
}

// Geometry is a GeoJSON-like tagged union. Coordinates stay raw until an
// accessor asks for a specific shape.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// NewGeometry encodes coords under the given type. Values that cannot be
// encoded produce a geometry without coordinates.
func NewGeometry(typ string, coords any) *Geometry {
	raw, err := json.Marshal(coords)
	if err != nil {
		return &Geometry{Type: typ}
	}
	return &Geometry{Type: typ, Coordinates: raw}
}

// NewPointGeometry returns a GeoJSON Point for p.
func NewPointGeometry(p Point) *Geometry {
	return NewGeometry(TypePoint, []float64{p.Lng, p.Lat})
}

// NewPolygonGeometry returns a GeoJSON Polygon for the given rings.
func NewPolygonGeometry(rings orb.Polygon) *Geometry {
	return NewGeometry(TypePolygon, rings)
}

// Valid reports whether the geometry carries both a type and coordinates.
func (g *Geometry) Valid() bool {
	if g == nil || g.Type == "" || len(g.Coordinates) == 0 {
		return false
	}
	return string(g.Coordinates) != "null"
}

// Point decodes a Point geometry with at least two coordinate components.
func (g *Geometry) Point() (Point, bool) {
	if !g.Valid() || g.Type != TypePoint {
		return Point{}, false
	}
	var c []float64
	if err := json.Unmarshal(g.Coordinates, &c); err != nil || len(c) < 2 {
		return Point{}, false
	}
	return Point{Lat: c[1], Lng: c[0]}, true
}

// Polygons decodes Polygon and MultiPolygon geometries. Other types, and
// polygons without any usable ring, report false.
func (g *Geometry) Polygons() ([]Polygon, bool) {
	if !g.Valid() {
		return nil, false
	}

	var polys []Polygon
	switch g.Type {
	case TypePolygon:
		var c [][][]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil, false
		}
		if rings := toRings(c); len(rings) > 0 {
			polys = append(polys, NewPolygon(rings))
		}
	case TypeMultiPolygon:
		var c [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil, false
		}
		for _, part := range c {
			if rings := toRings(part); len(rings) > 0 {
				polys = append(polys, NewPolygon(rings))
			}
		}
	default:
		return nil, false
	}
	return polys, len(polys) > 0
}

// Vertices flattens every position of the geometry, whatever its type.
func (g *Geometry) Vertices() []Point {
	if !g.Valid() {
		return nil
	}

	var out []Point
	switch g.Type {
	case TypePoint:
		if p, ok := g.Point(); ok {
			out = append(out, p)
		}
	case TypeMultiPoint, TypeLineString:
		var c [][]float64
		if json.Unmarshal(g.Coordinates, &c) == nil {
			out = appendPositions(out, c)
		}
	case TypeMultiLineString, TypePolygon:
		var c [][][]float64
		if json.Unmarshal(g.Coordinates, &c) == nil {
			for _, line := range c {
				out = appendPositions(out, line)
			}
		}
	case TypeMultiPolygon:
		var c [][][][]float64
		if json.Unmarshal(g.Coordinates, &c) == nil {
			for _, poly := range c {
				for _, ring := range poly {
					out = appendPositions(out, ring)
				}
			}
		}
	}
	return out
}

func appendPositions(out []Point, positions [][]float64) []Point {
	for _, pos := range positions {
		if len(pos) >= 2 {
			out = append(out, Point{Lat: pos[1], Lng: pos[0]})
		}
	}
	return out
}

func toRings(c [][][]float64) orb.Polygon {
	rings := make(orb.Polygon, 0, len(c))
	for _, raw := range c {
		ring := make(orb.Ring, 0, len(raw))
		for _, pos := range raw {
			if len(pos) >= 2 {
				ring = append(ring, orb.Point{pos[0], pos[1]})
			}
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// Governorate is a first-level administrative unit. In degraded data the
// geometry is only the governorate's center Point.
type Governorate struct {
	Name     string    `json:"name"`
	Geometry *Geometry `json:"geometry"`
}

// Centroid returns the governorate's point when it is represented by its
// center rather than a boundary.
func (g Governorate) Centroid() (Point, bool) {
	return g.Geometry.Point()
}
