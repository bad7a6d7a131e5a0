package domain

import (
	"context"
	"fmt"
)

// RoadNetworkSummary describes the road network around a point.
type RoadNetworkSummary struct {
	HasLimitedAccess bool    `json:"has_limited_access"`
	RoadCount        int     `json:"road_count"`
	PrimaryRoads     int     `json:"primary_roads"`
	TotalLengthKm    float64 `json:"total_length_km"`
}

// RoadAnalyzer summarizes the road network within radiusKm of a point.
type RoadAnalyzer interface {
	AnalyzeRoadNetwork(ctx context.Context, lat, lng, radiusKm float64) (RoadNetworkSummary, error)
}

// RoadCacheKey identifies a road-network lookup for caching. Coordinates are
// rounded to three decimals (about 100 m) so nearby requests share an entry.
func RoadCacheKey(lat, lng, radiusKm float64) string {
	return fmt.Sprintf("roads:%.3f,%.3f,%.1f", lat, lng, radiusKm)
}
