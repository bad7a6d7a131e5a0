package overpass

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	goverpass "github.com/serjvanilla/go-overpass"
)

// DefaultEndpoint is the public Overpass API interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

const (
	// A network with fewer ways than this, or without any primary road,
	// is treated as limited access.
	minRoadCount = 5

	highwayClasses = "motorway|trunk|primary|secondary|tertiary|unclassified|residential|track"
)

var primaryClasses = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
	"trunk":         true,
	"trunk_link":    true,
	"primary":       true,
	"primary_link":  true,
}

type querier interface {
	Query(query string) (goverpass.Result, error)
}

// Client implements domain.RoadAnalyzer using the Overpass API.
type Client struct {
	api     querier
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates an Overpass road-network client.
func NewClient(endpoint string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	api := goverpass.NewWithSettings(endpoint, 2, &http.Client{Timeout: timeout})
	return &Client{
		api:     &api,
		metrics: metrics,
		logger:  logger,
	}
}

// AnalyzeRoadNetwork counts the highways within radiusKm of the point and sums their length.
func (c *Client) AnalyzeRoadNetwork(ctx context.Context, lat, lng, radiusKm float64) (domain.RoadNetworkSummary, error) {
	start := time.Now()
	result, err := c.query(ctx, roadQuery(lat, lng, radiusKm))
	c.metrics.RoadAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.RoadRequests.WithLabelValues("error").Inc()
		return domain.RoadNetworkSummary{}, fmt.Errorf("overpass road query: %w", err)
	}
	c.metrics.RoadRequests.WithLabelValues("success").Inc()

	summary := summarize(result)
	c.logger.Debug("road network analyzed",
		"lat", lat,
		"lng", lng,
		"roads", summary.RoadCount,
		"primary", summary.PrimaryRoads,
	)
	return summary, nil
}

// query runs the blocking Overpass call and abandons it if ctx ends first.
func (c *Client) query(ctx context.Context, q string) (goverpass.Result, error) {
	type outcome struct {
		result goverpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.api.Query(q)
		done <- outcome{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return goverpass.Result{}, ctx.Err()
	case o := <-done:
		return o.result, o.err
	}
}

func roadQuery(lat, lng, radiusKm float64) string {
	meters := int(math.Round(radiusKm * 1000))
	return fmt.Sprintf(
		`[out:json][timeout:25];way["highway"~"^(%s)$"](around:%d,%.6f,%.6f);out body;>;out skel qt;`,
		highwayClasses, meters, lat, lng,
	)
}

func summarize(res goverpass.Result) domain.RoadNetworkSummary {
	var s domain.RoadNetworkSummary
	for _, way := range res.Ways {
		class := way.Tags["highway"]
		if class == "" {
			continue
		}
		s.RoadCount++
		if primaryClasses[class] {
			s.PrimaryRoads++
		}
		s.TotalLengthKm += wayLengthKm(way)
	}
	s.TotalLengthKm = math.Round(s.TotalLengthKm*100) / 100
	s.HasLimitedAccess = s.PrimaryRoads == 0 || s.RoadCount < minRoadCount
	return s
}

func wayLengthKm(way *goverpass.Way) float64 {
	var km float64
	for i := 1; i < len(way.Nodes); i++ {
		a, b := way.Nodes[i-1], way.Nodes[i]
		if a == nil || b == nil {
			continue
		}
		km += geo.HaversineDistance(geo.Point{Lat: a.Lat, Lng: a.Lon}, geo.Point{Lat: b.Lat, Lng: b.Lon})
	}
	return km
}
