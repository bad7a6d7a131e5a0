// Command detect runs pattern detection offline over a GeoJSON file. Each
// feature becomes one detection request; its properties may carry id, title,
// governorate, observed_at, post_count and contents. Results are written as a
// JSON array in input order.
//
// Usage:
//
//	go run ./cmd/detect \
//	  -governorates data/mock/governorates.geojson \
//	  -input reports.geojson \
//	  -now 2024-06-01T12:00:00Z \
//	  -mode all
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/adapter/overpass"
	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb/geojson"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	govPath := flag.String("governorates", "", "GeoJSON FeatureCollection of governorate boundaries or centers")
	input := flag.String("input", "", "GeoJSON Feature, FeatureCollection or bare geometry (- for stdin)")
	out := flag.String("out", "", "output path for results (default stdout)")
	now := flag.String("now", "", "fixed RFC3339 reference time for recency scoring")
	mode := flag.String("mode", "all", "detectors to run: sync, async or all")
	roads := flag.Bool("overpass", false, "query Overpass for road network analysis")
	overpassURL := flag.String("overpass-url", overpass.DefaultEndpoint, "Overpass interpreter endpoint")
	flag.Parse()

	if *govPath == "" || *input == "" {
		flag.Usage()
		return errors.New("missing required flags: -governorates, -input")
	}
	if *mode != "sync" && *mode != "async" && *mode != "all" {
		return fmt.Errorf("invalid -mode %q", *mode)
	}

	if *now != "" {
		t, err := time.Parse(time.RFC3339, *now)
		if err != nil {
			return fmt.Errorf("parse -now: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	governorates, err := geo.LoadGovernoratesFile(*govPath)
	if err != nil {
		return err
	}

	reqs, err := readRequests(*input)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	var analyzer domain.RoadAnalyzer
	if *roads {
		metrics := observability.NewMetricsForTesting()
		client := overpass.NewClient(*overpassURL, 30*time.Second, metrics, logger)
		analyzer = overpass.NewCachedAnalyzer(client, 256, metrics)
	}
	detector := domain.NewDetector(domain.DefaultRegistry(), analyzer, logger)

	ctx := context.Background()
	results := make([]domain.DetectionResult, 0, len(reqs))
	for _, req := range reqs {
		var patterns []domain.DetectedPattern
		switch *mode {
		case "sync":
			patterns = detector.DetectSync(req, governorates)
		case "async":
			patterns = detector.DetectAsync(ctx, req)
		default:
			patterns = append(detector.DetectSync(req, governorates), detector.DetectAsync(ctx, req)...)
		}
		results = append(results, domain.NewDetectionResult(req, patterns))
	}

	if err := writeResults(*out, results); err != nil {
		return err
	}
	printStats(results)
	return nil
}

// readRequests decodes the input into one request per feature. A bare
// geometry yields a single request.
func readRequests(path string) ([]domain.DetectionRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	var features []*geojson.Feature
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		features = fc.Features
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		features = []*geojson.Feature{f}
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		features = []*geojson.Feature{geojson.NewFeature(g.Geometry())}
	}

	reqs := make([]domain.DetectionRequest, 0, len(features))
	for i, f := range features {
		req, err := featureRequest(i, f)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func featureRequest(i int, f *geojson.Feature) (domain.DetectionRequest, error) {
	g, err := geo.FromOrb(f.Geometry)
	if err != nil {
		return domain.DetectionRequest{}, fmt.Errorf("feature %d: %w", i, err)
	}
	if !g.Valid() {
		return domain.DetectionRequest{}, fmt.Errorf("feature %d: missing geometry", i)
	}

	props := f.Properties
	req := domain.DetectionRequest{
		ID:          props.MustString("id", strconv.Itoa(i+1)),
		Title:       props.MustString("title", ""),
		Geometry:    g,
		Governorate: props.MustString("governorate", ""),
		ObservedAt:  props.MustString("observed_at", ""),
	}
	if _, ok := props["post_count"]; ok {
		n := props.MustInt("post_count", 0)
		req.PostCount = &n
	}
	if raw, ok := props["contents"].([]any); ok {
		for _, c := range raw {
			if s, ok := c.(string); ok {
				req.Contents = append(req.Contents, s)
			}
		}
	}
	return req, nil
}

func writeResults(path string, results []domain.DetectionResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	log.Printf("wrote %d results to %s", len(results), path)
	return nil
}

func printStats(results []domain.DetectionResult) {
	counts := map[domain.PatternID]int{}
	var empty int
	for _, r := range results {
		if len(r.Patterns) == 0 {
			empty++
		}
		for _, p := range r.Patterns {
			counts[p.ID]++
		}
	}

	ids := make([]domain.PatternID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintf(os.Stderr, "requests: %d, without patterns: %d\n", len(results), empty)
	for _, id := range ids {
		fmt.Fprintf(os.Stderr, "  %s: %d\n", id, counts[id])
	}
}
