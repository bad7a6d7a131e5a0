// Command validate performs integrity checks across the mock fixtures used by
// the unit and integration suites: governorate boundaries, detection
// requests, and the patterns each request is expected to produce. It runs the
// real domain package with road analysis disabled, so the fixtures stay
// honest as detector logic changes.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -governorates data/mock/governorates.geojson \
//	  -requests data/mock/detection_requests.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
	"github.com/jonboulle/clockwork"
)

// referenceTime matches the frozen clock in the fixture-driven tests.
var referenceTime = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// arabicHedge is the modal particle every Arabic advisory must carry.
const arabicHedge = "قد"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type fixture struct {
	Name     string                  `json:"name"`
	Request  domain.DetectionRequest `json:"request"`
	Expected []domain.PatternID      `json:"expected"`
}

func main() {
	govPath := flag.String("governorates", "data/mock/governorates.geojson", "path to governorate GeoJSON fixture")
	reqPath := flag.String("requests", "data/mock/detection_requests.json", "path to detection request fixture")
	flag.Parse()

	if code := run(*govPath, *reqPath); code != 0 {
		os.Exit(code)
	}
}

func run(govPath, reqPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(referenceTime))
	defer domain.SetClock(nil)

	// ── Load fixtures ──
	fmt.Println("=== Spatial Pattern Fixture Validation ===")
	fmt.Println()

	governorates, err := geo.LoadGovernoratesFile(govPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load governorates: %v\n", err)
		return 1
	}

	fixtures, err := loadFixtures(reqPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load requests: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRegistry(domain.DefaultRegistry()),
		validateGovernorates(governorates),
		validateRequests(fixtures, governorates),
		validateDetections(fixtures, governorates),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d governorates, %d detection requests\n", len(governorates), len(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixtures(path string) ([]fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []fixture
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// ── Phase 1: Registry ──

func validateRegistry(r domain.Registry) *phase {
	p := &phase{name: "Pattern registry"}
	fmt.Println("Phase 1: Pattern registry")

	ids := r.IDs()
	if len(ids) != 5 {
		p.errorf("registry has %d patterns, want 5", len(ids))
	}
	for _, cfg := range r.Configs() {
		checkMessages(p, string(cfg.ID), cfg.Name, cfg.NameAr, cfg.Message, cfg.MessageAr)
		if !cfg.Enabled {
			p.errorf("%s: disabled in the default registry", cfg.ID)
		}
	}
	return p
}

func checkMessages(p *phase, label, name, nameAr, msg, msgAr string) {
	if name == "" || nameAr == "" {
		p.errorf("%s: missing name (en=%q ar=%q)", label, name, nameAr)
	}
	if msg == "" || msgAr == "" {
		p.errorf("%s: missing message (en=%q ar=%q)", label, msg, msgAr)
		return
	}
	if !strings.Contains(msgAr, arabicHedge) {
		p.errorf("%s: Arabic message is not hedged with %q", label, arabicHedge)
	}
	if !strings.Contains(msg, "may") && !strings.Contains(msg, "could") {
		p.errorf("%s: English message is not hedged", label)
	}
}

// ── Phase 2: Governorates ──

func validateGovernorates(govs []geo.Governorate) *phase {
	p := &phase{name: "Governorate boundaries"}
	fmt.Println("Phase 2: Governorate boundaries")

	if len(govs) == 0 {
		p.errorf("no governorates loaded")
		return p
	}

	seen := make(map[string]bool, len(govs))
	var polygons int
	for _, g := range govs {
		if seen[g.Name] {
			p.errorf("duplicate governorate %q", g.Name)
		}
		seen[g.Name] = true

		if !g.Geometry.Valid() {
			p.errorf("%s: invalid geometry", g.Name)
			continue
		}
		_, isCenter := g.Centroid()
		_, isBoundary := g.Geometry.Polygons()
		switch {
		case isBoundary:
			polygons++
		case !isCenter:
			p.errorf("%s: neither a boundary nor a center (type %s)", g.Name, g.Geometry.Type)
		}
	}
	if polygons == 0 {
		p.errorf("no polygon boundaries; containment-based patterns cannot fire")
	}
	return p
}

// ── Phase 3: Requests ──

func validateRequests(fixtures []fixture, govs []geo.Governorate) *phase {
	p := &phase{name: "Detection request fixtures"}
	fmt.Println("Phase 3: Detection request fixtures")

	ids := make(map[string]bool, len(fixtures))
	for i, f := range fixtures {
		label := fmt.Sprintf("fixture %d (%s)", i, f.Request.ID)
		if f.Name == "" {
			p.errorf("%s: missing name", label)
		}
		if f.Request.ID == "" {
			p.errorf("%s: missing request id", label)
		} else if ids[f.Request.ID] {
			p.errorf("%s: duplicate request id", label)
		}
		ids[f.Request.ID] = true

		if !f.Request.Geometry.Valid() {
			p.errorf("%s: invalid geometry", label)
		}
		if f.Request.Governorate != "" && !slices.ContainsFunc(govs, func(g geo.Governorate) bool {
			return g.Name == f.Request.Governorate
		}) {
			p.errorf("%s: unknown governorate %q", label, f.Request.Governorate)
		}
		if f.Request.ObservedAt != "" && geo.ParseTemporal(f.Request.ObservedAt).IsZero() {
			p.errorf("%s: unparseable observed_at %q", label, f.Request.ObservedAt)
		}
		for _, id := range f.Expected {
			if _, err := domain.ParsePatternID(string(id)); err != nil {
				p.errorf("%s: %v", label, err)
			}
		}
	}
	return p
}

// ── Phase 4: Detections ──

func validateDetections(fixtures []fixture, govs []geo.Governorate) *phase {
	p := &phase{name: "Detection results"}
	fmt.Println("Phase 4: Detection results")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	detector := domain.NewDetector(domain.DefaultRegistry(), nil, logger)
	ctx := context.Background()

	for _, f := range fixtures {
		if !f.Request.Geometry.Valid() {
			continue
		}
		result := detector.Detect(ctx, f.Request, govs)
		compareResult(p, f, result)
	}
	return p
}

func compareResult(p *phase, f fixture, result domain.DetectionResult) {
	label := f.Request.ID

	got := make([]domain.PatternID, 0, len(result.Patterns))
	for _, pat := range result.Patterns {
		got = append(got, pat.ID)
	}
	want := f.Expected
	if want == nil {
		want = []domain.PatternID{}
	}
	if !slices.Equal(got, want) {
		p.errorf("%s: patterns = %v, want %v", label, got, want)
	}

	if result.RequestID != f.Request.ID {
		p.errorf("%s: request_id = %q", label, result.RequestID)
	}
	if !result.DetectedAt.Equal(referenceTime) {
		p.errorf("%s: detected_at = %s, want %s", label, result.DetectedAt, referenceTime)
	}

	for i, pat := range result.Patterns {
		if pat.Confidence < domain.ConfidenceThreshold || pat.Confidence > 1 {
			p.errorf("%s/%s: confidence %.3f outside [%.1f, 1]", label, pat.ID, pat.Confidence, domain.ConfidenceThreshold)
		}
		if i > 0 && pat.Confidence > result.Patterns[i-1].Confidence {
			p.errorf("%s/%s: not ranked by confidence", label, pat.ID)
		}
		if pat.Metadata == nil || pat.Metadata.PatternID() != pat.ID {
			p.errorf("%s/%s: metadata does not match pattern", label, pat.ID)
		}
		checkMessages(p, label+"/"+string(pat.ID), pat.Name, pat.NameAr, pat.Message, pat.MessageAr)
	}
}
