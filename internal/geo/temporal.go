package geo

import (
	"math"
	"strings"
	"time"
)

const (
	// DefaultTemporalRelevance is used when an observation carries no date.
	DefaultTemporalRelevance = 0.5

	// MinTemporalRelevance is the floor of the decay curve.
	MinTemporalRelevance = 0.1

	freshWindow       = 7 * 24 * time.Hour
	relevanceHalfLife = 30 * 24 * time.Hour
)

// TemporalRelevance scores how recent t is relative to now, in [0.1, 1].
// Data up to a week old (or dated in the future) scores 1.0; older data
// decays exponentially with a 30-day half-life. A zero t scores
// DefaultTemporalRelevance.
func TemporalRelevance(t, now time.Time) float64 {
	if t.IsZero() {
		return DefaultTemporalRelevance
	}
	age := now.Sub(t)
	if age <= freshWindow {
		return 1
	}
	decay := math.Pow(0.5, float64(age-freshWindow)/float64(relevanceHalfLife))
	return math.Max(decay, MinTemporalRelevance)
}

// ParseTemporal accepts RFC3339 timestamps or plain dates. Anything else
// returns the zero time, which TemporalRelevance treats as "no date".
func ParseTemporal(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return time.Time{}
}
