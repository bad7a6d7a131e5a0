package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/geo"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// DetectionRequest asks for pattern detection over one geometry.
//
// PostCount and HasHumanitarianPosts are optional content-density signals;
// when PostCount is absent it is derived from Contents (and, in the service,
// from nearby posts). Governorate names the administrative unit the report
// is filed under and is treated as the assigned center for access
// discontinuity.
type DetectionRequest struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title,omitempty"`
	Geometry             *geo.Geometry `json:"geometry"`
	Governorate          string        `json:"governorate,omitempty"`
	PostCount            *int          `json:"post_count,omitempty"`
	HasHumanitarianPosts *bool         `json:"has_humanitarian_posts,omitempty"`
	Contents             []string      `json:"contents,omitempty"`
	ObservedAt           string        `json:"observed_at,omitempty"`
}

// ContentSignals resolves the P5 inputs, falling back to Contents when the
// explicit aggregates are missing.
func (r DetectionRequest) ContentSignals() (postCount int, hasHumanitarianPosts bool) {
	postCount = len(r.Contents)
	if r.PostCount != nil {
		postCount = *r.PostCount
	}
	if r.HasHumanitarianPosts != nil {
		return postCount, *r.HasHumanitarianPosts
	}
	return postCount, anyHumanitarian(r.Contents)
}

// DetectionResult is the ranked output for one request.
type DetectionResult struct {
	RequestID  string            `json:"request_id"`
	Slug       string            `json:"slug,omitempty"`
	Patterns   []DetectedPattern `json:"patterns"`
	DetectedAt time.Time         `json:"detected_at"`
}

// ParseRawEvent deserializes a RawEvent's value into a DetectionRequest.
// A request without an id takes the message key.
func ParseRawEvent(raw RawEvent) (DetectionRequest, error) {
	var req DetectionRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return DetectionRequest{}, fmt.Errorf("parse detection request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ObservedAt == "" && !raw.Timestamp.IsZero() {
		req.ObservedAt = raw.Timestamp.UTC().Format(time.RFC3339)
	}
	return req, nil
}
