package domain

import (
	"context"
	"log/slog"
	"strings"
)

// humanitarianKeywords are matched as case-insensitive substrings, so short
// entries such as "un" also match inside longer words.
var humanitarianKeywords = []string{
	"aid",
	"humanitarian",
	"relief",
	"refugee",
	"displacement",
	"food",
	"shelter",
	"medical",
	"health",
	"assistance",
	"ngo",
	"un",
	"unhcr",
	"unicef",
	"wfp",
	"icrc",
}

// ContainsHumanitarianKeywords reports whether text mentions any
// humanitarian keyword.
func ContainsHumanitarianKeywords(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range humanitarianKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ContentSource returns the text of posts published near a point.
type ContentSource interface {
	NearbyContent(ctx context.Context, lat, lng, radiusKm float64) ([]string, error)
}

// EnrichWithContentStats fills in the content-density signals of a request
// that did not carry them. If source is nil, the geometry is not a point, or
// the lookup fails, the request is returned unchanged (graceful degradation).
func EnrichWithContentStats(ctx context.Context, req DetectionRequest, source ContentSource, radiusKm float64, logger *slog.Logger) DetectionRequest {
	if source == nil || req.PostCount != nil {
		return req
	}
	p, ok := req.Geometry.Point()
	if !ok {
		return req
	}

	contents, err := source.NearbyContent(ctx, p.Lat, p.Lng, radiusKm)
	if err != nil {
		logger.Warn("content density lookup failed",
			"request_id", req.ID,
			"lat", p.Lat,
			"lng", p.Lng,
			"error", err,
		)
		return req
	}

	req.Contents = append(append([]string(nil), req.Contents...), contents...)
	count := len(req.Contents)
	req.PostCount = &count
	if req.HasHumanitarianPosts == nil {
		has := anyHumanitarian(req.Contents)
		req.HasHumanitarianPosts = &has
	}
	return req
}

func anyHumanitarian(contents []string) bool {
	for _, c := range contents {
		if ContainsHumanitarianKeywords(c) {
			return true
		}
	}
	return false
}
