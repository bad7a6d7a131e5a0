// Package domain detects spatial patterns in geographic reports and turns
// them into hedged, bilingual advisories.
//
// # Patterns
//
// Five rule-based patterns are defined in the [Registry]:
//
//	P1 Network Bottleneck       few or no primary roads within 15 km (road network lookup)
//	P2 Service Coverage         point falls in a large, sparsely surveyed governorate
//	P3 Cross-Boundary           geometry overlaps two or more governorates
//	P4 Access Discontinuity     assigned center is far (>50 km) while another is near (<30 km)
//	P5 Aid Activity             fewer than five nearby posts and none humanitarian
//
// P2, P3 and P4 need only the geometry and the governorate collection and run
// synchronously in [Detector.DetectPatterns]. P1 and P5 depend on external
// lookups (road network, content density) and run concurrently in
// [Detector.DetectPatternsAsync]. Callers on a latency-sensitive path can
// show the synchronous results first and merge the asynchronous ones later;
// [Detector.Detect] does both and ranks the union.
//
// # Confidence
//
// Every detector scores its result with [CalculateConfidence]:
//
//	confidence = 0.40 * match + 0.30 * completeness + 0.20 * recency + 0.10 * trust
//
// match is binary. completeness and trust are fixed per pattern, recency
// comes from [geo.TemporalRelevance]. A detection scoring below
// [ConfidenceThreshold] (0.6) is dropped rather than reported with low
// confidence.
//
// # Failure model
//
// Detectors never return errors. Malformed geometry, disabled patterns,
// failed road lookups and panics inside a detector all collapse to "no
// detection"; failures are logged, never surfaced to the consumer.
//
// # Messages
//
// Pattern messages are advisory. Every English and Arabic message is phrased
// with hedging language ("may", "could", "question") and never asserts a
// finding as fact.
package domain
