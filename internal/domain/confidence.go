package domain

// ConfidenceThreshold is the score below which a detection is suppressed.
const ConfidenceThreshold = 0.6

// Signal weights in percent. Summing integers before dividing keeps a
// perfect score at exactly 1.0.
const (
	weightMatch        = 40
	weightCompleteness = 30
	weightRecency      = 20
	weightTrust        = 10
)

// ConfidenceInputs are the four signals behind a detection score. The
// continuous signals must already lie in [0, 1].
type ConfidenceInputs struct {
	PatternMatch      bool
	DataCompleteness  float64
	TemporalRelevance float64
	SourceTrust       float64
}

// CalculateConfidence combines the inputs with fixed weights. It does not
// clamp.
func CalculateConfidence(in ConfidenceInputs) float64 {
	var match float64
	if in.PatternMatch {
		match = 1
	}
	return (weightMatch*match +
		weightCompleteness*in.DataCompleteness +
		weightRecency*in.TemporalRelevance +
		weightTrust*in.SourceTrust) / 100
}
