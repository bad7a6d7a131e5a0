package domain

import (
	"encoding/json"
	"fmt"
)

// DetectedPattern is a single advisory produced by a detector.
type DetectedPattern struct {
	ID         PatternID `json:"id"`
	Name       string    `json:"name"`
	NameAr     string    `json:"name_ar"`
	Message    string    `json:"message"`
	MessageAr  string    `json:"message_ar"`
	Confidence float64   `json:"confidence"`
	Metadata   Metadata  `json:"metadata"`
}

// Metadata is the evidence attached to a detection. Each pattern has its
// own concrete type.
type Metadata interface {
	PatternID() PatternID
}

// NetworkBottleneckMetadata backs P1.
type NetworkBottleneckMetadata struct {
	RoadCount     int     `json:"road_count"`
	PrimaryRoads  int     `json:"primary_roads"`
	TotalLengthKm float64 `json:"total_length_km"`
	RadiusKm      float64 `json:"radius_km"`
}

// ServiceCoverageMetadata backs P2.
type ServiceCoverageMetadata struct {
	Governorate string `json:"governorate"`
	Reason      string `json:"reason"`
}

// SpilloverMetadata backs P3.
type SpilloverMetadata struct {
	Governorates []string `json:"governorates"`
}

// AccessDiscontinuityMetadata backs P4.
type AccessDiscontinuityMetadata struct {
	DistanceToAssignedCenter float64 `json:"distance_to_assigned_center"`
	NearestGovernorate       string  `json:"nearest_governorate"`
}

// AidActivityMetadata backs P5.
type AidActivityMetadata struct {
	PostCount            int  `json:"post_count"`
	HasHumanitarianPosts bool `json:"has_humanitarian_posts"`
}

func (NetworkBottleneckMetadata) PatternID() PatternID   { return PatternNetworkBottleneck }
func (ServiceCoverageMetadata) PatternID() PatternID     { return PatternServiceCoverage }
func (SpilloverMetadata) PatternID() PatternID           { return PatternBoundarySpillover }
func (AccessDiscontinuityMetadata) PatternID() PatternID { return PatternAccessDiscontinuity }
func (AidActivityMetadata) PatternID() PatternID         { return PatternAidActivity }

// UnmarshalJSON decodes metadata into the concrete type selected by the
// pattern id.
func (d *DetectedPattern) UnmarshalJSON(data []byte) error {
	type plain DetectedPattern
	aux := struct {
		*plain
		Metadata json.RawMessage `json:"metadata"`
	}{plain: (*plain)(d)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	md, err := decodeMetadata(d.ID, aux.Metadata)
	if err != nil {
		return fmt.Errorf("pattern %s metadata: %w", d.ID, err)
	}
	d.Metadata = md
	return nil
}

func decodeMetadata(id PatternID, raw json.RawMessage) (Metadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch id {
	case PatternNetworkBottleneck:
		return decodeAs[NetworkBottleneckMetadata](raw)
	case PatternServiceCoverage:
		return decodeAs[ServiceCoverageMetadata](raw)
	case PatternBoundarySpillover:
		return decodeAs[SpilloverMetadata](raw)
	case PatternAccessDiscontinuity:
		return decodeAs[AccessDiscontinuityMetadata](raw)
	case PatternAidActivity:
		return decodeAs[AidActivityMetadata](raw)
	default:
		return nil, fmt.Errorf("unknown pattern id %q", id)
	}
}

func decodeAs[M Metadata](raw json.RawMessage) (Metadata, error) {
	var m M
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
