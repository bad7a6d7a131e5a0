package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// nameProperties lists the feature properties tried, in order, for a
// governorate's name. NAME_1 is the GADM level-1 convention.
var nameProperties = []string{"name", "name_en", "NAME_1"}

// LoadGovernoratesFile reads a GeoJSON FeatureCollection of governorate
// boundaries (or centers) from disk.
func LoadGovernoratesFile(path string) ([]Governorate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open governorates: %w", err)
	}
	defer f.Close()
	return LoadGovernorates(f)
}

// LoadGovernorates parses a GeoJSON FeatureCollection. Features without a
// name are skipped.
func LoadGovernorates(r io.Reader) ([]Governorate, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read governorates: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode governorates: %w", err)
	}

	govs := make([]Governorate, 0, len(fc.Features))
	for _, f := range fc.Features {
		name := featureName(f.Properties)
		if name == "" {
			continue
		}
		g, err := FromOrb(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("governorate %q: %w", name, err)
		}
		govs = append(govs, Governorate{Name: name, Geometry: g})
	}
	return govs, nil
}

// FromOrb converts an orb geometry into the kernel's raw representation.
func FromOrb(g orb.Geometry) (*Geometry, error) {
	if g == nil {
		return nil, nil
	}
	raw, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	var out Geometry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return &out, nil
}

func featureName(props geojson.Properties) string {
	for _, key := range nameProperties {
		if name := props.MustString(key, ""); name != "" {
			return name
		}
	}
	return ""
}
