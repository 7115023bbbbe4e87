package geoload

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/kestrel-geo/footprint.report/internal/footprint"
)

// geoJSONFeature mirrors the GeoJSON Feature envelope. The geometry is
// kept raw so it can be parsed without validation.
type geoJSONFeature struct {
	Type       string          `json:"type"`
	ID         any             `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// geoJSONCollection mirrors a GeoJSON FeatureCollection envelope.
type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// LoadGeoJSON reads a GeoJSON FeatureCollection file into a FeatureSet,
// preserving feature order.
func LoadGeoJSON(path string, opts Options) (footprint.FeatureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fs, err := ParseGeoJSON(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fs, nil
}

// ParseGeoJSON parses GeoJSON FeatureCollection bytes into a FeatureSet.
// Polygon and MultiPolygon geometries are accepted; anything else is an
// error naming the offending feature.
func ParseGeoJSON(data []byte, opts Options) (footprint.FeatureSet, error) {
	var fc geoJSONCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	var out footprint.FeatureSet
	for i, f := range fc.Features {
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			return nil, fmt.Errorf("feature %d: missing geometry", i)
		}
		g, err := geom.UnmarshalGeoJSON(f.Geometry, geom.NoValidate{})
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		id := f.ID
		if id == nil && opts.IDField != "" {
			id = f.Properties[opts.IDField]
		}

		var class string
		if opts.ClassField != "" {
			if v, ok := f.Properties[opts.ClassField]; ok && v != nil {
				class = fmt.Sprint(v)
			}
		}

		var conf *float64
		for _, cf := range opts.ConfFields {
			if v, ok := f.Properties[cf]; ok {
				if conf = parseConfidence(v); conf != nil {
					break
				}
			}
		}

		features, err := featuresFromGeometry(g, resolveID(id), class, conf)
		if err != nil {
			return nil, err
		}
		out = append(out, features...)
	}
	return out, nil
}
