// Package geoload parses GeoJSON and tabular (CSV with WKT geometry)
// sources into footprint.FeatureSet collections.
//
// The loader is a collaborator of the scoring engine, not part of it: it
// owns attribute extraction (ids, class labels, confidence fields) and is
// responsible for both sets sharing a planar coordinate system before the
// engine runs. Geometries are parsed without validation so that validity
// problems surface at IoU-computation time, where the engine reports them
// against the offending pairing.
package geoload

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/kestrel-geo/footprint.report/internal/footprint"
)

// DefaultGeometryField is the tabular column read as WKT geometry when
// Options.GeometryField is unset.
const DefaultGeometryField = "geometry"

// Options selects which source attributes become feature metadata.
type Options struct {
	// IDField names the property/column holding the feature identifier.
	// Features without one get a generated UUID.
	IDField string

	// GeometryField names the CSV column holding WKT geometry. Defaults to
	// DefaultGeometryField. Ignored for GeoJSON.
	GeometryField string

	// ClassField names the property/column read as the class label.
	ClassField string

	// ConfFields names the properties/columns treated as confidence
	// scores; the first one present on a record wins.
	ConfFields []string
}

// featuresFromGeometry converts a parsed geometry into one or more
// features. Polygons map one-to-one; MultiPolygons are split into one
// feature per member polygon with a "/n" id suffix, since the engine
// matches individual footprint instances.
func featuresFromGeometry(g geom.Geometry, id, class string, conf *float64) ([]footprint.Feature, error) {
	if p, ok := g.AsPolygon(); ok {
		return []footprint.Feature{{ID: id, Geometry: p, ClassLabel: class, Confidence: conf}}, nil
	}
	if mp, ok := g.AsMultiPolygon(); ok {
		out := make([]footprint.Feature, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			out = append(out, footprint.Feature{
				ID:         fmt.Sprintf("%s/%d", id, i+1),
				Geometry:   mp.PolygonN(i),
				ClassLabel: class,
				Confidence: conf,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("feature %q: unsupported geometry type %s", id, g.Type())
}

// resolveID normalises a raw id value, generating a UUID when absent.
func resolveID(raw any) string {
	switch v := raw.(type) {
	case nil:
		return uuid.New().String()
	case string:
		if v == "" {
			return uuid.New().String()
		}
		return v
	case float64:
		// JSON numbers decode as float64; integral ids are the common case.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// parseConfidence interprets a raw attribute value as a confidence score.
func parseConfidence(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}
