package footprint

import (
	"fmt"
	"testing"

	"github.com/peterstace/simplefeatures/geom"
)

// mustPolygon parses WKT without validation so tests can construct both
// valid and deliberately broken polygons.
func mustPolygon(t *testing.T, wkt string) geom.Polygon {
	t.Helper()
	g, err := geom.UnmarshalWKT(wkt, geom.NoValidate{})
	if err != nil {
		t.Fatalf("parse WKT %q: %v", wkt, err)
	}
	p, ok := g.AsPolygon()
	if !ok {
		t.Fatalf("WKT %q is not a polygon", wkt)
	}
	return p
}

// squareWKT returns the WKT for an axis-aligned square with lower-left
// corner (x, y) and the given side length.
func squareWKT(x, y, side float64) string {
	return fmt.Sprintf("POLYGON((%[1]g %[2]g,%[3]g %[2]g,%[3]g %[4]g,%[1]g %[4]g,%[1]g %[2]g))",
		x, y, x+side, y+side)
}

// squareFeature builds a unit-square feature for matcher and evaluator
// tests.
func squareFeature(t *testing.T, id string, x, y, side float64) Feature {
	t.Helper()
	return Feature{ID: id, Geometry: mustPolygon(t, squareWKT(x, y, side))}
}

func confPtr(v float64) *float64 { return &v }
