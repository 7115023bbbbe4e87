package footprint

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// iouIdentityTolerance bounds the numerical error accepted when two
// polygons share boundaries. Identical inputs must score 1.0 within this
// tolerance.
const iouIdentityTolerance = 1e-9

// CheckPolygon verifies that p can support area computation. It returns an
// *InvalidGeometryError (with an empty ID; callers fill it in) when the
// polygon is empty, self-intersecting, or has zero area.
func CheckPolygon(p geom.Polygon) error {
	if p.IsEmpty() {
		return &InvalidGeometryError{Reason: "empty polygon"}
	}
	if err := p.Validate(); err != nil {
		return &InvalidGeometryError{Reason: err.Error()}
	}
	if p.Area() == 0 {
		return &InvalidGeometryError{Reason: "zero-area polygon"}
	}
	return nil
}

// PolygonIoU computes area(a ∩ b) / area(a ∪ b) for two valid polygons,
// with 0/0 defined as 0. Both inputs must have passed CheckPolygon; the
// overlay itself can still fail on pathological inputs, in which case the
// error is returned unmodified for the caller to surface.
func PolygonIoU(a, b geom.Polygon) (float64, error) {
	ga := a.AsGeometry()
	gb := b.AsGeometry()

	inter, err := geom.Intersection(ga, gb)
	if err != nil {
		return 0, fmt.Errorf("polygon intersection: %w", err)
	}
	interArea := inter.Area()
	if interArea == 0 {
		return 0, nil
	}

	union, err := geom.Union(ga, gb)
	if err != nil {
		return 0, fmt.Errorf("polygon union: %w", err)
	}
	unionArea := union.Area()
	if unionArea == 0 {
		return 0, nil
	}

	iou := interArea / unionArea

	// Clamp floating-point spill so shared-boundary cases stay inside [0, 1].
	if iou > 1 {
		if iou > 1+iouIdentityTolerance {
			return 0, fmt.Errorf("iou %v outside [0, 1]", iou)
		}
		iou = 1
	}
	return iou, nil
}
