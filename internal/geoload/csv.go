package geoload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/kestrel-geo/footprint.report/internal/footprint"
)

// LoadCSV reads a tabular file (one row per polygon, geometry as a WKT
// column) into a FeatureSet, preserving row order.
func LoadCSV(path string, opts Options) (footprint.FeatureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fs, err := ParseCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fs, nil
}

// ParseCSV parses CSV rows with a header line into a FeatureSet. The
// geometry column (Options.GeometryField, default "geometry") must hold
// WKT POLYGON or MULTIPOLYGON text.
func ParseCSV(r io.Reader, opts Options) (footprint.FeatureSet, error) {
	geomField := opts.GeometryField
	if geomField == "" {
		geomField = DefaultGeometryField
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	geomCol, ok := col[geomField]
	if !ok {
		return nil, fmt.Errorf("geometry column %q not found in header", geomField)
	}

	cell := func(row []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	var out footprint.FeatureSet
	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		g, err := geom.UnmarshalWKT(row[geomCol], geom.NoValidate{})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		var id any
		if opts.IDField != "" {
			if v, ok := cell(row, opts.IDField); ok && v != "" {
				id = v
			}
		}

		var class string
		if opts.ClassField != "" {
			class, _ = cell(row, opts.ClassField)
		}

		var conf *float64
		for _, cf := range opts.ConfFields {
			if v, ok := cell(row, cf); ok {
				if conf = parseConfidence(v); conf != nil {
					break
				}
			}
		}

		features, err := featuresFromGeometry(g, resolveID(id), class, conf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		out = append(out, features...)
	}
	return out, nil
}
