// Package footprint is the matching and scoring engine for polygon
// detection benchmarks.
//
// Given a proposal set and a ground-truth set for one image tile, it
// computes a one-to-one greedy correspondence between proposals and
// ground-truth footprints using an IoU threshold, and aggregates the
// outcome into per-class and overall precision/recall/F1 statistics.
//
// Responsibilities: spatial candidate pruning, pairwise polygon IoU,
// greedy matching with at-most-once ground-truth consumption, and score
// aggregation. Parsing of GeoJSON/CSV sources lives in internal/geoload;
// persistence of results lives in internal/evaldb. No SQL/database code
// is allowed in this package.
package footprint
