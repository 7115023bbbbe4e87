// Package main provides the tile evaluation tool. It loads a ground-truth
// and a proposal polygon collection for one image tile, runs the IoU
// matching engine, and reports per-class precision/recall/F1.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrel-geo/footprint.report/internal/evaldb"
	"github.com/kestrel-geo/footprint.report/internal/footprint"
	"github.com/kestrel-geo/footprint.report/internal/geoload"
)

// Config holds the command-line configuration.
type Config struct {
	TruthFile     string
	ProposalFile  string
	Format        string
	MinIoU        float64
	IDField       string
	GeometryField string
	ClassField    string
	ConfFields    string
	ClassScores   bool
	SortByConf    bool
	OutputJSON    string
	DBPath        string
	MigrationsDir string
	TileID        string
	Verbose       bool
}

// Output is the JSON-exportable result of one run.
type Output struct {
	TileID       string                 `json:"tile_id,omitempty"`
	TruthFile    string                 `json:"truth_file"`
	ProposalFile string                 `json:"proposal_file"`
	MinIoU       float64                `json:"min_iou"`
	GroundTruths int                    `json:"ground_truths"`
	Proposals    int                    `json:"proposals"`
	Scores       []footprint.ClassScore `json:"scores"`
	MatchedIoUs  footprint.IoUSummary   `json:"matched_iou_summary"`
}

func main() {
	cfg := parseFlags()

	if cfg.TruthFile == "" || cfg.ProposalFile == "" {
		log.Fatal("both -truth and -proposals are required")
	}

	opts := geoload.Options{
		IDField:       cfg.IDField,
		GeometryField: cfg.GeometryField,
		ClassField:    cfg.ClassField,
		ConfFields:    splitFields(cfg.ConfFields),
	}

	groundTruth, err := loadFeatures(cfg.TruthFile, cfg.Format, opts)
	if err != nil {
		log.Fatalf("Failed to load ground truth: %v", err)
	}
	proposals, err := loadFeatures(cfg.ProposalFile, cfg.Format, opts)
	if err != nil {
		log.Fatalf("Failed to load proposals: %v", err)
	}
	log.Printf("Loaded %d ground-truth and %d proposal polygons", len(groundTruth), len(proposals))

	evalCfg := footprint.EvalConfig{
		MinIoU:               cfg.MinIoU,
		CalculateClassScores: cfg.ClassScores,
		ClassField:           cfg.ClassField,
		ConfFields:           opts.ConfFields,
		SortByConfidence:     cfg.SortByConf,
	}
	if cfg.Verbose {
		evalCfg.Progress = func(done, total int) {
			if done%500 == 0 || done == total {
				log.Printf("Matched %d/%d proposals", done, total)
			}
		}
	}

	result, err := footprint.Evaluate(groundTruth, proposals, evalCfg)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out := Output{
		TileID:       cfg.TileID,
		TruthFile:    cfg.TruthFile,
		ProposalFile: cfg.ProposalFile,
		MinIoU:       cfg.MinIoU,
		GroundTruths: len(groundTruth),
		Proposals:    len(proposals),
		Scores:       result.Scores,
		MatchedIoUs:  result.Summary,
	}
	printResults(out)

	if cfg.OutputJSON != "" {
		if err := exportJSON(out, cfg.OutputJSON); err != nil {
			log.Printf("Warning: failed to export JSON: %v", err)
		} else {
			log.Printf("Results exported to: %s", cfg.OutputJSON)
		}
	}

	if cfg.DBPath != "" {
		if err := persistResults(cfg, result); err != nil {
			log.Fatalf("Failed to persist results: %v", err)
		}
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.TruthFile, "truth", "", "Path to ground-truth polygons (GeoJSON or CSV)")
	flag.StringVar(&cfg.ProposalFile, "proposals", "", "Path to proposal polygons (GeoJSON or CSV)")
	flag.StringVar(&cfg.Format, "format", "auto", "Input format: auto, geojson, csv")
	flag.Float64Var(&cfg.MinIoU, "miniou", 0.5, "Minimum IoU for a proposal to count as a match")
	flag.StringVar(&cfg.IDField, "id-field", "", "Attribute holding feature ids (generated when absent)")
	flag.StringVar(&cfg.GeometryField, "geometry-column", "", "CSV column holding WKT geometry (default: geometry)")
	flag.StringVar(&cfg.ClassField, "class-field", "", "Attribute holding class labels")
	flag.StringVar(&cfg.ConfFields, "conf-fields", "", "Comma-separated attributes holding confidence scores")
	flag.BoolVar(&cfg.ClassScores, "class-scores", false, "Additionally compute per-class score breakdowns")
	flag.BoolVar(&cfg.SortByConf, "sort-confidence", false, "Process proposals in descending confidence order")
	flag.StringVar(&cfg.OutputJSON, "json", "", "Output JSON filename (e.g., results.json)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database to persist results into")
	flag.StringVar(&cfg.MigrationsDir, "migrations", "db/migrations", "Migrations directory for the results database")
	flag.StringVar(&cfg.TileID, "tile", "", "Tile identifier recorded with persisted results")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Log matching progress")

	flag.Parse()
	return cfg
}

// loadFeatures dispatches on the configured or inferred input format.
func loadFeatures(path, format string, opts geoload.Options) (footprint.FeatureSet, error) {
	if format == "auto" {
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = "csv"
		} else {
			format = "geojson"
		}
	}
	switch format {
	case "geojson":
		return geoload.LoadGeoJSON(path, opts)
	case "csv":
		return geoload.LoadCSV(path, opts)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func printResults(out Output) {
	fmt.Printf("\n=== Evaluation Results (miniou=%.2f) ===\n\n", out.MinIoU)
	fmt.Printf("%-16s %8s %8s %8s %10s %10s %10s\n",
		"CLASS", "TP", "FP", "FN", "PRECISION", "RECALL", "F1")
	for _, s := range out.Scores {
		fmt.Printf("%-16s %8d %8d %8d %10.4f %10.4f %10.4f\n",
			s.ClassID, s.TruePos, s.FalsePos, s.FalseNeg,
			s.Precision, s.Recall, s.F1Score)
	}
	if out.MatchedIoUs.Count > 0 {
		fmt.Printf("\nMatched IoU: n=%d mean=%.4f stddev=%.4f median=%.4f min=%.4f max=%.4f\n",
			out.MatchedIoUs.Count, out.MatchedIoUs.Mean, out.MatchedIoUs.StdDev,
			out.MatchedIoUs.Median, out.MatchedIoUs.Min, out.MatchedIoUs.Max)
	}
	fmt.Println()
}

func exportJSON(out Output, path string) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func persistResults(cfg Config, result *footprint.Result) error {
	db, err := evaldb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.MigrateUp(cfg.MigrationsDir); err != nil {
		return err
	}

	store := evaldb.NewStore(db)
	eval := &evaldb.Evaluation{
		TileID:           cfg.TileID,
		TruthPath:        cfg.TruthFile,
		ProposalPath:     cfg.ProposalFile,
		MinIoU:           cfg.MinIoU,
		ClassField:       cfg.ClassField,
		SortByConfidence: cfg.SortByConf,
		Summary:          result.Summary,
		Scores:           result.Scores,
	}
	if err := store.Insert(eval); err != nil {
		return err
	}
	log.Printf("Persisted evaluation %s", eval.EvaluationID)
	return nil
}
