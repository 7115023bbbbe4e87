package evaldb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-geo/footprint.report/internal/footprint"
)

// Evaluation is a persisted evaluation run for one tile: the configuration
// it was run with, the IoU distribution of its committed matches, and the
// per-partition scores.
type Evaluation struct {
	EvaluationID     string                 `json:"evaluation_id"`
	TileID           string                 `json:"tile_id"`
	TruthPath        string                 `json:"truth_path,omitempty"`
	ProposalPath     string                 `json:"proposal_path,omitempty"`
	MinIoU           float64                `json:"min_iou"`
	ClassField       string                 `json:"class_field,omitempty"`
	SortByConfidence bool                   `json:"sort_by_confidence"`
	Summary          footprint.IoUSummary   `json:"iou_summary"`
	Scores           []footprint.ClassScore `json:"scores,omitempty"`
	CreatedAtNs      int64                  `json:"created_at_ns"`
}

// Store provides persistence for evaluation runs.
type Store struct {
	db *DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Insert persists an evaluation run and its per-class scores in one
// transaction. If EvaluationID is empty, a UUID is generated.
func (s *Store) Insert(eval *Evaluation) error {
	if eval.EvaluationID == "" {
		eval.EvaluationID = uuid.New().String()
	}
	if eval.CreatedAtNs == 0 {
		eval.CreatedAtNs = time.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO evaluations (
				evaluation_id, tile_id, truth_path, proposal_path,
				min_iou, class_field, sort_by_confidence,
				matched_iou_count, matched_iou_mean, matched_iou_stddev, matched_iou_median,
				created_at_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			eval.EvaluationID, eval.TileID, eval.TruthPath, eval.ProposalPath,
			eval.MinIoU, eval.ClassField, eval.SortByConfidence,
			eval.Summary.Count, eval.Summary.Mean, eval.Summary.StdDev, eval.Summary.Median,
			eval.CreatedAtNs,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}

		for _, score := range eval.Scores {
			_, err = tx.Exec(`
				INSERT INTO evaluation_scores (
					evaluation_id, class_id, iou_field,
					true_pos, false_pos, false_neg,
					precision, recall, f1_score
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				eval.EvaluationID, score.ClassID, score.IoUField,
				score.TruePos, score.FalsePos, score.FalseNeg,
				score.Precision, score.Recall, score.F1Score,
			)
			if err != nil {
				return fmt.Errorf("insert score %q: %w", score.ClassID, err)
			}
		}

		return tx.Commit()
	})
}

// Get returns a single evaluation with its scores.
func (s *Store) Get(evaluationID string) (*Evaluation, error) {
	row := s.db.QueryRow(`
		SELECT evaluation_id, tile_id, truth_path, proposal_path,
		       min_iou, class_field, sort_by_confidence,
		       matched_iou_count, matched_iou_mean, matched_iou_stddev, matched_iou_median,
		       created_at_ns
		FROM evaluations
		WHERE evaluation_id = ?`, evaluationID)

	e, err := scanEvaluation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("evaluation %s not found", evaluationID)
		}
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT class_id, iou_field, true_pos, false_pos, false_neg,
		       precision, recall, f1_score
		FROM evaluation_scores
		WHERE evaluation_id = ?
		ORDER BY CASE WHEN class_id = 'all' THEN 0 ELSE 1 END, class_id`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc footprint.ClassScore
		if err := rows.Scan(
			&sc.ClassID, &sc.IoUField, &sc.TruePos, &sc.FalsePos, &sc.FalseNeg,
			&sc.Precision, &sc.Recall, &sc.F1Score,
		); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		e.Scores = append(e.Scores, sc)
	}
	return e, rows.Err()
}

// ListByTile returns evaluation headers (without scores) for a tile,
// newest first.
func (s *Store) ListByTile(tileID string) ([]*Evaluation, error) {
	rows, err := s.db.Query(`
		SELECT evaluation_id, tile_id, truth_path, proposal_path,
		       min_iou, class_field, sort_by_confidence,
		       matched_iou_count, matched_iou_mean, matched_iou_stddev, matched_iou_median,
		       created_at_ns
		FROM evaluations
		WHERE tile_id = ?
		ORDER BY created_at_ns DESC`, tileID)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var evals []*Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// Delete removes an evaluation and its scores.
func (s *Store) Delete(evaluationID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM evaluations WHERE evaluation_id = ?`, evaluationID)
		if err != nil {
			return fmt.Errorf("delete evaluation: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("evaluation %s not found", evaluationID)
		}
		return nil
	})
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (*Evaluation, error) {
	var e Evaluation
	err := row.Scan(
		&e.EvaluationID, &e.TileID, &e.TruthPath, &e.ProposalPath,
		&e.MinIoU, &e.ClassField, &e.SortByConfidence,
		&e.Summary.Count, &e.Summary.Mean, &e.Summary.StdDev, &e.Summary.Median,
		&e.CreatedAtNs,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
