package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthpulse/signals/internal/domain"
)

// Repository handles snapshot run persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshot").Logger(),
	}
}

// InsertRun stores one run with its recommendations atomically. The
// UNIQUE(run_id, ticker) constraint is the last line of defense for the
// one-result-per-ticker invariant; a violation aborts the whole run.
func (r *Repository) InsertRun(run *Run, results []domain.ScoreResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshot_runs (id, kind, as_of, params_json, digest, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Kind,
		run.AsOf.UTC().Format(time.RFC3339),
		run.Params,
		run.Digest,
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO snapshot_recommendations (run_id, ticker, segment, action, direction, score, confidence, reasons_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		reasons, err := json.Marshal(res.Reasons)
		if err != nil {
			return fmt.Errorf("failed to encode reasons for %s: %w", res.Ticker, err)
		}
		if _, err := stmt.Exec(run.ID, res.Ticker, res.Segment, string(res.Action), string(res.Direction), res.Score, res.Confidence, string(reasons)); err != nil {
			return fmt.Errorf("failed to insert recommendation for %s: %w", res.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	r.log.Info().
		Str("run_id", run.ID).
		Str("kind", run.Kind).
		Int("results", len(results)).
		Msg("Snapshot run stored")
	return nil
}

// InsertSegments stores the segment assignments produced alongside a run.
func (r *Repository) InsertSegments(runID string, assignments []domain.SegmentAssignment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO segment_assignments (run_id, segment, ticker, strength, score, action, confidence, why, source_kind)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.Exec(runID, string(a.Segment), a.Ticker, a.Strength, a.Score, string(a.Action), a.Confidence, a.Why, a.SourceKind); err != nil {
			return fmt.Errorf("failed to insert segment assignment for %s: %w", a.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit segment assignments: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run of a kind, or nil when none exists.
func (r *Repository) LatestRun(kind string) (*Run, error) {
	row := r.db.QueryRow(
		`SELECT id, kind, as_of, params_json, COALESCE(digest, ''), created_at
		 FROM snapshot_runs WHERE kind = ?
		 ORDER BY as_of DESC, created_at DESC LIMIT 1`, kind)

	var run Run
	var asOf, createdAt string
	err := row.Scan(&run.ID, &run.Kind, &asOf, &run.Params, &run.Digest, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	if run.AsOf, err = time.Parse(time.RFC3339, asOf); err != nil {
		return nil, fmt.Errorf("failed to parse run as_of: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse run created_at: %w", err)
	}
	return &run, nil
}

// RecommendationsForRun returns a run's rows ordered by score then
// confidence descending.
func (r *Repository) RecommendationsForRun(runID string) ([]StoredRecommendation, error) {
	rows, err := r.db.Query(
		`SELECT run_id, ticker, segment, action, direction, score, confidence, reasons_json
		 FROM snapshot_recommendations WHERE run_id = ?
		 ORDER BY score DESC, confidence DESC, ticker ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var out []StoredRecommendation
	for rows.Next() {
		var rec StoredRecommendation
		var action, direction, reasons string
		if err := rows.Scan(&rec.RunID, &rec.Ticker, &rec.Segment, &action, &direction, &rec.Score, &rec.Confidence, &reasons); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.Action = domain.Action(action)
		rec.Direction = domain.Direction(direction)
		rec.Reasons = []byte(reasons)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestSegments returns the segment assignments of the most recent
// fresh-signals run, in stored order.
func (r *Repository) LatestSegments() ([]domain.SegmentAssignment, error) {
	run, err := r.LatestRun(KindFreshSignals)
	if err != nil || run == nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT segment, ticker, strength, score, action, confidence, why, source_kind
		 FROM segment_assignments WHERE run_id = ? ORDER BY id ASC`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.SegmentAssignment
	for rows.Next() {
		var a domain.SegmentAssignment
		var segment, action string
		if err := rows.Scan(&segment, &a.Ticker, &a.Strength, &a.Score, &action, &a.Confidence, &a.Why, &a.SourceKind); err != nil {
			return nil, fmt.Errorf("failed to scan segment assignment: %w", err)
		}
		a.Segment = domain.Segment(segment)
		a.Action = domain.Action(action)
		out = append(out, a)
	}
	return out, rows.Err()
}
