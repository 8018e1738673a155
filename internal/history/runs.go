package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Counts summarizes the outcomes of a run.
type Counts struct {
	Created   int `json:"created"`
	Added     int `json:"added"`
	Noop      int `json:"noop"`
	Unmatched int `json:"unmatched"`
}

// Run is one row of the run ledger.
type Run struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Status          Status    `json:"status"`
	DryRun          bool      `json:"dry_run"`
	FailureCategory string    `json:"failure_category,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	LogPath         string    `json:"log_path,omitempty"`
	Counts          Counts    `json:"counts"`
}

// Duration returns how long a finished run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Mutation is a change a run applied to the target library.
type Mutation struct {
	RunID        string    `json:"run_id"`
	Kind         string    `json:"kind"`
	Collection   string    `json:"collection"`
	CollectionID string    `json:"collection_id,omitempty"`
	RatingKey    string    `json:"rating_key,omitempty"`
	MovieTitle   string    `json:"movie_title,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
}

// Outcome is the final state recorded by FinishRun.
type Outcome struct {
	Status          Status
	FailureCategory string
	ErrorMessage    string
	Counts          Counts
	FinishedAt      time.Time
}

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, started_at, status, dry_run, log_path) VALUES (?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), string(StatusRunning), boolToInt(run.DryRun), nullableString(run.LogPath),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordMutations appends applied mutations to a run in one transaction.
func (s *Store) RecordMutations(ctx context.Context, runID string, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin mutation tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO mutations
			(run_id, kind, collection, collection_id, rating_key, movie_title, applied_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare mutation insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range mutations {
			appliedAt := m.AppliedAt
			if appliedAt.IsZero() {
				appliedAt = time.Now()
			}
			if _, err := stmt.ExecContext(ctx, runID, m.Kind, m.Collection,
				nullableString(m.CollectionID), nullableString(m.RatingKey), nullableString(m.MovieTitle),
				formatTime(appliedAt)); err != nil {
				return fmt.Errorf("insert mutation: %w", err)
			}
		}
		return tx.Commit()
	})
}

// FinishRun stores the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome Outcome) error {
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now()
	}
	res, err := s.execWithRetry(ctx, `UPDATE runs SET
			finished_at = ?, status = ?, failure_category = ?, error_message = ?,
			created_count = ?, added_count = ?, noop_count = ?, unmatched_count = ?
		WHERE id = ?`,
		formatTime(outcome.FinishedAt), string(outcome.Status),
		nullableString(outcome.FailureCategory), nullableString(outcome.ErrorMessage),
		outcome.Counts.Created, outcome.Counts.Added, outcome.Counts.Noop, outcome.Counts.Unmatched,
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, dry_run, failure_category, error_message, log_path,
	created_count, added_count, noop_count, unmatched_count`

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Mutations returns the mutations recorded for a run in applied order.
func (s *Store) Mutations(ctx context.Context, runID string) ([]Mutation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, kind, collection, collection_id, rating_key, movie_title, applied_at
		FROM mutations WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	var out []Mutation
	for rows.Next() {
		var (
			m                                   Mutation
			collectionID, ratingKey, movieTitle sql.NullString
			appliedAt                           string
		)
		if err := rows.Scan(&m.RunID, &m.Kind, &m.Collection, &collectionID, &ratingKey, &movieTitle, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		m.CollectionID = collectionID.String
		m.RatingKey = ratingKey.String
		m.MovieTitle = movieTitle.String
		m.AppliedAt = parseTime(appliedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                    Run
		startedAt, status                      string
		finishedAt, category, message, logPath sql.NullString
		dryRun                                 int
	)
	if err := row.Scan(&run.ID, &startedAt, &finishedAt, &status, &dryRun, &category, &message, &logPath,
		&run.Counts.Created, &run.Counts.Added, &run.Counts.Noop, &run.Counts.Unmatched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	run.Status = Status(status)
	run.DryRun = dryRun != 0
	run.FailureCategory = category.String
	run.ErrorMessage = message.String
	run.LogPath = logPath.String
	return run, nil
}

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
