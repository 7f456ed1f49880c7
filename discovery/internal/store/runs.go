package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a run or graph does not exist.
var ErrNotFound = errors.New("store: not found")

// Run is one discovery run's record.
type Run struct {
	ID               string     `json:"id"`
	BaseURL          string     `json:"base_url"`
	Strategy         string     `json:"strategy"`
	Status           string     `json:"status"`
	RootState        string     `json:"root_state"`
	States           int        `json:"states"`
	Transitions      int        `json:"transitions"`
	ActionsAttempted int        `json:"actions_attempted"`
	ActionsFailed    int        `json:"actions_failed"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// CreateRun records the start of a run.
func (s *Store) CreateRun(ctx context.Context, r *Run) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO runs (id, base_url, strategy, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.BaseURL, r.Strategy, r.Status, r.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: create run: %w", err)
	}
	return nil
}

// FinishRun records the final status and counters of a run.
func (s *Store) FinishRun(ctx context.Context, r *Run) error {
	var finished any
	if r.FinishedAt != nil {
		finished = r.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE runs SET status = ?, root_state = ?, states = ?, transitions = ?,
			actions_attempted = ?, actions_failed = ?, finished_at = ?, error = ?
		WHERE id = ?`,
		r.Status, r.RootState, r.States, r.Transitions,
		r.ActionsAttempted, r.ActionsFailed, finished, r.Error, r.ID)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: finish run %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, base_url, strategy, status, root_state, states, transitions,
			actions_attempted, actions_failed, started_at, finished_at, error
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns runs ordered by start time, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, base_url, strategy, status, root_state, states, transitions,
			actions_attempted, actions_failed, started_at, finished_at, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var started string
	var finished sql.NullString
	err := row.Scan(&r.ID, &r.BaseURL, &r.Strategy, &r.Status, &r.RootState,
		&r.States, &r.Transitions, &r.ActionsAttempted, &r.ActionsFailed,
		&started, &finished, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("store: parse started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, fmt.Errorf("store: parse finished_at: %w", err)
		}
		r.FinishedAt = &t
	}
	return &r, nil
}

// SaveGraph stores the serialized graph document produced by a run.
func (s *Store) SaveGraph(ctx context.Context, runID, baseURL, document string, states, transitions int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO graphs (run_id, base_url, document, state_count, transition_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			document = excluded.document,
			state_count = excluded.state_count,
			transition_count = excluded.transition_count,
			created_at = excluded.created_at`,
		runID, baseURL, document, states, transitions,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: save graph: %w", err)
	}
	return nil
}

// GetGraph returns the serialized graph for a run.
func (s *Store) GetGraph(ctx context.Context, runID string) (string, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx,
		`SELECT document FROM graphs WHERE run_id = ?`, runID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get graph: %w", err)
	}
	return doc, nil
}

// LatestGraph returns the most recently stored graph for a base URL,
// used to seed the next run.
func (s *Store) LatestGraph(ctx context.Context, baseURL string) (string, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx, `
		SELECT document FROM graphs WHERE base_url = ?
		ORDER BY created_at DESC LIMIT 1`, baseURL).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: latest graph: %w", err)
	}
	return doc, nil
}
