package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/vectorcheck/internal/model"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("run not found")

// Run returns the run record for id.
func (l *Ledger) Run(ctx context.Context, id string) (Run, error) {
	var (
		run     Run
		mode    string
		started int64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, project, circuit_path, mode, started_at
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Project, &run.CircuitPath, &mode, &started)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	run.Mode = model.Mode(mode)
	run.StartedAt = time.Unix(0, started)
	return run, nil
}

// Circuits returns every circuit recorded for a run, ordered by position,
// each with its mismatch rows ordered by line_ref.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (l *Ledger) Circuits(ctx context.Context, runID string) ([]CircuitRecord, error) {
	records, err := l.readCircuits(ctx, runID)
	if err != nil {
		return nil, err
	}

	// The pool holds one connection, so mismatches are read after the
	// circuit cursor is closed.
	byPosition := make(map[int]*CircuitRecord, len(records))
	for i := range records {
		byPosition[records[i].Position] = &records[i]
	}
	if err := l.readMismatches(ctx, runID, byPosition); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *Ledger) readCircuits(ctx context.Context, runID string) ([]CircuitRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT position, circuit, status, total, passed, failed, signals, error_code, error_message, duration_ms
		FROM circuits
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query circuits: %w", err)
	}
	defer rows.Close()

	records := []CircuitRecord{}
	for rows.Next() {
		var (
			rec        CircuitRecord
			status     string
			signals    string
			code       string
			durationMS int64
		)
		if err := rows.Scan(&rec.Position, &rec.Circuit, &status,
			&rec.Counts.Total, &rec.Counts.Passed, &rec.Counts.Failed,
			&signals, &code, &rec.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan circuit: %w", err)
		}
		rec.Status = Status(status)
		rec.ErrorCode = model.ErrorCode(code)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if rec.Signals, err = unmarshalTokens(signals); err != nil {
			return nil, fmt.Errorf("circuit %s: %w", rec.Circuit, err)
		}
		rec.Mismatches = []model.MismatchRow{}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circuits: %w", err)
	}
	return records, nil
}

func (l *Ledger) readMismatches(ctx context.Context, runID string, byPosition map[int]*CircuitRecord) error {
	rows, err := l.db.QueryContext(ctx, `
		SELECT position, line_ref, expected, actual
		FROM mismatches
		WHERE run_id = ?
		ORDER BY position ASC, line_ref ASC
	`, runID)
	if err != nil {
		return fmt.Errorf("query mismatches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position         int
			m                model.MismatchRow
			expected, actual string
		)
		if err := rows.Scan(&position, &m.LineRef, &expected, &actual); err != nil {
			return fmt.Errorf("scan mismatch: %w", err)
		}
		if m.Expected, err = unmarshalTokens(expected); err != nil {
			return err
		}
		if m.Actual, err = unmarshalTokens(actual); err != nil {
			return err
		}
		if rec, ok := byPosition[position]; ok {
			rec.Mismatches = append(rec.Mismatches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate mismatches: %w", err)
	}
	return nil
}

// Tally returns the sum of failed counts across a run's circuits.
func (l *Ledger) Tally(ctx context.Context, runID string) (int, error) {
	var tally int
	err := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(failed), 0) FROM circuits WHERE run_id = ?
	`, runID).Scan(&tally)
	if err != nil {
		return 0, fmt.Errorf("query tally: %w", err)
	}
	return tally, nil
}
