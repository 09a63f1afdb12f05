package store

import (
	"context"
	"fmt"
)

// BeginRun inserts a run record. Circuits can only be recorded against a
// run that exists.
func (l *Ledger) BeginRun(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, project, circuit_path, mode, started_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Project,
		run.CircuitPath,
		string(run.Mode),
		run.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordCircuit inserts a circuit outcome and its mismatch rows in one
// transaction. Recording the same position twice is an error.
func (l *Ledger) RecordCircuit(ctx context.Context, runID string, rec CircuitRecord) (err error) {
	signals, err := marshalTokens(rec.Signals)
	if err != nil {
		return fmt.Errorf("record circuit: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record circuit: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO circuits
		(run_id, position, circuit, status, total, passed, failed, signals, error_code, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		rec.Position,
		rec.Circuit,
		string(rec.Status),
		rec.Counts.Total,
		rec.Counts.Passed,
		rec.Counts.Failed,
		signals,
		string(rec.ErrorCode),
		rec.Error,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record circuit %s: %w", rec.Circuit, err)
	}

	for _, m := range rec.Mismatches {
		expected, err := marshalTokens(m.Expected)
		if err != nil {
			return fmt.Errorf("record circuit %s: %w", rec.Circuit, err)
		}
		actual, err := marshalTokens(m.Actual)
		if err != nil {
			return fmt.Errorf("record circuit %s: %w", rec.Circuit, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mismatches (run_id, position, line_ref, expected, actual)
			VALUES (?, ?, ?, ?, ?)
		`, runID, rec.Position, m.LineRef, expected, actual)
		if err != nil {
			return fmt.Errorf("record mismatch %s line %d: %w", rec.Circuit, m.LineRef, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record circuit: commit: %w", err)
	}
	return nil
}
