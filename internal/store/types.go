package store

import (
	"time"

	"github.com/roach88/vectorcheck/internal/model"
)

// Status is a circuit's outcome.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// Run identifies one RunProject call.
type Run struct {
	ID          string     `json:"id"`
	Project     string     `json:"project"`
	CircuitPath string     `json:"circuit_path"`
	Mode        model.Mode `json:"mode"`
	StartedAt   time.Time  `json:"started_at"`
}

// CircuitRecord is one circuit's row in the ledger.
type CircuitRecord struct {
	// Position is the circuit's index in the project list.
	Position int    `json:"position"`
	Circuit  string `json:"circuit"`
	Status   Status `json:"status"`

	Counts     model.AggregateCounts `json:"counts"`
	Signals    []string              `json:"signals"`
	Mismatches []model.MismatchRow   `json:"mismatches"`

	ErrorCode model.ErrorCode `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}
