package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vectorcheck/internal/model"
)

// Scenario describes a project run against a scripted simulator. Scenarios
// exercise the whole pipeline (vector loading, parsing, reconciliation,
// reporting, tally and ledger) without launching the real simulator.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect is vector_test (default) or raw_table.
	Dialect string `yaml:"dialect,omitempty"`

	// Policy is defer (default), abort or log.
	Policy string `yaml:"policy,omitempty"`

	// Jobs is the number of circuits validated at once. Default 1.
	Jobs int `yaml:"jobs,omitempty"`

	// Project names the project. Default "scenario".
	Project string `yaml:"project,omitempty"`

	// RunID fixes the run ID for deterministic output. Default "run-1".
	RunID string `yaml:"run_id,omitempty"`

	// Circuits are run in order.
	Circuits []CircuitStep `yaml:"circuits"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// CircuitStep is one circuit with its vector file and scripted simulator
// output.
type CircuitStep struct {
	Name string `yaml:"name"`

	// Vector is the vector file content. If nil no file is written.
	Vector *string `yaml:"vector,omitempty"`

	Stdout   string `yaml:"stdout,omitempty"`
	Stderr   string `yaml:"stderr,omitempty"`
	ExitCode int    `yaml:"exit_code,omitempty"`
}

// Assertion validates one aspect of a scenario run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "tally": the run tally equals Count
	// - "status": Circuit ended with Status (pass, fail, error, skipped)
	// - "error_code": Circuit failed with error Code
	// - "mismatch": Circuit has a mismatch row at LineRef with Expected and Actual
	// - "ran": the simulator was invoked for exactly Circuits, in any order
	Type string `yaml:"type"`

	Circuit  string   `yaml:"circuit,omitempty"`
	Count    int      `yaml:"count,omitempty"`
	Status   string   `yaml:"status,omitempty"`
	Code     string   `yaml:"code,omitempty"`
	LineRef  int      `yaml:"line_ref,omitempty"`
	Expected []string `yaml:"expected,omitempty"`
	Actual   []string `yaml:"actual,omitempty"`
	Circuits []string `yaml:"circuits,omitempty"`
}

// Assertion type constants.
const (
	AssertTally     = "tally"
	AssertStatus    = "status"
	AssertErrorCode = "error_code"
	AssertMismatch  = "mismatch"
	AssertRan       = "ran"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Dialect != "" {
		if _, err := model.ParseMode(s.Dialect); err != nil {
			return err
		}
	}

	if s.Policy != "" {
		if _, err := ParsePolicy(s.Policy); err != nil {
			return err
		}
	}

	if s.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}

	if len(s.Circuits) == 0 {
		return fmt.Errorf("circuits list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, c := range s.Circuits {
		if c.Name == "" {
			return fmt.Errorf("circuits[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("circuits[%d]: duplicate circuit %q", i, c.Name)
		}
		seen[c.Name] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTally:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must not be negative", index)
		}
	case AssertStatus:
		if a.Circuit == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: circuit and status are required for status", index)
		}
	case AssertErrorCode:
		if a.Circuit == "" || a.Code == "" {
			return fmt.Errorf("assertions[%d]: circuit and code are required for error_code", index)
		}
	case AssertMismatch:
		if a.Circuit == "" || a.LineRef <= 0 {
			return fmt.Errorf("assertions[%d]: circuit and line_ref are required for mismatch", index)
		}
	case AssertRan:
		// An empty list asserts that the simulator never ran.
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}

	return nil
}
