// Package config loads vectorcheck settings: the simulator launch line, the
// project table and the run policy.
//
// Settings start from built-in defaults. A YAML file, if given, is decoded
// over them with unknown keys rejected, and the merged result is checked
// against an embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vectorcheck/internal/model"
	"github.com/roach88/vectorcheck/internal/simulator"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is read when no config path is given and it exists in the
// working directory.
const DefaultFile = "vectorcheck.yaml"

// Error policies for circuits that cannot be validated.
const (
	OnErrorDefer = "defer"
	OnErrorAbort = "abort"
	OnErrorLog   = "log"
)

// Config is the complete set of settings.
type Config struct {
	// Dialect selects the simulator output format: vector_test or raw_table.
	Dialect string `yaml:"dialect"`

	// OnError is the policy for circuits that cannot be validated:
	// defer (run all, report errors at the end), abort or log.
	OnError string `yaml:"on_error"`

	// Jobs is the number of circuits validated in parallel.
	Jobs int `yaml:"jobs"`

	// VectorsDir holds one subdirectory of vector files per project.
	VectorsDir string `yaml:"vectors_dir"`

	// CircuitsDir is searched for the design file when none is given.
	CircuitsDir string `yaml:"circuits_dir"`

	Simulator Simulator `yaml:"simulator"`

	// Projects maps project names to the circuits they contain, in order.
	Projects Projects `yaml:"projects"`
}

// Simulator holds the launch settings.
type Simulator struct {
	Java           string   `yaml:"java"`
	Jar            string   `yaml:"jar"`
	Timeout        string   `yaml:"timeout"`
	MaxOutputBytes int64    `yaml:"max_output_bytes"`
	TestArgs       []string `yaml:"test_args"`
	TableArgs      []string `yaml:"table_args"`
}

// Default returns the built-in settings.
func Default() *Config {
	sim := simulator.DefaultConfig()
	return &Config{
		Dialect:     string(model.ModeVectorTest),
		OnError:     OnErrorDefer,
		Jobs:        1,
		VectorsDir:  "TestVectors",
		CircuitsDir: "TestsRunner",
		Simulator: Simulator{
			Java:           sim.Java,
			Jar:            sim.Jar,
			Timeout:        sim.Timeout.String(),
			MaxOutputBytes: sim.MaxOutputBytes,
			TestArgs:       sim.TestArgs,
			TableArgs:      sim.TableArgs,
		},
		Projects: Projects{
			{Name: "introduction", Circuits: []string{"ztor", "pf4", "tautology", "parity", "ztand"}},
			{Name: "graycode", Circuits: []string{"g2b1", "g2b2", "g2b3", "g2b4"}},
		},
	}
}

// Load returns the settings from path merged over the defaults. An empty
// path loads DefaultFile if it exists and the defaults otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				cfg := Default()
				return cfg, cfg.Validate()
			}
			return nil, fmt.Errorf("failed to stat %s: %w", DefaultFile, err)
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Clean(path), err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings against the schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(c.schemaView())
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("invalid config: simulator.timeout: %w", err)
	}
	return nil
}

// schemaView is the settings as plain maps and lists, keyed like the YAML.
func (c *Config) schemaView() map[string]any {
	projects := make(map[string]any, len(c.Projects))
	for _, p := range c.Projects {
		projects[p.Name] = p.Circuits
	}
	return map[string]any{
		"dialect":      c.Dialect,
		"on_error":     c.OnError,
		"jobs":         c.Jobs,
		"vectors_dir":  c.VectorsDir,
		"circuits_dir": c.CircuitsDir,
		"simulator": map[string]any{
			"java":             c.Simulator.Java,
			"jar":              c.Simulator.Jar,
			"timeout":          c.Simulator.Timeout,
			"max_output_bytes": c.Simulator.MaxOutputBytes,
			"test_args":        c.Simulator.TestArgs,
			"table_args":       c.Simulator.TableArgs,
		},
		"projects": projects,
	}
}

// Mode returns the configured dialect.
func (c *Config) Mode() (model.Mode, error) {
	return model.ParseMode(c.Dialect)
}

// Timeout returns the parsed simulator timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Simulator.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// SimulatorConfig returns the launch settings for simulator.New.
func (c *Config) SimulatorConfig() (simulator.Config, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return simulator.Config{}, fmt.Errorf("simulator.timeout: %w", err)
	}
	return simulator.Config{
		Java:           c.Simulator.Java,
		Jar:            c.Simulator.Jar,
		Timeout:        timeout,
		MaxOutputBytes: c.Simulator.MaxOutputBytes,
		TestArgs:       append([]string(nil), c.Simulator.TestArgs...),
		TableArgs:      append([]string(nil), c.Simulator.TableArgs...),
	}, nil
}

// VectorDir returns the directory holding project's vector files.
func (c *Config) VectorDir(project string) string {
	return filepath.Join(c.VectorsDir, project)
}
