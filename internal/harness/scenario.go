package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qrelax/internal/engine"
)

// Scenario defines a conformance test scenario: one repair over a fixture
// graph and the outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the path of the YAML graph fixture.
	// Relative paths are resolved against the scenario file location.
	Graph string `yaml:"graph"`

	// Workload is the path of the CUE workload file or package directory.
	// Relative paths are resolved against the scenario file location.
	Workload string `yaml:"workload"`

	// Query names the workload query to repair.
	Query string `yaml:"query"`

	// Strategy is naive, smart or mbs. Empty means smart.
	Strategy string `yaml:"strategy,omitempty"`

	// K is the number of results wanted. Values below 1 mean 1.
	K int `yaml:"k,omitempty"`

	// K0 is the failure threshold.
	K0 int `yaml:"k0,omitempty"`

	// MaxRounds overrides the engine's round quota when set.
	MaxRounds *int `yaml:"max_rounds,omitempty"`

	// RequestID is embedded in the report. If empty, defaults to
	// "test-request-default".
	RequestID string `yaml:"request_id,omitempty"`

	// Expect is checked against the report.
	Expect Expectation `yaml:"expect"`
}

// Expectation describes the report a scenario must produce. Only the
// fields that are set are checked, except Outcome which is required.
type Expectation struct {
	// Outcome is "satisfied" or "exhausted".
	Outcome string `yaml:"outcome"`

	// MFS lists the minimal failing subqueries by condition label,
	// in any order.
	MFS [][]string `yaml:"mfs,omitempty"`

	// XSS lists the maximal succeeding subqueries by condition label,
	// in any order.
	XSS [][]string `yaml:"xss,omitempty"`

	// Accepted lists the accepted queries in acceptance order.
	Accepted []AcceptedExpectation `yaml:"accepted,omitempty"`

	// Results lists bindings that must appear among the results. Values
	// use the fixture term syntax and may use workload prefixes. A row
	// matches when every listed variable is bound to the listed term.
	Results []map[string]string `yaml:"results,omitempty"`

	// ResultCount is the exact number of results.
	ResultCount *int `yaml:"result_count,omitempty"`

	// Pruned is the exact number of candidates skipped without a probe.
	Pruned *int64 `yaml:"pruned,omitempty"`
}

// AcceptedExpectation describes one accepted query.
type AcceptedExpectation struct {
	// Origin is original, relaxed or fallback.
	Origin string `yaml:"origin"`

	// Kept lists the labels of conditions accepted unchanged.
	Kept []string `yaml:"kept,omitempty"`

	// Relaxed lists the labels of the conditions that were relaxed.
	Relaxed []string `yaml:"relaxed,omitempty"`

	// Similarity is compared with a tolerance of 1e-4.
	Similarity *float64 `yaml:"similarity,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Fixture paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expected:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Graph = resolve(base, scenario.Graph)
	scenario.Workload = resolve(base, scenario.Workload)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if s.Workload == "" {
		return fmt.Errorf("workload is required")
	}
	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	for _, path := range []string{s.Graph, s.Workload} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("fixture not found: %s", path)
		}
	}

	if s.Strategy != "" {
		if _, err := engine.ParseStrategy(s.Strategy); err != nil {
			return err
		}
	}
	if s.K0 < 0 {
		return fmt.Errorf("k0 must be non-negative")
	}
	if s.MaxRounds != nil && *s.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must be non-negative")
	}

	return validateExpectation(&s.Expect)
}

func validateExpectation(e *Expectation) error {
	switch engine.Outcome(e.Outcome) {
	case engine.OutcomeSatisfied, engine.OutcomeExhausted:
	case "":
		return fmt.Errorf("expect.outcome is required")
	default:
		return fmt.Errorf("expect.outcome: unknown outcome %q", e.Outcome)
	}

	for i, a := range e.Accepted {
		switch engine.Origin(a.Origin) {
		case engine.OriginOriginal, engine.OriginRelaxed, engine.OriginFallback:
		case "":
			return fmt.Errorf("expect.accepted[%d]: origin is required", i)
		default:
			return fmt.Errorf("expect.accepted[%d]: unknown origin %q", i, a.Origin)
		}
	}

	for i, row := range e.Results {
		if len(row) == 0 {
			return fmt.Errorf("expect.results[%d]: at least one variable is required", i)
		}
	}
	if e.ResultCount != nil && *e.ResultCount < 0 {
		return fmt.Errorf("expect.result_count must be non-negative")
	}
	return nil
}
