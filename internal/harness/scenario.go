package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/store"
)

// Scenario defines a resolution scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the directory of CUE question files.
	Specs string `yaml:"specs"`

	// Graph is a YAML graph file. Exactly one of Graph and Fixture is set.
	Graph string `yaml:"graph,omitempty"`

	// Fixture is an inline graph.
	Fixture *store.Fixture `yaml:"fixture,omitempty"`

	// Application names the computation to resolve.
	Application string `yaml:"application"`

	// Workers and MaxTargets map onto the resolver options of the same
	// name. Zero keeps the resolver default.
	Workers    int `yaml:"workers,omitempty"`
	MaxTargets int `yaml:"max_targets,omitempty"`

	// NoQualify skips the fast-reject conformance check.
	NoQualify bool `yaml:"no_qualify,omitempty"`

	// Assertions validate the resolution result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a resolution result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Outcome is the expected run outcome (outcome).
	Outcome string `yaml:"outcome,omitempty"`

	// Targets is the expected bound target list (targets).
	Targets []string `yaml:"targets,omitempty"`

	// Count is the expected number of invocations (invocation_count).
	Count int `yaml:"count,omitempty"`

	// Target is the entity the assertion is about (value, choice, dropped).
	Target string `yaml:"target,omitempty"`

	// Param is the computation parameter (value, choice).
	Param string `yaml:"param,omitempty"`

	// Value is the expected value (value). Strings are entities or
	// strings, numbers and booleans compare by value.
	Value any `yaml:"value,omitempty"`

	// Index is the expected implementation index (choice).
	Index int `yaml:"index,omitempty"`

	// Code and Question narrow a dropped assertion.
	Code     string `yaml:"code,omitempty"`
	Question string `yaml:"question,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome         = "outcome"
	AssertTargets         = "targets"
	AssertInvocationCount = "invocation_count"
	AssertValue           = "value"
	AssertChoice          = "choice"
	AssertDropped         = "dropped"
)

// LoadScenario reads and parses a scenario YAML file. Specs and Graph are
// resolved relative to the file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	if s.Specs != "" && !filepath.IsAbs(s.Specs) {
		s.Specs = filepath.Join(base, s.Specs)
	}
	if s.Graph != "" && !filepath.IsAbs(s.Graph) {
		s.Graph = filepath.Join(base, s.Graph)
	}
	if err := validatePaths(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarios loads every *.yaml file in dir, in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs is required")
	}
	if s.Application == "" {
		return fmt.Errorf("application is required")
	}
	switch {
	case s.Graph == "" && s.Fixture == nil:
		return fmt.Errorf("one of graph or fixture is required")
	case s.Graph != "" && s.Fixture != nil:
		return fmt.Errorf("set graph or fixture, not both")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if s.MaxTargets < 0 {
		return fmt.Errorf("max_targets must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validatePaths(s *Scenario) error {
	if info, err := os.Stat(s.Specs); err != nil || !info.IsDir() {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}
	if s.Graph != "" {
		if _, err := os.Stat(s.Graph); err != nil {
			return fmt.Errorf("graph file not found: %s", s.Graph)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcome:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome", index)
		}
	case AssertTargets:
		// An empty list asserts that nothing was bound.
	case AssertInvocationCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertValue:
		if a.Target == "" || a.Param == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: target, param and value are required for value", index)
		}
	case AssertChoice:
		if a.Target == "" || a.Param == "" {
			return fmt.Errorf("assertions[%d]: target and param are required for choice", index)
		}
	case AssertDropped:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for dropped", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
