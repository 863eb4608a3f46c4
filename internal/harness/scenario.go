package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a ruleset test scenario.
// A scenario loads rulesets, inserts facts into one session, fires it and
// asserts on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rulesets lists CUE ruleset files, composed in order.
	// Relative paths are resolved against the scenario file's directory.
	Rulesets []string `yaml:"rulesets"`

	// Context is extra initial state merged over the rulesets' context.
	Context map[string]any `yaml:"context,omitempty"`

	// Facts are inserted in order before Fire.
	Facts []any `yaml:"facts"`

	// Assertions validate the final trace and state.
	// Supported types: trace_order, trace_count, final_state, skipped
	Assertions []Assertion `yaml:"assertions"`

	// ExpectError, when set, requires Fire to fail with an error containing it.
	ExpectError string `yaml:"expect_error,omitempty"`

	// SessionID is an optional fixed session ID.
	// If empty, defaults to "test-session-default" for golden comparison.
	SessionID string `yaml:"session_id,omitempty"`

	// Collation is an optional BCP 47 tag for rule name ordering.
	Collation string `yaml:"collation,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_order": rules first fire in the given order
	// - "trace_count": a rule has exactly Count events with Outcome
	// - "final_state": the state value at Path equals Expect
	// - "skipped": the schema of Rule rejected fact number Fact
	Type string `yaml:"type"`

	// Rule names the rule (trace_count, skipped).
	Rule string `yaml:"rule,omitempty"`

	// Rules is the expected firing order (trace_order).
	Rules []string `yaml:"rules,omitempty"`

	// Fact restricts the assertion to one fact index (trace_order, skipped).
	Fact *int `yaml:"fact,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Outcome filters events for trace_count. Defaults to "fired".
	Outcome string `yaml:"outcome,omitempty"`

	// Path is a dot-separated state path (final_state).
	Path string `yaml:"path,omitempty"`

	// Expect is the expected state value (final_state).
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder = "trace_order"
	AssertTraceCount = "trace_count"
	AssertFinalState = "final_state"
	AssertSkipped    = "skipped"
)

// LoadScenario reads and parses a scenario YAML file.
// Ruleset paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving ruleset paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve ruleset paths relative to base path BEFORE validation
	for i, p := range scenario.Rulesets {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Rulesets[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or checking paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// FindScenarios walks dir and returns every .yaml/.yml file whose base name
// (without extension) matches filter. An empty filter matches everything.
// Files under a "golden" directory are ignored.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Rulesets) == 0 {
		return fmt.Errorf("rulesets list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 && s.ExpectError == "" {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for _, p := range s.Rulesets {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("ruleset file not found: %s", p)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
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
	case AssertTraceOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		switch a.Outcome {
		case "", "fired", "skipped", "fault":
		default:
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	case AssertFinalState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for final_state", index)
		}
	case AssertSkipped:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for skipped", index)
		}
		if a.Fact == nil {
			return fmt.Errorf("assertions[%d]: fact is required for skipped", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
