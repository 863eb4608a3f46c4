package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rulebook/internal/value"
)

// Snapshot renders a scenario result as canonical JSON: scenario name,
// session ID, the dispatch trace (seq, fact, rule, outcome) and final state.
// Issue messages are left out because they depend on validator wording.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make(value.List, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = value.Map{
			"seq":     value.Int(event.Seq),
			"fact":    value.Int(event.FactIndex),
			"rule":    value.String(event.Rule),
			"outcome": value.String(event.Outcome),
		}
	}

	snapshot := value.Map{
		"scenario":   value.String(scenarioName),
		"session_id": value.String(result.SessionID),
		"trace":      trace,
		"state":      result.State,
	}
	if result.FireError != "" {
		snapshot["fire_error"] = value.String(result.FireError)
	}

	return value.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares the snapshot against a golden
// file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check assertions.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
