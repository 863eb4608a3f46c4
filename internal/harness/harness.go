package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/rulebook/internal/compiler"
	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario builds fresh engines from its rulesets and fires a single
// session with a fixed session ID, so repeated runs produce identical traces.
//
// Execution flow:
// 1. Load, validate and compose the rulesets
// 2. Merge the scenario context into the initial state
// 3. Insert facts and fire, recording every dispatch
// 4. Evaluate assertions against the trace and final state
//
// Run returns an error only when the scenario cannot be executed at all.
// Assertion failures and unexpected Fire errors are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	specs, err := compiler.LoadFiles(scenario.Rulesets...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rulesets: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithSessionIDs(testutil.NewFixedIDGenerator(scenario.SessionID)),
	}
	if scenario.Collation != "" {
		tag, err := language.Parse(scenario.Collation)
		if err != nil {
			return nil, fmt.Errorf("invalid collation %q: %w", scenario.Collation, err)
		}
		opts = append(opts, engine.WithCollation(tag))
	}

	eng, err := compiler.BuildAll(specs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	if len(scenario.Context) > 0 {
		eng.ContextMap(scenario.Context)
	}

	session, err := eng.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	result := NewResult()
	result.SessionID = session.ID()
	session.Observe(engine.ObserverFunc(result.AddEvent))

	fireErr := session.InsertMany(scenario.Facts...).Fire()
	result.State = session.State().Clone()

	switch {
	case fireErr != nil:
		result.FireError = fireErr.Error()
		if scenario.ExpectError == "" {
			result.AddError(fmt.Sprintf("fire failed: %v", fireErr))
		} else if !strings.Contains(fireErr.Error(), scenario.ExpectError) {
			result.AddError(fmt.Sprintf("fire error %q does not contain %q", fireErr.Error(), scenario.ExpectError))
		}
	case scenario.ExpectError != "":
		result.AddError(fmt.Sprintf("expected fire to fail with %q, but it succeeded", scenario.ExpectError))
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario completed",
		"scenario", scenario.Name,
		"session_id", result.SessionID,
		"events", len(result.Trace),
		"pass", result.Pass,
	)

	return result, nil
}
