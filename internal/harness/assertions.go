package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rulebook/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] fact=%d %s %s\n", event.Seq, event.FactIndex, event.Rule, event.Outcome)
		}
	}

	return buf.String()
}

// assertTraceOrder checks that rules first fire in the specified order.
// Rules don't need to be consecutive (intervening dispatches are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Step 1: Find first position of each expected rule
	positions := make(map[string]int)

	for i, event := range trace {
		if event.Outcome != "fired" || !matchesFact(event, assertion.Fact) {
			continue
		}
		if positions[event.Rule] == 0 {
			positions[event.Rule] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all rules found
	for _, rule := range assertion.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all rules fired: %v", assertion.Rules),
				Actual:   fmt.Sprintf("rule never fired: %s", rule),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Rules); i++ {
		prev := assertion.Rules[i-1]
		curr := assertion.Rules[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("rules in order: %v", assertion.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that a rule has exactly Count events with the
// requested outcome.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	outcome := assertion.Outcome
	if outcome == "" {
		outcome = "fired"
	}

	count := 0
	for _, event := range trace {
		if event.Rule == assertion.Rule && event.Outcome == outcome {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events for %s", assertion.Count, outcome, assertion.Rule),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertSkipped checks that the rule's schema rejected the given fact.
func assertSkipped(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Rule == assertion.Rule && matchesFact(event, assertion.Fact) {
			if event.Outcome == "skipped" {
				return nil
			}
			return &AssertionError{
				Type:     AssertSkipped,
				Expected: fmt.Sprintf("%s skipped fact %d", assertion.Rule, *assertion.Fact),
				Actual:   fmt.Sprintf("outcome %s", event.Outcome),
				Trace:    trace,
			}
		}
	}

	return &AssertionError{
		Type:     AssertSkipped,
		Expected: fmt.Sprintf("%s skipped fact %d", assertion.Rule, *assertion.Fact),
		Actual:   "no dispatch for that rule and fact",
		Trace:    trace,
	}
}

// assertFinalState checks the state value at a dot path.
// An assertion without expect requires the path to be absent.
func assertFinalState(state value.Map, assertion Assertion) error {
	actual, exists := state.Lookup(strings.Split(assertion.Path, ".")...)

	if assertion.Expect == nil {
		if exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s to be absent", assertion.Path),
				Actual:   fmt.Sprintf("%s = %s", assertion.Path, describe(actual)),
			}
		}
		return nil
	}

	expected, err := value.Of(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state %s: invalid expect: %w", assertion.Path, err)
	}

	if !exists {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %s", assertion.Path, describe(expected)),
			Actual:   fmt.Sprintf("%s not present in state", assertion.Path),
		}
	}

	if !stateValuesEqual(expected, actual) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s = %s", assertion.Path, describe(expected)),
			Actual:   fmt.Sprintf("%s = %s", assertion.Path, describe(actual)),
		}
	}

	return nil
}

// stateValuesEqual compares an expected YAML value with a state value.
// Numbers compare by value regardless of int/float kind, since YAML writes
// 10 for a float state entry that holds 10.0.
func stateValuesEqual(expected, actual value.Value) bool {
	if en, ok := value.Number(expected); ok {
		an, ok := value.Number(actual)
		return ok && en == an
	}

	switch exp := expected.(type) {
	case value.List:
		act, ok := actual.(value.List)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !stateValuesEqual(exp[i], act[i]) {
				return false
			}
		}
		return true
	case value.Map:
		act, ok := actual.(value.Map)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !stateValuesEqual(ev, av) {
				return false
			}
		}
		return true
	}

	return value.Equal(expected, actual)
}

func matchesFact(event TraceEvent, fact *int) bool {
	return fact == nil || event.FactIndex == *fact
}

func describe(v value.Value) string {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertSkipped:
			if assertion.Fact == nil {
				err = fmt.Errorf("assertion[%d]: skipped requires fact", i)
			} else {
				err = assertSkipped(result.Trace, assertion)
			}
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
