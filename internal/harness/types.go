package harness

import (
	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/value"
)

// TraceEvent is one rule dispatch as seen by the harness.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	FactIndex int      `json:"fact"`
	Rule      string   `json:"rule"`
	Outcome   string   `json:"outcome"`
	Issues    []string `json:"issues,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds and Fire behaved as expected.
	Pass bool `json:"pass"`

	// SessionID is the deterministic ID of the session that ran.
	SessionID string `json:"session_id"`

	// Trace contains every dispatch in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the session state after Fire.
	State value.Map `json:"state"`

	// FireError is the error returned by Fire, if any.
	FireError string `json:"fire_error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  value.Map{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an engine dispatch event to the trace.
func (r *Result) AddEvent(ev engine.Event) {
	te := TraceEvent{
		Seq:       ev.Seq,
		FactIndex: ev.FactIndex,
		Rule:      ev.Rule,
		Outcome:   string(ev.Outcome),
	}
	for _, issue := range ev.Issues {
		te.Issues = append(te.Issues, issue.String())
	}
	r.Trace = append(r.Trace, te)
}
