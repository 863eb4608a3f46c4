package engine

import "github.com/roach88/rulebook/internal/schema"

// Outcome classifies a single rule dispatch.
type Outcome string

const (
	// OutcomeFired means the handler ran and returned nil.
	OutcomeFired Outcome = "fired"

	// OutcomeSkipped means the rule's schema rejected the fact.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFault means the handler failed or the schema answered
	// asynchronously. Fire stops after a fault.
	OutcomeFault Outcome = "fault"
)

// Event describes one (fact, rule) dispatch.
type Event struct {
	Seq         int64
	SessionID   string
	FactIndex   int
	Fingerprint string // empty when the fact has no canonical form, e.g. a NaN
	Rule        string
	Priority    int
	Outcome     Outcome
	Issues      []schema.Issue
	Err         error
}

// Observer receives every dispatch of a session, in seq order.
// Observers must not alter dispatch; they are called after the fact.
type Observer interface {
	Dispatched(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// Dispatched implements Observer.
func (f ObserverFunc) Dispatched(ev Event) { f(ev) }

// Recorder collects events for later inspection.
type Recorder struct {
	Events []Event
}

// Dispatched implements Observer.
func (r *Recorder) Dispatched(ev Event) {
	r.Events = append(r.Events, ev)
}

// Fired returns the names of rules whose handler ran, in dispatch order.
func (r *Recorder) Fired() []string {
	var names []string
	for _, ev := range r.Events {
		if ev.Outcome == OutcomeFired {
			names = append(names, ev.Rule)
		}
	}
	return names
}

// Count returns how many dispatches of rule ended with outcome.
func (r *Recorder) Count(rule string, outcome Outcome) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Rule == rule && ev.Outcome == outcome {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}
