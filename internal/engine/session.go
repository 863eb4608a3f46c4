package engine

import (
	"bytes"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/rulebook/internal/schema"
	"github.com/roach88/rulebook/internal/value"
)

// Session is one execution unit: a cloned state, bound helpers and a fact
// queue. Create one with Engine.NewSession.
//
// Lifecycle: Created -> (Insert)* -> Fired. Fire may be called again; it
// reprocesses the whole accumulated queue against the current state.
type Session struct {
	id        string
	engine    *Engine
	state     value.Map
	helpers   Helpers
	rules     []Rule // snapshot; nil when the engine uses live rules
	facts     *factQueue
	clock     *Clock
	logger    *slog.Logger
	observers []Observer
}

func newSession(e *Engine) *Session {
	state := e.state.Clone()
	s := &Session{
		id:        e.ids.Generate(),
		engine:    e,
		state:     state,
		helpers:   bindHelpers(state, maps.Clone(e.helpers)),
		facts:     newFactQueue(),
		clock:     NewClock(),
		observers: slices.Clone(e.observers),
	}
	if !e.liveRules {
		s.rules = slices.Clone(e.rules)
	}
	s.logger = e.logger.With("session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the live session state. Mutations by handlers and helpers
// are visible here after Fire.
func (s *Session) State() value.Map {
	return s.state
}

// Helpers returns the helpers bound to this session's state.
func (s *Session) Helpers() Helpers {
	return s.helpers
}

// Rules returns the rules this session fires, in order.
func (s *Session) Rules() []Rule {
	if s.engine.liveRules {
		return slices.Clone(s.engine.rules)
	}
	return slices.Clone(s.rules)
}

// Len returns the number of queued facts.
func (s *Session) Len() int {
	return s.facts.Len()
}

// Observe attaches an additional observer to this session.
func (s *Session) Observe(o Observer) *Session {
	if o != nil {
		s.observers = append(s.observers, o)
	}
	return s
}

// Insert appends one fact to the queue. Conversion failures are reported by
// Fire.
func (s *Session) Insert(fact any) *Session {
	s.facts.Push(fact)
	return s
}

// InsertMany appends facts to the queue in argument order.
func (s *Session) InsertMany(facts ...any) *Session {
	for _, f := range facts {
		s.facts.Push(f)
	}
	return s
}

// Fire runs every rule against every queued fact.
//
// Facts are processed in insertion order; for each fact, rules run in
// sorted order. A rule with a schema runs only when the schema accepts the
// fact and then receives the validator output. A handler error or a deferred
// schema result stops Fire immediately; state keeps the effects of the
// handlers that already ran.
func (s *Session) Fire() error {
	facts, err := s.facts.Values()
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			re.SessionID = s.id
		}
		s.logger.Error("fire rejected", "error", err)
		return err
	}

	rules := s.Rules()
	s.logger.Debug("fire started", "facts", len(facts), "rules", len(rules))

	fired := 0
	for i, fact := range facts {
		fingerprint, err := value.Fingerprint(fact)
		if err != nil {
			// Events for this fact carry an empty fingerprint.
			s.logger.Debug("fact not fingerprinted", "fact_index", i, "error", err)
		}

		for _, r := range rules {
			ev := Event{
				Seq:         s.clock.Next(),
				SessionID:   s.id,
				FactIndex:   i,
				Fingerprint: fingerprint,
				Rule:        r.Name,
				Priority:    r.Priority,
			}

			input := factView(fact)
			if r.Schema != nil {
				out, err := schema.Check(r.Schema, input)
				if err != nil {
					rerr := newAsyncValidatorError(s.id, r, i, err)
					s.fault(ev, rerr)
					return rerr
				}
				if !out.Success {
					ev.Outcome = OutcomeSkipped
					ev.Issues = out.Issues
					s.logger.Debug("rule skipped",
						"rule", r.Name,
						"fact_index", i,
						"fingerprint", fingerprint,
						"issues", len(out.Issues),
					)
					s.notify(ev)
					continue
				}
				input = out.Value
			}

			x := Exec{State: s.state, Helpers: s.helpers, Seq: ev.Seq}
			if err := r.Handler(input, x); err != nil {
				rerr := newHandlerFault(s.id, r, i, err)
				s.fault(ev, rerr)
				return rerr
			}

			ev.Outcome = OutcomeFired
			s.logger.Debug("rule fired",
				"rule", r.Name,
				"fact_index", i,
				"fingerprint", fingerprint,
				"seq", ev.Seq,
			)
			s.notify(ev)
			fired++
		}
	}

	s.logger.Info("fire completed",
		"facts", len(facts),
		"rules", len(rules),
		"fired", fired,
		"seq", s.clock.Current(),
	)
	return nil
}

func (s *Session) fault(ev Event, err *RuntimeError) {
	ev.Outcome = OutcomeFault
	ev.Err = err
	s.logger.Error("rule fault",
		"rule", err.Rule,
		"fact_index", err.FactIndex,
		"fingerprint", ev.Fingerprint,
		"code", err.Code,
		"error", err.Err,
	)
	s.notify(ev)
}

func (s *Session) notify(ev Event) {
	for _, o := range s.observers {
		o.Dispatched(ev)
	}
}

// factView gives each dispatch its own top-level copy of a map fact, so a
// handler reassigning a top-level key never affects later rules. Nested
// values are shared. Scalars are immutable Go values already.
func factView(fact value.Value) value.Value {
	switch v := fact.(type) {
	case value.Map:
		return v.ShallowCopy()
	case value.List:
		return slices.Clone(v)
	case value.Bytes:
		return value.Bytes(bytes.Clone(v))
	default:
		return fact
	}
}
