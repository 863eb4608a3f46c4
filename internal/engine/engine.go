package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/rulebook/internal/schema"
	"github.com/roach88/rulebook/internal/value"
)

// Engine is the builder describing rules, initial state, the current global
// schema and helpers before any session exists.
//
// Builder methods mutate the engine in place and return it for chaining.
// An Engine is not safe for concurrent use.
//
// INVARIANTS:
//   - after every Rule() call, rules are sorted by (priority, name)
//   - Use() appends without resorting
//   - a rule's schema is fixed at registration
type Engine struct {
	logger       *slog.Logger
	state        value.Map
	rules        []Rule
	globalSchema schema.Validator
	helpers      map[string]HelperFunc

	compareNames func(a, b string) int
	liveRules    bool
	ids          IDGenerator
	observers    []Observer

	err error
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its sessions.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCollation orders rule names of equal priority by the collation rules
// of tag instead of byte-wise comparison.
func WithCollation(tag language.Tag) Option {
	return func(e *Engine) {
		c := collate.New(tag)
		e.compareNames = c.CompareString
	}
}

// WithLiveRules makes sessions read the engine's rule list at Fire time
// instead of the snapshot taken by NewSession. Rules registered after a
// session was created then apply to it.
func WithLiveRules() Option {
	return func(e *Engine) {
		e.liveRules = true
	}
}

// WithSessionIDs sets the session ID source.
//
// Default: UUIDv7Generator
func WithSessionIDs(ids IDGenerator) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// WithObserver attaches o to every session created by the engine.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:       slog.Default(),
		state:        value.Map{},
		helpers:      make(map[string]HelperFunc),
		compareNames: strings.Compare,
		ids:          UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Context deep-merges {name: v} into the initial state. v is converted with
// value.Of; a conversion failure is recorded and reported by Err.
func (e *Engine) Context(name string, v any) *Engine {
	converted, err := value.Of(v)
	if err != nil {
		e.fail(&RuntimeError{
			Code:    ErrCodeInvalidContext,
			Message: fmt.Sprintf("context %q cannot be converted", name),
			Err:     err,
		})
		return e
	}
	value.Merge(e.state, value.Map{name: converted})
	return e
}

// ContextMap deep-merges every entry of m into the initial state.
func (e *Engine) ContextMap(m map[string]any) *Engine {
	converted, err := value.MapOf(m)
	if err != nil {
		e.fail(&RuntimeError{
			Code:    ErrCodeInvalidContext,
			Message: "context mapping cannot be converted",
			Err:     err,
		})
		return e
	}
	return e.ContextValue(converted)
}

// ContextValue deep-merges an already converted mapping into the initial state.
func (e *Engine) ContextValue(m value.Map) *Engine {
	value.Merge(e.state, m)
	return e
}

// Schema sets the global schema captured by rules registered from now on.
// Rules already registered keep the schema they captured. Schema(nil)
// clears it.
func (e *Engine) Schema(v schema.Validator) *Engine {
	e.globalSchema = v
	return e
}

// Helper registers fn under name, replacing any helper of the same name.
func (e *Engine) Helper(name string, fn HelperFunc) *Engine {
	if fn == nil {
		e.fail(&RuntimeError{
			Code:    ErrCodeInvalidRule,
			Message: fmt.Sprintf("helper %q has no function", name),
		})
		return e
	}
	e.helpers[name] = fn
	return e
}

// Rule registers a rule and resorts the rule list by (priority, name).
//
// The rule's schema is the one passed with WithSchema, or else the engine's
// current global schema, or none. Priority defaults to DefaultPriority.
func (e *Engine) Rule(name string, h Handler, opts ...RuleOption) *Engine {
	if name == "" || h == nil {
		e.fail(&RuntimeError{
			Code:    ErrCodeInvalidRule,
			Message: fmt.Sprintf("rule %q requires a name and a handler", name),
		})
		return e
	}

	cfg := ruleConfig{priority: DefaultPriority}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := Rule{
		Name:     name,
		Priority: cfg.priority,
		Handler:  h,
		Schema:   e.globalSchema,
	}
	if cfg.hasSchema {
		r.Schema = cfg.schema
	}

	e.rules = append(e.rules, r)
	sortRules(e.rules, e.compareNames)

	e.logger.Debug("rule registered",
		"rule", r.Name,
		"priority", r.Priority,
		"has_schema", r.Schema != nil,
		"rules", len(e.rules),
	)
	return e
}

// Use composes other into e: its rules are appended after e's rules without
// resorting, its initial state and helpers are deep-merged into e's. The
// other engine's global schema is not imported. A recorded error of other
// propagates to e.
func (e *Engine) Use(other *Engine) *Engine {
	if other == nil {
		return e
	}
	if other.err != nil {
		e.fail(other.err)
	}

	e.rules = append(e.rules, other.rules...)
	value.Merge(e.state, other.state)
	maps.Copy(e.helpers, other.helpers)

	e.logger.Debug("engine composed",
		"added_rules", len(other.rules),
		"rules", len(e.rules),
	)
	return e
}

// NewSession creates a session with a deep clone of the initial state.
// It returns the first builder error, if any.
func (e *Engine) NewSession() (*Session, error) {
	if e.err != nil {
		return nil, e.err
	}

	s := newSession(e)

	e.logger.Info("session created",
		"session_id", s.id,
		"rules", len(s.Rules()),
		"live_rules", e.liveRules,
	)
	return s, nil
}

// MustSession is like NewSession but panics on a builder error.
func (e *Engine) MustSession() *Session {
	s, err := e.NewSession()
	if err != nil {
		panic(fmt.Sprintf("engine: %v", err))
	}
	return s
}

// Rules returns a copy of the rule list in its current order.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// State returns a deep copy of the initial state.
func (e *Engine) State() value.Map {
	return e.state.Clone()
}

// GlobalSchema returns the schema new rules would capture.
func (e *Engine) GlobalSchema() schema.Validator {
	return e.globalSchema
}

// Err returns the first builder error.
func (e *Engine) Err() error {
	return e.err
}

func (e *Engine) fail(err error) {
	e.logger.Warn("engine builder error", "error", err)
	if e.err == nil {
		e.err = err
	}
}
