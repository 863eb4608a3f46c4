package engine

import (
	"cmp"
	"slices"

	"github.com/roach88/rulebook/internal/schema"
	"github.com/roach88/rulebook/internal/value"
)

// DefaultPriority is assigned to rules registered without WithPriority.
const DefaultPriority = 1

// Handler is the body of a rule. It receives the fact (or the validator
// output when the rule has a schema) and the session's execution context.
//
// A returned error aborts Fire.
type Handler func(fact value.Value, x Exec) error

// Exec is what a handler may touch: the session state, mutated in place, and
// the session's bound helpers.
type Exec struct {
	State   value.Map
	Helpers Helpers

	// Seq is the dispatch stamp of this invocation.
	Seq int64
}

// Rule is a named, prioritized unit of logic, optionally gated by a schema.
// Rules are immutable once registered.
type Rule struct {
	Name     string
	Priority int
	Handler  Handler
	Schema   schema.Validator
}

// RuleOption configures a rule at registration.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	priority  int
	schema    schema.Validator
	hasSchema bool
}

// WithPriority sets the rule priority. Lower runs first.
func WithPriority(priority int) RuleOption {
	return func(c *ruleConfig) {
		c.priority = priority
	}
}

// WithSchema gates the rule behind v, overriding the engine's global schema.
// A nil v falls back to the global schema.
func WithSchema(v schema.Validator) RuleOption {
	return func(c *ruleConfig) {
		if v != nil {
			c.schema = v
			c.hasSchema = true
		}
	}
}

// sortRules stably sorts rules by (priority asc, name asc).
func sortRules(rules []Rule, compareNames func(a, b string) int) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return compareNames(a.Name, b.Name)
	})
}
