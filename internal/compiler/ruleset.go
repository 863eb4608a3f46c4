package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/value"
)

// Action operations.
const (
	OpSet    = "set"
	OpAdd    = "add"
	OpAppend = "append"
)

// RulesetSpec is a declarative ruleset compiled from CUE.
type RulesetSpec struct {
	// Name is the optional `name` field, or the file name when loaded.
	Name string

	// Source is the file the ruleset was loaded from, if any.
	Source string

	// Context is the initial state contributed by the ruleset.
	Context value.Map

	// Schema is the global schema for rules without their own.
	// Valid only when HasSchema is set.
	Schema    cue.Value
	HasSchema bool

	Rules []RuleSpec
}

// RuleSpec is one declared rule.
type RuleSpec struct {
	Name     string
	Priority int

	// Schema overrides the ruleset's global schema when HasSchema is set.
	Schema    cue.Value
	HasSchema bool

	// When is an optional expr-lang predicate over fact and state.
	When string

	Then []ActionSpec

	Pos token.Pos
}

// ActionSpec mutates state at Path with the value of Expr.
type ActionSpec struct {
	Op   string
	Path string
	Expr string
	Pos  token.Pos
}

// CompileRuleset parses a CUE value into a RulesetSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the ruleset document itself:
//
//	context: {adults: 0}
//	schema: {age: int}
//	rules: [{name: "count-adults", when: "fact.age >= 18",
//	         then: [{op: "add", path: "adults", expr: "1"}]}]
func CompileRuleset(v cue.Value) (*RulesetSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &RulesetSpec{Context: value.Map{}}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Name = name
	}

	ctx, err := parseContext(v)
	if err != nil {
		return nil, err
	}
	spec.Context = ctx

	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if schemaVal.Exists() {
		if err := schemaVal.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		spec.Schema = schemaVal
		spec.HasSchema = true
	}

	spec.Rules, err = parseRules(v)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

// parseContext decodes the optional context struct into a Map.
func parseContext(v cue.Value) (value.Map, error) {
	ctxVal := v.LookupPath(cue.ParsePath("context"))
	if !ctxVal.Exists() {
		return value.Map{}, nil
	}
	if ctxVal.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "context",
			Message: "context must be a struct",
			Pos:     ctxVal.Pos(),
		}
	}

	var decoded map[string]any
	if err := ctxVal.Decode(&decoded); err != nil {
		return nil, formatCUEError(err)
	}
	m, err := value.MapOf(decoded)
	if err != nil {
		return nil, &CompileError{
			Field:   "context",
			Message: err.Error(),
			Pos:     ctxVal.Pos(),
		}
	}
	return m, nil
}

// parseRules extracts rule declarations in document order.
func parseRules(v cue.Value) ([]RuleSpec, error) {
	var rules []RuleSpec

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return rules, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		rule, err := parseRule(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func parseRule(v cue.Value, index int) (RuleSpec, error) {
	rule := RuleSpec{
		Priority: engine.DefaultPriority,
		Pos:      v.Pos(),
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return rule, &CompileError{
			Field:   fmt.Sprintf("rules[%d].name", index),
			Message: "rule name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return rule, formatCUEError(err)
	}
	rule.Name = name

	prioVal := v.LookupPath(cue.ParsePath("priority"))
	if prioVal.Exists() {
		p, err := prioVal.Int64()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.Priority = int(p)
	}

	schemaVal := v.LookupPath(cue.ParsePath("schema"))
	if schemaVal.Exists() {
		if err := schemaVal.Err(); err != nil {
			return rule, formatCUEError(err)
		}
		rule.Schema = schemaVal
		rule.HasSchema = true
	}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if whenVal.Exists() {
		when, err := whenVal.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.When = when
	}

	thenVal := v.LookupPath(cue.ParsePath("then"))
	if thenVal.Exists() {
		iter, err := thenVal.List()
		if err != nil {
			return rule, formatCUEError(err)
		}
		for iter.Next() {
			action, err := parseAction(iter.Value())
			if err != nil {
				return rule, err
			}
			rule.Then = append(rule.Then, action)
		}
	}

	return rule, nil
}

// parseAction reads {op?, path, expr}. op defaults to "set".
func parseAction(v cue.Value) (ActionSpec, error) {
	action := ActionSpec{Op: OpSet, Pos: v.Pos()}

	opVal := v.LookupPath(cue.ParsePath("op"))
	if opVal.Exists() {
		op, err := opVal.String()
		if err != nil {
			return action, formatCUEError(err)
		}
		action.Op = op
	}

	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"path", &action.Path},
		{"expr", &action.Expr},
	} {
		fv := v.LookupPath(cue.ParsePath(f.label))
		if !fv.Exists() {
			continue
		}
		s, err := fv.String()
		if err != nil {
			return action, formatCUEError(err)
		}
		*f.dst = s
	}

	return action, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
