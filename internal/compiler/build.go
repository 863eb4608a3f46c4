package compiler

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/rulebook/internal/engine"
	"github.com/roach88/rulebook/internal/schema"
	"github.com/roach88/rulebook/internal/value"
)

// exprOptions binds the variables visible to ruleset expressions:
// fact (the validated fact) and state (the session state).
func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Env(map[string]any{
			"fact":  map[string]any{},
			"state": map[string]any{},
		}),
		expr.AllowUndefinedVariables(),
	}
}

func compilePredicate(src string) (*vm.Program, error) {
	return expr.Compile(src, append(exprOptions(), expr.AsBool())...)
}

type compiledAction struct {
	ActionSpec
	path    []string
	program *vm.Program
}

// Build turns a validated ruleset into an engine.
//
// The ruleset's context seeds the initial state. Its schema becomes the
// global schema, so every rule without its own schema captures it. Each rule
// evaluates its when predicate, if any, then applies its actions in order;
// later actions see the effects of earlier ones.
func Build(spec *RulesetSpec, opts ...engine.Option) (*engine.Engine, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("ruleset %s: %w", spec.label(), errs[0])
	}

	e := engine.New(opts...)
	e.ContextValue(spec.Context.Clone())

	if spec.HasSchema {
		global, err := schema.CUEValue(spec.Schema)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s: %w", spec.label(), err)
		}
		e.Schema(global)
	}

	for _, rs := range spec.Rules {
		handler, err := buildHandler(rs)
		if err != nil {
			return nil, fmt.Errorf("ruleset %s: rule %q: %w", spec.label(), rs.Name, err)
		}

		ruleOpts := []engine.RuleOption{engine.WithPriority(rs.Priority)}
		if rs.HasSchema {
			own, err := schema.CUEValue(rs.Schema)
			if err != nil {
				return nil, fmt.Errorf("ruleset %s: rule %q: %w", spec.label(), rs.Name, err)
			}
			ruleOpts = append(ruleOpts, engine.WithSchema(own))
		}

		e.Rule(rs.Name, handler, ruleOpts...)
	}

	if err := e.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

// BuildAll composes several rulesets with Engine.Use, in argument order.
// Rules of later rulesets run after earlier ones regardless of priority.
func BuildAll(specs []*RulesetSpec, opts ...engine.Option) (*engine.Engine, error) {
	if len(specs) == 1 {
		return Build(specs[0], opts...)
	}

	root := engine.New(opts...)
	for _, spec := range specs {
		sub, err := Build(spec, opts...)
		if err != nil {
			return nil, err
		}
		root.Use(sub)
	}
	if err := root.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

func buildHandler(rs RuleSpec) (engine.Handler, error) {
	var when *vm.Program
	if rs.When != "" {
		p, err := compilePredicate(rs.When)
		if err != nil {
			return nil, fmt.Errorf("when: %w", err)
		}
		when = p
	}

	actions := make([]compiledAction, 0, len(rs.Then))
	for i, a := range rs.Then {
		p, err := expr.Compile(a.Expr, exprOptions()...)
		if err != nil {
			return nil, fmt.Errorf("then[%d]: %w", i, err)
		}
		actions = append(actions, compiledAction{ActionSpec: a, path: splitPath(a.Path), program: p})
	}

	return func(fact value.Value, x engine.Exec) error {
		native := value.Native(fact)

		if when != nil {
			out, err := expr.Run(when, env(native, x.State))
			if err != nil {
				return fmt.Errorf("when: %w", err)
			}
			if ok, _ := out.(bool); !ok {
				return nil
			}
		}

		for i, a := range actions {
			out, err := expr.Run(a.program, env(native, x.State))
			if err != nil {
				return fmt.Errorf("then[%d]: %w", i, err)
			}
			v, err := value.Of(out)
			if err != nil {
				return fmt.Errorf("then[%d]: %w", i, err)
			}
			if err := apply(x.State, a, v); err != nil {
				return fmt.Errorf("then[%d]: %w", i, err)
			}
		}
		return nil
	}, nil
}

func env(fact any, state value.Map) map[string]any {
	return map[string]any{
		"fact":  fact,
		"state": value.Native(state),
	}
}

// apply performs one action on state.
func apply(state value.Map, a compiledAction, v value.Value) error {
	switch a.Op {
	case OpSet:
		state.SetPath(v, a.path...)
		return nil

	case OpAdd:
		delta, ok := value.Number(v)
		if !ok {
			return fmt.Errorf("add %s: operand is %s, want number", a.Path, v.Kind())
		}
		current, exists := state.Lookup(a.path...)
		if !exists {
			current = value.Int(0)
		}
		base, ok := value.Number(current)
		if !ok {
			return fmt.Errorf("add %s: target is %s, want number", a.Path, current.Kind())
		}
		ci, cInt := current.(value.Int)
		vi, vInt := v.(value.Int)
		if cInt && vInt {
			state.SetPath(ci+vi, a.path...)
		} else {
			state.SetPath(value.Float(base+delta), a.path...)
		}
		return nil

	case OpAppend:
		current, exists := state.Lookup(a.path...)
		var list value.List
		if exists {
			l, ok := current.(value.List)
			if !ok {
				return fmt.Errorf("append %s: target is %s, want list", a.Path, current.Kind())
			}
			list = l
		}
		state.SetPath(append(list, v), a.path...)
		return nil

	default:
		return fmt.Errorf("unknown op %q", a.Op)
	}
}

func (s *RulesetSpec) label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Source != "":
		return s.Source
	default:
		return "<inline>"
	}
}
