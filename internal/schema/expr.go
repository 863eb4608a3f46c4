package schema

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/rulebook/internal/value"
)

// ExprValidator accepts a fact when a boolean expr-lang predicate over it
// holds. The output is the input unchanged.
type ExprValidator struct {
	source  string
	program *vm.Program
}

// Expr compiles a predicate. The fact is bound to the variable "fact":
//
//	schema.Expr(`fact.age >= 18 && fact.name != ""`)
func Expr(src string) (*ExprValidator, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{"fact": map[string]any{}}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", src, err)
	}
	return &ExprValidator{source: src, program: program}, nil
}

// Source returns the predicate text.
func (v *ExprValidator) Source() string {
	return v.source
}

// Validate implements Validator.
func (v *ExprValidator) Validate(input value.Value) Result {
	out, err := expr.Run(v.program, map[string]any{"fact": value.Native(input)})
	if err != nil {
		return Fail(err.Error())
	}
	ok, isBool := out.(bool)
	if !isBool {
		return Fail(fmt.Sprintf("predicate returned %T, want bool", out))
	}
	if !ok {
		return Fail(fmt.Sprintf("predicate %q is false", v.source))
	}
	return Pass(input)
}
