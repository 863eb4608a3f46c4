package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/rulebook/internal/value"
)

// CUESchema validates facts by unifying them with a CUE constraint.
//
// The output is the decoded unification, so CUE defaults fill in missing
// fields. Time values travel as RFC 3339 strings.
type CUESchema struct {
	schema cue.Value
}

// CUE compiles src with a fresh CUE context.
func CUE(src string) (*CUESchema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cue schema: %w", err)
	}
	return &CUESchema{schema: v}, nil
}

// CUEValue wraps an already compiled CUE value.
func CUEValue(v cue.Value) (*CUESchema, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("cue schema: %w", err)
	}
	return &CUESchema{schema: v}, nil
}

// Value returns the underlying CUE constraint.
func (s *CUESchema) Value() cue.Value {
	return s.schema
}

// Validate implements Validator.
func (s *CUESchema) Validate(input value.Value) Result {
	data := s.schema.Context().Encode(value.Native(input))
	if err := data.Err(); err != nil {
		return Result{Issues: cueIssues(err)}
	}

	unified := s.schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Result{Issues: cueIssues(err)}
	}

	var decoded any
	if err := unified.Decode(&decoded); err != nil {
		return Result{Issues: cueIssues(err)}
	}
	out, err := value.Of(decoded)
	if err != nil {
		return Fail(err.Error())
	}
	return Pass(out)
}

// cueIssues flattens a CUE error list into issues.
func cueIssues(err error) []Issue {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []Issue{{Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		issues = append(issues, Issue{
			Message: fmt.Sprintf(format, args...),
			Path:    e.Path(),
		})
	}
	return issues
}
