package schema

import (
	"errors"
	"strings"

	"github.com/roach88/rulebook/internal/value"
)

// ErrAsyncValidation is returned by Check when a validator answers with a
// deferred result. Rule gating is synchronous and never waits.
var ErrAsyncValidation = errors.New("schema validation must be synchronous")

// Validator validates and optionally transforms an input value.
type Validator interface {
	Validate(input value.Value) Result
}

// Result is the raw answer of a Validator.
//
// Exactly one of three shapes is expected:
//   - Issues empty and Pending nil: success, Value holds the output;
//   - Issues non-empty: failure;
//   - Pending non-nil: the answer is deferred (unsupported by Check).
type Result struct {
	Value   value.Value
	Issues  []Issue
	Pending <-chan Result
}

// Issue describes a single validation problem.
type Issue struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return strings.Join(i.Path, ".") + ": " + i.Message
}

// Outcome is the normalized, synchronous result of Check.
type Outcome struct {
	Success bool
	Value   value.Value
	Issues  []Issue
}

// Check runs v against input and normalizes the answer.
//
// A deferred result yields ErrAsyncValidation. A failure that carries no
// issues is reported with a generic issue so failures are never empty.
func Check(v Validator, input value.Value) (Outcome, error) {
	res := v.Validate(input)
	if res.Pending != nil {
		return Outcome{}, ErrAsyncValidation
	}
	if len(res.Issues) > 0 {
		return Outcome{Issues: res.Issues}, nil
	}
	out := res.Value
	if out == nil {
		out = value.Null{}
	}
	return Outcome{Success: true, Value: out}, nil
}

// Fail builds a failed Result from plain messages.
func Fail(messages ...string) Result {
	issues := make([]Issue, 0, len(messages))
	for _, m := range messages {
		issues = append(issues, Issue{Message: m})
	}
	if len(issues) == 0 {
		issues = append(issues, Issue{Message: "validation failed"})
	}
	return Result{Issues: issues}
}

// Pass builds a successful Result carrying out.
func Pass(out value.Value) Result {
	return Result{Value: out}
}

// FuncValidator adapts a plain Go function.
type FuncValidator struct {
	fn func(value.Value) (value.Value, []Issue)
}

// Func wraps fn as a Validator. fn returns the output value on success, or a
// non-empty issue list on failure. Returning neither output nor issues is a
// success whose output is the input.
func Func(fn func(value.Value) (value.Value, []Issue)) *FuncValidator {
	return &FuncValidator{fn: fn}
}

// Validate implements Validator.
func (f *FuncValidator) Validate(input value.Value) Result {
	out, issues := f.fn(input)
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	if out == nil {
		out = input
	}
	return Pass(out)
}

// DeferredValidator answers through a channel instead of inline.
type DeferredValidator struct {
	inner Validator
}

// Deferred wraps inner so every answer is delivered asynchronously.
// Hosts use it to model remote validators; Check rejects it.
func Deferred(inner Validator) *DeferredValidator {
	return &DeferredValidator{inner: inner}
}

// Validate implements Validator.
func (d *DeferredValidator) Validate(input value.Value) Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- d.inner.Validate(input)
	}()
	return Result{Pending: ch}
}
