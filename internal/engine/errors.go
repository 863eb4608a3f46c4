package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/rulebook/internal/schema"
)

// RuntimeError represents an error detected while building an engine or
// firing a session.
//
// Runtime errors include:
//   - Handler fault: a rule handler (or a helper it called) returned an error
//   - Async validator: a schema answered with a deferred result
//   - Invalid fact: an inserted fact cannot be converted to a value
//   - Invalid context: a context value cannot be converted to a value
//   - Invalid rule: a rule was registered without a name or handler
//
// RuntimeError wraps the underlying cause; errors.Is and errors.As see it.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// SessionID identifies the affected session, if any.
	SessionID string

	// Rule names the rule being dispatched, if any.
	Rule string

	// FactIndex is the queue position of the fact being dispatched.
	FactIndex int

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeHandlerFault indicates a rule handler returned an error.
	ErrCodeHandlerFault RuntimeErrorCode = "HANDLER_FAULT"

	// ErrCodeAsyncValidator indicates a schema answered asynchronously.
	ErrCodeAsyncValidator RuntimeErrorCode = "ASYNC_VALIDATOR"

	// ErrCodeInvalidFact indicates an inserted fact could not be converted.
	ErrCodeInvalidFact RuntimeErrorCode = "INVALID_FACT"

	// ErrCodeInvalidContext indicates a context value could not be converted.
	ErrCodeInvalidContext RuntimeErrorCode = "INVALID_CONTEXT"

	// ErrCodeInvalidRule indicates a malformed rule registration.
	ErrCodeInvalidRule RuntimeErrorCode = "INVALID_RULE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s (session=%s, rule=%s, fact=%d)", msg, e.SessionID, e.Rule, e.FactIndex)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsHandlerFault returns true if the error is a handler fault.
// Uses errors.As to handle wrapped errors.
func IsHandlerFault(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeHandlerFault
	}
	return false
}

// IsAsyncValidatorError returns true if a schema answered asynchronously.
// Matches both RuntimeError with ErrCodeAsyncValidator and a bare
// schema.ErrAsyncValidation.
func IsAsyncValidatorError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeAsyncValidator {
		return true
	}
	return errors.Is(err, schema.ErrAsyncValidation)
}

func newHandlerFault(sessionID string, r Rule, factIndex int, cause error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeHandlerFault,
		Message:   "rule handler failed",
		SessionID: sessionID,
		Rule:      r.Name,
		FactIndex: factIndex,
		Err:       cause,
	}
}

func newAsyncValidatorError(sessionID string, r Rule, factIndex int, cause error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeAsyncValidator,
		Message:   "schema returned a deferred result",
		SessionID: sessionID,
		Rule:      r.Name,
		FactIndex: factIndex,
		Err:       cause,
	}
}
