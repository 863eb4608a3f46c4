// Package schema defines the validation capability that gates rules.
//
// A Validator inspects an input value and either accepts it, returning a
// possibly transformed output value, or rejects it with a list of issues.
// Every validation library plugs in through one adapter that satisfies the
// same interface, so an engine can mix CUE, JSON Schema, expr predicates and
// plain Go functions freely.
//
// Validation is synchronous. A validator that can only answer later reports
// a Pending result; Check turns that into ErrAsyncValidation so the caller
// fails loudly instead of waiting.
package schema
