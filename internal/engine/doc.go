// Package engine implements the rulebook rule engine.
//
// An Engine is a builder. It accumulates initial state, helper functions, a
// current global schema and a sorted list of rules. A Session is derived from
// it per execution: it owns a deep clone of the initial state, queues facts
// and fires every rule against every fact.
//
// ARCHITECTURE:
//
// Builder:
// Engine methods mutate the engine in place and return it for chaining.
// Conversion failures (a context value that cannot be classified, a rule
// without a handler) are recorded and surfaced by Err() and NewSession().
//
// Dispatch:
// Fire walks the fact queue in insertion order. For each fact it walks the
// rules in sorted order. A rule with a schema runs only when the schema
// accepts the fact, and then receives the validator output, never the raw
// fact. Every dispatch is stamped with a seq from the session's Clock and
// reported to the attached observers.
//
// CRITICAL PATTERNS:
//
// Rule order:
// Rules are sorted by (priority ascending, name ascending) after every
// Rule() call, using a stable sort. Use() appends another engine's rules
// without resorting; the next Rule() call restores full order.
//
// Schema scope:
// A rule captures the global schema that is current when it is registered.
// Use() never imports another engine's global schema.
//
// State ownership:
// Each session owns its state exclusively. Two sessions from one engine never
// observe each other's mutations.
//
// Single-threaded:
// Engines and sessions are not safe for concurrent use. Fire has no
// suspension point; handlers run synchronously on the caller's goroutine.
package engine
