// Package harness runs ruleset scenarios against the real engine.
//
// A scenario composes CUE rulesets, inserts facts into one session, fires
// it and checks the dispatch trace and final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: adults
//	description: "Counts adults and skips malformed people"
//	rulesets:
//	  - ../rulesets/adults.cue
//	context: { adults: 0 }
//	facts:
//	  - { name: ann, age: 34 }
//	  - { name: bo }
//	assertions:
//	  - type: trace_order
//	    rules: [count-adults, last-seen]
//	  - type: skipped
//	    rule: count-adults
//	    fact: 1
//	  - type: final_state
//	    path: adults
//	    expect: 1
//
// # Assertion Types
//
//   - trace_order: rules first fire in the listed order (optionally for one fact)
//   - trace_count: a rule has exactly count events with an outcome (default fired)
//   - final_state: the state value at a dot path equals expect; without
//     expect the path must be absent
//   - skipped: the rule's schema rejected the given fact
//
// A scenario may instead set expect_error to require that Fire fails with a
// message containing that text.
//
// # Deterministic Testing
//
// Sessions get a fixed ID (session_id, or testutil's default) and dispatches
// are stamped by the session's logical clock, so a scenario always produces
// the same trace. Snapshot renders it as canonical JSON for golden files.
package harness
