// Package value provides the closed value model shared by engine state,
// facts and validator output.
//
// This package imports nothing internal. Every other internal package builds
// on it, which keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - The set of kinds is closed: Null, String, Int, Float, Bool, List, Map,
//     Time and Bytes. Conversion from native Go values is explicit (Of) and
//     never falls back to reflection.
//   - Only Map is merged recursively. List, Time, Bytes and every scalar are
//     atomic under Merge: a later source overwrites them.
//   - Map iteration for output always goes through SortedKeys (RFC 8785 order)
//     so serialized state is deterministic.
package value
