// Package ir provides the intermediate representation types for geometrix.
//
// A SymbolicIR is produced by the DSL parser and consumed by the render
// pipeline. This package contains type definitions, the tensor-name parser,
// canonical JSON and content hashes. All other internal packages import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - All JSON tags use snake_case
//   - Definition kind is inferred once at parse time and stored
//   - The IR is immutable once parsing (including tensor finalization) completes
//   - Logical sequence numbers only, never wall-clock timestamps
package ir
