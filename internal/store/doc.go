// Package store keeps render and LLM history in SQLite.
//
// Two append-only tables are kept:
//   - renders: one row per finished render, with the DSL source, the
//     canonical scene JSON and their content hashes
//   - llm_responses: one row per model answer, valid or not
//
// Rows are ordered by seq, the engine's logical clock, and then by id.
// Wall-clock time is never stored. Writes are idempotent on id.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single open connection, since SQLite has one writer
package store
