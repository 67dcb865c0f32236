// Package llm asks chat models for structured math answers and validates
// what comes back.
//
// Answers are JSON objects checked against an embedded CUE schema, then for
// graphability and LaTeX that the parse package can read. Requests go to
// OpenAI-compatible chat completion endpoints.
package llm
