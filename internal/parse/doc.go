// Package parse turns untrusted text into structured input for the pipeline.
//
// ParseDSL reads the line-oriented geometry DSL into an ir.SymbolicIR.
// ParseLatex validates a LaTeX expression against a fixed allow-list of
// commands and a caller-supplied symbol set, rewrites it into expression
// syntax and parses it with the symbolic package.
//
// Nothing in this package evaluates input. Unknown names are errors, never
// new free variables.
package parse
