// Package engine runs geometrix programs end to end.
//
// A render follows one fixed chain:
//
//	DSL text -> parse.ParseDSL -> ir.SymbolicIR
//	         -> resolve target definition (compiler.ResolveDefinitions)
//	         -> symbolic.ParseVector with params and time bound
//	         -> compiler.Compile over the target's coordinates
//	         -> sample (surface grid, mesh, curve or points)
//	         -> scene builder -> scene.Validate -> scene.Bundle
//
// Program covers the pure part of the chain. Engine adds identity and
// history: every render gets a UUIDv7 id and a sequence number from a
// logical Clock, is optionally written to the store and optionally shown
// on a transport.Display.
//
// Only the first render request of a program is built by BuildScene and
// Animate. Other requests can be built with BuildRequest.
package engine
