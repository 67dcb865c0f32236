// Package harness provides a conformance testing framework for the
// geometrix pipeline.
//
// A scenario is a YAML file naming one DSL program and the assertions its
// render must satisfy:
//
//	name: plane_surface
//	description: "Unit plane sampled on a 3x2 grid"
//	source: |
//	  coords: u v
//	  X(u, v) = (u, v, u + v)
//	  render: surface X res 3 2
//	assertions:
//	  - type: object
//	    kind: surface_grid
//	    name: X
//	  - type: buffer
//	    buffer: positions
//	    dtype: float32
//	    shape: [6, 3]
//
// Run drives the real engine: the program is parsed, compiled and sampled,
// the render is recorded in a fresh in-memory store and read back, and the
// assertions are evaluated against the scene, its arrays and the stored
// row. A deterministic clock and sequential render ids make every run
// byte-identical, so RunWithGolden can compare the canonical JSON of the
// scene and its encoded buffers against testdata/golden.
//
// Scenarios that are expected to fail declare an error assertion with the
// expected code (E2xx, E4xx or an engine code such as INVALID_TARGET) or a
// message fragment. Without one, any pipeline error fails the scenario.
package harness
