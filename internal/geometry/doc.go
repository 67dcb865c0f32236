// Package geometry computes differential-geometry quantities symbolically.
//
// Operators take a metric as a square *symbolic.Matrix together with the
// ordered coordinate names it is written in. Every returned component is
// simplified. The package is independent of sampling and scenes; callers
// evaluate results numerically with EvalMatrix or symbolic.Expr.Eval.
package geometry
