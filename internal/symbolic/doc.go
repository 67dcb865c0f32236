// Package symbolic is the small computer-algebra kernel geometrix drives.
//
// Expressions are immutable trees built through simplifying constructors
// (AddOf, MulOf, PowOf, Call), so every value is kept in a canonical form:
// like terms are collected, numeric coefficients are exact rationals and
// operands are ordered by their printed form. Two expressions are Equal when
// their canonical strings match.
//
// The package provides exactly what the rest of the system needs:
//   - a safe expression parser with an explicit symbol table (Parse)
//   - differentiation, substitution and numeric evaluation
//   - expansion and trigonometric simplification (Simplify)
//   - symbolic matrices with determinant, inverse and Jacobian
//
// It is not a general purpose CAS. Anything beyond these primitives belongs
// to the callers.
package symbolic
