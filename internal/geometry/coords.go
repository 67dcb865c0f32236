package geometry

import "github.com/roach88/geometrix/internal/symbolic"

// CylindricalToCartesian maps (r, phi, z) to (x, y, z).
func CylindricalToCartesian(r, phi, z symbolic.Expr) []symbolic.Expr {
	return []symbolic.Expr{
		symbolic.MulOf(r, symbolic.Call("cos", phi)),
		symbolic.MulOf(r, symbolic.Call("sin", phi)),
		z,
	}
}

// SphericalToCartesian maps (r, theta, phi) to (x, y, z) with theta the
// polar angle measured from +z.
func SphericalToCartesian(r, theta, phi symbolic.Expr) []symbolic.Expr {
	sinTheta := symbolic.Call("sin", theta)
	return []symbolic.Expr{
		symbolic.MulOf(r, sinTheta, symbolic.Call("cos", phi)),
		symbolic.MulOf(r, sinTheta, symbolic.Call("sin", phi)),
		symbolic.MulOf(r, symbolic.Call("cos", theta)),
	}
}

// LorentzMetric returns the Minkowski metric diag(-c^2, 1, 1, 1).
func LorentzMetric(c symbolic.Expr) *symbolic.Matrix {
	one := symbolic.N(1)
	return symbolic.Diagonal(symbolic.Neg(symbolic.PowOf(c, symbolic.N(2))), one, one, one)
}
