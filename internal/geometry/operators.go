package geometry

import (
	"fmt"
	"log/slog"

	"github.com/roach88/geometrix/internal/symbolic"
)

// MetricFromEmbedding returns the induced metric J^T J of a surface or curve
// embedded in R^3, where J is the Jacobian of embedding over coords.
func MetricFromEmbedding(embedding []symbolic.Expr, coords []string) (*symbolic.Matrix, error) {
	if len(embedding) != 3 {
		return nil, &ShapeError{Op: "metric_from_embedding", Message: fmt.Sprintf("embedding must have 3 components, got %d", len(embedding))}
	}
	j := symbolic.Jacobian(embedding, coords)
	g, err := j.T().Mul(j)
	if err != nil {
		return nil, err
	}
	return g.Map(symbolic.Simplify), nil
}

// Christoffel returns the symbols of the second kind, Gamma^i_{jk} at (i, j, k):
//
//	Gamma^i_{jk} = 1/2 g^{il} (d_k g_{lj} + d_j g_{lk} - d_l g_{jk})
func Christoffel(metric *symbolic.Matrix, coords []string) (*Tensor, error) {
	if err := checkMetric("christoffel", metric, coords); err != nil {
		return nil, err
	}
	gInv, err := inverse("christoffel", metric)
	if err != nil {
		return nil, err
	}
	return christoffel(metric, gInv, coords), nil
}

func christoffel(metric, gInv *symbolic.Matrix, coords []string) *Tensor {
	dim := len(coords)
	half := symbolic.F(1, 2)
	gamma := NewTensor(dim, 3)
	for i := range dim {
		for j := range dim {
			for k := range dim {
				terms := make([]symbolic.Expr, 0, dim)
				for l := range dim {
					bracket := symbolic.AddOf(
						metric.At(l, j).Diff(coords[k]),
						metric.At(l, k).Diff(coords[j]),
						symbolic.Neg(metric.At(j, k).Diff(coords[l])),
					)
					terms = append(terms, symbolic.MulOf(gInv.At(i, l), bracket))
				}
				gamma.Set(symbolic.Simplify(symbolic.MulOf(half, symbolic.AddOf(terms...))), i, j, k)
			}
		}
	}
	return gamma
}

// Riemann returns the curvature tensor R^i_{jkl} at (i, j, k, l):
//
//	R^i_{jkl} = d_k Gamma^i_{jl} - d_l Gamma^i_{jk} + Gamma^i_{km} Gamma^m_{jl} - Gamma^i_{lm} Gamma^m_{jk}
func Riemann(metric *symbolic.Matrix, coords []string) (*Tensor, error) {
	gamma, err := Christoffel(metric, coords)
	if err != nil {
		return nil, err
	}
	return riemann(gamma, coords), nil
}

func riemann(gamma *Tensor, coords []string) *Tensor {
	dim := len(coords)
	out := NewTensor(dim, 4)
	for i := range dim {
		for j := range dim {
			for k := range dim {
				for l := range dim {
					terms := []symbolic.Expr{
						gamma.At(i, j, l).Diff(coords[k]),
						symbolic.Neg(gamma.At(i, j, k).Diff(coords[l])),
					}
					for m := range dim {
						terms = append(terms,
							symbolic.MulOf(gamma.At(i, k, m), gamma.At(m, j, l)),
							symbolic.Neg(symbolic.MulOf(gamma.At(i, l, m), gamma.At(m, j, k))),
						)
					}
					out.Set(symbolic.Simplify(symbolic.AddOf(terms...)), i, j, k, l)
				}
			}
		}
	}
	return out
}

// Ricci returns the contraction R_{ij} = R^k_{ikj}.
func Ricci(metric *symbolic.Matrix, coords []string) (*symbolic.Matrix, error) {
	riem, err := Riemann(metric, coords)
	if err != nil {
		return nil, err
	}
	return ricci(riem), nil
}

func ricci(riem *Tensor) *symbolic.Matrix {
	dim := riem.Dim()
	out := symbolic.NewMatrix(dim, dim)
	for i := range dim {
		for j := range dim {
			terms := make([]symbolic.Expr, dim)
			for k := range dim {
				terms[k] = riem.At(k, i, k, j)
			}
			out.Set(i, j, symbolic.Simplify(symbolic.AddOf(terms...)))
		}
	}
	return out
}

// ScalarCurvature returns g^{ij} R_{ij}.
func ScalarCurvature(metric *symbolic.Matrix, coords []string) (symbolic.Expr, error) {
	if err := checkMetric("scalar_curvature", metric, coords); err != nil {
		return nil, err
	}
	gInv, err := inverse("scalar_curvature", metric)
	if err != nil {
		return nil, err
	}
	ric := ricci(riemann(christoffel(metric, gInv, coords), coords))

	dim := len(coords)
	terms := make([]symbolic.Expr, 0, dim*dim)
	for i := range dim {
		for j := range dim {
			terms = append(terms, symbolic.MulOf(gInv.At(i, j), ric.At(i, j)))
		}
	}
	scalar := symbolic.Simplify(symbolic.AddOf(terms...))
	slog.Debug("computed scalar curvature", "dim", dim, "result", scalar.String())
	return scalar, nil
}

// GaussianCurvature returns R/2 for a 2x2 metric.
func GaussianCurvature(metric *symbolic.Matrix, coords []string) (symbolic.Expr, error) {
	if metric.Rows() != 2 || metric.Cols() != 2 {
		return nil, &ShapeError{Op: "gaussian_curvature", Message: fmt.Sprintf("requires a 2x2 metric, got %dx%d", metric.Rows(), metric.Cols())}
	}
	scalar, err := ScalarCurvature(metric, coords)
	if err != nil {
		return nil, err
	}
	return symbolic.Simplify(symbolic.MulOf(symbolic.F(1, 2), scalar)), nil
}

// LaplaceBeltrami applies the Laplace-Beltrami operator to the scalar f:
//
//	Lf = (1/sqrt(g)) d_i (sqrt(g) g^{ij} d_j f)
func LaplaceBeltrami(metric *symbolic.Matrix, coords []string, f symbolic.Expr) (symbolic.Expr, error) {
	if err := checkMetric("laplace_beltrami", metric, coords); err != nil {
		return nil, err
	}
	gInv, err := inverse("laplace_beltrami", metric)
	if err != nil {
		return nil, err
	}
	det, err := metric.Det()
	if err != nil {
		return nil, err
	}
	sqrtG := symbolic.SqrtOf(symbolic.Simplify(det))

	dim := len(coords)
	outer := make([]symbolic.Expr, dim)
	for i := range dim {
		inner := make([]symbolic.Expr, dim)
		for j := range dim {
			inner[j] = symbolic.MulOf(gInv.At(i, j), f.Diff(coords[j]))
		}
		outer[i] = symbolic.MulOf(sqrtG, symbolic.AddOf(inner...)).Diff(coords[i])
	}
	return symbolic.Simplify(symbolic.Div(symbolic.AddOf(outer...), sqrtG)), nil
}
