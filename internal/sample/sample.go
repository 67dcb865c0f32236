package sample

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// VectorFunc evaluates vector components over positional argument arrays.
// (*compiler.CompiledExpression).Call satisfies it. A component may have
// length 1, meaning it is constant.
type VectorFunc func(args ...[]float64) ([][]float64, error)

// SurfaceGrid holds surface samples in row-major grid order.
type SurfaceGrid struct {
	Positions *mat.Dense // (Nu*Nv, 3)
	GridShape [2]int     // (Nu, Nv)
}

// SampleSurfaceGrid evaluates fn over the ij meshgrid of exactly two
// domains.
func SampleSurfaceGrid(fn VectorFunc, domains []Domain, counts []int) (*SurfaceGrid, error) {
	if len(domains) != 2 || len(counts) != 2 {
		return nil, &DomainError{Code: ErrDomainCount, Message: fmt.Sprintf("surface sampling expects two domains and counts, got %d and %d", len(domains), len(counts))}
	}
	grids, err := Meshgrid(domains, counts)
	if err != nil {
		return nil, err
	}
	positions, err := evaluate(fn, grids, len(grids[0]))
	if err != nil {
		return nil, err
	}
	return &SurfaceGrid{Positions: positions, GridShape: [2]int{counts[0], counts[1]}}, nil
}

// SampleCurve evaluates fn over count points of one domain.
func SampleCurve(fn VectorFunc, domain Domain, count int) (*mat.Dense, error) {
	t, err := domain.Linspace(count)
	if err != nil {
		return nil, err
	}
	return evaluate(fn, [][]float64{t}, count)
}

// SamplePoints evaluates fn at explicit coordinates. All coordinate arrays
// must share one non-zero length.
func SamplePoints(fn VectorFunc, coords [][]float64) (*mat.Dense, error) {
	if len(coords) == 0 || len(coords[0]) == 0 {
		return nil, &DomainError{Code: ErrDomainCount, Message: "point sampling needs at least one coordinate value"}
	}
	n := len(coords[0])
	for i, c := range coords[1:] {
		if len(c) != n {
			return nil, &DomainError{Code: ErrDomainCount, Message: fmt.Sprintf("coordinate %d has %d values, want %d", i+1, len(c), n)}
		}
	}
	return evaluate(fn, coords, n)
}

// evaluate calls fn and stacks its three channels into an (n, 3) matrix.
func evaluate(fn VectorFunc, args [][]float64, n int) (*mat.Dense, error) {
	channels, err := fn(args...)
	if err != nil {
		return nil, err
	}
	if len(channels) != 3 {
		return nil, &DomainError{Code: ErrChannels, Message: fmt.Sprintf("vector function returned %d components, want 3", len(channels))}
	}
	positions := mat.NewDense(n, 3, nil)
	for j, ch := range channels {
		switch len(ch) {
		case 1:
			for i := range n {
				positions.Set(i, j, ch[0])
			}
		case n:
			positions.SetCol(j, ch)
		default:
			return nil, &DomainError{Code: ErrChannels, Message: fmt.Sprintf("component %d has %d values, want %d", j, len(ch), n)}
		}
	}
	return positions, nil
}
