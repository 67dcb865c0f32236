package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/geometrix/internal/symbolic"
)

// EvalMatrix evaluates every entry of m at env.
func EvalMatrix(m *symbolic.Matrix, env map[string]float64) (*mat.Dense, error) {
	out := mat.NewDense(m.Rows(), m.Cols(), nil)
	for i := range m.Rows() {
		for j := range m.Cols() {
			v, err := m.At(i, j).Eval(env)
			if err != nil {
				return nil, fmt.Errorf("entry (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// EvalTensor evaluates every component of t at env, in row-major order.
func EvalTensor(t *Tensor, env map[string]float64) ([]float64, error) {
	out := make([]float64, len(t.data))
	for i, e := range t.data {
		v, err := e.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
