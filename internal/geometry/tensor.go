package geometry

import (
	"fmt"

	"github.com/roach88/geometrix/internal/symbolic"
)

// Tensor is a dense array of expressions with Order indices, each ranging
// over Dim values. Components are stored in row-major order.
type Tensor struct {
	dim   int
	order int
	data  []symbolic.Expr
}

// NewTensor returns a zero tensor.
func NewTensor(dim, order int) *Tensor {
	n := 1
	for range order {
		n *= dim
	}
	t := &Tensor{dim: dim, order: order, data: make([]symbolic.Expr, n)}
	for i := range t.data {
		t.data[i] = symbolic.N(0)
	}
	return t
}

func (t *Tensor) Dim() int   { return t.dim }
func (t *Tensor) Order() int { return t.order }

// At returns the component at the given indices.
func (t *Tensor) At(idx ...int) symbolic.Expr { return t.data[t.offset(idx)] }

// Set replaces the component at the given indices.
func (t *Tensor) Set(e symbolic.Expr, idx ...int) { t.data[t.offset(idx)] = e }

// Components returns the flattened components, dim^order of them.
func (t *Tensor) Components() []symbolic.Expr {
	return append([]symbolic.Expr(nil), t.data...)
}

// IsZero reports whether every component is the number zero.
func (t *Tensor) IsZero() bool {
	for _, e := range t.data {
		if !symbolic.IsZero(e) {
			return false
		}
	}
	return true
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != t.order {
		panic(fmt.Sprintf("geometry: %d indices for order-%d tensor", len(idx), t.order))
	}
	off := 0
	for _, i := range idx {
		if i < 0 || i >= t.dim {
			panic(fmt.Sprintf("geometry: index %d out of range [0,%d)", i, t.dim))
		}
		off = off*t.dim + i
	}
	return off
}
