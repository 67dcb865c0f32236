package symbolic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSingular is returned when inverting a matrix whose determinant is zero.
var ErrSingular = errors.New("matrix is singular")

// Matrix is a dense row-major matrix of expressions.
type Matrix struct {
	rows, cols int
	data       []Expr
}

// NewMatrix returns a rows x cols matrix of zeros.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic("symbolic: negative matrix dimension")
	}
	m := &Matrix{rows: rows, cols: cols, data: make([]Expr, rows*cols)}
	for i := range m.data {
		m.data[i] = N(0)
	}
	return m
}

// Identity returns the n x n identity.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := range n {
		m.Set(i, i, N(1))
	}
	return m
}

// FromRows builds a matrix from equally long rows.
func FromRows(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 {
		return NewMatrix(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), cols)
		}
		for j, e := range row {
			m.Set(i, j, e)
		}
	}
	return m, nil
}

// Diagonal returns a square matrix with the given diagonal.
func Diagonal(entries ...Expr) *Matrix {
	m := NewMatrix(len(entries), len(entries))
	for i, e := range entries {
		m.Set(i, i, e)
	}
	return m
}

func (m *Matrix) Rows() int      { return m.rows }
func (m *Matrix) Cols() int      { return m.cols }
func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) Expr {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

// Set stores e at row i, column j.
func (m *Matrix) Set(i, j int, e Expr) {
	m.check(i, j)
	m.data[i*m.cols+j] = e
}

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("symbolic: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// T returns the transpose.
func (m *Matrix) T() *Matrix {
	out := NewMatrix(m.cols, m.rows)
	for i := range m.rows {
		for j := range m.cols {
			out.Set(j, i, m.At(i, j))
		}
	}
	return out
}

// Mul returns the product m * o.
func (m *Matrix) Mul(o *Matrix) (*Matrix, error) {
	if m.cols != o.rows {
		return nil, fmt.Errorf("cannot multiply %dx%d by %dx%d", m.rows, m.cols, o.rows, o.cols)
	}
	out := NewMatrix(m.rows, o.cols)
	for i := range m.rows {
		for j := range o.cols {
			terms := make([]Expr, m.cols)
			for k := range m.cols {
				terms[k] = MulOf(m.At(i, k), o.At(k, j))
			}
			out.Set(i, j, AddOf(terms...))
		}
	}
	return out, nil
}

// Map applies fn to every entry.
func (m *Matrix) Map(fn func(Expr) Expr) *Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i, e := range m.data {
		out.data[i] = fn(e)
	}
	return out
}

// Det computes the determinant by cofactor expansion along the first row.
func (m *Matrix) Det() (Expr, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("determinant of non-square %dx%d matrix", m.rows, m.cols)
	}
	return m.det(), nil
}

func (m *Matrix) det() Expr {
	switch m.rows {
	case 0:
		return N(1)
	case 1:
		return m.At(0, 0)
	case 2:
		return Minus(MulOf(m.At(0, 0), m.At(1, 1)), MulOf(m.At(0, 1), m.At(1, 0)))
	}
	terms := make([]Expr, 0, m.cols)
	for j := range m.cols {
		a := m.At(0, j)
		if isZero(a) {
			continue
		}
		term := MulOf(a, m.minor(0, j).det())
		if j%2 == 1 {
			term = Neg(term)
		}
		terms = append(terms, term)
	}
	return AddOf(terms...)
}

func (m *Matrix) minor(row, col int) *Matrix {
	out := NewMatrix(m.rows-1, m.cols-1)
	r := 0
	for i := range m.rows {
		if i == row {
			continue
		}
		c := 0
		for j := range m.cols {
			if j == col {
				continue
			}
			out.Set(r, c, m.At(i, j))
			c++
		}
		r++
	}
	return out
}

// Inverse computes adj(m)/det(m). Entries are simplified. It returns
// ErrSingular when the simplified determinant is the number zero.
func (m *Matrix) Inverse() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("inverse of non-square %dx%d matrix", m.rows, m.cols)
	}
	det := Simplify(m.det())
	if isZero(det) {
		return nil, ErrSingular
	}
	n := m.rows
	out := NewMatrix(n, n)
	if n == 1 {
		out.Set(0, 0, PowOf(det, N(-1)))
		return out, nil
	}
	inv := PowOf(det, N(-1))
	for i := range n {
		for j := range n {
			cof := m.minor(i, j).det()
			if (i+j)%2 == 1 {
				cof = Neg(cof)
			}
			// adjugate is the transposed cofactor matrix
			out.Set(j, i, Simplify(MulOf(cof, inv)))
		}
	}
	return out, nil
}

// Jacobian returns the len(exprs) x len(syms) matrix of partial derivatives.
func Jacobian(exprs []Expr, syms []string) *Matrix {
	out := NewMatrix(len(exprs), len(syms))
	for i, e := range exprs {
		for j, s := range syms {
			out.Set(i, j, e.Diff(s))
		}
	}
	return out
}

// String renders the matrix as nested brackets.
func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := range m.rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j := range m.cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(m.At(i, j).String())
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
