package scene

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DType names the element type of a buffer.
type DType string

const (
	Float32 DType = "float32"
	Uint32  DType = "uint32"
)

// Array is a typed, shaped buffer. Exactly one of the backing slices is
// set, matching DType.
type Array struct {
	dtype DType
	shape []int
	f32   []float32
	u32   []uint32
}

// NewFloat32 wraps data with the given shape.
func NewFloat32(data []float32, shape ...int) (Array, error) {
	if err := checkShape(len(data), shape); err != nil {
		return Array{}, err
	}
	return Array{dtype: Float32, shape: append([]int(nil), shape...), f32: data}, nil
}

// NewUint32 wraps data with the given shape.
func NewUint32(data []uint32, shape ...int) (Array, error) {
	if err := checkShape(len(data), shape); err != nil {
		return Array{}, err
	}
	return Array{dtype: Uint32, shape: append([]int(nil), shape...), u32: data}, nil
}

// FromDense converts a matrix to a row-major float32 array of the same shape.
func FromDense(m *mat.Dense) Array {
	r, c := m.Dims()
	data := make([]float32, 0, r*c)
	for i := range r {
		for _, v := range m.RawRowView(i) {
			data = append(data, float32(v))
		}
	}
	return Array{dtype: Float32, shape: []int{r, c}, f32: data}
}

// FromValues converts a vector to a one-dimensional float32 array.
func FromValues(values []float64) Array {
	data := make([]float32, len(values))
	for i, v := range values {
		data[i] = float32(v)
	}
	return Array{dtype: Float32, shape: []int{len(values)}, f32: data}
}

func checkShape(n int, shape []int) error {
	size := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", shape)
		}
		size *= d
	}
	if size != n {
		return fmt.Errorf("shape %v holds %d elements, data has %d", shape, size, n)
	}
	return nil
}

func (a Array) DType() DType { return a.dtype }

// Shape returns a copy of the array shape.
func (a Array) Shape() []int { return append([]int(nil), a.shape...) }

// Len is the element count.
func (a Array) Len() int {
	if a.dtype == Uint32 {
		return len(a.u32)
	}
	return len(a.f32)
}

// Float32s returns the backing data of a float32 array, nil otherwise.
func (a Array) Float32s() []float32 { return a.f32 }

// Uint32s returns the backing data of a uint32 array, nil otherwise.
func (a Array) Uint32s() []uint32 { return a.u32 }

// Spec describes the array as a buffer.
func (a Array) Spec() BufferSpec {
	return BufferSpec{DType: a.dtype, Shape: a.Shape()}
}
