package sample

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// plane returns (u, v, 0) with a constant z channel.
func plane(args ...[]float64) ([][]float64, error) {
	return [][]float64{args[0], args[1], {0}}, nil
}

func TestSampleSurfaceGrid(t *testing.T) {
	grid, err := SampleSurfaceGrid(plane, []Domain{{"u", 0, 1}, {"v", 0, 1}}, []int{2, 3})
	require.NoError(t, err)

	assert.Equal(t, [2]int{2, 3}, grid.GridShape)
	rows, cols := grid.Positions.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 3, cols)

	want := mat.NewDense(6, 3, []float64{
		0, 0, 0,
		0, 0.5, 0,
		0, 1, 0,
		1, 0, 0,
		1, 0.5, 0,
		1, 1, 0,
	})
	assert.True(t, mat.Equal(want, grid.Positions))
}

func TestSampleSurfaceGrid_WrongDimension(t *testing.T) {
	_, err := SampleSurfaceGrid(plane, []Domain{{"u", 0, 1}}, []int{2})
	var domErr *DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, ErrDomainCount, domErr.Code)

	_, err = SampleSurfaceGrid(plane, []Domain{{"u", 0, 1}, {"v", 0, 1}}, []int{2, 1})
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, "v", domErr.Name)
}

func TestSampleSurfaceGrid_Channels(t *testing.T) {
	twoChannels := func(args ...[]float64) ([][]float64, error) {
		return [][]float64{args[0], args[1]}, nil
	}
	_, err := SampleSurfaceGrid(twoChannels, []Domain{{"u", 0, 1}, {"v", 0, 1}}, []int{2, 2})
	var domErr *DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, ErrChannels, domErr.Code)

	boom := errors.New("boom")
	failing := func(...[]float64) ([][]float64, error) { return nil, boom }
	_, err = SampleSurfaceGrid(failing, []Domain{{"u", 0, 1}, {"v", 0, 1}}, []int{2, 2})
	assert.ErrorIs(t, err, boom)
}

func TestSampleCurve(t *testing.T) {
	line := func(args ...[]float64) ([][]float64, error) {
		return [][]float64{args[0], {1}, {2}}, nil
	}
	positions, err := SampleCurve(line, Domain{"t", 0, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, mat.Col(nil, 0, positions))
	assert.Equal(t, []float64{1, 1, 1}, mat.Col(nil, 1, positions))
	assert.Equal(t, []float64{2, 2, 2}, mat.Col(nil, 2, positions))

	_, err = SampleCurve(line, Domain{"t", 0, 2}, 1)
	require.Error(t, err)
}

func TestSamplePoints(t *testing.T) {
	positions, err := SamplePoints(plane, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 0}, positions.RawRowView(0))
	assert.Equal(t, []float64{2, 4, 0}, positions.RawRowView(1))

	_, err = SamplePoints(plane, [][]float64{{1, 2}, {3}})
	require.Error(t, err)
	_, err = SamplePoints(plane, nil)
	require.Error(t, err)
}
