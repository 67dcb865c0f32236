package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/geometrix/internal/ir"
)

func grid2x2() *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		0, 0, 0,
		0, 1, 0,
		1, 0, 0,
		1, 1, 0.5,
	})
}

func TestBuildSurfaceScene(t *testing.T) {
	bundle, err := BuildSurfaceScene(grid2x2(), [2]int{2, 2}, Options{Style: map[string]any{"color": "blue"}})
	require.NoError(t, err)

	s := bundle.Scene
	assert.Equal(t, ir.SceneVersion, s.Version)
	require.Len(t, s.Objects, 1)
	obj := s.Objects[0]
	assert.Equal(t, TypeSurfaceGrid, obj.Type)
	assert.Equal(t, "surface", obj.Name)
	assert.Equal(t, map[string]string{"positions": "positions"}, obj.Buffers)
	assert.Equal(t, map[string]any{"Nu": 2, "Nv": 2}, obj.Metadata["grid"])
	assert.Equal(t, "blue", obj.Style["color"])

	assert.Equal(t, map[string]BufferSpec{"positions": {DType: Float32, Shape: []int{4, 3}}}, s.Buffers)
	pos := bundle.Arrays["positions"]
	assert.Equal(t, []float32{0, 0, 0, 0, 1, 0, 1, 0, 0, 1, 1, 0.5}, pos.Float32s())
	require.NoError(t, Validate(bundle))
}

func TestBuildSurfaceScene_GridNotChecked(t *testing.T) {
	bundle, err := BuildSurfaceScene(grid2x2(), [2]int{3, 2}, Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Nu": 3, "Nv": 2}, bundle.Scene.Objects[0].Metadata["grid"])
	assert.Equal(t, []int{4, 3}, bundle.Scene.Buffers["positions"].Shape)
}

func TestBuildSurfaceScene_Errors(t *testing.T) {
	_, err := BuildSurfaceScene(mat.NewDense(2, 2, nil), [2]int{1, 2}, Options{})
	assert.ErrorContains(t, err, "3 columns")

	_, err = BuildSurfaceScene(nil, [2]int{1, 1}, Options{})
	assert.ErrorContains(t, err, "empty")
}

func TestBuildPointsScene(t *testing.T) {
	bundle, err := BuildPointsScene(grid2x2(), Options{Name: "cloud"})
	require.NoError(t, err)
	assert.Equal(t, TypePoints, bundle.Scene.Objects[0].Type)
	assert.Equal(t, "cloud", bundle.Scene.Objects[0].Name)
	require.NoError(t, Validate(bundle))
}

func TestBuildLineScene(t *testing.T) {
	bundle, err := BuildLineScene(grid2x2(), []float64{0, 1, 2, 3}, Options{})
	require.NoError(t, err)
	obj := bundle.Scene.Objects[0]
	assert.Equal(t, TypeLine, obj.Type)
	assert.Equal(t, map[string]string{"positions": "positions", "values": "values"}, obj.Buffers)
	assert.Equal(t, []int{4}, bundle.Scene.Buffers["values"].Shape)
	require.NoError(t, Validate(bundle))

	noValues, err := BuildLineScene(grid2x2(), nil, Options{})
	require.NoError(t, err)
	assert.NotContains(t, noValues.Scene.Buffers, "values")

	_, err = BuildLineScene(grid2x2(), []float64{1}, Options{})
	assert.ErrorContains(t, err, "1 values for 4 vertices")
}

func TestBuildMeshScene(t *testing.T) {
	faces := GridFaces(2, 2)
	bundle, err := BuildMeshScene(grid2x2(), faces, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, BufferSpec{DType: Uint32, Shape: []int{2, 3}}, bundle.Scene.Buffers["faces"])
	assert.Equal(t, []uint32{0, 2, 1, 1, 2, 3}, bundle.Arrays["faces"].Uint32s())
	require.NoError(t, Validate(bundle))

	_, err = BuildMeshScene(grid2x2(), faces, []float64{1, 2}, Options{})
	assert.ErrorContains(t, err, "2 values for 4 vertices")
}

func TestBuildMeshScene_FaceIndicesNotChecked(t *testing.T) {
	bundle, err := BuildMeshScene(grid2x2(), [][3]uint32{{0, 1, 7}}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 7}, bundle.Arrays["faces"].Uint32s())
	require.NoError(t, Validate(bundle))
}

func TestGridFaces(t *testing.T) {
	assert.Len(t, GridFaces(3, 4), 2*2*3)
	assert.Nil(t, GridFaces(1, 5))

	faces := GridFaces(2, 3)
	assert.Equal(t, [][3]uint32{
		{0, 3, 1}, {1, 3, 4},
		{1, 4, 2}, {2, 4, 5},
	}, faces)
}

func TestBuildBuffers(t *testing.T) {
	faces, err := NewUint32([]uint32{0, 1, 2}, 1, 3)
	require.NoError(t, err)
	specs := BuildBuffers(map[string]Array{
		"positions": FromDense(grid2x2()),
		"faces":     faces,
	})
	assert.Equal(t, map[string]BufferSpec{
		"positions": {DType: Float32, Shape: []int{4, 3}},
		"faces":     {DType: Uint32, Shape: []int{1, 3}},
	}, specs)
}

func TestNewArray_ShapeMismatch(t *testing.T) {
	_, err := NewFloat32([]float32{1, 2, 3}, 2, 2)
	assert.ErrorContains(t, err, "holds 4 elements, data has 3")
	_, err = NewUint32([]uint32{1}, -1)
	assert.Error(t, err)
}

func TestBundleHash(t *testing.T) {
	a, err := BuildSurfaceScene(grid2x2(), [2]int{2, 2}, Options{})
	require.NoError(t, err)
	b, err := BuildSurfaceScene(grid2x2(), [2]int{2, 2}, Options{})
	require.NoError(t, err)
	c, err := BuildSurfaceScene(grid2x2(), [2]int{4, 1}, Options{})
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	hc, err := c.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
	assert.Len(t, ha, 64)
}
