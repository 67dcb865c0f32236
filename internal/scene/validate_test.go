package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bundle)
		reason string
	}{
		{"valid", func(*Bundle) {}, ""},
		{"missing spec", func(b *Bundle) { delete(b.Scene.Buffers, "positions") }, "missing from scene buffers"},
		{"missing array", func(b *Bundle) { delete(b.Arrays, "positions") }, "missing from arrays"},
		{"dangling reference", func(b *Bundle) { b.Scene.Objects[0].Buffers["normals"] = "normals" }, "missing from scene buffers"},
		{"shape mismatch", func(b *Bundle) {
			b.Scene.Buffers["positions"] = BufferSpec{DType: Float32, Shape: []int{3, 3}}
		}, "spec says float32[3 3]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BuildSurfaceScene(grid2x2(), [2]int{2, 2}, Options{})
			require.NoError(t, err)
			tt.mutate(b)

			err = Validate(b)
			if tt.reason == "" {
				require.NoError(t, err)
				return
			}
			var refErr *ReferenceError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, "surface", refErr.Object)
			assert.Contains(t, refErr.Reason, tt.reason)
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	require.Error(t, Validate(nil))
	require.Error(t, Validate(&Bundle{}))

	b := &Bundle{Scene: NewSceneSpec()}
	b.Scene.Version = ""
	require.Error(t, Validate(b))
}

func TestAnimation(t *testing.T) {
	b, err := BuildSurfaceScene(grid2x2(), [2]int{2, 2}, Options{})
	require.NoError(t, err)

	anim := NewAnimation([]Frame{
		{T: 0, Arrays: b.Arrays},
		{T: 0.5, Arrays: b.Arrays},
	})
	require.NoError(t, anim.Validate(b.Scene))
	assert.Equal(t, AnimationSpec{FPS: 30, Loop: true, FrameCount: 2, Metadata: map[string]any{}}, anim.Spec())

	withAnim := AttachAnimation(b.Scene, anim)
	require.NotNil(t, withAnim.Animation)
	assert.Equal(t, 2, withAnim.Animation.FrameCount)
	assert.Nil(t, b.Scene.Animation, "original scene is unchanged")

	bad := NewAnimation([]Frame{{T: 1, Arrays: map[string]Array{}}})
	assert.ErrorContains(t, bad.Validate(b.Scene), `missing buffer "positions"`)

	anim.FPS = 0
	assert.Error(t, anim.Validate(b.Scene))
}
