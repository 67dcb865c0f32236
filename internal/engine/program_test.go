package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geometrix/internal/compiler"
	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/parse"
	"github.com/roach88/geometrix/internal/sample"
	"github.com/roach88/geometrix/internal/scene"
)

func TestProgram_BuildScene_Plane(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u,v) = (u, v, 0)\nrender: surface X domain u:[0,1] v:[0,1] res 4 3")
	require.NoError(t, err)

	b, err := prog.BuildScene()
	require.NoError(t, err)

	assert.Equal(t, ir.SceneVersion, b.Scene.Version)
	pos := b.Arrays[scene.RolePositions]
	assert.Equal(t, []int{12, 3}, pos.Shape())
	assert.Equal(t, scene.BufferSpec{DType: scene.Float32, Shape: []int{12, 3}}, b.Scene.Buffers[scene.RolePositions])

	require.Len(t, b.Scene.Objects, 1)
	obj := b.Scene.Objects[0]
	assert.Equal(t, scene.TypeSurfaceGrid, obj.Type)
	assert.Equal(t, "X", obj.Name)
	assert.Equal(t, map[string]any{"Nu": 4, "Nv": 3}, obj.Metadata["grid"])

	// u varies slowest: row 2 is (u=0, v=1), row 3 is (u=1/3, v=0).
	data := pos.Float32s()
	assert.Equal(t, []float32{0, 1, 0}, data[6:9])
	assert.InDelta(t, 1.0/3, data[9], 1e-6)
	assert.Equal(t, float32(0), data[10])
}

func TestProgram_BuildScene_SphereWithParams(t *testing.T) {
	src := `coords: u v
params: R=2
X(u, v) = (R*sin(u)*cos(v), R*sin(u)*sin(v), R*cos(u))
render: surface X domain u:[0,pi] v:[0,2*pi] res 8 16 color=red opacity=0.5 wire`
	prog, err := Geom(src)
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	data := b.Arrays[scene.RolePositions].Float32s()
	require.Len(t, data, 8*16*3)
	for i := 0; i < len(data); i += 3 {
		x, y, z := float64(data[i]), float64(data[i+1]), float64(data[i+2])
		assert.InDelta(t, 2.0, math.Sqrt(x*x+y*y+z*z), 1e-5)
	}

	style := b.Scene.Objects[0].Style
	assert.Equal(t, "red", style["color"])
	assert.Equal(t, 0.5, style["opacity"])
	assert.Equal(t, "wire", style["arg_8"])
	assert.NotContains(t, style, "domain")
	assert.NotContains(t, style, "res")
}

func TestProgram_BuildScene_Defaults(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u, v) = (u, v, u*v)\nrender: surface X")
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	assert.Equal(t, []int{DefaultResolution * DefaultResolution, 3}, b.Arrays[scene.RolePositions].Shape())
	data := b.Arrays[scene.RolePositions].Float32s()
	last := data[len(data)-3:]
	assert.Equal(t, []float32{1, 1, 1}, last)
}

func TestProgram_BuildScene_PartialDomain(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X domain v:[2,3] u:[-1,0] res 2 2")
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	// Ranges are matched by name, not position.
	assert.Equal(t, []float32{-1, 2, 0, -1, 3, 0, 0, 2, 0, 0, 3, 0}, b.Arrays[scene.RolePositions].Float32s())
}

func TestProgram_BuildScene_InlinesDefinitions(t *testing.T) {
	src := `coords: u v
params: a=2
r = a + 1
h = r*u
X(u, v) = (h, v, r)
render: surface X res 2 2`
	prog, err := Geom(src)
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 3, 0, 1, 3, 3, 0, 3, 3, 1, 3}, b.Arrays[scene.RolePositions].Float32s())
}

func TestProgram_BuildScene_Time(t *testing.T) {
	src := "coords: u v\nparams: t=2\nX(u, v) = (u, v, t)\nrender: surface X res 2 2"
	prog, err := Geom(src)
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)
	assert.Equal(t, float32(2), b.Arrays[scene.RolePositions].Float32s()[2])
	assert.Equal(t, 2.0, b.Scene.Objects[0].Metadata["time"])

	prog, err = Geom("coords: u v\nX(u, v) = (u, v, t)\nrender: surface X res 2 2 time 0.25")
	require.NoError(t, err)
	b, err = prog.BuildScene()
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), b.Arrays[scene.RolePositions].Float32s()[2])
}

func TestProgram_BuildScene_Curve(t *testing.T) {
	prog, err := Geom("coords: s\nC(s) = (cos(pi*s), sin(pi*s), s)\nrender: curve C res 5 5")
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	assert.Equal(t, scene.TypeLine, b.Scene.Objects[0].Type)
	data := b.Arrays[scene.RolePositions].Float32s()
	require.Len(t, data, 15)
	assert.InDelta(t, -1, data[12], 1e-6)
	assert.InDelta(t, 0, data[13], 1e-6)
	assert.Equal(t, float32(1), data[14])
}

func TestProgram_BuildScene_Points(t *testing.T) {
	prog, err := Geom("coords: u v\nP(u, v) = (u, v, 1)\nrender: points P res 3 2")
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)
	assert.Equal(t, scene.TypePoints, b.Scene.Objects[0].Type)
	assert.Equal(t, []int{6, 3}, b.Arrays[scene.RolePositions].Shape())
}

func TestProgram_BuildScene_Mesh(t *testing.T) {
	src := "coords: u v\nh(u, v) = u + 2*v\nX(u, v) = (u, v, 0)\nrender: mesh X res 2 3 values=h color=blue"
	prog, err := Geom(src)
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	obj := b.Scene.Objects[0]
	assert.Equal(t, scene.TypeMesh, obj.Type)
	assert.Equal(t, "blue", obj.Style["color"])
	assert.NotContains(t, obj.Style, ir.OptionValues)

	assert.Equal(t, []int{6, 3}, b.Arrays[scene.RolePositions].Shape())
	assert.Equal(t, []uint32{0, 3, 1, 1, 3, 4, 1, 4, 2, 2, 4, 5}, b.Arrays[scene.RoleFaces].Uint32s())
	// u varies slowest: (0,0) (0,.5) (0,1) (1,0) (1,.5) (1,1)
	assert.Equal(t, []float32{0, 1, 2, 1, 2, 3}, b.Arrays[scene.RoleValues].Float32s())
	require.NoError(t, scene.Validate(b))
}

func TestProgram_BuildScene_MeshWithoutValues(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u, v) = (u, v, u*v)\nrender: mesh X res 3 3")
	require.NoError(t, err)
	b, err := prog.BuildScene()
	require.NoError(t, err)

	assert.Len(t, b.Arrays[scene.RoleFaces].Uint32s(), 2*2*2*3)
	assert.NotContains(t, b.Arrays, scene.RoleValues)
}

func TestProgram_BuildScene_CurveValues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []float32
	}{
		{"varying", "coords: s\nspeed = 2*s\nC(s) = (s, 0, 0)\nrender: curve C res 3 values=speed", []float32{0, 1, 2}},
		{"constant", "coords: s\nparams: k=4\nlevel = k + 1\nC(s) = (s, 0, 0)\nrender: curve C res 3 values=level", []float32{5, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Geom(tt.src)
			require.NoError(t, err)
			b, err := prog.BuildScene()
			require.NoError(t, err)
			assert.Equal(t, scene.TypeLine, b.Scene.Objects[0].Type)
			assert.Equal(t, tt.want, b.Arrays[scene.RoleValues].Float32s())
		})
	}
}

func TestProgram_BuildRequest(t *testing.T) {
	src := "coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X res 2 2\nrender: points X res 3 3"
	prog, err := Geom(src)
	require.NoError(t, err)
	b, err := prog.BuildRequest(prog.IR.RenderRequests[1])
	require.NoError(t, err)
	assert.Equal(t, scene.TypePoints, b.Scene.Objects[0].Type)
	assert.Equal(t, []int{9, 3}, b.Arrays[scene.RolePositions].Shape())
}

func TestProgram_BuildScene_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code RenderErrorCode
	}{
		{"no render", "coords: u v\nX(u, v) = (u, v, 0)", ErrCodeNoRenderRequests},
		{"unsupported kind", "coords: u v\nX(u, v) = (u, v, 0)\nrender: volume X", ErrCodeUnsupportedKind},
		{"missing target", "coords: u v\nrender: surface X", ErrCodeInvalidTarget},
		{"scalar target", "coords: u v\nh = u + v\nrender: surface h", ErrCodeInvalidTarget},
		{"surface over one coordinate", "coords: s\nC(s) = (s, s, s)\nrender: surface C", ErrCodeInvalidTarget},
		{"curve over two coordinates", "coords: u v\nX(u, v) = (u, v, 0)\nrender: curve X", ErrCodeInvalidTarget},
		{"bad res", "coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X res 1 4", ErrCodeInvalidOption},
		{"bad time", "coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X time soon", ErrCodeInvalidOption},
		{"values on surface", "coords: u v\nh = u\nX(u, v) = (u, v, 0)\nrender: surface X values=h", ErrCodeInvalidOption},
		{"values names a vector", "coords: u v\nX(u, v) = (u, v, 0)\nrender: mesh X values=X", ErrCodeInvalidOption},
		{"values names nothing", "coords: u v\nX(u, v) = (u, v, 0)\nrender: mesh X values=missing", ErrCodeInvalidOption},
		{"mesh over one coordinate", "coords: s\nC(s) = (s, s, s)\nrender: mesh C", ErrCodeInvalidTarget},
		{"unknown domain name", "coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X domain u:[0,1] w:[0,1]", ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Geom(tt.src)
			require.NoError(t, err)
			_, err = prog.BuildScene()
			var re *RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.code, re.Code)
			assert.True(t, IsRenderError(err, tt.code))
		})
	}
}

func TestProgram_BuildScene_WrappedErrors(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		_, err := Geom("coords: u v\nplot X")
		var dslErr *parse.DSLError
		require.ErrorAs(t, err, &dslErr)
	})

	t.Run("domain", func(t *testing.T) {
		prog, err := Geom("coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X domain u:[1,0] v:[0,1]")
		require.NoError(t, err)
		_, err = prog.BuildScene()
		var domErr *sample.DomainError
		require.ErrorAs(t, err, &domErr)
		assert.Equal(t, sample.ErrDomainBounds, domErr.Code)
	})

	t.Run("cycle", func(t *testing.T) {
		prog, err := Geom("coords: u v\na = b\nb = a\nX(u, v) = (a, u, v)\nrender: surface X")
		require.NoError(t, err)
		_, err = prog.BuildScene()
		var cycleErr *compiler.CycleError
		require.ErrorAs(t, err, &cycleErr)
	})

	t.Run("two components", func(t *testing.T) {
		prog, err := Geom("coords: u v\nX(u, v) = (u, v)\nrender: surface X res 2 2")
		require.NoError(t, err)
		_, err = prog.BuildScene()
		var domErr *sample.DomainError
		require.ErrorAs(t, err, &domErr)
		assert.Equal(t, sample.ErrChannels, domErr.Code)
	})
}

func TestProgram_Animate(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u, v) = (u, v, t)\nrender: surface X res 2 2")
	require.NoError(t, err)

	b, anim, err := prog.Animate([]float64{0, 0.5, 1}, 12, false)
	require.NoError(t, err)
	require.Len(t, anim.Frames, 3)
	assert.Equal(t, 12, anim.FPS)
	assert.False(t, anim.Loop)

	require.NotNil(t, b.Scene.Animation)
	assert.Equal(t, 3, b.Scene.Animation.FrameCount)
	assert.Equal(t, "t", b.Scene.Animation.Metadata["time_param"])
	for i, want := range []float32{0, 0.5, 1} {
		assert.Equal(t, want, anim.Frames[i].Arrays[scene.RolePositions].Float32s()[2])
	}
	assert.Equal(t, b.Arrays, anim.Frames[0].Arrays)

	_, anim, err = prog.Animate([]float64{1}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, scene.DefaultFPS, anim.FPS)

	_, _, err = prog.Animate(nil, 0, true)
	assert.True(t, IsRenderError(err, ErrCodeInvalidOption))

	_, _, err = prog.Animate([]float64{0}, -1, true)
	assert.True(t, IsRenderError(err, ErrCodeInvalidOption))
}

func TestProgram_Hash(t *testing.T) {
	a, err := Geom("coords: u v")
	require.NoError(t, err)
	b, err := Geom("coords: u v")
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, ir.SourceHash("coords: u v"), a.Hash())
}

func TestProgram_Check(t *testing.T) {
	prog, err := Geom("coords: u v\nX(u,v) = (u, v, 0)\nrender: surface X\nrender: curve X\nrender: surface Y\nrender: points X res=1")
	require.NoError(t, err)

	errs := prog.Check()
	require.Len(t, errs, 3)
	assert.True(t, IsRenderError(errs[0], ErrCodeInvalidTarget), "err = %v", errs[0])
	assert.True(t, IsRenderError(errs[1], ErrCodeInvalidTarget), "err = %v", errs[1])
	assert.True(t, IsRenderError(errs[2], ErrCodeInvalidOption), "err = %v", errs[2])

	prog, err = Geom("coords: u v\nX(u,v) = (u, v, 0)")
	require.NoError(t, err)
	assert.Empty(t, prog.Check())
}
