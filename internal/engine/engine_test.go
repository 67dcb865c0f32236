package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/scene"
	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/transport"
)

const planeSource = "coords: u v\nX(u,v) = (u, v, 0)\nrender: surface X domain u:[0,1] v:[0,1] res 4 3"

type failingRecorder struct{}

func (failingRecorder) WriteRender(context.Context, store.Render) error {
	return errors.New("disk full")
}

type recordingDisplay struct {
	shown []*scene.Bundle
	err   error
}

func (d *recordingDisplay) Name() string { return "recording" }

func (d *recordingDisplay) Show(_ context.Context, b *scene.Bundle) error {
	d.shown = append(d.shown, b)
	return d.err
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEngine_Render(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	display := &recordingDisplay{}
	e := New(
		WithIDGenerator(NewFixedGenerator("render-1", "render-2")),
		WithClock(NewClockAt(10)),
		WithRecorder(s),
		WithDisplay(display),
	)

	r, err := e.Render(ctx, planeSource)
	require.NoError(t, err)
	assert.Equal(t, "render-1", r.ID)
	assert.Equal(t, int64(11), r.Seq)
	assert.Nil(t, r.Animation)
	assert.Equal(t, ir.MustSceneHash(r.Bundle.Scene), r.SceneHash)
	require.Len(t, display.shown, 1)
	assert.Same(t, r.Bundle, display.shown[0])

	row, err := s.ReadRender(ctx, "render-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), row.Seq)
	assert.Equal(t, "surface", row.Kind)
	assert.Equal(t, "X", row.Target)
	assert.Equal(t, ir.SourceHash(planeSource), row.SourceHash)
	assert.Equal(t, r.SceneHash, row.SceneHash)
	assert.Equal(t, 12, row.Vertices)
	assert.Equal(t, ir.EngineVersion, row.EngineVersion)
	assert.Equal(t, ir.SceneVersion, row.SceneVersion)

	canonical, err := ir.MarshalCanonical(r.Bundle.Scene)
	require.NoError(t, err)
	assert.Equal(t, string(canonical), string(row.Scene))

	// Same source renders to the same scene hash under a new id.
	again, err := e.Render(ctx, planeSource)
	require.NoError(t, err)
	assert.Equal(t, "render-2", again.ID)
	assert.Equal(t, r.SceneHash, again.SceneHash)

	bySource, err := s.FindRendersBySource(ctx, ir.SourceHash(planeSource))
	require.NoError(t, err)
	assert.Len(t, bySource, 2)
}

func TestRender_RecordUsesBuiltRequest(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   string
		target string
	}{
		{"surface", planeSource, "surface", "X"},
		{"mesh with values", "coords: u v\nh = u*v\nX(u, v) = (u, v, h)\nrender: mesh X res 3 3 values=h", "mesh", "X"},
		{"curve", "coords: s\nC(s) = (s, s, s)\nrender: curve C res 4", "curve", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := openStore(t)
			r, err := New(WithRecorder(s)).Render(ctx, tt.source)
			require.NoError(t, err)
			assert.Equal(t, r.Program.IR.RenderRequests[0], r.Request)

			row, err := s.ReadRender(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, row.Kind)
			assert.Equal(t, tt.target, row.Target)
		})
	}

	// The row comes from the request on the render, not from the program.
	prog, err := Geom("coords: u v\nX(u, v) = (u, v, 0)")
	require.NoError(t, err)
	b, err := scene.BuildPointsScene(mat.NewDense(1, 3, []float64{0, 0, 0}), scene.Options{})
	require.NoError(t, err)
	r := &Render{ID: "r", Seq: 1, Program: prog, Request: ir.RenderRequest{Kind: KindPoints, Target: "X"}, Bundle: b}
	row, err := r.record()
	require.NoError(t, err)
	assert.Equal(t, KindPoints, row.Kind)
	assert.Equal(t, "X", row.Target)
	assert.Equal(t, 1, row.Vertices)
}

func TestEngine_Defaults(t *testing.T) {
	r, err := New().Render(context.Background(), planeSource)
	require.NoError(t, err)
	assert.Len(t, r.ID, 36)
	assert.Equal(t, int64(1), r.Seq)
}

func TestEngine_WithResolution(t *testing.T) {
	ctx := context.Background()
	e := New(WithResolution(5))

	r, err := e.Render(ctx, "coords: u v\nX(u,v) = (u, v, 0)\nrender: surface X")
	require.NoError(t, err)
	assert.Equal(t, []int{25, 3}, r.Bundle.Arrays[scene.RolePositions].Shape())

	// An explicit res wins.
	r, err = e.Render(ctx, planeSource)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 3}, r.Bundle.Arrays[scene.RolePositions].Shape())
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New().Render(ctx, "coords: u v\nrender: surface X")
	assert.True(t, IsRenderError(err, ErrCodeInvalidTarget))

	_, err = New(WithRecorder(failingRecorder{})).Render(ctx, planeSource)
	assert.ErrorContains(t, err, "disk full")

	_, err = New(WithDisplay(&recordingDisplay{err: errors.New("closed")})).Render(ctx, planeSource)
	assert.ErrorContains(t, err, "display recording: closed")
}

func TestEngine_UnavailableDisplayIsNotAnError(t *testing.T) {
	d, err := transport.ResolveDisplay(transport.DisplayNone, "")
	require.NoError(t, err)

	_, err = New(WithDisplay(d)).Render(context.Background(), planeSource)
	assert.NoError(t, err)
}

func TestEngine_Animate(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	path := filepath.Join(t.TempDir(), "scene.json")
	e := New(
		WithIDGenerator(NewFixedGenerator("anim-1")),
		WithRecorder(s),
		WithDisplay(&transport.JSONFile{Path: path}),
	)

	src := "coords: u v\nX(u, v) = (u, v, t)\nrender: surface X res 2 2"
	r, err := e.Animate(ctx, src, []float64{0, 1}, 24, true)
	require.NoError(t, err)
	require.NotNil(t, r.Animation)

	row, err := s.ReadRender(ctx, "anim-1")
	require.NoError(t, err)
	assert.Equal(t, 2, row.Frames)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc transport.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotNil(t, doc.Scene.Animation)
	assert.Equal(t, 24, doc.Scene.Animation.FPS)
	assert.Len(t, doc.Frames, 2)
}
