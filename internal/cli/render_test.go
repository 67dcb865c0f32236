package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/testutil"
	"github.com/roach88/geometrix/internal/transport"
)

const waveSource = `coords: u v
params: t=0
X(u, v) = (u, v, t*u)
render: surface X res 2 2
`

// executeRender runs the render command with deterministic ids and clock.
func executeRender(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	opts := &RenderOptions{
		RootOptions: rootOpts,
		IDGenerator: testutil.NewSequentialIDs("render"),
		Clock:       testutil.NewDeterministicClock(),
	}
	cmd := newRenderCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRenderText(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)

	output, err := executeRender(t, "text", path)
	require.NoError(t, err)

	assert.Contains(t, output, "\u2713 Rendered surface X (6 vertices)")
	assert.Contains(t, output, "id:          render-0001")
	assert.Contains(t, output, "seq:         1")
	assert.Contains(t, output, "source hash: "+ir.SourceHash(planeSource))
	assert.Contains(t, output, "positions: float32[6 3]")
}

func TestRenderJSON(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)

	output, err := executeRender(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   RenderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "render-0001", resp.Data.ID)
	assert.Equal(t, "surface", resp.Data.Kind)
	assert.Equal(t, "X", resp.Data.Target)
	assert.Equal(t, 6, resp.Data.Vertices)
	assert.Equal(t, 1, resp.Data.Objects)
	assert.Equal(t, transport.DisplayNone, resp.Data.Display)
	assert.False(t, resp.Data.Recorded)
	assert.NotEmpty(t, resp.Data.SceneHash)
}

func TestRenderDeterministicSceneHash(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)

	hashOf := func() string {
		output, err := executeRender(t, "json", path)
		require.NoError(t, err)
		var resp struct {
			Data RenderSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(output), &resp))
		return resp.Data.SceneHash
	}
	assert.Equal(t, hashOf(), hashOf())
}

func TestRenderResolutionFlag(t *testing.T) {
	path := writeFile(t, "plane.geo", "coords: u v\nX(u, v) = (u, v, 0)\nrender: surface X\n")

	output, err := executeRender(t, "text", path, "--res", "4")
	require.NoError(t, err)
	assert.Contains(t, output, "(16 vertices)")

	_, err = executeRender(t, "text", path, "--res", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderJSONDisplay(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)
	out := filepath.Join(t.TempDir(), "plane.json")

	output, err := executeRender(t, "text", path, "--display", "json", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote json display to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc transport.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotNil(t, doc.Scene)
	require.NotNil(t, doc.Payload)
	assert.Contains(t, doc.Payload.Buffers, "positions")
}

func TestRenderDisplayNeedsPath(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)

	output, err := executeRender(t, "text", path, "--display", "png")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, ErrCodeBadFlag)
}

func TestRenderAnimate(t *testing.T) {
	path := writeFile(t, "wave.geo", waveSource)

	output, err := executeRender(t, "json", path, "--animate", "0,0.5,1", "--fps", "12")
	require.NoError(t, err)

	var resp struct {
		Data RenderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, 3, resp.Data.Frames)
	assert.Equal(t, 4, resp.Data.Vertices)
}

func TestRenderInvalidTarget(t *testing.T) {
	path := writeFile(t, "bad.geo", "coords: u v\nrender: surface Y\n")

	output, err := executeRender(t, "json", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_TARGET", resp.Error.Code)
}

func TestRenderRecordsHistory(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	output, err := executeRender(t, "json", path, "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data RenderSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.True(t, resp.Data.Recorded)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	r, err := st.ReadRender(context.Background(), "render-0001")
	require.NoError(t, err)
	assert.Equal(t, planeSource, r.Source)
	assert.Equal(t, ir.SourceHash(planeSource), r.SourceHash)
	assert.Equal(t, resp.Data.SceneHash, r.SceneHash)
	assert.Equal(t, 6, r.Vertices)
}

func TestRenderContinuesStoredSequence(t *testing.T) {
	path := writeFile(t, "plane.geo", planeSource)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	for range 2 {
		buf := &bytes.Buffer{}
		cmd := NewRenderCommand(&RootOptions{Format: "text"})
		cmd.SetOut(buf)
		cmd.SetArgs([]string{path, "--db", dbPath})
		require.NoError(t, cmd.Execute())
	}

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	renders, err := st.ListRenders(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, renders, 2)
	assert.Equal(t, int64(1), renders[0].Seq)
	assert.Equal(t, int64(2), renders[1].Seq)
	assert.NotEqual(t, renders[0].ID, renders[1].ID)
	assert.Equal(t, renders[0].SceneHash, renders[1].SceneHash)
}
