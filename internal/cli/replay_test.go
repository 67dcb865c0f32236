package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/testutil"
)

func executeReplay(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReplayDeterministic(t *testing.T) {
	plane := writeFile(t, "plane.geo", planeSource)
	sphere := filepath.Join("..", "harness", "testdata", "sources", "sphere.geo")
	dbPath := filepath.Join(t.TempDir(), "history.db")
	recordRenders(t, dbPath, plane, sphere)

	output, err := executeReplay(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Replay Summary: 2 render(s)")
	assert.Contains(t, output, "\u2713 render-0001 X")
	assert.Contains(t, output, "\u2713 render-0002 X")
	assert.Contains(t, output, "\u2713 All renders verified deterministic")
}

func TestReplaySkipsAnimations(t *testing.T) {
	wave := writeFile(t, "wave.geo", waveSource)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	opts := &RenderOptions{
		RootOptions: &RootOptions{Format: "text"},
		IDGenerator: testutil.NewSequentialIDs("render"),
	}
	cmd := newRenderCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{wave, "--db", dbPath, "--animate", "0,1"})
	require.NoError(t, cmd.Execute())

	output, err := executeReplay(t, "json", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Renders, 1)
	assert.True(t, resp.Data.Renders[0].Skipped)
	assert.True(t, resp.Data.AllDeterministic)
}

func TestReplayDetectsHashDrift(t *testing.T) {
	plane := writeFile(t, "plane.geo", planeSource)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	recordRenders(t, dbPath, plane)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE renders SET scene_hash = 'tampered' WHERE id = 'render-0001'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	output, err := executeReplay(t, "json", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	require.Len(t, resp.Data.Renders, 1)
	assert.Equal(t, "tampered", resp.Data.Renders[0].StoredHash)
	assert.NotEqual(t, "tampered", resp.Data.Renders[0].ReplayedHash)
}

func TestReplaySingleRender(t *testing.T) {
	plane := writeFile(t, "plane.geo", planeSource)
	dbPath := filepath.Join(t.TempDir(), "history.db")
	recordRenders(t, dbPath, plane, plane)

	output, err := executeReplay(t, "text", "--db", dbPath, "--id", "render-0002")
	require.NoError(t, err)
	assert.Contains(t, output, "Replay Summary: 1 render(s)")
	assert.NotContains(t, output, "render-0001")

	_, err = executeReplay(t, "text", "--db", dbPath, "--id", "render-0009")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	output, err := executeReplay(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No renders found in database.")
}

func TestReplayMissingDatabase(t *testing.T) {
	output, err := executeReplay(t, "text", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, output)
}
