package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/geometrix/internal/queryir"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRender(id string, seq int64) Render {
	return Render{
		ID:            id,
		Seq:           seq,
		Kind:          "surface",
		Target:        "X",
		SourceHash:    "source-" + id,
		SceneHash:     "scene-" + id,
		Source:        "coords: u v",
		Scene:         []byte(`{"version":"1.0"}`),
		Vertices:      12,
		EngineVersion: "0.1.0",
		SceneVersion:  "1.0",
	}
}

func TestOpen_CreatesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.db")

	for i := range 3 {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
	_, err := os.Stat(path)
	require.NoError(t, err)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	for _, table := range []string{"renders", "llm_responses"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_llm_responses_hash'").Scan(&name)
	assert.NoError(t, err)
}

func TestClose_Unopened(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestRenders_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	want := testRender("r1", 1)
	want.Frames = 3
	require.NoError(t, s.WriteRender(ctx, want))

	got, err := s.ReadRender(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Seq, got.Seq)
	assert.Equal(t, want.SourceHash, got.SourceHash)
	assert.Equal(t, want.SceneHash, got.SceneHash)
	assert.JSONEq(t, string(want.Scene), string(got.Scene))
	assert.Equal(t, 12, got.Vertices)
	assert.Equal(t, 3, got.Frames)

	_, err = s.ReadRender(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRenders_WriteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteRender(ctx, testRender("r1", 1)))
	again := testRender("r1", 99)
	require.NoError(t, s.WriteRender(ctx, again))

	got, err := s.ReadRender(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)
}

func TestListRenders_Ordering(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// Written out of order; seq ties break on id.
	for _, r := range []Render{testRender("c", 3), testRender("a", 1), testRender("b2", 2), testRender("b1", 2)} {
		require.NoError(t, s.WriteRender(ctx, r))
	}

	all, err := s.ListRenders(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, renderIDs(all))

	recent, err := s.ListRenders(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "c"}, renderIDs(recent))
}

func TestListRenders_Empty(t *testing.T) {
	got, err := createTestStore(t).ListRenders(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindRendersBySource(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	first, second, other := testRender("r1", 1), testRender("r2", 2), testRender("r3", 3)
	second.SourceHash = first.SourceHash
	for _, r := range []Render{second, other, first} {
		require.NoError(t, s.WriteRender(ctx, r))
	}

	got, err := s.FindRendersBySource(ctx, first.SourceHash)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, renderIDs(got))
}

func TestFindRenders_Filter(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	curve := testRender("r2", 2)
	curve.Kind = "curve"
	animated := testRender("r3", 3)
	animated.Frames = 4
	for _, r := range []Render{testRender("r1", 1), curve, animated, testRender("r4", 4)} {
		require.NoError(t, s.WriteRender(ctx, r))
	}

	got, err := s.FindRenders(ctx, queryir.Equals{Field: "kind", Value: "surface"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3", "r4"}, renderIDs(got))

	still := queryir.Where(
		queryir.Equals{Field: "kind", Value: "surface"},
		queryir.Equals{Field: "frames", Value: int64(0)},
	)
	got, err = s.FindRenders(ctx, still, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r4"}, renderIDs(got))

	got, err = s.FindRenders(ctx, still, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"r4"}, renderIDs(got))

	_, err = s.FindRenders(ctx, queryir.Equals{Field: "frames", Value: "4"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

func TestFindLLMResponses_Filter(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteLLMResponse(ctx, LLMResponse{ID: "q1", Seq: 1, Raw: "{}", Valid: true, Attempts: 1}))
	require.NoError(t, s.WriteLLMResponse(ctx, LLMResponse{ID: "q2", Seq: 2, Raw: "no", ErrorCode: "E501", Attempts: 3}))
	require.NoError(t, s.WriteLLMResponse(ctx, LLMResponse{ID: "q3", Seq: 3, Raw: "{}", Valid: true, Attempts: 1}))

	invalid, err := s.FindLLMResponses(ctx, queryir.Equals{Field: "valid", Value: false}, 0)
	require.NoError(t, err)
	require.Len(t, invalid, 1)
	assert.Equal(t, "q2", invalid[0].ID)

	latest, err := s.FindLLMResponses(ctx, queryir.Equals{Field: "valid", Value: true}, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "q3", latest[0].ID)
}

func TestLLMResponses_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	valid := LLMResponse{
		ID: "q1", Seq: 2, Provider: "openai", Model: "openai/gpt-4o", Problem: "x^2",
		ResponseType: "minimal", ResponseHash: "h1", Raw: "{}", Valid: true,
		Warnings: []string{"domains failed LaTeX parse"}, Attempts: 1,
	}
	invalid := LLMResponse{
		ID: "q0", Seq: 1, Provider: "xai", Model: "xai/grok", Problem: "y",
		ResponseType: "full", ResponseHash: "h0", Raw: "nope", ErrorCode: "E501", Attempts: 2,
	}
	require.NoError(t, s.WriteLLMResponse(ctx, valid))
	require.NoError(t, s.WriteLLMResponse(ctx, invalid))

	got, err := s.ReadLLMResponse(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, valid, got)

	got, err = s.ReadLLMResponse(ctx, "q0")
	require.NoError(t, err)
	assert.False(t, got.Valid)
	assert.Equal(t, "E501", got.ErrorCode)
	assert.Equal(t, []string{}, got.Warnings)

	all, err := s.ListLLMResponses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "q0", all[0].ID)

	_, err = s.ReadLLMResponse(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLastSeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteRender(ctx, testRender("r1", 4)))
	require.NoError(t, s.WriteLLMResponse(ctx, LLMResponse{ID: "q1", Seq: 7, Raw: "{}"}))
	require.NoError(t, s.WriteRender(ctx, testRender("r2", 5)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func renderIDs(renders []Render) []string {
	ids := make([]string, len(renders))
	for i, r := range renders {
		ids[i] = r.ID
	}
	return ids
}
