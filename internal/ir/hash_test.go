package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceHashDeterminism(t *testing.T) {
	src := "coords: u v\nX(u,v) = (u, v, 0)\n"

	assert.Equal(t, SourceHash(src), SourceHash(src))
	assert.Len(t, SourceHash(src), 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, SourceHash(src), SourceHash(src+"# comment\n"))
}

func TestSourceHashNFC(t *testing.T) {
	assert.Equal(t, SourceHash("\u00e9"), SourceHash("e\u0301"))
}

func TestSceneHashIgnoresKeyOrder(t *testing.T) {
	a := map[string]any{"version": "1.0", "objects": []any{}}
	b := map[string]any{"objects": []any{}, "version": "1.0"}

	ha, err := SceneHash(a)
	require.NoError(t, err)
	hb, err := SceneHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t,
		hashWithDomain(DomainSource, data),
		hashWithDomain(DomainScene, data),
		"different domains must produce different hashes")
}

func TestResponseHash(t *testing.T) {
	assert.Equal(t, ResponseHash(`{"a":1}`), ResponseHash(`{"a":1}`))
	assert.NotEqual(t, ResponseHash(`{"a":1}`), ResponseHash(`{"a":2}`))
}

func TestMustSceneHashPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustSceneHash(map[string]any{"bad": make(chan int)})
	})
}
