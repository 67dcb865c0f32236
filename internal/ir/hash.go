package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource   = "geometrix/source/v1"
	DomainScene    = "geometrix/scene/v1"
	DomainResponse = "geometrix/llm-response/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash identifies DSL source text. The text is NFC normalized first so
// visually identical sources hash the same.
func SourceHash(source string) string {
	return hashWithDomain(DomainSource, []byte(norm.NFC.String(source)))
}

// SceneHash identifies a scene specification by its canonical JSON.
func SceneHash(scene any) (string, error) {
	canonical, err := MarshalCanonical(scene)
	if err != nil {
		return "", fmt.Errorf("SceneHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScene, canonical), nil
}

// ResponseHash identifies a raw LLM response body.
func ResponseHash(raw string) string {
	return hashWithDomain(DomainResponse, []byte(raw))
}

// MustSceneHash is like SceneHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSceneHash(scene any) string {
	h, err := SceneHash(scene)
	if err != nil {
		panic(err)
	}
	return h
}
