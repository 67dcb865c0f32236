package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// WriteRender inserts a render. Uses ON CONFLICT(id) DO NOTHING so a
// repeated write of the same id is silently ignored.
func (s *Store) WriteRender(ctx context.Context, r Render) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders
		(id, seq, kind, target, source_hash, scene_hash, source, scene, vertices, frames, engine_version, scene_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		r.Kind,
		r.Target,
		r.SourceHash,
		r.SceneHash,
		r.Source,
		string(r.Scene),
		r.Vertices,
		r.Frames,
		r.EngineVersion,
		r.SceneVersion,
	)
	if err != nil {
		return fmt.Errorf("write render: %w", err)
	}
	return nil
}

// WriteLLMResponse inserts an LLM response. Duplicate ids are ignored.
func (s *Store) WriteLLMResponse(ctx context.Context, r LLMResponse) error {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("write llm response: marshal warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO llm_responses
		(id, seq, provider, model, problem, response_type, response_hash, raw, valid, error_code, warnings, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		r.Provider,
		r.Model,
		r.Problem,
		r.ResponseType,
		r.ResponseHash,
		r.Raw,
		r.Valid,
		r.ErrorCode,
		string(warningsJSON),
		r.Attempts,
	)
	if err != nil {
		return fmt.Errorf("write llm response: %w", err)
	}
	return nil
}
