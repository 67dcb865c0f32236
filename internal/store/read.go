package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/geometrix/internal/queryir"
	"github.com/roach88/geometrix/internal/querysql"
)

var renderColumns = []string{
	"id", "seq", "kind", "target", "source_hash", "scene_hash",
	"source", "scene", "vertices", "frames", "engine_version", "scene_version",
}

var responseColumns = []string{
	"id", "seq", "provider", "model", "problem", "response_type",
	"response_hash", "raw", "valid", "error_code", "warnings", "attempts",
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadRender retrieves a render by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRender(ctx context.Context, id string) (Render, error) {
	renders, err := s.FindRenders(ctx, queryir.Equals{Field: "id", Value: id}, 0)
	if err != nil {
		return Render{}, err
	}
	if len(renders) == 0 {
		return Render{}, sql.ErrNoRows
	}
	return renders[0], nil
}

// ListRenders returns renders ordered by seq ASC, id ASC. A limit > 0
// keeps only the most recent limit renders, still in ascending order.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListRenders(ctx context.Context, limit int) ([]Render, error) {
	return s.FindRenders(ctx, nil, limit)
}

// FindRendersBySource returns every render of the source with the given
// hash, ordered by seq.
func (s *Store) FindRendersBySource(ctx context.Context, sourceHash string) ([]Render, error) {
	return s.FindRenders(ctx, queryir.Equals{Field: "source_hash", Value: sourceHash}, 0)
}

// FindRenders returns the renders matching filter, ordered by seq ASC,
// id ASC. A nil filter matches every render; limit behaves as in
// ListRenders.
func (s *Store) FindRenders(ctx context.Context, filter queryir.Predicate, limit int) ([]Render, error) {
	query, args, err := querysql.Compile(queryir.Select{
		From:    "renders",
		Columns: renderColumns,
		Filter:  filter,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	renders := []Render{}
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		renders = append(renders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return renders, nil
}

func scanRender(row scanner) (Render, error) {
	var r Render
	var scene string
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.Kind,
		&r.Target,
		&r.SourceHash,
		&r.SceneHash,
		&r.Source,
		&scene,
		&r.Vertices,
		&r.Frames,
		&r.EngineVersion,
		&r.SceneVersion,
	)
	if err == sql.ErrNoRows {
		return Render{}, err
	}
	if err != nil {
		return Render{}, fmt.Errorf("scan render: %w", err)
	}
	r.Scene = json.RawMessage(scene)
	return r, nil
}

// ReadLLMResponse retrieves an LLM response by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadLLMResponse(ctx context.Context, id string) (LLMResponse, error) {
	responses, err := s.FindLLMResponses(ctx, queryir.Equals{Field: "id", Value: id}, 0)
	if err != nil {
		return LLMResponse{}, err
	}
	if len(responses) == 0 {
		return LLMResponse{}, sql.ErrNoRows
	}
	return responses[0], nil
}

// ListLLMResponses returns every LLM response ordered by seq ASC, id ASC.
func (s *Store) ListLLMResponses(ctx context.Context) ([]LLMResponse, error) {
	return s.FindLLMResponses(ctx, nil, 0)
}

// FindLLMResponses returns the LLM responses matching filter, ordered by
// seq ASC, id ASC. A limit > 0 keeps only the most recent limit responses.
func (s *Store) FindLLMResponses(ctx context.Context, filter queryir.Predicate, limit int) ([]LLMResponse, error) {
	query, args, err := querysql.Compile(queryir.Select{
		From:    "llm_responses",
		Columns: responseColumns,
		Filter:  filter,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm responses: %w", err)
	}
	defer rows.Close()

	responses := []LLMResponse{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate llm responses: %w", err)
	}
	return responses, nil
}

func scanResponse(row scanner) (LLMResponse, error) {
	var r LLMResponse
	var warnings string
	err := row.Scan(
		&r.ID,
		&r.Seq,
		&r.Provider,
		&r.Model,
		&r.Problem,
		&r.ResponseType,
		&r.ResponseHash,
		&r.Raw,
		&r.Valid,
		&r.ErrorCode,
		&warnings,
		&r.Attempts,
	)
	if err == sql.ErrNoRows {
		return LLMResponse{}, err
	}
	if err != nil {
		return LLMResponse{}, fmt.Errorf("scan llm response: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
		return LLMResponse{}, fmt.Errorf("unmarshal warnings of %s: %w", r.ID, err)
	}
	return r, nil
}
