package store

import "encoding/json"

// Render is one row of render history.
type Render struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	Kind          string          `json:"kind"`
	Target        string          `json:"target"`
	SourceHash    string          `json:"source_hash"`
	SceneHash     string          `json:"scene_hash"`
	Source        string          `json:"source"`
	Scene         json.RawMessage `json:"scene"` // canonical scene JSON
	Vertices      int             `json:"vertices"`
	Frames        int             `json:"frames"`
	EngineVersion string          `json:"engine_version"`
	SceneVersion  string          `json:"scene_version"`
}

// LLMResponse is one row of LLM history. Invalid answers are kept with
// the validation error code.
type LLMResponse struct {
	ID           string   `json:"id"`
	Seq          int64    `json:"seq"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	Problem      string   `json:"problem"`
	ResponseType string   `json:"response_type"`
	ResponseHash string   `json:"response_hash"`
	Raw          string   `json:"raw"`
	Valid        bool     `json:"valid"`
	ErrorCode    string   `json:"error_code,omitempty"`
	Warnings     []string `json:"warnings"`
	Attempts     int      `json:"attempts"`
}
