package llm

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/geometrix/internal/parse"
)

//go:embed schema.cue
var schemaSource string

// Graph types a response may declare.
const (
	GraphCurve    = "curve"
	GraphSurface  = "surface"
	GraphImplicit = "implicit"
	GraphNone     = "none"
)

// Response types.
const (
	ResponseMinimal = "minimal"
	ResponseFull    = "full"
)

// Response is a schema-valid LLM answer.
type Response struct {
	ResponseType string   `json:"response_type"`
	Input        string   `json:"input"`
	Steps        []string `json:"steps,omitempty"`
	Solution     string   `json:"solution"`
	GraphType    string   `json:"graph_type"`
	Graph        string   `json:"graph"`
	Parameters   string   `json:"parameters"`
	Domains      string   `json:"domains"`
	NotGraphable string   `json:"not_graphable"`
}

// ValidateOptions controls the graphability and LaTeX checks.
type ValidateOptions struct {
	WantsGraph     bool
	RequireDomains bool
	// Strict escalates every warning to a hard failure and parses fields
	// that contain \text.
	Strict bool
}

// ValidationResult is a response that passed validation, possibly with
// soft warnings.
type ValidationResult struct {
	Response Response `json:"response"`
	Warnings []string `json:"warnings"`
}

var schema struct {
	once    sync.Once
	ctx     *cue.Context
	minimal cue.Value
	full    cue.Value
	err     error
}

func loadSchema() error {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		v := schema.ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schema.err = fmt.Errorf("compile response schema: %w", err)
			return
		}
		schema.minimal = v.LookupPath(cue.ParsePath("#Minimal"))
		schema.full = v.LookupPath(cue.ParsePath("#Full"))
	})
	return schema.err
}

// ValidateResponse checks raw LLM output. Hard failures return a
// *ValidationError; LaTeX problems become warnings unless opts.Strict.
func ValidateResponse(text string, opts ValidateOptions) (*ValidationResult, error) {
	data, err := parseJSON(text)
	if err != nil {
		return nil, err
	}
	resp, err := validateSchema(data)
	if err != nil {
		return nil, err
	}

	var warnings []string
	graphWarnings, err := checkGraphability(resp, opts)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, graphWarnings...)
	warnings = append(warnings, checkLatex(resp, opts.Strict)...)

	if opts.Strict && len(warnings) > 0 {
		return nil, &ValidationError{Code: ErrStrictLatex, Message: "LaTeX validation failed: " + strings.Join(warnings, "; ")}
	}
	if warnings == nil {
		warnings = []string{}
	}
	slog.Debug("validated llm response", "type", resp.ResponseType, "graph_type", resp.GraphType, "warnings", len(warnings))
	return &ValidationResult{Response: *resp, Warnings: warnings}, nil
}

// parseJSON decodes text as a JSON object. When text is not JSON the
// outermost {...} span is tried, first as is and then with every backslash
// doubled.
func parseJSON(text string) (map[string]any, error) {
	var payload any
	err := json.Unmarshal([]byte(text), &payload)
	if err != nil {
		if obj, ok := extractObject(text); ok {
			return obj, nil
		}
		return nil, &ValidationError{Code: ErrInvalidJSON, Message: "LLM response is not valid JSON", Err: err}
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, &ValidationError{Code: ErrInvalidJSON, Message: "LLM response JSON must be an object"}
	}
	return obj, nil
}

func extractObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	snippet := text[start : end+1]
	for _, candidate := range []string{snippet, strings.ReplaceAll(snippet, `\`, `\\`)} {
		var obj map[string]any
		if json.Unmarshal([]byte(candidate), &obj) == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

func validateSchema(data map[string]any) (*Response, error) {
	if err := loadSchema(); err != nil {
		return nil, err
	}
	def := schema.minimal
	if data["response_type"] == ResponseFull {
		def = schema.full
	}
	v := def.Unify(schema.ctx.Encode(data))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &ValidationError{
			Code:    ErrSchema,
			Message: "LLM response does not match schema",
			Err:     errors.New(strings.TrimSpace(cueerrors.Details(err, nil))),
		}
	}
	var resp Response
	if err := v.Decode(&resp); err != nil {
		return nil, &ValidationError{Code: ErrSchema, Message: "decode LLM response", Err: err}
	}
	return &resp, nil
}

func checkGraphability(resp *Response, opts ValidateOptions) ([]string, error) {
	if opts.WantsGraph && resp.GraphType == GraphNone {
		return nil, &ValidationError{Code: ErrNotGraphable, Message: "graph requested but graph_type is none"}
	}
	if resp.GraphType != GraphNone && resp.Graph == "" {
		return nil, &ValidationError{Code: ErrMissingGraph, Message: "graph_type requires a non-empty graph field"}
	}
	if opts.RequireDomains && resp.GraphType != GraphNone && resp.Domains == "" {
		return []string{"graph_type provided without domains"}, nil
	}
	return nil, nil
}

// latexField is one named LaTeX value of a response.
type latexField struct {
	name  string
	value string
}

func latexFields(resp *Response) []latexField {
	fields := []latexField{
		{"input", resp.Input},
		{"solution", resp.Solution},
		{"graph", resp.Graph},
		{"parameters", resp.Parameters},
		{"domains", resp.Domains},
		{"not_graphable", resp.NotGraphable},
	}
	for i, step := range resp.Steps {
		fields = append(fields, latexField{fmt.Sprintf("steps[%d]", i), step})
	}
	return fields
}

// checkLatex parses every non-empty field with the symbols it mentions.
func checkLatex(resp *Response, strict bool) []string {
	var warnings []string
	for _, f := range latexFields(resp) {
		if f.value == "" {
			continue
		}
		if !strict && strings.Contains(f.value, `\text`) {
			continue
		}
		if _, err := parse.ParseLatex(f.value, parse.LatexSymbols(f.value)); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s failed LaTeX parse: %v", f.name, err))
		}
	}
	return warnings
}
