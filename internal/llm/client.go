package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// maxResponseBytes caps the provider response body read into memory.
var maxResponseBytes int64 = 8 << 20

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a provider answer.
type Completion struct {
	Content  string
	Model    string
	Attempts int
	Duration time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient validates cfg and returns a client for it.
func NewClient(cfg Config) (*Client, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Config returns the normalized configuration.
func (c *Client) Config() Config { return c.cfg }

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequestJSON sends a system and user prompt and returns the reply text.
// JSON mode is requested from providers that support it. A failed attempt
// is retried immediately, at most Config.MaxRetries times.
func (c *Client) RequestJSON(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	start := time.Now()
	req := chatRequest{
		Model: c.cfg.modelName(),
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if slices.Contains(jsonModeProviders, c.cfg.Provider) {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	attempts := 0
	for range c.cfg.MaxRetries + 1 {
		attempts++
		content, model, err := c.complete(ctx, body)
		if err == nil {
			slog.Info("llm request completed", "model", c.cfg.ModelID(), "attempts", attempts, "duration", time.Since(start))
			return &Completion{Content: content, Model: model, Attempts: attempts, Duration: time.Since(start)}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		slog.Warn("llm request failed", "model", c.cfg.ModelID(), "attempt", attempts, "error", err)
	}
	return nil, &RequestError{Code: ErrRequestFailed, Provider: c.cfg.Provider, Attempts: attempts, Err: lastErr}
}

func (c *Client) complete(ctx context.Context, body []byte) (string, string, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > maxResponseBytes {
		return "", "", fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		var e apiError
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			return "", "", fmt.Errorf("API error (%d): %s - %s", resp.StatusCode, e.Error.Type, e.Error.Message)
		}
		return "", "", fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", "", errors.New("unexpected response structure: no choices")
	}
	return out.Choices[0].Message.Content, out.Model, nil
}

// AskRequest describes a problem to send.
type AskRequest struct {
	Problem      string // LaTeX
	ResponseType string // minimal or full
	WantsGraph   bool
	GraphDim     int // 0 when unspecified
}

// Ask sends a problem with the default prompts and validates the answer.
// The raw completion is returned with validation errors so callers can
// record it.
func (c *Client) Ask(ctx context.Context, req AskRequest, opts ValidateOptions) (*Completion, *ValidationResult, error) {
	if req.ResponseType == "" {
		req.ResponseType = ResponseMinimal
	}
	if req.ResponseType != ResponseMinimal && req.ResponseType != ResponseFull {
		return nil, nil, fmt.Errorf("unknown response type %q (want minimal or full)", req.ResponseType)
	}
	completion, err := c.RequestJSON(ctx, SystemPrompt(), RequestPrompt(req))
	if err != nil {
		return nil, nil, err
	}
	opts.WantsGraph = opts.WantsGraph || req.WantsGraph
	result, err := ValidateResponse(completion.Content, opts)
	return completion, result, err
}
