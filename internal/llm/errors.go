package llm

import "fmt"

// Error codes for hard validation failures.
const (
	ErrInvalidJSON   = "E501" // not JSON, or not a JSON object
	ErrSchema        = "E502" // does not match #Minimal or #Full
	ErrNotGraphable  = "E503" // graph requested but graph_type is none
	ErrMissingGraph  = "E504" // graph_type set without a graph
	ErrStrictLatex   = "E505" // warnings in strict mode
	ErrProvider      = "E510" // unsupported provider
	ErrRequestFailed = "E511" // request failed after retries
)

// ValidationError is a hard failure of ValidateResponse.
type ValidationError struct {
	Code    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RequestError reports a failed provider call.
type RequestError struct {
	Code     string
	Provider string
	Attempts int
	Err      error
}

func (e *RequestError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("[%s] %s request failed after %d attempt(s): %v", e.Code, e.Provider, e.Attempts, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
