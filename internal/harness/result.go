package harness

import (
	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/store"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Render is the finished render, nil when the pipeline failed.
	Render *engine.Render `json:"-"`

	// Record is the history row read back from the store, nil when the
	// pipeline failed.
	Record *store.Render `json:"record,omitempty"`

	// Err is the pipeline error, nil when the render succeeded.
	Err error `json:"-"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
