package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/geometrix/internal/compiler"
	"github.com/roach88/geometrix/internal/parse"
	"github.com/roach88/geometrix/internal/sample"
)

// RenderErrorCode categorizes render failures detected by the engine
// itself. Failures inside parsing, compiling or sampling keep their own
// error types and are wrapped.
type RenderErrorCode string

const (
	// ErrCodeNoRenderRequests means the program has no render: line.
	ErrCodeNoRenderRequests RenderErrorCode = "NO_RENDER_REQUESTS"

	// ErrCodeUnsupportedKind means the render kind is not surface, curve, points or mesh.
	ErrCodeUnsupportedKind RenderErrorCode = "UNSUPPORTED_KIND"

	// ErrCodeInvalidTarget means the target is missing or has the wrong shape.
	ErrCodeInvalidTarget RenderErrorCode = "INVALID_TARGET"

	// ErrCodeInvalidOption means a domain, res, time or values option is malformed.
	ErrCodeInvalidOption RenderErrorCode = "INVALID_OPTION"

	// ErrCodeDefinitionCycle is reported by ErrorCode for a compiler.CycleError.
	ErrCodeDefinitionCycle RenderErrorCode = "DEFINITION_CYCLE"

	// ErrCodeUnboundSymbol is reported by ErrorCode for a compiler.UnboundSymbolError.
	ErrCodeUnboundSymbol RenderErrorCode = "UNBOUND_SYMBOL"
)

// RenderError reports why a render request cannot be built.
type RenderError struct {
	Code    RenderErrorCode
	Kind    string
	Target  string
	Message string
}

func (e *RenderError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s (render %s %s)", e.Code, e.Message, e.Kind, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRenderError reports whether err wraps a RenderError with the given code.
func IsRenderError(err error, code RenderErrorCode) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Code == code
}

// ErrorCode returns the code of the first typed error in err's chain:
// E2xx for DSL errors, E3xx for LaTeX, E4xx for sampling and the
// RenderErrorCode strings for engine failures. Untyped errors return "".
func ErrorCode(err error) string {
	var (
		renderErr  *RenderError
		dslErr     *parse.DSLError
		latexErr   *parse.LatexError
		domainErr  *sample.DomainError
		cycleErr   *compiler.CycleError
		unboundErr *compiler.UnboundSymbolError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &renderErr):
		return string(renderErr.Code)
	case errors.As(err, &dslErr):
		return dslErr.Code
	case errors.As(err, &latexErr):
		return latexErr.Kind.Code()
	case errors.As(err, &domainErr):
		return domainErr.Code
	case errors.As(err, &cycleErr):
		return string(ErrCodeDefinitionCycle)
	case errors.As(err, &unboundErr):
		return string(ErrCodeUnboundSymbol)
	}
	return ""
}
