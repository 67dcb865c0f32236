package parse

import "fmt"

// DSL error codes (E200-E299)
const (
	ErrUnknownStatement  = "E201" // line is neither a directive nor a definition
	ErrInvalidCoords     = "E202" // empty or duplicate coordinate list
	ErrInvalidParam      = "E203" // malformed key=value or non-finite value
	ErrInvalidDefinition = "E204" // malformed lhs = rhs
	ErrInvalidRender     = "E205" // render needs kind and target
	ErrInvalidTensor     = "E206" // malformed index notation
	ErrTensorShape       = "E207" // component count != dim^order
	ErrMissingCoords     = "E208" // tensors declared without coordinates
	ErrDimensionChanged  = "E209" // coords redeclared with a different count
)

// LaTeX error codes (E300-E399)
const (
	ErrLatexCharacter = "E301"
	ErrLatexCommand   = "E302"
	ErrLatexSymbol    = "E303"
	ErrLatexSyntax    = "E304"
)

// DSLError reports a structural problem in DSL source.
type DSLError struct {
	Code    string `json:"code"`
	Line    int    `json:"line"` // 1-based source line
	Text    string `json:"text"` // raw offending line
	Message string `json:"message"`
}

func (e *DSLError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("[%s] line %d: %s: %q", e.Code, e.Line, e.Message, e.Text)
}

// LatexErrorKind classifies a LaTeX rejection.
type LatexErrorKind string

const (
	LatexCharacter LatexErrorKind = "character"
	LatexCommand   LatexErrorKind = "command"
	LatexSymbol    LatexErrorKind = "symbol"
	LatexSyntax    LatexErrorKind = "syntax"
)

// Code returns the error code for the kind.
func (k LatexErrorKind) Code() string {
	switch k {
	case LatexCharacter:
		return ErrLatexCharacter
	case LatexCommand:
		return ErrLatexCommand
	case LatexSymbol:
		return ErrLatexSymbol
	default:
		return ErrLatexSyntax
	}
}

// LatexError reports LaTeX input that was rejected or failed to parse.
type LatexError struct {
	Kind    LatexErrorKind `json:"kind"`
	Token   string         `json:"token"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
}

func (e *LatexError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("[%s] latex %s: %s", e.Kind.Code(), e.Kind, e.Message)
	}
	return fmt.Sprintf("[%s] latex %s %q: %s", e.Kind.Code(), e.Kind, e.Token, e.Message)
}

func (e *LatexError) Unwrap() error { return e.Err }
