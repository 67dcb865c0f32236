package symbolic

import "fmt"

// SyntaxError reports malformed expression text.
type SyntaxError struct {
	Input   string
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Input, e.Message)
}

// UnknownSymbolError reports a name that is neither a declared symbol, a
// binding, a constant nor a function. Evaluation returns it for unbound
// symbols as well.
type UnknownSymbolError struct {
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Name)
}
