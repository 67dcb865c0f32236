package ir

import "fmt"

// DefaultTimeParam is the reserved parameter name that carries time.
const DefaultTimeParam = "t"

// DefinitionKind is the inferred shape of a definition's right-hand side.
type DefinitionKind int

const (
	KindScalar DefinitionKind = iota
	KindVector
	KindTensor
)

// String returns the lowercase kind name.
func (k DefinitionKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindTensor:
		return "tensor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k DefinitionKind) MarshalText() ([]byte, error) {
	switch k {
	case KindScalar, KindVector, KindTensor:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid definition kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DefinitionKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "scalar":
		*k = KindScalar
	case "vector":
		*k = KindVector
	case "tensor":
		*k = KindTensor
	default:
		return fmt.Errorf("unknown definition kind %q", string(text))
	}
	return nil
}

// Definition is a named expression from the DSL.
type Definition struct {
	Name       string         `json:"name"`
	Args       []string       `json:"args"`
	Expression string         `json:"expression"`
	Kind       DefinitionKind `json:"kind"`
}

// RenderRequest asks the pipeline to render a definition.
// Options are kept verbatim; the engine interprets domain, res, time and
// values.
type RenderRequest struct {
	Kind    string            `json:"kind"`
	Target  string            `json:"target"`
	Options map[string]string `json:"options"`
}

// Render option keys with special meaning.
const (
	OptionDomain = "domain"
	OptionRes    = "res"
	OptionTime   = "time"
	OptionValues = "values"
)

// SymbolicIR is a parsed DSL program.
type SymbolicIR struct {
	Coords         []string                  `json:"coords"`
	Params         map[string]float64        `json:"params"`
	Definitions    map[string]Definition     `json:"definitions"`
	RenderRequests []RenderRequest           `json:"render_requests"`
	Tensors        map[string]TensorMetadata `json:"tensors"`
	TimeParam      string                    `json:"time_param"`
	TimeValue      float64                   `json:"time_value"`
}

// NewSymbolicIR returns an empty IR with initialized maps and the default time parameter.
func NewSymbolicIR() *SymbolicIR {
	return &SymbolicIR{
		Coords:         []string{},
		Params:         map[string]float64{},
		Definitions:    map[string]Definition{},
		RenderRequests: []RenderRequest{},
		Tensors:        map[string]TensorMetadata{},
		TimeParam:      DefaultTimeParam,
	}
}

// Dim returns the number of declared coordinates.
func (s *SymbolicIR) Dim() int {
	return len(s.Coords)
}

// Definition looks up a definition by name.
func (s *SymbolicIR) Definition(name string) (Definition, bool) {
	def, ok := s.Definitions[name]
	return def, ok
}
