package parse

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/symbolic"
)

// callPattern matches a definition head such as X(u, v).
var callPattern = regexp.MustCompile(`^(\w+)\(([^)]*)\)$`)

// sourceLine is a logical DSL line with its 1-based position.
type sourceLine struct {
	num  int
	text string
}

// tensorBody remembers where a tensor was defined for finalization.
type tensorBody struct {
	line sourceLine
	rhs  string
}

// ParseDSL parses DSL source into a SymbolicIR.
//
// Lines are processed in order. Blank lines and comments are skipped. The
// first error aborts parsing; no partial IR is returned.
func ParseDSL(text string) (*ir.SymbolicIR, error) {
	out := ir.NewSymbolicIR()
	tensors := map[string]tensorBody{}
	coordsSeen := false

	for _, line := range logicalLines(norm.NFC.String(text)) {
		switch {
		case strings.HasPrefix(line.text, "coords:"):
			coords, err := parseCoords(line)
			if err != nil {
				return nil, err
			}
			if coordsSeen && len(coords) != len(out.Coords) {
				return nil, &DSLError{
					Code:    ErrDimensionChanged,
					Line:    line.num,
					Text:    line.text,
					Message: fmt.Sprintf("coords redeclared with %d names, dimension is fixed at %d", len(coords), len(out.Coords)),
				}
			}
			out.Coords = coords
			coordsSeen = true

		case strings.HasPrefix(line.text, "params:"):
			params, err := parseParams(line)
			if err != nil {
				return nil, err
			}
			out.Params = params

		case strings.HasPrefix(line.text, "render:"):
			req, err := parseRender(line)
			if err != nil {
				return nil, err
			}
			out.RenderRequests = append(out.RenderRequests, req)

		case strings.Contains(line.text, "="):
			def, meta, err := parseDefinition(line)
			if err != nil {
				return nil, err
			}
			out.Definitions[def.Name] = def
			if def.Kind == ir.KindTensor {
				out.Tensors[def.Name] = meta
				tensors[def.Name] = tensorBody{line: line, rhs: def.Expression}
			} else {
				// A redefinition may turn a tensor into something else.
				delete(out.Tensors, def.Name)
				delete(tensors, def.Name)
			}

		default:
			return nil, &DSLError{
				Code:    ErrUnknownStatement,
				Line:    line.num,
				Text:    line.text,
				Message: "unknown DSL statement",
			}
		}
	}

	if err := finalizeTensors(out, tensors); err != nil {
		return nil, err
	}

	if v, ok := out.Params[out.TimeParam]; ok {
		out.TimeValue = v
	}

	slog.Debug("parsed dsl",
		"coords", out.Coords,
		"params", len(out.Params),
		"definitions", len(out.Definitions),
		"tensors", len(out.Tensors),
		"renders", len(out.RenderRequests))
	return out, nil
}

// logicalLines trims lines and drops blanks and comments.
func logicalLines(text string) []sourceLine {
	var lines []sourceLine
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, sourceLine{num: i + 1, text: line})
	}
	return lines
}

func payload(line sourceLine) string {
	_, rest, _ := strings.Cut(line.text, ":")
	return strings.TrimSpace(rest)
}

func parseCoords(line sourceLine) ([]string, error) {
	coords := strings.Fields(payload(line))
	if len(coords) == 0 {
		return nil, &DSLError{
			Code:    ErrInvalidCoords,
			Line:    line.num,
			Text:    line.text,
			Message: "coords must list at least one symbol",
		}
	}
	seen := make(map[string]bool, len(coords))
	for _, c := range coords {
		if seen[c] {
			return nil, &DSLError{
				Code:    ErrInvalidCoords,
				Line:    line.num,
				Text:    line.text,
				Message: fmt.Sprintf("duplicate coordinate %q", c),
			}
		}
		seen[c] = true
	}
	return coords, nil
}

func parseParams(line sourceLine) (map[string]float64, error) {
	params := map[string]float64{}
	for _, tok := range strings.Fields(payload(line)) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, &DSLError{
				Code:    ErrInvalidParam,
				Line:    line.num,
				Text:    line.text,
				Message: fmt.Sprintf("invalid param assignment %q", tok),
			}
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &DSLError{
				Code:    ErrInvalidParam,
				Line:    line.num,
				Text:    line.text,
				Message: fmt.Sprintf("invalid param value for %s: %q", key, value),
			}
		}
		params[key] = f
	}
	return params, nil
}

func parseDefinition(line sourceLine) (ir.Definition, ir.TensorMetadata, error) {
	lhs, rhs, _ := strings.Cut(line.text, "=")
	lhs, rhs = strings.TrimSpace(lhs), strings.TrimSpace(rhs)
	if lhs == "" || rhs == "" {
		return ir.Definition{}, ir.TensorMetadata{}, &DSLError{
			Code:    ErrInvalidDefinition,
			Line:    line.num,
			Text:    line.text,
			Message: "definition needs a name and an expression",
		}
	}

	def := ir.Definition{Name: lhs, Args: []string{}, Expression: rhs}
	if m := callPattern.FindStringSubmatch(lhs); m != nil {
		def.Name = m[1]
		for _, arg := range strings.Split(m[2], ",") {
			if arg = strings.TrimSpace(arg); arg != "" {
				def.Args = append(def.Args, arg)
			}
		}
	}

	// Index notation on the name wins over a tuple-shaped body.
	if ir.HasIndexMarker(lhs) {
		meta, err := ir.ParseTensorName(lhs)
		if err != nil {
			return ir.Definition{}, ir.TensorMetadata{}, &DSLError{
				Code:    ErrInvalidTensor,
				Line:    line.num,
				Text:    line.text,
				Message: err.Error(),
			}
		}
		def.Name = lhs
		def.Args = []string{}
		def.Kind = ir.KindTensor
		return def, meta, nil
	}

	if _, ok := symbolic.TupleComponents(rhs); ok {
		def.Kind = ir.KindVector
	} else {
		def.Kind = ir.KindScalar
	}
	return def, ir.TensorMetadata{}, nil
}

func parseRender(line sourceLine) (ir.RenderRequest, error) {
	parts := strings.Fields(payload(line))
	if len(parts) < 2 {
		return ir.RenderRequest{}, &DSLError{
			Code:    ErrInvalidRender,
			Line:    line.num,
			Text:    line.text,
			Message: "render requires a kind and target",
		}
	}
	return ir.RenderRequest{
		Kind:    parts[0],
		Target:  parts[1],
		Options: parseRenderOptions(parts[2:]),
	}, nil
}

// parseRenderOptions reads key=value pairs, "domain a b", "res a b" and
// "time x". Any other bare token is kept as arg_<index>.
func parseRenderOptions(tokens []string) map[string]string {
	options := map[string]string{}
	for idx := 0; idx < len(tokens); {
		tok := tokens[idx]
		if key, value, ok := strings.Cut(tok, "="); ok {
			options[key] = value
			idx++
			continue
		}
		switch {
		case (tok == ir.OptionDomain || tok == ir.OptionRes) && idx+2 < len(tokens):
			options[tok] = tokens[idx+1] + " " + tokens[idx+2]
			idx += 3
		case tok == ir.OptionTime && idx+1 < len(tokens):
			options[tok] = tokens[idx+1]
			idx += 2
		default:
			options[fmt.Sprintf("arg_%d", idx)] = tok
			idx++
		}
	}
	return options
}

// finalizeTensors fixes every tensor's dimension to the coordinate count and
// checks literal component lists against dim^order.
func finalizeTensors(out *ir.SymbolicIR, bodies map[string]tensorBody) error {
	if len(out.Tensors) == 0 {
		return nil
	}
	dim := out.Dim()
	for _, name := range sortedKeys(out.Tensors) {
		meta := out.Tensors[name]
		body := bodies[name]
		if dim < 1 {
			return &DSLError{
				Code:    ErrMissingCoords,
				Line:    body.line.num,
				Text:    body.line.text,
				Message: fmt.Sprintf("tensor %s requires coords to be declared", name),
			}
		}
		meta.Dim = dim
		if err := meta.Validate(); err != nil {
			return &DSLError{Code: ErrInvalidTensor, Line: body.line.num, Text: body.line.text, Message: err.Error()}
		}
		if n, ok := countComponents(body.rhs); ok && n != meta.Components() {
			return &DSLError{
				Code:    ErrTensorShape,
				Line:    body.line.num,
				Text:    body.line.text,
				Message: fmt.Sprintf("tensor %s expects %d components (dim %d, order %d), got %d", name, meta.Components(), dim, meta.Order, n),
			}
		}
		out.Tensors[name] = meta
	}
	return nil
}

// countComponents counts the leaves of a literal tuple body, flattening
// nested tuples. It reports false when the body is not a tuple.
func countComponents(body string) (int, bool) {
	parts, ok := symbolic.TupleComponents(body)
	if !ok {
		return 0, false
	}
	n := 0
	for _, p := range parts {
		if inner, ok := countComponents(p); ok {
			n += inner
		} else {
			n++
		}
	}
	return n, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
