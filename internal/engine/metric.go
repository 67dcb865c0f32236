package engine

import (
	"fmt"

	"github.com/roach88/geometrix/internal/compiler"
	"github.com/roach88/geometrix/internal/geometry"
	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/symbolic"
)

// Metric returns the metric named by target and the coordinates it is
// expressed in. A vector target is an embedding in R^3 and induces
// g = J^T J over its arguments; an order-2 tensor target such as g_{ij}
// gives the components directly, row-major over the declared coords.
// Parameters and the time parameter are substituted.
func (p *Program) Metric(target string) (*symbolic.Matrix, []string, error) {
	fail := func(format string, args ...any) (*symbolic.Matrix, []string, error) {
		return nil, nil, &RenderError{Code: ErrCodeInvalidTarget, Target: target, Message: fmt.Sprintf(format, args...)}
	}

	def, ok := p.IR.Definition(target)
	if !ok {
		return fail("target %s is not defined", target)
	}

	switch def.Kind {
	case ir.KindVector:
		coords := def.Args
		if len(coords) == 0 {
			coords = p.IR.Coords
		}
		if len(coords) == 0 {
			return fail("%s has no coordinates", target)
		}
		bindings, err := compiler.ResolveDefinitions(p.IR, def.Expression, coords, p.bindings(coords, p.IR.TimeValue))
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		embedding, err := symbolic.ParseVector(def.Expression, symbolic.ParseOptions{Symbols: coords, Bindings: bindings})
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", target, err)
		}
		g, err := geometry.MetricFromEmbedding(embedding, coords)
		if err != nil {
			return nil, nil, err
		}
		return g, coords, nil

	case ir.KindTensor:
		meta := p.IR.Tensors[target]
		if meta.Order != 2 {
			return fail("metric %s must have two indices, has %d", target, meta.Order)
		}
		coords := p.IR.Coords
		leaves := flattenTuple(def.Expression)
		if len(leaves) != meta.Dim*meta.Dim {
			return fail("metric %s has %d components, want %d", target, len(leaves), meta.Dim*meta.Dim)
		}
		bindings, err := compiler.ResolveDefinitions(p.IR, def.Expression, coords, p.bindings(coords, p.IR.TimeValue))
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		rows := make([][]symbolic.Expr, meta.Dim)
		for i := range rows {
			rows[i] = make([]symbolic.Expr, meta.Dim)
			for j := range rows[i] {
				e, err := symbolic.Parse(leaves[i*meta.Dim+j], symbolic.ParseOptions{Symbols: coords, Bindings: bindings})
				if err != nil {
					return nil, nil, fmt.Errorf("parse %s[%d][%d]: %w", target, i, j, err)
				}
				rows[i][j] = e
			}
		}
		g, err := symbolic.FromRows(rows)
		if err != nil {
			return nil, nil, err
		}
		return g, coords, nil
	}
	return fail("%s is a %s, not a vector embedding or a metric tensor", target, def.Kind)
}

// Expr parses text over coords with the program's parameters and scalar
// definitions substituted.
func (p *Program) Expr(text string, coords []string) (symbolic.Expr, error) {
	bindings, err := compiler.ResolveDefinitions(p.IR, text, coords, p.bindings(coords, p.IR.TimeValue))
	if err != nil {
		return nil, err
	}
	return symbolic.Parse(text, symbolic.ParseOptions{Symbols: coords, Bindings: bindings})
}

// Evaluate evaluates a vector or scalar definition at a point. Every
// coordinate of the definition must be bound in at.
func (p *Program) Evaluate(target string, at map[string]float64) ([]float64, error) {
	def, ok := p.IR.Definition(target)
	if !ok {
		return nil, &RenderError{Code: ErrCodeInvalidTarget, Target: target, Message: fmt.Sprintf("target %s is not defined", target)}
	}
	coords := def.Args
	if len(coords) == 0 {
		coords = p.IR.Coords
	}

	var exprs []symbolic.Expr
	switch def.Kind {
	case ir.KindVector:
		bindings, err := compiler.ResolveDefinitions(p.IR, def.Expression, coords, p.bindings(coords, p.IR.TimeValue))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		exprs, err = symbolic.ParseVector(def.Expression, symbolic.ParseOptions{Symbols: coords, Bindings: bindings})
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", target, err)
		}
	case ir.KindScalar:
		e, err := p.Expr(def.Expression, coords)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", target, err)
		}
		exprs = []symbolic.Expr{e}
	default:
		return nil, &RenderError{Code: ErrCodeInvalidTarget, Target: target, Message: fmt.Sprintf("%s is a %s, only vector and scalar definitions evaluate to numbers", target, def.Kind)}
	}

	out := make([]float64, len(exprs))
	for i, e := range exprs {
		v, err := e.Eval(at)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s component %d: %w", target, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// flattenTuple returns the leaves of a possibly nested tuple, or body
// itself when it is not a tuple.
func flattenTuple(body string) []string {
	parts, ok := symbolic.TupleComponents(body)
	if !ok {
		return []string{body}
	}
	var out []string
	for _, part := range parts {
		out = append(out, flattenTuple(part)...)
	}
	return out
}
