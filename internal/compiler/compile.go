package compiler

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/geometrix/internal/symbolic"
)

// UnboundSymbolError reports an expression symbol missing from the symbol list.
type UnboundSymbolError struct {
	Symbol string
	Expr   string
}

func (e *UnboundSymbolError) Error() string {
	return fmt.Sprintf("symbol %q in %q is not bound to an argument", e.Symbol, e.Expr)
}

// kernel evaluates one expression node over the call arguments. Results
// have length 1 (a constant) or the common argument length.
type kernel func(args [][]float64) []float64

// CompiledExpression evaluates a fixed list of expressions over arrays bound
// positionally to its symbols. Values are not cached; every Compile call
// builds a fresh evaluator.
type CompiledExpression struct {
	symbols []string
	exprs   []symbolic.Expr
	kernels []kernel
}

// Compile binds exprs to the ordered symbols. Every free symbol of every
// expression must appear in symbols; parameters are expected to be
// substituted beforehand.
func Compile(exprs []symbolic.Expr, symbols []string) (*CompiledExpression, error) {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", s)
		}
		index[s] = i
	}

	c := &CompiledExpression{
		symbols: append([]string(nil), symbols...),
		exprs:   append([]symbolic.Expr(nil), exprs...),
		kernels: make([]kernel, len(exprs)),
	}
	for i, e := range exprs {
		for _, s := range symbolic.FreeSymbols(e) {
			if _, ok := index[s]; !ok {
				return nil, &UnboundSymbolError{Symbol: s, Expr: e.String()}
			}
		}
		k, err := compileNode(e, index)
		if err != nil {
			return nil, fmt.Errorf("expression %d: %w", i, err)
		}
		c.kernels[i] = k
	}

	slog.Debug("compiled expressions", "count", len(exprs), "symbols", symbols)
	return c, nil
}

// Symbols returns the argument order.
func (c *CompiledExpression) Symbols() []string {
	return append([]string(nil), c.symbols...)
}

// Exprs returns the compiled expressions.
func (c *CompiledExpression) Exprs() []symbolic.Expr {
	return append([]symbolic.Expr(nil), c.exprs...)
}

// Call evaluates every expression. Arguments follow Symbols order and must
// share one length, except that length-1 arguments broadcast. A result of
// length 1 means the expression is constant over the arguments.
func (c *CompiledExpression) Call(args ...[]float64) ([][]float64, error) {
	if len(args) != len(c.symbols) {
		return nil, fmt.Errorf("expected %d arguments (%v), got %d", len(c.symbols), c.symbols, len(args))
	}
	n := 1
	for i, a := range args {
		switch {
		case len(a) == 0:
			return nil, fmt.Errorf("argument %s is empty", c.symbols[i])
		case len(a) == 1:
		case n == 1:
			n = len(a)
		case len(a) != n:
			return nil, fmt.Errorf("argument %s has length %d, want %d", c.symbols[i], len(a), n)
		}
	}

	out := make([][]float64, len(c.kernels))
	for i, k := range c.kernels {
		out[i] = k(args)
		if _, bare := c.exprs[i].(*symbolic.Sym); bare {
			out[i] = slices.Clone(out[i])
		}
	}
	return out, nil
}

func compileNode(e symbolic.Expr, index map[string]int) (kernel, error) {
	switch v := e.(type) {
	case *symbolic.Num:
		val := v.Float64()
		return func([][]float64) []float64 { return []float64{val} }, nil

	case *symbolic.Const:
		val := v.Value()
		return func([][]float64) []float64 { return []float64{val} }, nil

	case *symbolic.Sym:
		i, ok := index[v.Name()]
		if !ok {
			return nil, &UnboundSymbolError{Symbol: v.Name(), Expr: e.String()}
		}
		return func(args [][]float64) []float64 { return args[i] }, nil

	case *symbolic.Add:
		parts, err := compileAll(v.Terms(), index)
		if err != nil {
			return nil, err
		}
		return func(args [][]float64) []float64 {
			return fold(parts, args, floats.Add, floats.AddConst)
		}, nil

	case *symbolic.Mul:
		parts, err := compileAll(v.Factors(), index)
		if err != nil {
			return nil, err
		}
		return func(args [][]float64) []float64 {
			return fold(parts, args, floats.Mul, floats.Scale)
		}, nil

	case *symbolic.Pow:
		base, err := compileNode(v.Base(), index)
		if err != nil {
			return nil, err
		}
		exp, err := compileNode(v.Exp(), index)
		if err != nil {
			return nil, err
		}
		pow := math.Pow
		if n, ok := v.Exp().(*symbolic.Num); ok && n.String() == "1/2" {
			pow = func(x, _ float64) float64 { return math.Sqrt(x) }
		}
		return func(args [][]float64) []float64 {
			b, p := base(args), exp(args)
			out := make([]float64, max(len(b), len(p)))
			for i := range out {
				out[i] = pow(at(b, i), at(p, i))
			}
			return out
		}, nil

	case *symbolic.Func:
		parts, err := compileAll(v.Args(), index)
		if err != nil {
			return nil, err
		}
		fn := v.Function()
		return func(args [][]float64) []float64 {
			vals := make([][]float64, len(parts))
			m := 1
			for i, p := range parts {
				vals[i] = p(args)
				m = max(m, len(vals[i]))
			}
			out := make([]float64, m)
			in := make([]float64, len(vals))
			for i := range out {
				for j, col := range vals {
					in[j] = at(col, i)
				}
				out[i] = fn.Eval(in...)
			}
			return out
		}, nil
	}
	return nil, fmt.Errorf("unsupported expression node %T", e)
}

func compileAll(exprs []symbolic.Expr, index map[string]int) ([]kernel, error) {
	out := make([]kernel, len(exprs))
	for i, e := range exprs {
		k, err := compileNode(e, index)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// fold combines operand results elementwise into a fresh slice. vec applies
// a full-length operand in place; scalar applies a length-1 operand.
func fold(parts []kernel, args [][]float64, vec func(dst, s []float64), scalar func(c float64, dst []float64)) []float64 {
	vals := make([][]float64, len(parts))
	m := 1
	for i, p := range parts {
		vals[i] = p(args)
		m = max(m, len(vals[i]))
	}

	out := make([]float64, m)
	if len(vals[0]) == m {
		copy(out, vals[0])
	} else {
		for i := range out {
			out[i] = vals[0][0]
		}
	}
	for _, v := range vals[1:] {
		if len(v) == m {
			vec(out, v)
		} else {
			scalar(v[0], out)
		}
	}
	return out
}

// at indexes x with length-1 broadcasting.
func at(x []float64, i int) float64 {
	if len(x) == 1 {
		return x[0]
	}
	return x[i]
}
