package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// Expr is an immutable symbolic expression.
type Expr interface {
	// String returns the canonical textual form. It parses back with Parse.
	String() string
	// Diff differentiates with respect to the named symbol.
	Diff(sym string) Expr
	// Subs replaces symbols by expressions.
	Subs(bindings map[string]Expr) Expr
	// Eval evaluates numerically. Every free symbol must be bound in env.
	Eval(env map[string]float64) (float64, error)
	// Equal reports structural equality of canonical forms.
	Equal(other Expr) bool

	isExpr()
}

// ---------------------------------------------------------------------------
// Num

// Num is an exact rational number.
type Num struct {
	val *big.Rat
	str string
}

func newNum(r *big.Rat) *Num {
	return &Num{val: r, str: ratString(r)}
}

// N returns the integer n.
func N(n int64) *Num { return newNum(new(big.Rat).SetInt64(n)) }

// F returns the fraction p/q.
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: zero denominator")
	}
	return newNum(big.NewRat(p, q))
}

// NFloat converts a finite float to the exact rational of its shortest
// decimal representation, so 0.1 becomes 1/10.
func NFloat(f float64) *Num {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic(fmt.Sprintf("symbolic: non-finite number %v", f))
	}
	r, _ := new(big.Rat).SetString(formatFloat(f))
	return newNum(r)
}

// ParseNumber parses a decimal literal such as "2", "0.5" or "1e-3".
func ParseNumber(s string) (*Num, bool) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, false
	}
	return newNum(r), true
}

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.Num().String() + "/" + r.Denom().String()
}

func (n *Num) String() string                           { return n.str }
func (n *Num) Diff(string) Expr                         { return N(0) }
func (n *Num) Subs(map[string]Expr) Expr                { return n }
func (n *Num) Equal(other Expr) bool                    { return other != nil && other.String() == n.str }
func (n *Num) Eval(map[string]float64) (float64, error) { return n.Float64(), nil }
func (n *Num) isExpr()                                  {}

// Rat returns a copy of the value.
func (n *Num) Rat() *big.Rat { return new(big.Rat).Set(n.val) }

// Float64 returns the nearest float.
func (n *Num) Float64() float64 {
	f, _ := n.val.Float64()
	return f
}

// IsInt reports whether the value is an integer.
func (n *Num) IsInt() bool { return n.val.IsInt() }

// Sign returns -1, 0 or +1.
func (n *Num) Sign() int { return n.val.Sign() }

// ---------------------------------------------------------------------------
// Sym

// Sym is a free symbol.
type Sym struct{ name string }

// S returns the symbol with the given name.
func S(name string) *Sym { return &Sym{name: name} }

func (s *Sym) String() string        { return s.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Equal(other Expr) bool { return other != nil && other.String() == s.name }
func (s *Sym) isExpr()               {}

func (s *Sym) Diff(sym string) Expr {
	if s.name == sym {
		return N(1)
	}
	return N(0)
}

func (s *Sym) Subs(bindings map[string]Expr) Expr {
	if v, ok := bindings[s.name]; ok {
		return v
	}
	return s
}

func (s *Sym) Eval(env map[string]float64) (float64, error) {
	v, ok := env[s.name]
	if !ok {
		return 0, &UnknownSymbolError{Name: s.name}
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Const

// Const is a named mathematical constant.
type Const struct {
	name  string
	value float64
}

// Pi and E are the constants the parser recognizes.
var (
	Pi = &Const{name: "pi", value: math.Pi}
	E  = &Const{name: "E", value: math.E}
)

func (c *Const) String() string                           { return c.name }
func (c *Const) Name() string                             { return c.name }
func (c *Const) Value() float64                           { return c.value }
func (c *Const) Diff(string) Expr                         { return N(0) }
func (c *Const) Subs(map[string]Expr) Expr                { return c }
func (c *Const) Equal(other Expr) bool                    { return other != nil && other.String() == c.name }
func (c *Const) Eval(map[string]float64) (float64, error) { return c.value, nil }
func (c *Const) isExpr()                                  {}

// ---------------------------------------------------------------------------
// Add

// Add is a sum of at least two terms. Build with AddOf.
type Add struct {
	terms []Expr
	str   string
}

func newAdd(terms []Expr) *Add {
	var b strings.Builder
	for i, t := range terms {
		if i == 0 {
			b.WriteString(t.String())
			continue
		}
		if isNegative(t) {
			b.WriteString(" - ")
			b.WriteString(Neg(t).String())
		} else {
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return &Add{terms: terms, str: b.String()}
}

func (a *Add) String() string        { return a.str }
func (a *Add) Equal(other Expr) bool { return other != nil && other.String() == a.str }
func (a *Add) isExpr()               {}

// Terms returns the summands.
func (a *Add) Terms() []Expr { return append([]Expr(nil), a.terms...) }

func (a *Add) Diff(sym string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(sym)
	}
	return AddOf(out...)
}

func (a *Add) Subs(bindings map[string]Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Subs(bindings)
	}
	return AddOf(out...)
}

func (a *Add) Eval(env map[string]float64) (float64, error) {
	sum := 0.0
	for _, t := range a.terms {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// ---------------------------------------------------------------------------
// Mul

// Mul is a product of at least two factors; a numeric coefficient, if any,
// comes first. Build with MulOf.
type Mul struct {
	factors []Expr
	str     string
}

func newMul(factors []Expr) *Mul {
	return &Mul{factors: factors, str: mulString(factors)}
}

func mulString(factors []Expr) string {
	coeff := big.NewRat(1, 1)
	rest := factors
	if n, ok := factors[0].(*Num); ok {
		coeff = n.val
		rest = factors[1:]
	}

	var num, den []string
	sign := ""
	p := new(big.Int).Set(coeff.Num())
	if p.Sign() < 0 {
		sign = "-"
		p.Neg(p)
	}
	if p.Cmp(big.NewInt(1)) != 0 {
		num = append(num, p.String())
	}
	if q := coeff.Denom(); q.Cmp(big.NewInt(1)) != 0 {
		den = append(den, q.String())
	}
	for _, f := range rest {
		if pw, ok := f.(*Pow); ok {
			if e, ok := pw.exp.(*Num); ok && e.Sign() < 0 {
				den = append(den, factorString(PowOf(pw.base, newNum(new(big.Rat).Neg(e.val)))))
				continue
			}
		}
		num = append(num, factorString(f))
	}

	s := strings.Join(num, "*")
	if s == "" {
		s = "1"
	}
	switch len(den) {
	case 0:
	case 1:
		s += "/" + den[0]
	default:
		s += "/(" + strings.Join(den, "*") + ")"
	}
	return sign + s
}

func factorString(f Expr) string {
	if _, ok := f.(*Add); ok {
		return "(" + f.String() + ")"
	}
	return f.String()
}

func (m *Mul) String() string        { return m.str }
func (m *Mul) Equal(other Expr) bool { return other != nil && other.String() == m.str }
func (m *Mul) isExpr()               {}

// Factors returns the factors, coefficient first when present.
func (m *Mul) Factors() []Expr { return append([]Expr(nil), m.factors...) }

func (m *Mul) Diff(sym string) Expr {
	terms := make([]Expr, 0, len(m.factors))
	for i, f := range m.factors {
		d := f.Diff(sym)
		if isZero(d) {
			continue
		}
		prod := make([]Expr, 0, len(m.factors))
		prod = append(prod, m.factors[:i]...)
		prod = append(prod, d)
		prod = append(prod, m.factors[i+1:]...)
		terms = append(terms, MulOf(prod...))
	}
	return AddOf(terms...)
}

func (m *Mul) Subs(bindings map[string]Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Subs(bindings)
	}
	return MulOf(out...)
}

func (m *Mul) Eval(env map[string]float64) (float64, error) {
	prod := 1.0
	for _, f := range m.factors {
		v, err := f.Eval(env)
		if err != nil {
			return 0, err
		}
		prod *= v
	}
	return prod, nil
}

// ---------------------------------------------------------------------------
// Pow

// Pow is base**exp. Build with PowOf.
type Pow struct {
	base, exp Expr
	str       string
}

func newPow(base, exp Expr) *Pow {
	return &Pow{base: base, exp: exp, str: powString(base, exp)}
}

func powString(base, exp Expr) string {
	if e, ok := exp.(*Num); ok {
		switch {
		case e.str == "1/2":
			return "sqrt(" + base.String() + ")"
		case e.str == "-1":
			switch base.(type) {
			case *Add, *Mul:
				return "1/(" + base.String() + ")"
			}
			return "1/" + base.String()
		case e.Sign() < 0:
			return "1/" + powString(base, newNum(new(big.Rat).Neg(e.val)))
		}
	}

	b := base.String()
	switch v := base.(type) {
	case *Add, *Mul, *Pow:
		b = "(" + b + ")"
	case *Num:
		if v.Sign() < 0 || !v.IsInt() {
			b = "(" + b + ")"
		}
	}

	e := exp.String()
	switch v := exp.(type) {
	case *Sym, *Const:
	case *Num:
		if v.Sign() < 0 || !v.IsInt() {
			e = "(" + e + ")"
		}
	default:
		e = "(" + e + ")"
	}
	return b + "**" + e
}

func (p *Pow) String() string        { return p.str }
func (p *Pow) Equal(other Expr) bool { return other != nil && other.String() == p.str }
func (p *Pow) isExpr()               {}

// Base returns the base.
func (p *Pow) Base() Expr { return p.base }

// Exp returns the exponent.
func (p *Pow) Exp() Expr { return p.exp }

func (p *Pow) Diff(sym string) Expr {
	db := p.base.Diff(sym)
	de := p.exp.Diff(sym)
	if isZero(de) {
		if isZero(db) {
			return N(0)
		}
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), db)
	}
	// d(b^e) = b^e * (e' ln b + e b'/b)
	return MulOf(p, AddOf(
		MulOf(de, Call("log", p.base)),
		MulOf(p.exp, db, PowOf(p.base, N(-1))),
	))
}

func (p *Pow) Subs(bindings map[string]Expr) Expr {
	return PowOf(p.base.Subs(bindings), p.exp.Subs(bindings))
}

func (p *Pow) Eval(env map[string]float64) (float64, error) {
	b, err := p.base.Eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.Eval(env)
	if err != nil {
		return 0, err
	}
	if e == 0.5 {
		return math.Sqrt(b), nil
	}
	return math.Pow(b, e), nil
}

// ---------------------------------------------------------------------------
// Func

// Func is an application of a known function. Build with Call.
type Func struct {
	fn   *Function
	args []Expr
	str  string
}

func newFunc(fn *Function, args []Expr) *Func {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return &Func{fn: fn, args: args, str: fn.Name + "(" + strings.Join(parts, ", ") + ")"}
}

func (f *Func) String() string        { return f.str }
func (f *Func) Equal(other Expr) bool { return other != nil && other.String() == f.str }
func (f *Func) isExpr()               {}

// Name returns the function name.
func (f *Func) Name() string { return f.fn.Name }

// Function returns the function descriptor.
func (f *Func) Function() *Function { return f.fn }

// Args returns the arguments.
func (f *Func) Args() []Expr { return append([]Expr(nil), f.args...) }

func (f *Func) Diff(sym string) Expr {
	ds := make([]Expr, len(f.args))
	allZero := true
	for i, a := range f.args {
		ds[i] = a.Diff(sym)
		if !isZero(ds[i]) {
			allZero = false
		}
	}
	if allZero {
		return N(0)
	}
	return f.fn.derivative(f.args, ds)
}

func (f *Func) Subs(bindings map[string]Expr) Expr {
	out := make([]Expr, len(f.args))
	for i, a := range f.args {
		out[i] = a.Subs(bindings)
	}
	return Call(f.fn.Name, out...)
}

func (f *Func) Eval(env map[string]float64) (float64, error) {
	vals := make([]float64, len(f.args))
	for i, a := range f.args {
		v, err := a.Eval(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return f.fn.Eval(vals...), nil
}

// ---------------------------------------------------------------------------
// Helpers

// FreeSymbols returns the sorted names of the free symbols in e.
func FreeSymbols(e Expr) []string {
	seen := map[string]bool{}
	Walk(e, func(x Expr) {
		if s, ok := x.(*Sym); ok {
			seen[s.name] = true
		}
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Walk calls fn for e and every subexpression, parents first.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch v := e.(type) {
	case *Add:
		for _, t := range v.terms {
			Walk(t, fn)
		}
	case *Mul:
		for _, f := range v.factors {
			Walk(f, fn)
		}
	case *Pow:
		Walk(v.base, fn)
		Walk(v.exp, fn)
	case *Func:
		for _, a := range v.args {
			Walk(a, fn)
		}
	}
}

// IsZero reports whether e is the number zero.
func IsZero(e Expr) bool { return isZero(e) }

func isZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.val.Sign() == 0
}

func isOne(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.val.Cmp(ratOne) == 0
}

// isNegative reports a negative number or a product with a negative coefficient.
func isNegative(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.val.Sign() < 0
	case *Mul:
		if n, ok := v.factors[0].(*Num); ok {
			return n.val.Sign() < 0
		}
	}
	return false
}
