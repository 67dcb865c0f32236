package symbolic

import (
	"math/big"
	"sort"
	"strconv"
)

var ratOne = big.NewRat(1, 1)

// Limits that keep exact arithmetic and re-merging bounded.
const (
	maxExactExponent = 1024
	maxExactBits     = 1 << 16
	maxMulRounds     = 8
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// AddOf returns the canonical sum of terms: nested sums are flattened,
// numbers folded and like terms collected by coefficient.
func AddOf(terms ...Expr) Expr {
	constant := new(big.Rat)
	coeffs := map[string]*big.Rat{}
	rests := map[string]Expr{}

	var collect func(Expr)
	collect = func(t Expr) {
		switch v := t.(type) {
		case *Num:
			constant.Add(constant, v.val)
		case *Add:
			for _, s := range v.terms {
				collect(s)
			}
		default:
			c, rest := splitCoeff(t)
			k := rest.String()
			if acc, ok := coeffs[k]; ok {
				acc.Add(acc, c)
			} else {
				coeffs[k] = new(big.Rat).Set(c)
				rests[k] = rest
			}
		}
	}
	for _, t := range terms {
		collect(t)
	}

	keys := make([]string, 0, len(coeffs))
	for k := range coeffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		if coeffs[k].Sign() == 0 {
			continue
		}
		out = append(out, scale(coeffs[k], rests[k]))
	}
	if constant.Sign() != 0 {
		out = append(out, newNum(constant))
	}

	switch len(out) {
	case 0:
		return N(0)
	case 1:
		return out[0]
	}
	return newAdd(out)
}

// splitCoeff separates the numeric coefficient of a non-numeric term.
func splitCoeff(e Expr) (*big.Rat, Expr) {
	if m, ok := e.(*Mul); ok {
		if c, ok := m.factors[0].(*Num); ok {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return c.val, rest[0]
			}
			return c.val, newMul(rest)
		}
	}
	return ratOne, e
}

// scale multiplies an already canonical coefficient-free term by c.
func scale(c *big.Rat, rest Expr) Expr {
	if c.Cmp(ratOne) == 0 {
		return rest
	}
	coeff := newNum(new(big.Rat).Set(c))
	if m, ok := rest.(*Mul); ok {
		return newMul(append([]Expr{coeff}, m.factors...))
	}
	return newMul([]Expr{coeff, rest})
}

// MulOf returns the canonical product of factors: nested products are
// flattened, numbers folded and powers of equal bases combined.
func MulOf(factors ...Expr) Expr {
	return mulOf(factors, 0)
}

func mulOf(factors []Expr, round int) Expr {
	coeff := big.NewRat(1, 1)
	bases := map[string]Expr{}
	exps := map[string][]Expr{}

	add := func(base, exp Expr) {
		k := base.String()
		if _, ok := bases[k]; !ok {
			bases[k] = base
		}
		exps[k] = append(exps[k], exp)
	}

	var collect func(Expr)
	collect = func(f Expr) {
		switch v := f.(type) {
		case *Num:
			coeff.Mul(coeff, v.val)
		case *Mul:
			for _, g := range v.factors {
				collect(g)
			}
		case *Pow:
			add(v.base, v.exp)
		default:
			add(f, N(1))
		}
	}
	for _, f := range factors {
		collect(f)
	}
	if coeff.Sign() == 0 {
		return N(0)
	}

	keys := make([]string, 0, len(bases))
	for k := range bases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out, pending []Expr
	for _, k := range keys {
		p := PowOf(bases[k], AddOf(exps[k]...))
		switch v := p.(type) {
		case *Num:
			coeff.Mul(coeff, v.val)
		case *Mul:
			pending = append(pending, v)
		default:
			out = append(out, p)
		}
	}
	if coeff.Sign() == 0 {
		return N(0)
	}
	if len(pending) > 0 && round < maxMulRounds {
		all := append([]Expr{newNum(coeff)}, out...)
		all = append(all, pending...)
		return mulOf(all, round+1)
	}
	out = append(out, pending...)

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	if coeff.Cmp(ratOne) == 0 {
		switch len(out) {
		case 0:
			return N(1)
		case 1:
			return out[0]
		}
		return newMul(out)
	}
	if len(out) == 0 {
		return newNum(coeff)
	}
	return newMul(append([]Expr{newNum(coeff)}, out...))
}

// PowOf returns the canonical power base**exp.
func PowOf(base, exp Expr) Expr {
	en, numericExp := exp.(*Num)
	if numericExp {
		if en.Sign() == 0 {
			return N(1)
		}
		if isOne(en) {
			return base
		}
	}

	switch b := base.(type) {
	case *Num:
		if b.Sign() == 0 && numericExp && en.Sign() > 0 {
			return N(0)
		}
		if isOne(b) {
			return N(1)
		}
		if numericExp {
			if r, ok := ratPow(b.val, en.val); ok {
				return newNum(r)
			}
		}
	case *Const:
		if b == E {
			return Call("exp", exp)
		}
	case *Pow:
		if numericExp && en.IsInt() {
			return PowOf(b.base, MulOf(b.exp, en))
		}
	case *Mul:
		if numericExp && en.IsInt() {
			out := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				out[i] = PowOf(f, en)
			}
			return MulOf(out...)
		}
		if numericExp {
			c, rest := splitCoeff(b)
			if c.Sign() > 0 && c.Cmp(ratOne) != 0 {
				return MulOf(PowOf(newNum(new(big.Rat).Set(c)), en), PowOf(rest, en))
			}
		}
	case *Func:
		if b.fn.Name == "exp" && numericExp && en.IsInt() {
			return Call("exp", MulOf(en, b.args[0]))
		}
	}
	return newPow(base, exp)
}

// ratPow computes b**e exactly when the result is rational and its
// numerator and denominator stay within maxExactBits.
func ratPow(b, e *big.Rat) (*big.Rat, bool) {
	if e.IsInt() {
		n := e.Num()
		if !n.IsInt64() {
			return nil, false
		}
		k := n.Int64()
		if k > maxExactExponent || k < -maxExactExponent {
			return nil, false
		}
		if b.Sign() == 0 && k < 0 {
			return nil, false
		}
		abs := k
		if abs < 0 {
			abs = -abs
		}
		if int64(max(b.Num().BitLen(), b.Denom().BitLen()))*abs > maxExactBits {
			return nil, false
		}
		bigK := big.NewInt(abs)
		num := new(big.Int).Exp(b.Num(), bigK, nil)
		den := new(big.Int).Exp(b.Denom(), bigK, nil)
		r := new(big.Rat).SetFrac(num, den)
		if k < 0 {
			r.Inv(r)
		}
		return r, true
	}

	// Rational exponent p/2 of a positive perfect square.
	if b.Sign() <= 0 || e.Denom().Cmp(big.NewInt(2)) != 0 {
		return nil, false
	}
	root, ok := ratSqrt(b)
	if !ok {
		return nil, false
	}
	return ratPow(root, new(big.Rat).SetInt(e.Num()))
}

func ratSqrt(r *big.Rat) (*big.Rat, bool) {
	num, ok := intSqrt(r.Num())
	if !ok {
		return nil, false
	}
	den, ok := intSqrt(r.Denom())
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

func intSqrt(n *big.Int) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	s := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(s, s).Cmp(n) != 0 {
		return nil, false
	}
	return s, true
}

// Neg returns -e.
func Neg(e Expr) Expr { return MulOf(N(-1), e) }

// Minus returns a - b.
func Minus(a, b Expr) Expr { return AddOf(a, Neg(b)) }

// Div returns a / b.
func Div(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

// SqrtOf returns sqrt(e).
func SqrtOf(e Expr) Expr { return PowOf(e, F(1, 2)) }

// Call applies a known function by name. Aliases such as "ln" and "arcsin"
// are resolved; "sqrt" becomes a power. Unknown names panic; callers
// validate names with LookupFunction first.
func Call(name string, args ...Expr) Expr {
	if name == "sqrt" {
		if len(args) != 1 {
			panic("symbolic: sqrt takes one argument")
		}
		return SqrtOf(args[0])
	}
	fn, ok := LookupFunction(name)
	if !ok {
		panic("symbolic: unknown function " + name)
	}
	if len(args) != fn.Arity {
		panic("symbolic: " + fn.Name + " takes " + strconv.Itoa(fn.Arity) + " argument(s)")
	}
	if fn.fold != nil {
		if v := fn.fold(args); v != nil {
			return v
		}
	}
	return newFunc(fn, args)
}
