package symbolic

import "fmt"

// maxExpandPower bounds the integer powers of sums that Expand multiplies out.
const maxExpandPower = 8

// SimplifyMode selects a rewriting strategy.
type SimplifyMode string

const (
	// ModeSimplify expands, applies the Pythagorean identity and puts sums
	// over a common denominator.
	ModeSimplify SimplifyMode = "simplify"
	// ModeExpand only distributes products and small powers over sums.
	ModeExpand SimplifyMode = "expand"
)

// ParseSimplifyMode validates a mode name.
func ParseSimplifyMode(s string) (SimplifyMode, error) {
	switch SimplifyMode(s) {
	case ModeSimplify, ModeExpand:
		return SimplifyMode(s), nil
	default:
		return "", fmt.Errorf("unknown simplify mode %q (want simplify or expand)", s)
	}
}

// Rewrite applies the given mode to e.
func Rewrite(e Expr, mode SimplifyMode) (Expr, error) {
	switch mode {
	case ModeSimplify:
		return Simplify(e), nil
	case ModeExpand:
		return Expand(e), nil
	default:
		return nil, fmt.Errorf("unknown simplify mode %q", mode)
	}
}

// Simplify expands e, collapses sin**2 + cos**2 pairs and combines the
// result over a common denominator with Together.
func Simplify(e Expr) Expr {
	return Together(TrigSimplify(Expand(e)))
}

// Expand distributes products over sums and multiplies out integer powers
// of sums up to a small bound. Negative powers of sums keep their exponent
// over an expanded base.
func Expand(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		out := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			out[i] = Expand(t)
		}
		return AddOf(out...)
	case *Mul:
		var result Expr = N(1)
		for _, f := range v.factors {
			result = distribute(result, Expand(f))
		}
		return result
	case *Pow:
		base := Expand(v.base)
		exp := Expand(v.exp)
		sum, isSum := base.(*Add)
		n, isNum := exp.(*Num)
		if isSum && isNum && n.IsInt() {
			k := n.val.Num().Int64()
			switch {
			case k > 1 && k <= maxExpandPower:
				return expandPower(sum, k)
			}
		}
		return PowOf(base, exp)
	case *Func:
		out := make([]Expr, len(v.args))
		for i, a := range v.args {
			out[i] = Expand(a)
		}
		return Call(v.fn.Name, out...)
	default:
		return e
	}
}

func expandPower(sum *Add, k int64) Expr {
	var result Expr = sum
	for i := int64(1); i < k; i++ {
		result = distribute(result, sum)
	}
	return result
}

// distribute multiplies two expanded expressions term by term.
func distribute(a, b Expr) Expr {
	ta, tb := termsOf(a), termsOf(b)
	out := make([]Expr, 0, len(ta)*len(tb))
	for _, x := range ta {
		for _, y := range tb {
			out = append(out, MulOf(x, y))
		}
	}
	return AddOf(out...)
}

func termsOf(e Expr) []Expr {
	if s, ok := e.(*Add); ok {
		return s.terms
	}
	return []Expr{e}
}

// TrigSimplify rewrites, bottom-up, every sum containing a pair
// c*R*sin(x)**k + c*R*sin(x)**(k-2)*cos(x)**2 into c*R*sin(x)**(k-2),
// and symmetrically for cos.
func TrigSimplify(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = TrigSimplify(t)
		}
		for {
			next, changed := combinePythagorean(terms)
			if !changed {
				break
			}
			terms = next
		}
		return AddOf(terms...)
	case *Mul:
		out := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			out[i] = TrigSimplify(f)
		}
		return MulOf(out...)
	case *Pow:
		return PowOf(TrigSimplify(v.base), TrigSimplify(v.exp))
	case *Func:
		out := make([]Expr, len(v.args))
		for i, a := range v.args {
			out[i] = TrigSimplify(a)
		}
		return Call(v.fn.Name, out...)
	default:
		return e
	}
}

// combinePythagorean merges the first matching sin/cos pair in terms.
func combinePythagorean(terms []Expr) ([]Expr, bool) {
	for i, t := range terms {
		for _, f := range factorsOf(t) {
			p, ok := f.(*Pow)
			if !ok {
				continue
			}
			k, ok := p.exp.(*Num)
			if !ok || !k.IsInt() || k.Sign() <= 0 {
				continue
			}
			fn, ok := p.base.(*Func)
			if !ok {
				continue
			}
			var other string
			switch {
			case fn.fn.Name == "sin" && k.val.Cmp(ratTwo) >= 0:
				other = "cos"
			case fn.fn.Name == "cos" && k.val.Cmp(ratTwo) > 0:
				other = "sin"
			default:
				continue
			}

			// t = rest * f**k; partner = rest * f**(k-2) * g**2
			lowered := PowOf(p.base, AddOf(k, N(-2)))
			rest := Div(t, f)
			partner := MulOf(rest, lowered, PowOf(Call(other, fn.args...), N(2)))
			for j, u := range terms {
				if j == i || !u.Equal(partner) {
					continue
				}
				merged := MulOf(rest, lowered)
				out := make([]Expr, 0, len(terms)-1)
				for n, w := range terms {
					switch n {
					case i:
						out = append(out, merged)
					case j:
					default:
						out = append(out, w)
					}
				}
				return out, true
			}
		}
	}
	return terms, false
}

var ratTwo = N(2).val

func factorsOf(e Expr) []Expr {
	if m, ok := e.(*Mul); ok {
		return m.factors
	}
	return []Expr{e}
}
