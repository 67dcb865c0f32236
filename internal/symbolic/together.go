package symbolic

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Limits that keep Together bounded on large inputs.
const (
	maxDivideSteps = 4096
	maxSplitRounds = 64
)

// Together rewrites a sum over one common denominator and cancels every
// denominator factor that divides the numerator exactly. Denominators must
// be integer powers of polynomials in the sum's atoms (symbols, function
// calls and non-integer powers); other sums are returned unchanged.
func Together(e Expr) Expr {
	sum, ok := e.(*Add)
	if !ok {
		return e
	}
	ring := &polyRing{atoms: map[string]Expr{}}
	dens := &factorSet{ring: ring, nodes: map[string]*factorNode{}}

	type split struct {
		rest   []Expr
		powers map[string]int64
	}
	terms := make([]split, len(sum.terms))
	found := false
	for i, t := range sum.terms {
		s := split{powers: map[string]int64{}}
		for _, f := range factorsOf(t) {
			base, k, ok := negativePower(f)
			if !ok {
				s.rest = append(s.rest, f)
				continue
			}
			key, ok := dens.add(base)
			if !ok {
				return e
			}
			s.powers[key] += k
			found = true
		}
		terms[i] = s
	}
	if !found {
		return e
	}
	dens.split()

	// Rewrite each term's denominator over the leaf factors.
	common := map[string]int64{}
	leafPowers := make([]map[string]int64, len(terms))
	rests := make([][]Expr, len(terms))
	for i, s := range terms {
		powers := map[string]int64{}
		rest := append([]Expr(nil), s.rest...)
		for key, k := range s.powers {
			c, ok := dens.flatten(key, k, powers)
			if !ok {
				return e
			}
			rest = append(rest, newNum(new(big.Rat).Inv(c)))
		}
		for key, k := range powers {
			common[key] = max(common[key], k)
		}
		leafPowers[i] = powers
		rests[i] = rest
	}
	leaves := make([]string, 0, len(common))
	for key := range common {
		leaves = append(leaves, key)
	}
	sort.Strings(leaves)

	numerators := make([]Expr, len(terms))
	for i := range terms {
		factors := rests[i]
		for _, key := range leaves {
			if k := common[key] - leafPowers[i][key]; k > 0 {
				factors = append(factors, PowOf(dens.nodes[key].expr, N(k)))
			}
		}
		numerators[i] = MulOf(factors...)
	}
	numer := TrigSimplify(Expand(AddOf(numerators...)))

	if p, ok := ring.fromExpr(numer); ok {
		for _, key := range leaves {
			for common[key] > 0 {
				q, ok := p.divide(dens.nodes[key].poly, ring.order())
				if !ok {
					break
				}
				p = q
				common[key]--
			}
		}
		numer = ring.toExpr(p)
	}

	out := []Expr{numer}
	for _, key := range leaves {
		if common[key] > 0 {
			out = append(out, PowOf(dens.nodes[key].expr, N(-common[key])))
		}
	}
	return MulOf(out...)
}

// negativePower splits f = base**(-k) for a positive integer k.
func negativePower(f Expr) (Expr, int64, bool) {
	p, ok := f.(*Pow)
	if !ok {
		return nil, 0, false
	}
	k, ok := p.exp.(*Num)
	if !ok || !k.IsInt() || k.Sign() >= 0 || !k.val.Num().IsInt64() {
		return nil, 0, false
	}
	return p.base, -k.val.Num().Int64(), true
}

// factorNode is one denominator polynomial. A node with parts is the
// product coeff * prod(part**multiplicity); a node without parts is a leaf.
type factorNode struct {
	poly  poly
	expr  Expr
	coeff *big.Rat
	parts map[string]int64
}

type factorSet struct {
	ring  *polyRing
	nodes map[string]*factorNode
}

// add registers base and returns its key. Constant bases are refused.
func (s *factorSet) add(base Expr) (string, bool) {
	p, ok := s.ring.fromExpr(base)
	if !ok || p.degree() == 0 {
		return "", false
	}
	return s.node(p), true
}

func (s *factorSet) node(p poly) string {
	expr := s.ring.toExpr(p)
	key := expr.String()
	if _, ok := s.nodes[key]; !ok {
		s.nodes[key] = &factorNode{poly: p, expr: expr}
	}
	return key
}

// split rewrites leaves as products of smaller leaves until no leaf
// divides another.
func (s *factorSet) split() {
	for range maxSplitRounds {
		if !s.splitOnce() {
			return
		}
	}
}

func (s *factorSet) splitOnce() bool {
	var leaves []string
	for key, n := range s.nodes {
		if n.parts == nil {
			leaves = append(leaves, key)
		}
	}
	sort.Slice(leaves, func(i, j int) bool {
		di, dj := s.nodes[leaves[i]].poly.degree(), s.nodes[leaves[j]].poly.degree()
		if di != dj {
			return di < dj
		}
		return leaves[i] < leaves[j]
	})

	order := s.ring.order()
	for i, large := range leaves {
		for _, small := range leaves[:i] {
			q, ok := s.nodes[large].poly.divide(s.nodes[small].poly, order)
			if !ok {
				continue
			}
			n := s.nodes[large]
			n.parts = map[string]int64{small: 1}
			n.coeff = big.NewRat(1, 1)
			if c, ok := q.constant(); ok {
				n.coeff = c
			} else {
				n.parts[s.node(q)]++
			}
			return true
		}
	}
	return false
}

// flatten adds the leaf powers of node**k to powers and returns the
// constant factor of node**k.
func (s *factorSet) flatten(key string, k int64, powers map[string]int64) (*big.Rat, bool) {
	n := s.nodes[key]
	if n.parts == nil {
		powers[key] += k
		return big.NewRat(1, 1), true
	}
	c, ok := ratPow(n.coeff, new(big.Rat).SetInt64(k))
	if !ok {
		return nil, false
	}
	for part, m := range n.parts {
		pc, ok := s.flatten(part, k*m, powers)
		if !ok {
			return nil, false
		}
		c.Mul(c, pc)
	}
	return c, true
}

// ---------------------------------------------------------------------------
// Sparse polynomials over atoms

type monomial struct {
	coeff *big.Rat
	exps  map[string]int64
}

func (m monomial) key() string {
	names := make([]string, 0, len(m.exps))
	for name, k := range m.exps {
		if k != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(strconv.FormatInt(m.exps[name], 10))
		b.WriteByte(0)
	}
	return b.String()
}

// over returns m/d when d's exponents do not exceed m's.
func (m monomial) over(d monomial) (map[string]int64, bool) {
	out := make(map[string]int64, len(m.exps))
	for name, k := range m.exps {
		out[name] = k
	}
	for name, k := range d.exps {
		if out[name] < k {
			return nil, false
		}
		out[name] -= k
		if out[name] == 0 {
			delete(out, name)
		}
	}
	return out, true
}

type poly map[string]monomial

func (p poly) add(m monomial) {
	if m.coeff.Sign() == 0 {
		return
	}
	key := m.key()
	if cur, ok := p[key]; ok {
		sum := new(big.Rat).Add(cur.coeff, m.coeff)
		if sum.Sign() == 0 {
			delete(p, key)
			return
		}
		p[key] = monomial{coeff: sum, exps: cur.exps}
		return
	}
	exps := make(map[string]int64, len(m.exps))
	for name, k := range m.exps {
		if k != 0 {
			exps[name] = k
		}
	}
	p[key] = monomial{coeff: new(big.Rat).Set(m.coeff), exps: exps}
}

func (p poly) clone() poly {
	out := make(poly, len(p))
	for key, m := range p {
		out[key] = m
	}
	return out
}

func (p poly) degree() int64 {
	var deg int64
	for _, m := range p {
		var d int64
		for _, k := range m.exps {
			d += k
		}
		deg = max(deg, d)
	}
	return deg
}

// constant reports the value of a polynomial without atoms.
func (p poly) constant() (*big.Rat, bool) {
	switch len(p) {
	case 0:
		return new(big.Rat), true
	case 1:
		m, ok := p[""]
		if !ok {
			return nil, false
		}
		return new(big.Rat).Set(m.coeff), true
	default:
		return nil, false
	}
}

// leading returns the largest monomial in lex order over atoms.
func (p poly) leading(order []string) monomial {
	var best monomial
	first := true
	for _, m := range p {
		if first || lexGreater(m, best, order) {
			best = m
			first = false
		}
	}
	return best
}

func lexGreater(a, b monomial, order []string) bool {
	for _, name := range order {
		if a.exps[name] != b.exps[name] {
			return a.exps[name] > b.exps[name]
		}
	}
	return false
}

// divide returns p/d when d divides p exactly.
func (p poly) divide(d poly, order []string) (poly, bool) {
	if len(d) == 0 {
		return nil, false
	}
	ld := d.leading(order)
	rem := p.clone()
	q := poly{}
	for steps := 0; len(rem) > 0; steps++ {
		if steps == maxDivideSteps {
			return nil, false
		}
		lt := rem.leading(order)
		exps, ok := lt.over(ld)
		if !ok {
			return nil, false
		}
		m := monomial{coeff: new(big.Rat).Quo(lt.coeff, ld.coeff), exps: exps}
		q.add(m)
		for _, dm := range d {
			prod := monomial{coeff: new(big.Rat).Mul(m.coeff, dm.coeff), exps: map[string]int64{}}
			prod.coeff.Neg(prod.coeff)
			for name, k := range m.exps {
				prod.exps[name] += k
			}
			for name, k := range dm.exps {
				prod.exps[name] += k
			}
			rem.add(prod)
		}
	}
	return q, true
}

// polyRing names the atoms shared by the polynomials of one rewrite.
type polyRing struct {
	atoms map[string]Expr
}

func (r *polyRing) atom(e Expr) string {
	key := e.String()
	r.atoms[key] = e
	return key
}

func (r *polyRing) order() []string {
	names := make([]string, 0, len(r.atoms))
	for name := range r.atoms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fromExpr reads an expanded expression as a polynomial. Sums inside
// products and negative integer powers are refused.
func (r *polyRing) fromExpr(e Expr) (poly, bool) {
	p := poly{}
	for _, t := range termsOf(e) {
		m := monomial{coeff: big.NewRat(1, 1), exps: map[string]int64{}}
		for _, f := range factorsOf(t) {
			switch v := f.(type) {
			case *Num:
				m.coeff.Mul(m.coeff, v.val)
			case *Add:
				return nil, false
			case *Pow:
				k, ok := v.exp.(*Num)
				if !ok || !k.IsInt() {
					m.exps[r.atom(v)]++
					continue
				}
				if k.Sign() < 0 || !k.val.Num().IsInt64() {
					return nil, false
				}
				switch v.base.(type) {
				case *Add, *Num:
					return nil, false
				}
				m.exps[r.atom(v.base)] += k.val.Num().Int64()
			default:
				m.exps[r.atom(f)]++
			}
		}
		p.add(m)
	}
	return p, true
}

func (r *polyRing) toExpr(p poly) Expr {
	if len(p) == 0 {
		return N(0)
	}
	terms := make([]Expr, 0, len(p))
	for _, m := range p {
		factors := []Expr{newNum(new(big.Rat).Set(m.coeff))}
		for name, k := range m.exps {
			factors = append(factors, PowOf(r.atoms[name], N(k)))
		}
		terms = append(terms, MulOf(factors...))
	}
	return AddOf(terms...)
}
