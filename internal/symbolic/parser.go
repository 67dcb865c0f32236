package symbolic

import (
	"fmt"
	"strings"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	// Symbols lists the names allowed as free symbols. Any other bare name is
	// an error; names never become symbols implicitly.
	Symbols []string
	// Bindings replace names by expressions while parsing (parameters).
	Bindings map[string]Expr
	// Implicit enables implicit multiplication ("2x", "x y") and
	// parenthesis-free function application ("sin x", "sin^2 x").
	Implicit bool
	// AllowEquation accepts a single top-level "=" and returns lhs - rhs.
	AllowEquation bool
	// AllowSubscripts accepts "x_1" when "x" is a declared symbol.
	AllowSubscripts bool
}

// Binding powers.
const (
	precLowest  = 0
	precEqual   = 5
	precSum     = 10
	precProduct = 20
	precUnary   = 25
	precPower   = 30
)

const maxParseDepth = 256

type parser struct {
	lex     *lexer
	cur     token
	input   string
	opts    ParseOptions
	symbols map[string]bool
	depth   int
	sawEq   bool
}

// Parse parses expression text such as "R*cos(u) + v**2" into an Expr.
// Both "**" and "^" denote powers.
func Parse(input string, opts ParseOptions) (Expr, error) {
	p := newParser(input, opts)
	if p.cur.typ == tokenEOF {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.typ != tokenEOF {
		return nil, p.errorf("unexpected %s", describe(p.cur))
	}
	return e, nil
}

// ParseVector parses a parenthesized tuple "(a, b, c)" into its components.
func ParseVector(input string, opts ParseOptions) ([]Expr, error) {
	parts, ok := TupleComponents(input)
	if !ok {
		return nil, &SyntaxError{Input: input, Message: "expected a parenthesized tuple with at least two components"}
	}
	out := make([]Expr, len(parts))
	for i, part := range parts {
		e, err := Parse(part, opts)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

// TupleComponents splits "(a, b, ...)" into its top-level components. It
// reports false unless s is wrapped in a single matching pair of
// parentheses that contains a comma at nesting depth zero.
func TupleComponents(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, false
	}
	if matchingParen(s, 0) != len(s)-1 {
		return nil, false
	}
	parts := SplitTopLevel(s[1 : len(s)-1])
	if len(parts) < 2 {
		return nil, false
	}
	return parts, true
}

// SplitTopLevel splits s at commas that are not nested in any brackets.
// Components are trimmed.
func SplitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func newParser(input string, opts ParseOptions) *parser {
	p := &parser{
		lex:     newLexer(input),
		input:   input,
		opts:    opts,
		symbols: make(map[string]bool, len(opts.Symbols)),
	}
	for _, s := range opts.Symbols {
		p.symbols[s] = true
	}
	p.advance()
	return p
}

func (p *parser) advance() {
	p.cur = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.input, Pos: p.cur.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(t tokenType) error {
	if p.cur.typ != t {
		return p.errorf("expected %s but got %s", t, describe(p.cur))
	}
	p.advance()
	return nil
}

func describe(t token) string {
	switch t.typ {
	case tokenNumber, tokenName:
		return fmt.Sprintf("%s %q", t.typ, t.value)
	case tokenError:
		return fmt.Sprintf("character %q", t.value)
	default:
		return t.typ.String()
	}
}

// startsOperand reports whether t can begin an implicit factor.
func startsOperand(t token) bool {
	return t.typ == tokenNumber || t.typ == tokenName || t.typ == tokenParenOpen
}

func (p *parser) infixPrecedence() int {
	switch p.cur.typ {
	case tokenPlus, tokenMinus:
		return precSum
	case tokenMult, tokenDiv:
		return precProduct
	case tokenPow:
		return precPower
	case tokenEqual:
		if p.opts.AllowEquation && !p.sawEq {
			return precEqual
		}
	default:
		if p.opts.Implicit && startsOperand(p.cur) {
			return precProduct
		}
	}
	return precLowest
}

// parseExpression is a Pratt loop: a prefix (nud) followed by infix (led)
// operators binding tighter than rbp.
func (p *parser) parseExpression(rbp int) (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxParseDepth {
		return nil, p.errorf("expression nested too deeply")
	}

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		prec := p.infixPrecedence()
		if prec <= rbp {
			return left, nil
		}
		left, err = p.parseInfix(left, prec)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parsePrefix() (Expr, error) {
	tok := p.cur
	switch tok.typ {
	case tokenNumber:
		n, ok := ParseNumber(tok.value)
		if !ok {
			return nil, p.errorf("invalid number %q", tok.value)
		}
		p.advance()
		return n, nil
	case tokenName:
		return p.parseName()
	case tokenMinus:
		p.advance()
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		return Neg(operand), nil
	case tokenPlus:
		p.advance()
		return p.parseExpression(precUnary)
	case tokenParenOpen:
		p.advance()
		inner, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if p.cur.typ == tokenComma {
			return nil, p.errorf("unexpected ','; tuples are only allowed as vector bodies")
		}
		if err := p.expect(tokenParenClose); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorf("unexpected %s", describe(tok))
	}
}

func (p *parser) parseInfix(left Expr, prec int) (Expr, error) {
	tok := p.cur
	switch tok.typ {
	case tokenPlus, tokenMinus, tokenMult, tokenDiv:
		p.advance()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		switch tok.typ {
		case tokenPlus:
			return AddOf(left, right), nil
		case tokenMinus:
			return Minus(left, right), nil
		case tokenMult:
			return MulOf(left, right), nil
		default:
			return Div(left, right), nil
		}
	case tokenPow:
		p.advance()
		// Right associative: a**b**c == a**(b**c).
		right, err := p.parseExpression(precPower - 1)
		if err != nil {
			return nil, err
		}
		return PowOf(left, right), nil
	case tokenEqual:
		p.sawEq = true
		p.advance()
		right, err := p.parseExpression(precEqual)
		if err != nil {
			return nil, err
		}
		return Minus(left, right), nil
	default:
		// Implicit multiplication.
		right, err := p.parseExpression(precProduct)
		if err != nil {
			return nil, err
		}
		return MulOf(left, right), nil
	}
}

func (p *parser) parseName() (Expr, error) {
	tok := p.cur
	name := tok.value
	p.advance()

	if IsFunctionName(name) {
		if p.cur.typ == tokenParenOpen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return p.call(name, args, tok)
		}
		if p.opts.Implicit {
			return p.parseApplication(name, tok)
		}
		return nil, &SyntaxError{Input: p.input, Pos: tok.pos, Message: fmt.Sprintf("function %s requires parenthesized arguments", name)}
	}
	return p.resolve(name)
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expect(tokenParenOpen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.cur.typ == tokenParenClose {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur.typ == tokenComma {
			p.advance()
			continue
		}
		if err := p.expect(tokenParenClose); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// parseApplication handles "sin x", "sin 2x" and "sin^2 x". The argument
// is a run of implicitly multiplied factors that stops at the next
// function name.
func (p *parser) parseApplication(name string, tok token) (Expr, error) {
	var power Expr
	if p.cur.typ == tokenPow {
		p.advance()
		exp, err := p.parseExpression(precPower - 1)
		if err != nil {
			return nil, err
		}
		power = exp
	}
	if !startsOperand(p.cur) {
		return nil, p.errorf("function %s is missing its argument", name)
	}

	arg, err := p.parseExpression(precProduct)
	if err != nil {
		return nil, err
	}
	for startsOperand(p.cur) && !(p.cur.typ == tokenName && IsFunctionName(p.cur.value)) {
		next, err := p.parseExpression(precProduct)
		if err != nil {
			return nil, err
		}
		arg = MulOf(arg, next)
	}

	result, err := p.call(name, []Expr{arg}, tok)
	if err != nil {
		return nil, err
	}
	if power != nil {
		return PowOf(result, power), nil
	}
	return result, nil
}

func (p *parser) call(name string, args []Expr, tok token) (Expr, error) {
	arity := 1
	if fn, ok := LookupFunction(name); ok {
		arity = fn.Arity
	}
	if len(args) != arity {
		return nil, &SyntaxError{
			Input:   p.input,
			Pos:     tok.pos,
			Message: fmt.Sprintf("%s takes %d argument(s), got %d", name, arity, len(args)),
		}
	}
	return Call(name, args...), nil
}

func (p *parser) resolve(name string) (Expr, error) {
	if v, ok := p.opts.Bindings[name]; ok {
		return v, nil
	}
	if p.symbols[name] {
		return S(name), nil
	}
	switch name {
	case "pi":
		return Pi, nil
	case "E":
		return E, nil
	}
	if p.opts.AllowSubscripts {
		if i := strings.IndexByte(name, '_'); i > 0 && p.symbols[name[:i]] {
			return S(name), nil
		}
	}
	return nil, &UnknownSymbolError{Name: name}
}
