package parse

import (
	"errors"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/geometrix/internal/symbolic"
)

// forbiddenChars are rejected anywhere in LaTeX input.
const forbiddenChars = ";@`$"

// allowedCommands is the LaTeX command allow-list. Bare words spelled like
// one of these are accepted as well.
var allowedCommands = map[string]bool{
	"abs": true, "arccos": true, "arcsin": true, "arctan": true,
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"sinh": true, "cosh": true, "tanh": true,
	"asin": true, "acos": true, "atan": true,
	"exp": true, "log": true, "ln": true, "sqrt": true,
	"frac": true, "sum": true, "prod": true,
	"left": true, "right": true, "cdot": true, "times": true,
	"partial": true, "nabla": true, "pi": true,
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "kappa": true,
	"lambda": true, "mu": true, "nu": true, "xi": true, "rho": true, "sigma": true,
	"tau": true, "upsilon": true, "phi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Lambda": true, "Omega": true, "Sigma": true, "Theta": true,
}

// IndexSymbols are always accepted as symbols.
var IndexSymbols = []string{"i", "j", "k", "l", "m", "n", "a", "b", "c", "d"}

// greekNames become free symbols when they appear in an expression.
var greekNames = []string{
	"alpha", "beta", "gamma", "delta", "epsilon", "varepsilon", "zeta", "eta",
	"theta", "kappa", "lambda", "mu", "nu", "xi", "rho", "sigma", "tau",
	"upsilon", "phi", "chi", "psi", "omega",
	"Gamma", "Delta", "Lambda", "Omega", "Sigma", "Theta",
}

// commandWords maps commands whose bare word differs from the command name.
var commandWords = map[string]string{
	"arcsin": "asin",
	"arccos": "acos",
	"arctan": "atan",
	"ln":     "log",
}

// latexScan holds the commands and bare identifiers found in LaTeX input.
// Subscript letters are kept one per entry: each is an index on its own.
type latexScan struct {
	commands   []string
	symbols    []string
	subscripts []string
}

// scanLatex collects backslash commands and maximal letter runs. Letters
// that form a subscript (after "_" or inside "_{...}") are collected one by
// one into subscripts.
func scanLatex(s string) latexScan {
	var out latexScan
	subDepth := 0
	depth := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\':
			j := i + 1
			for j < len(s) && isASCIILetter(s[j]) {
				j++
			}
			if j > i+1 {
				out.commands = append(out.commands, s[i+1:j])
				i = j
			} else {
				i += 2
			}
		case c == '_':
			j := i + 1
			if j < len(s) && s[j] == '{' {
				depth++
				subDepth = depth
				i = j + 1
				continue
			}
			for j < len(s) && isASCIIAlnum(s[j]) {
				if isASCIILetter(s[j]) {
					out.subscripts = append(out.subscripts, s[j:j+1])
				}
				j++
			}
			i = j
		case c == '{':
			depth++
			i++
		case c == '}':
			if depth == subDepth && subDepth > 0 {
				subDepth = 0
			}
			depth--
			i++
		case isASCIILetter(c):
			j := i
			for j < len(s) && isASCIILetter(s[j]) {
				j++
			}
			if subDepth == 0 {
				out.symbols = append(out.symbols, s[i:j])
			} else {
				for k := i; k < j; k++ {
					out.subscripts = append(out.subscripts, s[k:k+1])
				}
			}
			i = j
		default:
			i++
		}
	}
	return out
}

// ValidateLatex checks input against the forbidden characters, the command
// allow-list and the allowed symbol set (plus the index letters).
func ValidateLatex(latex string, allowed []string) error {
	if i := strings.IndexAny(latex, forbiddenChars); i >= 0 {
		return &LatexError{
			Kind:    LatexCharacter,
			Token:   latex[i : i+1],
			Message: "unsupported character",
		}
	}

	scan := scanLatex(latex)
	for _, cmd := range scan.commands {
		if !allowedCommands[cmd] {
			return &LatexError{
				Kind:    LatexCommand,
				Token:   `\` + cmd,
				Message: "unsupported LaTeX command",
			}
		}
	}

	ok := make(map[string]bool, len(allowed)+len(IndexSymbols))
	for _, s := range allowed {
		ok[s] = true
	}
	for _, s := range IndexSymbols {
		ok[s] = true
	}
	for _, sym := range scan.symbols {
		if allowedCommands[sym] || ok[sym] {
			continue
		}
		return &LatexError{
			Kind:    LatexSymbol,
			Token:   sym,
			Message: "unknown symbol",
		}
	}
	for _, letter := range scan.subscripts {
		if ok[letter] {
			continue
		}
		return &LatexError{
			Kind:    LatexSymbol,
			Token:   letter,
			Message: "unknown subscript symbol",
		}
	}
	return nil
}

// LatexSymbols returns the distinct bare identifiers in latex that are not
// command words, plus single subscript letters, sorted. Callers use it to
// infer a symbol set.
func LatexSymbols(latex string) []string {
	var out []string
	scan := scanLatex(latex)
	for _, sym := range append(scan.symbols, scan.subscripts...) {
		if allowedCommands[sym] || slices.Contains(out, sym) {
			continue
		}
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}

// TranslateLatex rewrites validated LaTeX into expression syntax. It does not
// validate; call ValidateLatex first.
func TranslateLatex(latex string) (string, error) {
	expr := latex
	expr = strings.ReplaceAll(expr, `\left`, "")
	expr = strings.ReplaceAll(expr, `\right`, "")
	expr = strings.ReplaceAll(expr, `\cdot`, "*")
	expr = strings.ReplaceAll(expr, `\times`, "*")

	expr, err := replaceFrac(expr)
	if err != nil {
		return "", err
	}
	expr, err = replaceSqrt(expr)
	if err != nil {
		return "", err
	}
	expr = replaceCommands(expr)
	expr = replaceSubscripts(expr)
	expr = replacePowers(expr)

	// Remaining groups are plain grouping.
	expr = strings.NewReplacer("{", "(", "}", ")").Replace(expr)
	return strings.Join(strings.Fields(expr), " "), nil
}

// ParseLatex validates, translates and parses a LaTeX expression. The
// symbol table is the allowed set, the index letters and the Greek letter
// names. A single top-level "=" yields lhs - rhs.
func ParseLatex(latex string, allowed []string) (symbolic.Expr, error) {
	latex = norm.NFC.String(latex)
	if err := ValidateLatex(latex, allowed); err != nil {
		return nil, err
	}
	text, err := TranslateLatex(latex)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(allowed)+len(IndexSymbols)+len(greekNames))
	symbols = append(symbols, allowed...)
	symbols = append(symbols, IndexSymbols...)
	symbols = append(symbols, greekNames...)

	expr, err := symbolic.Parse(text, symbolic.ParseOptions{
		Symbols:         symbols,
		Implicit:        true,
		AllowEquation:   true,
		AllowSubscripts: true,
	})
	if err != nil {
		var unknown *symbolic.UnknownSymbolError
		if errors.As(err, &unknown) {
			return nil, &LatexError{Kind: LatexSymbol, Token: unknown.Name, Message: "unknown symbol", Err: err}
		}
		return nil, &LatexError{Kind: LatexSyntax, Token: text, Message: "failed to parse LaTeX", Err: err}
	}
	return expr, nil
}

// extractGroup returns the contents of the brace group starting at or after
// start (leading whitespace is skipped) and the index just past it.
func extractGroup(s string, start int) (string, int, bool) {
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	if start >= len(s) || s[start] != '{' {
		return "", start, false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start+1 : i], i + 1, true
			}
		}
	}
	return "", start, false
}

// replaceFrac rewrites \frac{A}{B} as (A)/(B), outermost first, until none
// remain. Nested fractions are handled by later iterations.
func replaceFrac(expr string) (string, error) {
	for {
		idx := indexCommand(expr, "frac")
		if idx < 0 {
			return expr, nil
		}
		num, numEnd, ok := extractGroup(expr, idx+len(`\frac`))
		if !ok {
			return "", &LatexError{Kind: LatexSyntax, Token: `\frac`, Message: "expected {numerator}{denominator}"}
		}
		den, denEnd, ok := extractGroup(expr, numEnd)
		if !ok {
			return "", &LatexError{Kind: LatexSyntax, Token: `\frac`, Message: "expected {numerator}{denominator}"}
		}
		expr = expr[:idx] + "(" + num + ")/(" + den + ")" + expr[denEnd:]
	}
}

// replaceSqrt rewrites \sqrt{A} as sqrt(A) and \sqrt[n]{A} as (A)**(1/(n)).
func replaceSqrt(expr string) (string, error) {
	for {
		idx := indexCommand(expr, "sqrt")
		if idx < 0 {
			return expr, nil
		}
		pos := idx + len(`\sqrt`)
		for pos < len(expr) && isSpace(expr[pos]) {
			pos++
		}
		var root string
		if pos < len(expr) && expr[pos] == '[' {
			end := strings.IndexByte(expr[pos:], ']')
			if end < 0 {
				return "", &LatexError{Kind: LatexSyntax, Token: `\sqrt`, Message: "unterminated root index"}
			}
			root = strings.TrimSpace(expr[pos+1 : pos+end])
			pos += end + 1
		}
		rad, radEnd, ok := extractGroup(expr, pos)
		if !ok {
			return "", &LatexError{Kind: LatexSyntax, Token: `\sqrt`, Message: "expected {radicand}"}
		}
		replacement := "sqrt(" + rad + ")"
		if root != "" {
			replacement = "(" + rad + ")**(1/(" + root + "))"
		}
		expr = expr[:idx] + replacement + expr[radEnd:]
	}
}

// indexCommand finds \name not followed by another letter.
func indexCommand(s, name string) int {
	needle := `\` + name
	from := 0
	for {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(needle)
		if end >= len(s) || !isASCIILetter(s[end]) {
			return i
		}
		from = end
	}
}

// replaceCommands turns every \word into its bare word surrounded by spaces
// so adjacent commands such as \sin\theta stay separate tokens. Spacing
// commands such as "\," become a space.
func replaceCommands(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); {
		if expr[i] != '\\' {
			b.WriteByte(expr[i])
			i++
			continue
		}
		j := i + 1
		for j < len(expr) && isASCIILetter(expr[j]) {
			j++
		}
		if j == i+1 {
			// \, \! \: and friends
			b.WriteByte(' ')
			i += 2
			continue
		}
		word := expr[i+1 : j]
		if w, ok := commandWords[word]; ok {
			word = w
		}
		b.WriteByte(' ')
		b.WriteString(word)
		b.WriteByte(' ')
		i = j
	}
	return b.String()
}

// replaceSubscripts rewrites _{ab} as _ab.
func replaceSubscripts(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		if expr[i] == '_' {
			if group, end, ok := extractGroup(expr, i+1); ok && expr[i+1] == '{' {
				b.WriteByte('_')
				b.WriteString(strings.Join(strings.Fields(group), ""))
				i = end - 1
				continue
			}
		}
		b.WriteByte(expr[i])
	}
	return b.String()
}

// replacePowers rewrites ^{A} as **(A) and ^x as **x.
func replacePowers(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		if expr[i] != '^' {
			b.WriteByte(expr[i])
			continue
		}
		b.WriteString("**")
		if group, end, ok := extractGroup(expr, i+1); ok {
			b.WriteString("(" + group + ")")
			i = end - 1
		}
	}
	return b.String()
}

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isASCIIAlnum(c byte) bool  { return isASCIILetter(c) || (c >= '0' && c <= '9') }
func isSpace(c byte) bool       { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
