package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/parse"
	"github.com/roach88/geometrix/internal/symbolic"
)

// LatexOptions holds flags for the latex command.
type LatexOptions struct {
	*RootOptions
	Symbols []string
	Mode    string
	At      map[string]string
}

// LatexResult is a parsed LaTeX expression.
type LatexResult struct {
	Input      string   `json:"input"`
	Translated string   `json:"translated"`
	Symbols    []string `json:"symbols"`
	Expression string   `json:"expression"`
	Mode       string   `json:"mode,omitempty"`
	Rewritten  string   `json:"rewritten,omitempty"`
	Value      *float64 `json:"value,omitempty"`
}

// NewLatexCommand creates the latex command.
func NewLatexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LatexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "latex <expression>",
		Short: "Parse a LaTeX expression",
		Long: `Validate and parse a LaTeX math expression with the strict grammar:
only allow-listed commands, no unknown identifiers, and an explicit
symbol set.

Without --symbols the symbol set is inferred from the input. An
equation "lhs = rhs" parses to lhs - rhs.

Examples:
  geometrix latex '\frac{x^2}{2} + \sin(y)' --symbols x,y
  geometrix latex '(a+b)^2' --mode expand
  geometrix latex '\sin^2(t) + \cos^2(t)' --mode simplify
  geometrix latex '\sqrt{x^2 + y^2}' --at x=3,y=4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatex(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Symbols, "symbols", nil, "allowed symbols (default: inferred from the input)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "rewrite the result (simplify|expand)")
	cmd.Flags().StringToStringVar(&opts.At, "at", nil, "evaluate at symbol values, e.g. x=1,y=2")

	return cmd
}

func runLatex(opts *LatexOptions, input string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var mode symbolic.SimplifyMode
	if opts.Mode != "" {
		m, err := symbolic.ParseSimplifyMode(opts.Mode)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: err.Error()})
		}
		mode = m
	}
	at, err := parsePoint(opts.At)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = parse.LatexSymbols(input)
	}
	formatter.VerboseLog("Symbols: %s", strings.Join(symbols, ", "))

	expr, err := parse.ParseLatex(input, symbols)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	translated, err := parse.TranslateLatex(input)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := LatexResult{
		Input:      input,
		Translated: translated,
		Symbols:    symbols,
		Expression: expr.String(),
	}
	if result.Symbols == nil {
		result.Symbols = []string{}
	}

	if mode != "" {
		rewritten, err := symbolic.Rewrite(expr, mode)
		if err != nil {
			return formatter.Fail(ExitFailure, err)
		}
		result.Mode = string(mode)
		result.Rewritten = rewritten.String()
		expr = rewritten
	}

	if len(at) > 0 {
		v, err := expr.Eval(at)
		if err != nil {
			return formatter.Fail(ExitFailure, fmt.Errorf("evaluate: %w", err))
		}
		result.Value = &v
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 %s\n", result.Expression)
	if result.Rewritten != "" {
		fmt.Fprintf(w, "  %s: %s\n", result.Mode, result.Rewritten)
	}
	if result.Value != nil {
		fmt.Fprintf(w, "  value: %g\n", *result.Value)
	}
	return nil
}
