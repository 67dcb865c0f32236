package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	At map[string]string
}

// EvalResult is the value of a definition at a point.
type EvalResult struct {
	Target string             `json:"target"`
	At     map[string]float64 `json:"at"`
	Value  []float64          `json:"value"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <file.geo> <target>",
		Short: "Evaluate a definition at a point",
		Long: `Evaluate a vector or scalar definition of a DSL file at one point.

Parameters and argument-free scalar definitions are substituted; every
coordinate of the definition must be given with --at.

Example:
  geometrix eval sphere.geo X --at u=0.5,v=1.2`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringToStringVar(&opts.At, "at", nil, "coordinate values, e.g. u=0.5,v=1")

	return cmd
}

func runEval(opts *EvalOptions, path, target string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	at, err := parsePoint(opts.At)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	prog, err := LoadProgram(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}

	value, err := prog.Evaluate(target, at)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := EvalResult{Target: target, At: at, Value: value}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	parts := make([]string, len(value))
	for i, v := range value {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	if len(parts) == 1 {
		fmt.Fprintf(formatter.Writer, "%s = %s\n", target, parts[0])
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%s = (%s)\n", target, strings.Join(parts, ", "))
	return nil
}

// parsePoint converts --at values to numbers.
func parsePoint(at map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(at))
	for name, text := range at {
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadFlag, Message: fmt.Sprintf("--at %s=%q is not a number", name, text)}
		}
		out[name] = v
	}
	return out, nil
}

// exitCodeFor is ExitCommandError for unreadable input and bad flags, and
// ExitFailure for everything the pipeline rejects.
func exitCodeFor(err error) int {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return ExitCommandError
	}
	return ExitFailure
}
