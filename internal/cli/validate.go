package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid          bool       `json:"valid"`
	RenderRequests int        `json:"render_requests"`
	Errors         []CLIError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.geo>",
		Short: "Validate DSL source without rendering",
		Long: `Parse a DSL file and interpret every render request (kind, target,
domain, res and time options) without sampling anything.

Faster than render for development feedback, and unlike render it
reports every invalid request, not just the first.

Exit codes:
  0 - Source is valid
  1 - Source is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	prog, err := LoadProgram(path, cmd.InOrStdin())
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return formatter.Fail(ExitCommandError, err)
		}
		return outputValidationResult(formatter, path, ValidationResult{
			Errors: []CLIError{{Code: ErrorCode(err), Message: err.Error()}},
		})
	}

	formatter.VerboseLog("Parsed %s: %d definition(s), %d render request(s)", path, len(prog.IR.Definitions), len(prog.IR.RenderRequests))

	result := ValidationResult{RenderRequests: len(prog.IR.RenderRequests)}
	for _, err := range prog.Check() {
		result.Errors = append(result.Errors, CLIError{Code: ErrorCode(err), Message: err.Error()})
	}
	result.Valid = len(result.Errors) == 0

	return outputValidationResult(formatter, path, result)
}

func outputValidationResult(formatter *OutputFormatter, path string, result ValidationResult) error {
	if formatter.Format == "json" {
		if err := outputValidateJSON(formatter.Writer, result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter.Writer, path, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateJSON(w io.Writer, result ValidationResult) error {
	status := "ok"
	var first *CLIError
	if !result.Valid {
		status = "error"
		first = &result.Errors[0]
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: status, Data: result, Error: first})
}

func outputValidateText(w io.Writer, path string, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(w, "\u2713 %s is valid (%d render request(s))\n", path, result.RenderRequests)
		return
	}

	fmt.Fprintln(w, "\u2717 Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
	}
}
