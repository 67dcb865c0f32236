package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the parsed program with its source hash.
type CompilationResult struct {
	SourceHash string         `json:"source_hash"`
	IR         *ir.SymbolicIR `json:"ir"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file.geo>",
		Short: "Parse DSL source to canonical IR",
		Long: `Parse a DSL file into its intermediate representation: coordinates,
parameters, definitions, tensors and render requests.

Use "-" to read the source from stdin. With --output the IR is written
as canonical JSON (sorted keys, stable number formatting).

Examples:
  geometrix compile sphere.geo
  geometrix compile sphere.geo -o sphere.ir.json
  geometrix compile sphere.geo --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	source, err := LoadSource(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Read %d byte(s) from %s", len(source), path)

	prog, err := engine.Geom(source)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := &CompilationResult{SourceHash: prog.Hash(), IR: prog.IR}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeIRToFile(prog.IR, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Path: opts.Output, Message: err.Error()})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	p := result.IR
	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 Compiled %d definition(s), %d render request(s)\n\n",
		len(p.Definitions), len(p.RenderRequests))

	if len(p.Coords) > 0 {
		fmt.Fprintf(w, "Coords: %s\n", strings.Join(p.Coords, " "))
	}
	if len(p.Params) > 0 {
		names := make([]string, 0, len(p.Params))
		for name := range p.Params {
			names = append(names, name)
		}
		slices.Sort(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s=%g", name, p.Params[name])
		}
		fmt.Fprintf(w, "Params: %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintln(w)

	if len(p.Definitions) > 0 {
		fmt.Fprintln(w, "Definitions:")
		names := make([]string, 0, len(p.Definitions))
		for name := range p.Definitions {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			def := p.Definitions[name]
			head := def.Name
			if len(def.Args) > 0 {
				head += "(" + strings.Join(def.Args, ", ") + ")"
			}
			fmt.Fprintf(w, "  %s: %s = %s\n", def.Kind, head, def.Expression)
		}
		fmt.Fprintln(w)
	}

	if len(p.RenderRequests) > 0 {
		fmt.Fprintln(w, "Render requests:")
		for _, req := range p.RenderRequests {
			fmt.Fprintf(w, "  %s %s\n", req.Kind, req.Target)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Source hash: %s\n", result.SourceHash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// writeIRToFile writes the IR to a file in canonical JSON format.
func writeIRToFile(p *ir.SymbolicIR, filename string) error {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
