package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/llm"
	"github.com/roach88/geometrix/internal/store"
)

// LLMValidateOptions holds flags for the llm validate command.
type LLMValidateOptions struct {
	*RootOptions
	WantsGraph     bool
	RequireDomains bool
	Strict         bool
}

func (o *LLMValidateOptions) validateOptions() llm.ValidateOptions {
	return llm.ValidateOptions{WantsGraph: o.WantsGraph, RequireDomains: o.RequireDomains, Strict: o.Strict}
}

// LLMAskOptions holds flags for the llm ask command.
type LLMAskOptions struct {
	LLMValidateOptions
	Provider     string
	Model        string
	BaseURL      string
	ResponseType string
	GraphDim     int
	Database     string

	// IDGenerator overrides response ids (for testing). If nil, UUIDv7 ids are used.
	IDGenerator engine.IDGenerator
}

// AskResult is the output of llm ask.
type AskResult struct {
	ID           string                `json:"id,omitempty"`
	Seq          int64                 `json:"seq,omitempty"`
	Model        string                `json:"model"`
	Attempts     int                   `json:"attempts"`
	ResponseHash string                `json:"response_hash"`
	Result       *llm.ValidationResult `json:"result"`
}

// NewLLMCommand creates the llm command group.
func NewLLMCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Ask an LLM for solutions and validate its answers",
		Long: `Send math problems to an OpenAI-compatible provider and validate
the JSON answers against the response schema and the strict LaTeX
grammar.

Providers: ` + fmt.Sprint(llm.Providers()) + `
API keys are read from the provider's environment variables.`,
	}

	cmd.AddCommand(newLLMValidateCommand(rootOpts))
	cmd.AddCommand(newLLMAskCommand(&LLMAskOptions{LLMValidateOptions: LLMValidateOptions{RootOptions: rootOpts}}))

	return cmd
}

func newLLMValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LLMValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <response.json>",
		Short: "Validate a raw LLM answer",
		Long: `Validate a raw LLM answer: JSON (salvaged from surrounding prose if
needed), the minimal or full response schema, graphability, and the
LaTeX of every field. Use "-" to read from stdin.

LaTeX problems are warnings unless --strict.

Exit codes:
  0 - Answer is valid (possibly with warnings)
  1 - Answer is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLLMValidate(opts, args[0], cmd)
		},
	}

	addValidateFlags(cmd, opts)

	return cmd
}

func addValidateFlags(cmd *cobra.Command, opts *LLMValidateOptions) {
	cmd.Flags().BoolVar(&opts.WantsGraph, "graph", false, "require a graphable answer")
	cmd.Flags().BoolVar(&opts.RequireDomains, "require-domains", false, "warn when a graph has no domains")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat LaTeX warnings as failures")
}

func runLLMValidate(opts *LLMValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	raw, err := LoadSource(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result, err := llm.ValidateResponse(raw, opts.validateOptions())
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputValidationText(formatter, result)
	return nil
}

func newLLMAskCommand(opts *LLMAskOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <problem-latex>",
		Short: "Ask the configured provider to solve a problem",
		Long: `Send a LaTeX problem to the configured provider, validate the answer
and, with --db, record it in the history database (invalid answers are
recorded with their error code).

Provider and model come from the config file unless given as flags.

Examples:
  geometrix llm ask 'x^2 + y^2 = 1' --provider openai --model gpt-4o-mini --graph --dim 2
  geometrix llm ask '\int_0^1 x^2 dx' --response-type full --db ./geometrix.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLLMAsk(opts, args[0], cmd)
		},
	}

	addValidateFlags(cmd, &opts.LLMValidateOptions)
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "provider name")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "override the provider endpoint")
	cmd.Flags().StringVar(&opts.ResponseType, "response-type", llm.ResponseMinimal, "minimal or full")
	cmd.Flags().IntVar(&opts.GraphDim, "dim", 0, "graph dimension hint (2 or 3)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database")

	return cmd
}

func runLLMAsk(opts *LLMAskOptions, problem string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if opts.ResponseType != llm.ResponseMinimal && opts.ResponseType != llm.ResponseFull {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: fmt.Sprintf("--response-type %q must be minimal or full", opts.ResponseType)})
	}

	llmCfg := cfg.LLM
	llmCfg.Provider = firstNonEmpty(opts.Provider, llmCfg.Provider)
	llmCfg.Model = firstNonEmpty(opts.Model, llmCfg.Model)
	llmCfg.BaseURL = firstNonEmpty(opts.BaseURL, llmCfg.BaseURL)

	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req := llm.AskRequest{
		Problem:      problem,
		ResponseType: opts.ResponseType,
		WantsGraph:   opts.WantsGraph,
		GraphDim:     opts.GraphDim,
	}
	completion, result, askErr := client.Ask(ctx, req, opts.validateOptions())
	if completion == nil {
		return formatter.Fail(ExitFailure, askErr)
	}

	out := AskResult{
		Model:        client.Config().ModelID(),
		Attempts:     completion.Attempts,
		ResponseHash: ir.ResponseHash(completion.Content),
		Result:       result,
	}

	dbPath := firstNonEmpty(opts.Database, cfg.Store.Path)
	if dbPath != "" {
		rec := store.LLMResponse{
			Provider:     client.Config().Provider,
			Model:        out.Model,
			Problem:      problem,
			ResponseType: req.ResponseType,
			ResponseHash: out.ResponseHash,
			Raw:          completion.Content,
			Valid:        askErr == nil,
			ErrorCode:    askErrorCode(askErr),
			Attempts:     completion.Attempts,
		}
		if result != nil {
			rec.Warnings = result.Warnings
		}
		if err := recordResponse(ctx, dbPath, opts.IDGenerator, &rec); err != nil {
			return WrapExitError(ExitCommandError, "failed to record response", err)
		}
		out.ID, out.Seq = rec.ID, rec.Seq
	}

	if askErr != nil {
		return formatter.Fail(ExitFailure, askErr)
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Model: %s (%d attempt(s))\n", out.Model, out.Attempts)
	if out.ID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded as %s (seq %d)\n", out.ID, out.Seq)
	}
	fmt.Fprintln(formatter.Writer)
	outputValidationText(formatter, result)
	return nil
}

// recordResponse stamps rec with an id and the next sequence number of the
// history database at dbPath and writes it.
func recordResponse(ctx context.Context, dbPath string, ids engine.IDGenerator, rec *store.LLMResponse) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	last, err := st.LastSeq(ctx)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	rec.ID = ids.Generate()
	rec.Seq = engine.NewClockAt(last).Next()
	return st.WriteLLMResponse(ctx, *rec)
}

func askErrorCode(err error) string {
	var vErr *llm.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Code
	}
	return ""
}

func outputValidationText(formatter *OutputFormatter, result *llm.ValidationResult) {
	w := formatter.Writer
	resp := result.Response
	fmt.Fprintf(w, "\u2713 Valid %s response (graph: %s)\n\n", resp.ResponseType, resp.GraphType)
	fmt.Fprintf(w, "  input:    %s\n", resp.Input)
	for i, step := range resp.Steps {
		fmt.Fprintf(w, "  step %d:   %s\n", i+1, step)
	}
	fmt.Fprintf(w, "  solution: %s\n", resp.Solution)
	if resp.Graph != "" {
		fmt.Fprintf(w, "  graph:    %s\n", resp.Graph)
	}
	if resp.Domains != "" {
		fmt.Fprintf(w, "  domains:  %s\n", resp.Domains)
	}
	if resp.NotGraphable != "" {
		fmt.Fprintf(w, "  not graphable: %s\n", resp.NotGraphable)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
