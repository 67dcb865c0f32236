package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/queryir"
	"github.com/roach88/geometrix/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Source   string // optional - only renders of this DSL file
	ID       string // optional - show one render or response in full
	Where    []string // field=value conditions, all of which must hold
	Limit    int
	LLM      bool // list LLM responses instead of renders
}

// HistoryResult holds the history listing.
type HistoryResult struct {
	Renders   []store.Render      `json:"renders,omitempty"`
	Responses []store.LLMResponse `json:"responses,omitempty"`
	Total     int                 `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query render and LLM history",
		Long: `Query the history database written by render --db and llm ask --db.

Renders are listed in sequence order with their source and scene
hashes; --source limits the listing to renders of one DSL file (by
source hash). --where field=value keeps only rows whose column equals
the value; repeat it to require several. --id shows a single render or
LLM response in full, including its canonical scene JSON or raw answer.

Examples:
  geometrix history --db ./geometrix.db
  geometrix history --db ./geometrix.db --source sphere.geo
  geometrix history --db ./geometrix.db --limit 5 --format json
  geometrix history --db ./geometrix.db --where kind=curve --where frames=0
  geometrix history --db ./geometrix.db --llm --where valid=false
  geometrix history --db ./geometrix.db --id 0192f3a4-...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only renders of this DSL file")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show one render or response")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter by column (field=value, repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent entries")
	cmd.Flags().BoolVar(&opts.LLM, "llm", false, "list LLM responses")

	return cmd
}

// openHistory opens the database named by flag or config. The database
// must already exist.
func openHistory(opts *RootOptions, flag string) (*store.Store, error) {
	cfg, err := opts.Config()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	path := firstNonEmpty(flag, cfg.Store.Path)
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database given (use --db or store.path in the config)")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openHistory(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.ID != "" {
		return showHistoryEntry(ctx, st, opts, cmd.OutOrStdout())
	}

	table := "renders"
	if opts.LLM {
		table = "llm_responses"
	}
	filter, err := historyFilter(opts, table, cmd)
	if err != nil {
		return err
	}

	result := HistoryResult{}
	if opts.LLM {
		result.Responses, err = st.FindLLMResponses(ctx, filter, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list responses", err)
		}
		result.Total = len(result.Responses)
	} else {
		result.Renders, err = st.FindRenders(ctx, filter, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list renders", err)
		}
		result.Total = len(result.Renders)
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd.OutOrStdout(), result)
	}
	outputHistoryText(cmd.OutOrStdout(), result, opts.LLM)
	return nil
}

// historyFilter builds the row filter from --where and --source.
func historyFilter(opts *HistoryOptions, table string, cmd *cobra.Command) (queryir.Predicate, error) {
	preds := make([]queryir.Predicate, 0, len(opts.Where)+1)
	for _, cond := range opts.Where {
		eq, err := queryir.ParseCondition(table, cond)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeBadFlag, err)
		}
		preds = append(preds, eq)
	}

	if opts.Source != "" {
		if opts.LLM {
			return nil, NewExitError(ExitCommandError, "--source applies to renders only")
		}
		source, err := LoadSource(opts.Source, cmd.InOrStdin())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read source", err)
		}
		preds = append(preds, queryir.Equals{Field: "source_hash", Value: ir.SourceHash(source)})
	}
	return queryir.Where(preds...), nil
}

// showHistoryEntry prints one render, or one LLM response with --llm.
func showHistoryEntry(ctx context.Context, st *store.Store, opts *HistoryOptions, w io.Writer) error {
	var entry any
	var err error
	if opts.LLM {
		entry, err = st.ReadLLMResponse(ctx, opts.ID)
	} else {
		entry, err = st.ReadRender(ctx, opts.ID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no history entry with id %s", opts.ID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: entry})
	}

	switch e := entry.(type) {
	case store.Render:
		fmt.Fprintf(w, "Render %s (seq %d)\n\n", e.ID, e.Seq)
		fmt.Fprintf(w, "  %s %s, %d vertices, %d frames\n", e.Kind, e.Target, e.Vertices, e.Frames)
		fmt.Fprintf(w, "  source hash: %s\n", e.SourceHash)
		fmt.Fprintf(w, "  scene hash:  %s\n", e.SceneHash)
		fmt.Fprintf(w, "  engine %s, scene %s\n\n", e.EngineVersion, e.SceneVersion)
		fmt.Fprintln(w, "Source:")
		fmt.Fprintln(w, e.Source)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Scene:")
		fmt.Fprintln(w, string(e.Scene))
	case store.LLMResponse:
		status := "valid"
		if !e.Valid {
			status = "invalid (" + e.ErrorCode + ")"
		}
		fmt.Fprintf(w, "LLM response %s (seq %d)\n\n", e.ID, e.Seq)
		fmt.Fprintf(w, "  %s, %s, %s, %d attempt(s)\n", e.Model, e.ResponseType, status, e.Attempts)
		fmt.Fprintf(w, "  problem: %s\n", e.Problem)
		fmt.Fprintf(w, "  response hash: %s\n", e.ResponseHash)
		for _, warning := range e.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Raw:")
		fmt.Fprintln(w, e.Raw)
	}
	return nil
}

// outputHistoryJSON outputs the history as JSON.
func outputHistoryJSON(w io.Writer, result HistoryResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

// outputHistoryText outputs the history as a table.
func outputHistoryText(w io.Writer, result HistoryResult, llmResponses bool) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No history found.")
		return
	}

	if llmResponses {
		fmt.Fprintf(w, "%-5s  %-36s  %-24s  %-7s  %s\n", "SEQ", "ID", "MODEL", "STATUS", "PROBLEM")
		for _, r := range result.Responses {
			status := "valid"
			if !r.Valid {
				status = r.ErrorCode
			}
			fmt.Fprintf(w, "%-5d  %-36s  %-24s  %-7s  %s\n", r.Seq, r.ID, r.Model, status, r.Problem)
		}
	} else {
		fmt.Fprintf(w, "%-5s  %-36s  %-8s  %-12s  %-8s  %s\n", "SEQ", "ID", "KIND", "TARGET", "VERTICES", "SCENE HASH")
		for _, r := range result.Renders {
			fmt.Fprintf(w, "%-5d  %-36s  %-8s  %-12s  %-8d  %s\n", r.Seq, r.ID, r.Kind, r.Target, r.Vertices, shortHash(r.SceneHash))
		}
	}
	fmt.Fprintf(w, "\n%d entr%s\n", result.Total, pluralY(result.Total))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
