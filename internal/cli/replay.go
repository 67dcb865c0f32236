package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	ID       string // optional - specific render only
	Res      int
}

// ReplayRenderResult holds the replay result for a single render.
type ReplayRenderResult struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Target        string `json:"target"`
	StoredHash    string `json:"stored_hash"`
	ReplayedHash  string `json:"replayed_hash,omitempty"`
	Skipped       bool   `json:"skipped,omitempty"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Renders          []ReplayRenderResult `json:"renders"`
	TotalRenders     int                  `json:"total_renders"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-render history and verify determinism",
		Long: `Re-render every recorded still render from its stored source and
compare the resulting scene hash with the recorded one.

Renders made with a --res override must be replayed with the same
--res. Animated renders are skipped.

Exit codes:
  0 - All renders reproduced their scene hash
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  geometrix replay --db ./geometrix.db
  geometrix replay --db ./geometrix.db --id 0192f3a4-...
  geometrix replay --db ./geometrix.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "replay specific render only")
	cmd.Flags().IntVar(&opts.Res, "res", 0, "samples per axis for requests without res")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	res := opts.Res
	if res == 0 {
		res = cfg.Render.DefaultRes
	}

	st, err := openHistory(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var renders []store.Render
	if opts.ID != "" {
		r, err := st.ReadRender(ctx, opts.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("no render with id %s", opts.ID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read render", err)
		}
		renders = []store.Render{r}
	} else {
		renders, err = st.ListRenders(ctx, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list renders", err)
		}
	}

	result := ReplayResult{
		Renders:          make([]ReplayRenderResult, 0, len(renders)),
		TotalRenders:     len(renders),
		AllDeterministic: true,
	}

	eng := engine.New(engine.WithResolution(res))
	for _, r := range renders {
		rr := replayRender(ctx, eng, r)
		if !rr.Skipped && !rr.Deterministic {
			result.AllDeterministic = false
		}
		result.Renders = append(result.Renders, rr)
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd.OutOrStdout(), result)
	}
	return outputReplayText(cmd.OutOrStdout(), result, opts.Verbose)
}

// replayRender re-renders one stored source and compares scene hashes.
func replayRender(ctx context.Context, eng *engine.Engine, r store.Render) ReplayRenderResult {
	out := ReplayRenderResult{
		ID:         r.ID,
		Seq:        r.Seq,
		Target:     r.Target,
		StoredHash: r.SceneHash,
	}

	// Frame times are not stored.
	if r.Frames > 0 {
		out.Skipped = true
		return out
	}

	replayed, err := eng.Render(ctx, r.Source)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.ReplayedHash = replayed.SceneHash
	out.Deterministic = replayed.SceneHash == r.SceneHash
	if !out.Deterministic {
		slog.Warn("scene hash mismatch", "id", r.ID, "stored", r.SceneHash, "replayed", replayed.SceneHash)
	}
	return out
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(w io.Writer, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult, verbose bool) error {
	if result.TotalRenders == 0 {
		fmt.Fprintln(w, "No renders found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d render(s)\n", result.TotalRenders)
	fmt.Fprintln(w)

	for _, r := range result.Renders {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "- %s %s (animated, skipped)\n", r.ID, r.Target)
			continue
		case r.Deterministic:
			fmt.Fprintf(w, "\u2713 %s %s\n", r.ID, r.Target)
		default:
			fmt.Fprintf(w, "\u2717 %s %s\n", r.ID, r.Target)
		}

		if verbose || !r.Deterministic {
			fmt.Fprintf(w, "  stored:   %s\n", r.StoredHash)
			if r.ReplayedHash != "" {
				fmt.Fprintf(w, "  replayed: %s\n", r.ReplayedHash)
			}
		}
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "\u2713 All renders verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "\u2717 Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
