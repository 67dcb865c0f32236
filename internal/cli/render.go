package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/scene"
	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/transport"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Display  string
	Out      string
	Database string
	Res      int
	Times    []float64
	FPS      int
	Loop     bool

	// IDGenerator and Clock override render ids and sequence numbers (for testing).
	// If nil, UUIDv7 ids and a clock continuing after stored history are used.
	IDGenerator engine.IDGenerator
	Clock       engine.Sequencer
}

// BufferSummary describes one scene buffer.
type BufferSummary struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
}

// RenderSummary is the output of the render command.
type RenderSummary struct {
	ID         string          `json:"id"`
	Seq        int64           `json:"seq"`
	Kind       string          `json:"kind"`
	Target     string          `json:"target"`
	SourceHash string          `json:"source_hash"`
	SceneHash  string          `json:"scene_hash"`
	Objects    int             `json:"objects"`
	Vertices   int             `json:"vertices"`
	Frames     int             `json:"frames"`
	Buffers    []BufferSummary `json:"buffers"`
	Display    string          `json:"display"`
	Output     string          `json:"output,omitempty"`
	Recorded   bool            `json:"recorded"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return newRenderCommand(&RenderOptions{RootOptions: rootOpts})
}

func newRenderCommand(opts *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file.geo>",
		Short: "Render the first render request of a DSL file",
		Long: `Parse a DSL file, sample its first render request and build a scene
bundle: a versioned scene description plus typed numeric buffers.

The scene can be written as a JSON document with base64 buffers
(--display json) or as a PNG preview of the x-y projection
(--display png). With --db every render is recorded in the history
database with its source and scene hashes.

With --animate the request is rendered once per time value, binding
the program's time parameter.

Examples:
  geometrix render sphere.geo --display json --out sphere.json
  geometrix render wave.geo --animate 0,0.25,0.5,0.75 --fps 12 --display json --out wave.json
  geometrix render torus.geo --display png --out torus.png --db ./geometrix.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Display, "display", "", "display sink (none|json|png), default from config")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output path for the json and png displays")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database")
	cmd.Flags().IntVar(&opts.Res, "res", 0, "samples per axis for requests without res")
	cmd.Flags().Float64SliceVar(&opts.Times, "animate", nil, "render one frame per time value")
	cmd.Flags().IntVar(&opts.FPS, "fps", 0, "animation frame rate (default 30)")
	cmd.Flags().BoolVar(&opts.Loop, "loop", true, "loop the animation")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	source, err := LoadSource(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	displayKind := firstNonEmpty(opts.Display, cfg.Render.Display)
	outPath := firstNonEmpty(opts.Out, cfg.Render.PreviewPath)
	display, err := transport.ResolveDisplay(displayKind, outPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: err.Error()})
	}

	res := opts.Res
	if res == 0 {
		res = cfg.Render.DefaultRes
	}
	if res != 0 && res < 2 {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: fmt.Sprintf("--res must be > 1, got %d", res)})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engineOpts := []engine.Option{
		engine.WithDisplay(display),
		engine.WithResolution(res),
	}
	if opts.IDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDGenerator))
	}

	dbPath := firstNonEmpty(opts.Database, cfg.Store.Path)
	clock := opts.Clock
	if dbPath != "" {
		slog.Debug("opening database", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if clock == nil {
			last, err := st.LastSeq(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read history", err)
			}
			clock = engine.NewClockAt(last)
		}
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}
	if clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(clock))
	}

	eng := engine.New(engineOpts...)

	var r *engine.Render
	if len(opts.Times) > 0 {
		r, err = eng.Animate(ctx, source, opts.Times, opts.FPS, opts.Loop)
	} else {
		r, err = eng.Render(ctx, source)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	summary := summarizeRender(r)
	summary.Display = display.Name()
	if display.Name() != transport.DisplayNone {
		summary.Output = outPath
	}
	summary.Recorded = dbPath != ""

	return outputRenderSummary(formatter, summary)
}

func summarizeRender(r *engine.Render) RenderSummary {
	b := r.Bundle
	s := RenderSummary{
		ID:         r.ID,
		Seq:        r.Seq,
		SourceHash: r.Program.Hash(),
		SceneHash:  r.SceneHash,
		Objects:    len(b.Scene.Objects),
		Buffers:    []BufferSummary{},
	}
	if reqs := r.Program.IR.RenderRequests; len(reqs) > 0 {
		s.Kind = reqs[0].Kind
		s.Target = reqs[0].Target
	}
	if pos, ok := b.Arrays[scene.RolePositions]; ok && len(pos.Shape()) > 0 {
		s.Vertices = pos.Shape()[0]
	}
	if r.Animation != nil {
		s.Frames = len(r.Animation.Frames)
	}

	names := make([]string, 0, len(b.Scene.Buffers))
	for name := range b.Scene.Buffers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		spec := b.Scene.Buffers[name]
		s.Buffers = append(s.Buffers, BufferSummary{Name: name, DType: string(spec.DType), Shape: spec.Shape})
	}
	return s
}

func outputRenderSummary(formatter *OutputFormatter, s RenderSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(s)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 Rendered %s %s (%d vertices", s.Kind, s.Target, s.Vertices)
	if s.Frames > 0 {
		fmt.Fprintf(w, ", %d frames", s.Frames)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  id:          %s\n", s.ID)
	fmt.Fprintf(w, "  seq:         %d\n", s.Seq)
	fmt.Fprintf(w, "  source hash: %s\n", s.SourceHash)
	fmt.Fprintf(w, "  scene hash:  %s\n", s.SceneHash)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Buffers:")
	for _, b := range s.Buffers {
		fmt.Fprintf(w, "  %s: %s%v\n", b.Name, b.DType, b.Shape)
	}
	if s.Output != "" {
		fmt.Fprintf(w, "\nWrote %s display to %s\n", s.Display, s.Output)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
