package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/scene"
	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/transport"
)

// Recorder persists finished renders. *store.Store implements it.
type Recorder interface {
	WriteRender(ctx context.Context, r store.Render) error
}

// Sequencer issues strictly increasing sequence numbers. *Clock implements it.
type Sequencer interface {
	Next() int64
}

// Engine runs DSL programs to scenes, stamps each render with an id and a
// logical sequence number, records it and hands it to a display.
//
// Renders are built synchronously on the calling goroutine. The clock and
// id generator are safe for concurrent use; the recorder and display are
// called once per render.
type Engine struct {
	clock    Sequencer
	ids      IDGenerator
	recorder Recorder
	display  transport.Display
	res      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the sequence clock. Use NewClockAt to continue after
// stored history.
func WithClock(c Sequencer) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the render id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithRecorder records every render.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithDisplay shows every render. transport.ErrDisplayUnavailable from the
// display is not treated as a failure.
func WithDisplay(d transport.Display) Option {
	return func(e *Engine) { e.display = d }
}

// WithResolution sets the per-axis sample count used when a render line
// has no res option.
func WithResolution(n int) Option {
	return func(e *Engine) { e.res = n }
}

// New creates an Engine. Without options it uses a fresh clock, UUIDv7 ids,
// no recorder and no display.
func New(opts ...Option) *Engine {
	e := &Engine{clock: NewClock(), ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render is one finished render.
type Render struct {
	ID        string
	Seq       int64
	Program   *Program
	Request   ir.RenderRequest
	Bundle    *scene.Bundle
	Animation *scene.Animation // nil for still scenes
	SceneHash string
}

// Render parses source and builds its first render request.
func (e *Engine) Render(ctx context.Context, source string) (*Render, error) {
	prog, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	req, err := prog.firstRequest()
	if err != nil {
		return nil, err
	}
	b, err := prog.BuildRequest(req)
	if err != nil {
		return nil, err
	}
	return e.finish(ctx, prog, req, b, nil)
}

// Animate parses source and builds its first render request once per time
// value. See Program.Animate.
func (e *Engine) Animate(ctx context.Context, source string, times []float64, fps int, loop bool) (*Render, error) {
	prog, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	req, err := prog.firstRequest()
	if err != nil {
		return nil, err
	}
	b, anim, err := prog.Animate(times, fps, loop)
	if err != nil {
		return nil, err
	}
	return e.finish(ctx, prog, req, b, anim)
}

func (e *Engine) parse(source string) (*Program, error) {
	prog, err := Geom(source)
	if err != nil {
		return nil, err
	}
	prog.Resolution = e.res
	return prog, nil
}

func (e *Engine) finish(ctx context.Context, prog *Program, req ir.RenderRequest, b *scene.Bundle, anim *scene.Animation) (*Render, error) {
	hash, err := b.Hash()
	if err != nil {
		return nil, err
	}
	r := &Render{
		ID:        e.ids.Generate(),
		Seq:       e.clock.Next(),
		Program:   prog,
		Request:   req,
		Bundle:    b,
		Animation: anim,
		SceneHash: hash,
	}

	if e.recorder != nil {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		if err := e.recorder.WriteRender(ctx, rec); err != nil {
			return nil, fmt.Errorf("record render %s: %w", r.ID, err)
		}
	}

	if e.display != nil {
		if err := e.show(ctx, r); err != nil {
			return nil, err
		}
	}

	slog.Info("render complete",
		"id", r.ID,
		"seq", r.Seq,
		"scene_hash", r.SceneHash,
		"objects", len(b.Scene.Objects),
		"frames", r.frameCount())
	return r, nil
}

func (e *Engine) show(ctx context.Context, r *Render) error {
	d := e.display
	if jf, ok := d.(*transport.JSONFile); ok && r.Animation != nil {
		withFrames := *jf
		withFrames.Animation = r.Animation
		d = &withFrames
	}
	err := d.Show(ctx, r.Bundle)
	if errors.Is(err, transport.ErrDisplayUnavailable) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("display %s: %w", d.Name(), err)
	}
	return nil
}

func (r *Render) frameCount() int {
	if r.Animation == nil {
		return 0
	}
	return len(r.Animation.Frames)
}

// record converts r to its history row.
func (r *Render) record() (store.Render, error) {
	spec, err := ir.MarshalCanonical(r.Bundle.Scene)
	if err != nil {
		return store.Render{}, fmt.Errorf("marshal scene: %w", err)
	}
	vertices := 0
	if pos, ok := r.Bundle.Arrays[scene.RolePositions]; ok && len(pos.Shape()) > 0 {
		vertices = pos.Shape()[0]
	}
	return store.Render{
		ID:            r.ID,
		Seq:           r.Seq,
		Kind:          r.Request.Kind,
		Target:        r.Request.Target,
		SourceHash:    r.Program.Hash(),
		SceneHash:     r.SceneHash,
		Source:        r.Program.Source,
		Scene:         spec,
		Vertices:      vertices,
		Frames:        r.frameCount(),
		EngineVersion: ir.EngineVersion,
		SceneVersion:  r.Bundle.Scene.Version,
	}, nil
}
