package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/geometrix/internal/compiler"
	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/parse"
	"github.com/roach88/geometrix/internal/sample"
	"github.com/roach88/geometrix/internal/scene"
	"github.com/roach88/geometrix/internal/symbolic"
)

// Render kinds accepted in render: lines.
const (
	KindSurface = "surface"
	KindCurve   = "curve"
	KindPoints  = "points"
	KindMesh    = "mesh"
)

// DefaultResolution is the sample count per axis when res is omitted.
const DefaultResolution = 50

// Program is parsed DSL source.
type Program struct {
	Source string
	IR     *ir.SymbolicIR

	// Resolution is the sample count per axis for requests without res.
	// Zero selects DefaultResolution.
	Resolution int
}

// Geom parses DSL text into a Program.
func Geom(text string) (*Program, error) {
	prog, err := parse.ParseDSL(text)
	if err != nil {
		return nil, err
	}
	return &Program{Source: text, IR: prog}, nil
}

// Hash returns the content hash of the source text.
func (p *Program) Hash() string {
	return ir.SourceHash(p.Source)
}

// BuildScene builds the first render request.
func (p *Program) BuildScene() (*scene.Bundle, error) {
	req, err := p.firstRequest()
	if err != nil {
		return nil, err
	}
	return p.BuildRequest(req)
}

// BuildRequest builds one render request at its own time value.
func (p *Program) BuildRequest(req ir.RenderRequest) (*scene.Bundle, error) {
	settings, err := p.settings(req)
	if err != nil {
		return nil, err
	}
	return p.build(req, settings)
}

// Animate builds the first render request once per time value. The
// returned bundle is the first frame's scene with the animation header
// attached; every frame carries the same buffers. An fps of 0 selects
// scene.DefaultFPS.
func (p *Program) Animate(times []float64, fps int, loop bool) (*scene.Bundle, *scene.Animation, error) {
	if len(times) == 0 {
		return nil, nil, &RenderError{Code: ErrCodeInvalidOption, Message: "animation needs at least one time value"}
	}
	req, err := p.firstRequest()
	if err != nil {
		return nil, nil, err
	}
	settings, err := p.settings(req)
	if err != nil {
		return nil, nil, err
	}

	var first *scene.Bundle
	frames := make([]scene.Frame, 0, len(times))
	for _, t := range times {
		settings.time = t
		b, err := p.build(req, settings)
		if err != nil {
			return nil, nil, fmt.Errorf("frame t=%g: %w", t, err)
		}
		if first == nil {
			first = b
		}
		frames = append(frames, scene.Frame{T: t, Arrays: b.Arrays})
	}

	anim := scene.NewAnimation(frames)
	if fps != 0 {
		anim.FPS = fps
	}
	anim.Loop = loop
	anim.Metadata = map[string]any{"time_param": p.IR.TimeParam, "target": req.Target}
	if err := anim.Validate(first.Scene); err != nil {
		return nil, nil, &RenderError{Code: ErrCodeInvalidOption, Kind: req.Kind, Target: req.Target, Message: err.Error()}
	}

	slog.Debug("built animation", "target", req.Target, "frames", len(frames), "fps", anim.FPS)
	return &scene.Bundle{Scene: scene.AttachAnimation(first.Scene, anim), Arrays: first.Arrays}, anim, nil
}

// Check interprets the options of every render request without sampling
// and returns one error per invalid request.
func (p *Program) Check() []error {
	var errs []error
	for _, req := range p.IR.RenderRequests {
		if _, err := p.settings(req); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (p *Program) firstRequest() (ir.RenderRequest, error) {
	if len(p.IR.RenderRequests) == 0 {
		return ir.RenderRequest{}, &RenderError{Code: ErrCodeNoRenderRequests, Message: "no render requests found"}
	}
	return p.IR.RenderRequests[0], nil
}

// renderSettings are the interpreted options of one render request.
type renderSettings struct {
	vars    []string
	domains []sample.Domain
	counts  []int
	time    float64
	style   map[string]any

	// values names the scalar definition sampled as per-vertex values.
	values string
}

func (p *Program) settings(req ir.RenderRequest) (renderSettings, error) {
	fail := func(code RenderErrorCode, format string, args ...any) (renderSettings, error) {
		return renderSettings{}, &RenderError{Code: code, Kind: req.Kind, Target: req.Target, Message: fmt.Sprintf(format, args...)}
	}

	if !slices.Contains([]string{KindSurface, KindCurve, KindPoints, KindMesh}, req.Kind) {
		return fail(ErrCodeUnsupportedKind, "unsupported render kind %q (want surface, curve, points or mesh)", req.Kind)
	}
	def, ok := p.IR.Definition(req.Target)
	if !ok {
		return fail(ErrCodeInvalidTarget, "target %s is not defined", req.Target)
	}
	if def.Kind != ir.KindVector {
		return fail(ErrCodeInvalidTarget, "%s render expects a vector definition, %s is a %s", req.Kind, req.Target, def.Kind)
	}

	s := renderSettings{vars: def.Args, time: p.IR.TimeValue, style: map[string]any{}}
	if len(s.vars) == 0 {
		s.vars = p.IR.Coords
	}
	want := map[string]int{KindSurface: 2, KindMesh: 2, KindCurve: 1}[req.Kind]
	switch {
	case len(s.vars) == 0:
		return fail(ErrCodeInvalidTarget, "%s has no coordinates to sample", req.Target)
	case want != 0 && len(s.vars) != want:
		return fail(ErrCodeInvalidTarget, "%s render needs %d coordinates, %s has %d (%s)", req.Kind, want, req.Target, len(s.vars), strings.Join(s.vars, ", "))
	}

	domains, err := p.domains(req, s.vars)
	if err != nil {
		return renderSettings{}, err
	}
	s.domains = domains

	counts, err := p.resolution(req, len(s.vars))
	if err != nil {
		return renderSettings{}, err
	}
	s.counts = counts

	if text, ok := req.Options[ir.OptionTime]; ok {
		t, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fail(ErrCodeInvalidOption, "invalid time %q", text)
		}
		s.time = t
	}

	if name, ok := req.Options[ir.OptionValues]; ok {
		if req.Kind != KindCurve && req.Kind != KindMesh {
			return fail(ErrCodeInvalidOption, "values is only supported by curve and mesh renders")
		}
		if vdef, ok := p.IR.Definition(name); !ok || vdef.Kind != ir.KindScalar {
			return fail(ErrCodeInvalidOption, "values %s is not a scalar definition", name)
		}
		s.values = name
	}

	for key, value := range req.Options {
		if key == ir.OptionDomain || key == ir.OptionRes || key == ir.OptionTime || key == ir.OptionValues {
			continue
		}
		s.style[key] = styleValue(value)
	}
	return s, nil
}

// domains matches the domain option to vars by name. Variables without a
// range sample [0, 1].
func (p *Program) domains(req ir.RenderRequest, vars []string) ([]sample.Domain, error) {
	out := sample.DefaultDomains(vars)
	text, ok := req.Options[ir.OptionDomain]
	if !ok {
		return out, nil
	}
	parsed, err := sample.ParseDomains(text, p.IR.Params)
	if err != nil {
		return nil, err
	}
	for _, d := range parsed {
		i := slices.Index(vars, d.Name)
		if i < 0 {
			return nil, &RenderError{
				Code:    ErrCodeInvalidOption,
				Kind:    req.Kind,
				Target:  req.Target,
				Message: fmt.Sprintf("domain names %s, which is not one of %s", d.Name, strings.Join(vars, ", ")),
			}
		}
		out[i] = d
	}
	if err := sample.ValidateDomains(out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolution reads "res a b". A curve uses only the first count.
func (p *Program) resolution(req ir.RenderRequest, n int) ([]int, error) {
	def := p.Resolution
	if def == 0 {
		def = DefaultResolution
	}
	counts := make([]int, n)
	for i := range counts {
		counts[i] = def
	}
	text, ok := req.Options[ir.OptionRes]
	if !ok {
		return counts, nil
	}
	for i, field := range strings.Fields(text) {
		if i >= n {
			break
		}
		c, err := strconv.Atoi(field)
		if err != nil || c < 2 {
			return nil, &RenderError{Code: ErrCodeInvalidOption, Kind: req.Kind, Target: req.Target, Message: fmt.Sprintf("res %q must be integers > 1", text)}
		}
		counts[i] = c
	}
	return counts, nil
}

// styleValue keeps numbers and booleans typed in the scene style.
func styleValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func (p *Program) build(req ir.RenderRequest, s renderSettings) (*scene.Bundle, error) {
	def, _ := p.IR.Definition(req.Target)

	bindings, err := compiler.ResolveDefinitions(p.IR, def.Expression, s.vars, p.bindings(s.vars, s.time))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", req.Target, err)
	}

	exprs, err := symbolic.ParseVector(def.Expression, symbolic.ParseOptions{Symbols: s.vars, Bindings: bindings})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Target, err)
	}
	compiled, err := compiler.Compile(exprs, s.vars)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", req.Target, err)
	}

	opts := scene.Options{
		Name:     req.Target,
		Style:    maps.Clone(s.style),
		Metadata: map[string]any{"target": req.Target, "coords": s.vars, "time": s.time},
	}

	var b *scene.Bundle
	switch req.Kind {
	case KindSurface:
		grid, err := sample.SampleSurfaceGrid(compiled.Call, s.domains, s.counts)
		if err != nil {
			return nil, err
		}
		b, err = scene.BuildSurfaceScene(grid.Positions, grid.GridShape, opts)
		if err != nil {
			return nil, err
		}
	case KindMesh:
		grids, err := sample.Meshgrid(s.domains, s.counts)
		if err != nil {
			return nil, err
		}
		positions, err := sample.SamplePoints(compiled.Call, grids)
		if err != nil {
			return nil, err
		}
		values, err := p.sampleValues(s, grids)
		if err != nil {
			return nil, err
		}
		b, err = scene.BuildMeshScene(positions, scene.GridFaces(s.counts[0], s.counts[1]), values, opts)
		if err != nil {
			return nil, err
		}
	case KindCurve:
		positions, err := sample.SampleCurve(compiled.Call, s.domains[0], s.counts[0])
		if err != nil {
			return nil, err
		}
		ts, err := s.domains[0].Linspace(s.counts[0])
		if err != nil {
			return nil, err
		}
		values, err := p.sampleValues(s, [][]float64{ts})
		if err != nil {
			return nil, err
		}
		b, err = scene.BuildLineScene(positions, values, opts)
		if err != nil {
			return nil, err
		}
	case KindPoints:
		positions, err := samplePoints(compiled, s)
		if err != nil {
			return nil, err
		}
		b, err = scene.BuildPointsScene(positions, opts)
		if err != nil {
			return nil, err
		}
	}

	if err := scene.Validate(b); err != nil {
		return nil, err
	}
	slog.Debug("built scene", "kind", req.Kind, "target", req.Target, "counts", s.counts, "time", s.time)
	return b, nil
}

// sampleValues evaluates the values definition at the sample coordinates.
// It returns nil when the request has no values option.
func (p *Program) sampleValues(s renderSettings, args [][]float64) ([]float64, error) {
	if s.values == "" {
		return nil, nil
	}
	def, _ := p.IR.Definition(s.values)
	bindings, err := compiler.ResolveDefinitions(p.IR, def.Expression, s.vars, p.bindings(s.vars, s.time))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", s.values, err)
	}
	expr, err := symbolic.Parse(def.Expression, symbolic.ParseOptions{Symbols: s.vars, Bindings: bindings})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.values, err)
	}
	compiled, err := compiler.Compile([]symbolic.Expr{expr}, s.vars)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", s.values, err)
	}
	out, err := compiled.Call(args...)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", s.values, err)
	}
	n := len(args[0])
	if len(out[0]) == n {
		return out[0], nil
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = out[0][0]
	}
	return values, nil
}

// bindings binds every parameter, and the time parameter at t unless it is
// one of vars.
func (p *Program) bindings(vars []string, t float64) map[string]symbolic.Expr {
	out := make(map[string]symbolic.Expr, len(p.IR.Params)+1)
	for name, v := range p.IR.Params {
		out[name] = symbolic.NFloat(v)
	}
	if !slices.Contains(vars, p.IR.TimeParam) {
		out[p.IR.TimeParam] = symbolic.NFloat(t)
	}
	return out
}

func samplePoints(compiled *compiler.CompiledExpression, s renderSettings) (*mat.Dense, error) {
	grids, err := sample.Meshgrid(s.domains, s.counts)
	if err != nil {
		return nil, err
	}
	return sample.SamplePoints(compiled.Call, grids)
}
