package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/roach88/geometrix/internal/scene"
)

// ErrDisplayUnavailable is returned by the Unavailable display.
var ErrDisplayUnavailable = errors.New("display unavailable")

// Display kinds accepted by ResolveDisplay.
const (
	DisplayNone    = "none"
	DisplayJSON    = "json"
	DisplayPreview = "png"
)

// Display shows a scene bundle somewhere outside the process.
type Display interface {
	Name() string
	Show(ctx context.Context, b *scene.Bundle) error
}

// ResolveDisplay picks a display by kind. path is the output file for the
// json and png kinds.
func ResolveDisplay(kind, path string) (Display, error) {
	switch kind {
	case "", DisplayNone:
		return &Unavailable{}, nil
	case DisplayJSON, DisplayPreview:
		if path == "" {
			return nil, fmt.Errorf("display %s needs an output path", kind)
		}
		if kind == DisplayJSON {
			return &JSONFile{Path: path}, nil
		}
		return &PlotPreview{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown display %q (want none, json or png)", kind)
	}
}

// Unavailable is the display used when no sink is configured. The first
// Show logs a warning; every Show returns ErrDisplayUnavailable.
type Unavailable struct {
	once sync.Once
}

func (*Unavailable) Name() string { return DisplayNone }

func (u *Unavailable) Show(context.Context, *scene.Bundle) error {
	u.once.Do(func() {
		slog.Warn("no display configured, scenes are not shown")
	})
	return ErrDisplayUnavailable
}

// Document is what JSONFile writes: the scene next to its payload.
type Document struct {
	Scene   *scene.SceneSpec `json:"scene"`
	Payload *Payload         `json:"payload"`
	Frames  []FramePayload   `json:"frames,omitempty"`
}

// JSONFile writes the scene and base64 buffers to a JSON file.
type JSONFile struct {
	Path      string
	Animation *scene.Animation
}

func (*JSONFile) Name() string { return DisplayJSON }

func (d *JSONFile) Show(ctx context.Context, b *scene.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := Document{Scene: b.Scene, Payload: BuildPayload(b.Arrays)}
	if d.Animation != nil {
		doc.Scene = scene.AttachAnimation(b.Scene, d.Animation)
		doc.Frames = BuildFramePayloads(d.Animation)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene document: %w", err)
	}
	if err := writeFile(d.Path, data); err != nil {
		return err
	}
	slog.Info("wrote scene document", "path", d.Path, "bytes", len(data))
	return nil
}

// PlotPreview renders the x-y projection of every positions buffer as a
// scatter plot image. The format follows the file extension.
type PlotPreview struct {
	Path   string
	Width  vg.Length // default 6in
	Height vg.Length // default 6in
}

func (*PlotPreview) Name() string { return DisplayPreview }

func (d *PlotPreview) Show(ctx context.Context, b *scene.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = "geometrix preview"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for _, obj := range b.Scene.Objects {
		key, ok := obj.Buffers[scene.RolePositions]
		if !ok {
			continue
		}
		arr, ok := b.Arrays[key]
		if !ok {
			return fmt.Errorf("object %s: positions buffer %q is missing", obj.Name, key)
		}
		points := projectXY(arr)
		if len(points) == 0 {
			continue
		}
		s, err := plotter.NewScatter(points)
		if err != nil {
			return fmt.Errorf("object %s: %w", obj.Name, err)
		}
		s.GlyphStyle.Radius = vg.Points(1)
		p.Add(s)
		p.Legend.Add(obj.Name, s)
	}

	w, h := d.Width, d.Height
	if w == 0 {
		w = 6 * vg.Inch
	}
	if h == 0 {
		h = 6 * vg.Inch
	}
	if dir := filepath.Dir(d.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := p.Save(w, h, d.Path); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	slog.Info("wrote scene preview", "path", d.Path)
	return nil
}

// projectXY drops z from an (N, 3) float32 array.
func projectXY(a scene.Array) plotter.XYs {
	shape := a.Shape()
	if a.DType() != scene.Float32 || len(shape) != 2 || shape[1] != 3 {
		return nil
	}
	data := a.Float32s()
	xys := make(plotter.XYs, shape[0])
	for i := range xys {
		xys[i].X = float64(data[3*i])
		xys[i].Y = float64(data[3*i+1])
	}
	return xys
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
