package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/geometrix/internal/geometry"
	"github.com/roach88/geometrix/internal/symbolic"
)

// Geometry operations.
const (
	OpMetric      = "metric"
	OpChristoffel = "christoffel"
	OpRiemann     = "riemann"
	OpRicci       = "ricci"
	OpScalar      = "scalar"
	OpGaussian    = "gaussian"
	OpLaplacian   = "laplacian"
)

// GeometryOps lists the operations accepted by --op.
var GeometryOps = []string{OpMetric, OpChristoffel, OpRiemann, OpRicci, OpScalar, OpGaussian, OpLaplacian}

// GeometryOptions holds flags for the geometry command.
type GeometryOptions struct {
	*RootOptions
	Target string
	Op     string
	F      string
	At     map[string]string
}

// GeometryResult holds the components of a computed quantity, row-major.
// Shape is empty for scalars.
type GeometryResult struct {
	Target     string             `json:"target"`
	Op         string             `json:"op"`
	Coords     []string           `json:"coords"`
	Shape      []int              `json:"shape"`
	Components []string           `json:"components"`
	At         map[string]float64 `json:"at,omitempty"`
	Values     []float64          `json:"values,omitempty"`
}

// NewGeometryCommand creates the geometry command.
func NewGeometryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GeometryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "geometry <file.geo>",
		Short: "Compute curvature quantities of a metric",
		Long: `Compute differential-geometry quantities of a metric defined in a
DSL file. The target is either an embedding X(u, v) = (x, y, z), whose
induced metric is used, or an order-2 tensor such as g_{ij}.

Operations:
  metric       metric components g_ij
  christoffel  Christoffel symbols Gamma^i_jk
  riemann      Riemann tensor R^i_jkl
  ricci        Ricci tensor R_ij
  scalar       scalar curvature R
  gaussian     Gaussian curvature K = R/2 (2D only)
  laplacian    Laplace-Beltrami operator applied to --f

With --at every component is also evaluated numerically.

Examples:
  geometrix geometry sphere.geo --target X --op gaussian
  geometrix geometry polar.geo --target g_{ij} --op christoffel --at r=2
  geometrix geometry sphere.geo --target X --op laplacian --f 'cos(u)'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeometry(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "metric or embedding definition (required)")
	_ = cmd.MarkFlagRequired("target")
	cmd.Flags().StringVar(&opts.Op, "op", OpMetric, "operation ("+strings.Join(GeometryOps, "|")+")")
	cmd.Flags().StringVar(&opts.F, "f", "", "scalar function for laplacian")
	cmd.Flags().StringToStringVar(&opts.At, "at", nil, "evaluate at coordinate values, e.g. u=1,v=0.5")

	return cmd
}

func runGeometry(opts *GeometryOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if !slices.Contains(GeometryOps, opts.Op) {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: fmt.Sprintf("unknown op %q (want %s)", opts.Op, strings.Join(GeometryOps, ", "))})
	}
	if opts.Op == OpLaplacian && opts.F == "" {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeBadFlag, Message: "laplacian needs --f"})
	}
	at, err := parsePoint(opts.At)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	prog, err := LoadProgram(path, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}

	g, coords, err := prog.Metric(opts.Target)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	formatter.VerboseLog("Metric %s over (%s)", opts.Target, strings.Join(coords, ", "))

	shape, components, err := computeGeometry(opts, prog.Expr, g, coords)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := GeometryResult{
		Target: opts.Target,
		Op:     opts.Op,
		Coords: coords,
		Shape:  shape,
	}
	for _, c := range components {
		result.Components = append(result.Components, c.String())
	}

	if len(at) > 0 {
		result.At = at
		for i, c := range components {
			v, err := c.Eval(at)
			if err != nil {
				return formatter.Fail(ExitFailure, fmt.Errorf("evaluate component %d: %w", i, err))
			}
			result.Values = append(result.Values, v)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputGeometryText(formatter, result)
	return nil
}

// computeGeometry returns the shape and row-major components of the
// requested quantity.
func computeGeometry(opts *GeometryOptions, parseExpr func(string, []string) (symbolic.Expr, error), g *symbolic.Matrix, coords []string) ([]int, []symbolic.Expr, error) {
	switch opts.Op {
	case OpMetric:
		return matrixComponents(g)
	case OpChristoffel:
		t, err := geometry.Christoffel(g, coords)
		if err != nil {
			return nil, nil, err
		}
		return tensorShape(t), t.Components(), nil
	case OpRiemann:
		t, err := geometry.Riemann(g, coords)
		if err != nil {
			return nil, nil, err
		}
		return tensorShape(t), t.Components(), nil
	case OpRicci:
		m, err := geometry.Ricci(g, coords)
		if err != nil {
			return nil, nil, err
		}
		return matrixComponents(m)
	case OpScalar:
		e, err := geometry.ScalarCurvature(g, coords)
		return scalarComponents(e, err)
	case OpGaussian:
		e, err := geometry.GaussianCurvature(g, coords)
		return scalarComponents(e, err)
	case OpLaplacian:
		f, err := parseExpr(opts.F, coords)
		if err != nil {
			return nil, nil, fmt.Errorf("parse --f: %w", err)
		}
		e, err := geometry.LaplaceBeltrami(g, coords, f)
		return scalarComponents(e, err)
	}
	return nil, nil, fmt.Errorf("unknown op %q", opts.Op)
}

func matrixComponents(m *symbolic.Matrix) ([]int, []symbolic.Expr, error) {
	out := make([]symbolic.Expr, 0, m.Rows()*m.Cols())
	for i := range m.Rows() {
		for j := range m.Cols() {
			out = append(out, m.At(i, j))
		}
	}
	return []int{m.Rows(), m.Cols()}, out, nil
}

func scalarComponents(e symbolic.Expr, err error) ([]int, []symbolic.Expr, error) {
	if err != nil {
		return nil, nil, err
	}
	return []int{}, []symbolic.Expr{e}, nil
}

func tensorShape(t *geometry.Tensor) []int {
	shape := make([]int, t.Order())
	for i := range shape {
		shape[i] = t.Dim()
	}
	return shape
}

// outputGeometryText prints nonzero components with their indices.
func outputGeometryText(formatter *OutputFormatter, r GeometryResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s of %s over (%s)\n\n", r.Op, r.Target, strings.Join(r.Coords, ", "))

	if len(r.Shape) == 0 {
		fmt.Fprintf(w, "  %s\n", r.Components[0])
		if len(r.Values) > 0 {
			fmt.Fprintf(w, "  = %g\n", r.Values[0])
		}
		return
	}

	printed := 0
	for i, c := range r.Components {
		if c == "0" {
			continue
		}
		printed++
		fmt.Fprintf(w, "  %s = %s", indexLabel(i, r.Shape, r.Coords), c)
		if len(r.Values) > 0 {
			fmt.Fprintf(w, "  (%g)", r.Values[i])
		}
		fmt.Fprintln(w)
	}
	if printed == 0 {
		fmt.Fprintln(w, "  all components are zero")
	}
}

// indexLabel names the component at flat offset i, e.g. [u,v,v].
func indexLabel(i int, shape []int, coords []string) string {
	idx := make([]string, len(shape))
	for k := len(shape) - 1; k >= 0; k-- {
		n := i % shape[k]
		i /= shape[k]
		if n < len(coords) {
			idx[k] = coords[n]
		} else {
			idx[k] = fmt.Sprint(n)
		}
	}
	return "[" + strings.Join(idx, ",") + "]"
}
