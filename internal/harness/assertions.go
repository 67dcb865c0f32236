package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/scene"
)

// AssertionError is returned when an assertion fails.
// It includes the scene summary to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Objects  []scene.ObjectSpec
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Objects) > 0 {
		fmt.Fprintf(&buf, "\nScene objects:\n")
		for i, obj := range e.Objects {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i, obj.Type, obj.Name)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	if a.Type == AssertError {
		return assertError(result.Err, a)
	}
	if result.Render == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a rendered scene",
			Actual:   fmt.Sprintf("render failed: %v", result.Err),
		}
	}

	b := result.Render.Bundle
	switch a.Type {
	case AssertSceneVersion:
		return assertSceneVersion(b.Scene, a)
	case AssertObject:
		return assertObject(b.Scene, a)
	case AssertBuffer:
		return assertBuffer(b, a)
	case AssertBounds:
		return assertBounds(b, a)
	case AssertFrameCount:
		return assertFrameCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertSceneVersion(spec *scene.SceneSpec, a Assertion) error {
	if spec.Version != a.Version {
		return &AssertionError{
			Type:     AssertSceneVersion,
			Expected: a.Version,
			Actual:   spec.Version,
		}
	}
	return nil
}

func assertObject(spec *scene.SceneSpec, a Assertion) error {
	if a.Index >= len(spec.Objects) {
		return &AssertionError{
			Type:     AssertObject,
			Expected: fmt.Sprintf("object at index %d", a.Index),
			Actual:   fmt.Sprintf("%d object(s)", len(spec.Objects)),
			Objects:  spec.Objects,
		}
	}
	obj := spec.Objects[a.Index]
	if obj.Type != a.Kind || (a.Name != "" && obj.Name != a.Name) {
		return &AssertionError{
			Type:     AssertObject,
			Expected: strings.TrimSpace(fmt.Sprintf("[%d] %s %s", a.Index, a.Kind, a.Name)),
			Actual:   fmt.Sprintf("[%d] %s %s", a.Index, obj.Type, obj.Name),
			Objects:  spec.Objects,
		}
	}
	return nil
}

func assertBuffer(b *scene.Bundle, a Assertion) error {
	spec, ok := b.Scene.Buffers[a.Buffer]
	if !ok {
		return &AssertionError{
			Type:     AssertBuffer,
			Expected: fmt.Sprintf("buffer %q", a.Buffer),
			Actual:   fmt.Sprintf("buffers %v", bufferNames(b.Scene)),
			Objects:  b.Scene.Objects,
		}
	}
	if string(spec.DType) != a.DType || (a.Shape != nil && !slices.Equal(spec.Shape, a.Shape)) {
		expected := a.DType
		if a.Shape != nil {
			expected += fmt.Sprint(a.Shape)
		}
		return &AssertionError{
			Type:     AssertBuffer,
			Expected: fmt.Sprintf("%s %s", a.Buffer, expected),
			Actual:   fmt.Sprintf("%s %s%v", a.Buffer, spec.DType, spec.Shape),
		}
	}
	return nil
}

// assertBounds compares per-column extremes of a two-dimensional float32
// buffer. Min and Max may be shorter than the column count.
func assertBounds(b *scene.Bundle, a Assertion) error {
	key := a.Buffer
	if key == "" {
		key = scene.RolePositions
	}
	arr, ok := b.Arrays[key]
	if !ok || arr.DType() != scene.Float32 {
		return &AssertionError{
			Type:     AssertBounds,
			Expected: fmt.Sprintf("float32 buffer %q", key),
			Actual:   fmt.Sprintf("buffers %v", bufferNames(b.Scene)),
		}
	}

	lo, hi := columnBounds(arr)
	check := func(label string, want, got []float64) error {
		for i, w := range want {
			if i >= len(got) || math.Abs(got[i]-w) > a.Tolerance {
				return &AssertionError{
					Type:     AssertBounds,
					Expected: fmt.Sprintf("%s %s %v (tolerance %g)", key, label, want, a.Tolerance),
					Actual:   fmt.Sprintf("%s %s %v", key, label, got),
				}
			}
		}
		return nil
	}
	if err := check("min", a.Min, lo); err != nil {
		return err
	}
	return check("max", a.Max, hi)
}

func columnBounds(arr scene.Array) (lo, hi []float64) {
	shape := arr.Shape()
	cols := 1
	if len(shape) == 2 {
		cols = shape[1]
	}
	lo = make([]float64, cols)
	hi = make([]float64, cols)
	for j := range cols {
		lo[j], hi[j] = math.Inf(1), math.Inf(-1)
	}
	for i, v := range arr.Float32s() {
		j := i % cols
		lo[j] = math.Min(lo[j], float64(v))
		hi[j] = math.Max(hi[j], float64(v))
	}
	return lo, hi
}

func assertFrameCount(result *Result, a Assertion) error {
	got := 0
	if result.Render.Animation != nil {
		got = len(result.Render.Animation.Frames)
	}
	if got != a.Count || (result.Record != nil && result.Record.Frames != a.Count) {
		stored := -1
		if result.Record != nil {
			stored = result.Record.Frames
		}
		return &AssertionError{
			Type:     AssertFrameCount,
			Expected: fmt.Sprintf("%d frame(s)", a.Count),
			Actual:   fmt.Sprintf("%d frame(s) rendered, %d stored", got, stored),
		}
	}
	return nil
}

func assertError(err error, a Assertion) error {
	if err == nil {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("render error (code %q, contains %q)", a.Code, a.Contains),
			Actual:   "render succeeded",
		}
	}
	code := engine.ErrorCode(err)
	if a.Code != "" && code != a.Code {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("code %s", a.Code),
			Actual:   fmt.Sprintf("code %q: %v", code, err),
		}
	}
	if a.Contains != "" && !strings.Contains(err.Error(), a.Contains) {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("message containing %q", a.Contains),
			Actual:   err.Error(),
		}
	}
	return nil
}

func bufferNames(spec *scene.SceneSpec) []string {
	names := make([]string, 0, len(spec.Buffers))
	for k := range spec.Buffers {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
