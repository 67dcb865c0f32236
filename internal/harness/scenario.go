package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: one DSL program, optionally
// animated, and the assertions its render must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is inline DSL text. Exactly one of Source and SourceFile is set.
	Source string `yaml:"source,omitempty"`

	// SourceFile is a path to a DSL file, relative to the scenario file.
	SourceFile string `yaml:"source_file,omitempty"`

	// Animate, when set, renders one frame per time value instead of a
	// still scene.
	Animate *AnimateStep `yaml:"animate,omitempty"`

	// Assertions validate the render or its error.
	// Supported types: scene_version, object, buffer, bounds, frame_count, error
	Assertions []Assertion `yaml:"assertions"`
}

// AnimateStep configures an animated render.
type AnimateStep struct {
	Times []float64 `yaml:"times"`
	FPS   int       `yaml:"fps,omitempty"`  // 0 selects the scene default
	Loop  *bool     `yaml:"loop,omitempty"` // nil loops
}

// Assertion validates one property of a render.
type Assertion struct {
	// Type specifies the assertion type:
	// - "scene_version": scene version equals Version
	// - "object": object at Index has type Kind and, if set, Name
	// - "buffer": buffer Buffer has DType and, if set, Shape
	// - "bounds": per-column min/max of buffer Buffer (default positions)
	// - "frame_count": the animation has Count frames (0 for stills)
	// - "error": the render failed with Code and/or a message containing Contains
	Type string `yaml:"type"`

	Version string `yaml:"version,omitempty"`

	Index int    `yaml:"index,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	Name  string `yaml:"name,omitempty"`

	Buffer string `yaml:"buffer,omitempty"`
	DType  string `yaml:"dtype,omitempty"`
	Shape  []int  `yaml:"shape,omitempty"`

	Min       []float64 `yaml:"min,omitempty"`
	Max       []float64 `yaml:"max,omitempty"`
	Tolerance float64   `yaml:"tolerance,omitempty"`

	Count int `yaml:"count,omitempty"`

	Code     string `yaml:"code,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertSceneVersion = "scene_version"
	AssertObject       = "object"
	AssertBuffer       = "buffer"
	AssertBounds       = "bounds"
	AssertFrameCount   = "frame_count"
	AssertError        = "error"
)

// LoadScenario reads and parses a scenario YAML file. A relative
// source_file is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving source_file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decode catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.SourceFile != "" && !filepath.IsAbs(scenario.SourceFile) && basePath != "" {
		scenario.SourceFile = filepath.Join(basePath, scenario.SourceFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// source returns the DSL text of the scenario.
func (s *Scenario) source() (string, error) {
	if s.SourceFile == "" {
		return s.Source, nil
	}
	data, err := os.ReadFile(s.SourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Source == "" && s.SourceFile == "":
		return fmt.Errorf("source or source_file is required")
	case s.Source != "" && s.SourceFile != "":
		return fmt.Errorf("source and source_file are mutually exclusive")
	}

	if s.SourceFile != "" {
		if _, err := os.Stat(s.SourceFile); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", s.SourceFile)
		}
	}

	if s.Animate != nil {
		if len(s.Animate.Times) == 0 {
			return fmt.Errorf("animate: times list is required and must be non-empty")
		}
		if s.Animate.FPS < 0 {
			return fmt.Errorf("animate: fps must be non-negative")
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSceneVersion:
		if a.Version == "" {
			return fmt.Errorf("assertions[%d]: version is required for scene_version", index)
		}
	case AssertObject:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for object", index)
		}
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for object", index)
		}
	case AssertBuffer:
		if a.Buffer == "" {
			return fmt.Errorf("assertions[%d]: buffer is required for buffer", index)
		}
		if a.DType == "" {
			return fmt.Errorf("assertions[%d]: dtype is required for buffer", index)
		}
	case AssertBounds:
		if len(a.Min) == 0 && len(a.Max) == 0 {
			return fmt.Errorf("assertions[%d]: min or max is required for bounds", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative for bounds", index)
		}
	case AssertFrameCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for frame_count", index)
		}
	case AssertError:
		if a.Code == "" && a.Contains == "" {
			return fmt.Errorf("assertions[%d]: code or contains is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
