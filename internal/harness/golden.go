package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/geometrix/internal/ir"
	"github.com/roach88/geometrix/internal/transport"
)

// SceneSnapshot captures a render for golden comparison. Buffers are the
// base64 little-endian payload the transport layer ships to viewers.
type SceneSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts the snapshot to a map[string]any for canonical
// JSON serialization.
func (s *SceneSnapshot) toCanonicalMap() (map[string]any, error) {
	r := s.Result.Render
	if r == nil {
		return nil, fmt.Errorf("scenario %s has no render: %v", s.ScenarioName, s.Result.Err)
	}

	buffers := map[string]any{}
	for key, data := range transport.BuildPayload(r.Bundle.Arrays).Buffers {
		buffers[key] = data
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"render_id":     r.ID,
		"seq":           r.Seq,
		"source_hash":   r.Program.Hash(),
		"scene_hash":    r.SceneHash,
		"scene":         r.Bundle.Scene,
		"buffers":       buffers,
	}
	if r.Animation != nil {
		frames := make([]any, 0, len(r.Animation.Frames))
		for _, f := range transport.BuildFramePayloads(r.Animation) {
			fb := map[string]any{}
			for key, data := range f.Buffers {
				fb[key] = data
			}
			frames = append(frames, map[string]any{"t": f.T, "buffers": fb})
		}
		out["frames"] = frames
	}
	return out, nil
}

// Snapshot returns the canonical JSON golden files hold for a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := SceneSnapshot{ScenarioName: scenarioName, Result: result}
	canonicalMap, err := snapshot.toCanonicalMap()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(canonicalMap)
}

// RunWithGolden executes a scenario and compares the canonical JSON of its
// render against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the render doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	sceneJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, sceneJSON)

	return nil
}
