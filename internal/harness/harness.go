package harness

import (
	"context"
	"fmt"

	"github.com/roach88/geometrix/internal/engine"
	"github.com/roach88/geometrix/internal/store"
	"github.com/roach88/geometrix/internal/testutil"
)

// Harness runs scenarios through the real engine against a fresh
// in-memory store, with a deterministic clock and sequential render ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDs
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database, so the first render
// is always seq 1 with id "render-0001". A pipeline failure is not an
// error of Run: it is kept in Result.Err for error assertions and fails
// the scenario when no error was expected. Run itself only fails when
// the harness cannot run the scenario at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	src, err := scenario.source()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		clock: testutil.NewDeterministicClock(),
		ids:   testutil.NewSequentialIDs("render"),
	}
	h.engine = engine.New(
		engine.WithClock(h.clock),
		engine.WithIDGenerator(h.ids),
		engine.WithRecorder(st),
	)

	result := NewResult()
	if err := h.render(ctx, scenario, src, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	if result.Err != nil && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("render failed: %v", result.Err))
	}

	return result, nil
}

// render runs the pipeline and reads the recorded row back.
func (h *Harness) render(ctx context.Context, scenario *Scenario, src string, result *Result) error {
	var (
		r   *engine.Render
		err error
	)
	if a := scenario.Animate; a != nil {
		loop := a.Loop == nil || *a.Loop
		r, err = h.engine.Animate(ctx, src, a.Times, a.FPS, loop)
	} else {
		r, err = h.engine.Render(ctx, src)
	}
	if err != nil {
		result.Err = err
		return nil
	}
	result.Render = r

	rec, err := h.store.ReadRender(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("failed to read back render %s: %w", r.ID, err)
	}
	result.Record = &rec
	return nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}
