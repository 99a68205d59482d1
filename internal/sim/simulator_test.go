package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/logging"
	"github.com/san-kum/cascadedrop/internal/physics"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

type testScene struct {
	world *physics.World
	floor *physics.Body
	box   *physics.Body
	dev   *viewer.Headless
	view  *viewer.Viewer
}

func newTestScene(t *testing.T, frames int) *testScene {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	floor, _ := w.NewBoxBody(1, 0.2, 1, 1000, true, true)
	floor.SetPos(mgl64.Vec3{0, -0.3, 0})
	floor.SetFixed(true)
	box, _ := w.NewBoxBody(0.1, 0.1, 0.1, 1000, true, true)
	if err := w.Add(floor); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(box); err != nil {
		t.Fatal(err)
	}

	dev := viewer.NewHeadless(frames)
	v := viewer.New(w, dev, viewer.DefaultOptions(), logging.Discard())
	v.BindAll()
	v.UpdateAll()
	if err := v.SetTimestep(0.005); err != nil {
		t.Fatal(err)
	}
	return &testScene{world: w, floor: floor, box: box, dev: dev, view: v}
}

func TestLoopRun(t *testing.T) {
	s := newTestScene(t, 0)
	loop := New(s.view, Config{MaxSteps: 100, RecordEvery: 10})

	result, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 100 {
		t.Errorf("expected 100 steps, got %d", result.StepsTaken)
	}
	if result.Reason != ReasonStepLimit {
		t.Errorf("expected step limit, got %q", result.Reason)
	}
	if loop.State() != Stopped {
		t.Errorf("expected STOPPED, got %s", loop.State())
	}
	if math.Abs(result.Time-0.5) > 1e-9 {
		t.Errorf("expected t=0.5, got %g", result.Time)
	}
	// Initial set plus one set every 10 steps, two bodies each.
	if len(result.Samples) != 2*11 {
		t.Errorf("expected 22 samples, got %d", len(result.Samples))
	}
	if s.floor.Pos() != (mgl64.Vec3{0, -0.3, 0}) {
		t.Errorf("floor moved to %v", s.floor.Pos())
	}
	if s.box.Pos()[1] >= 0 {
		t.Errorf("box did not fall: %v", s.box.Pos())
	}
	if s.dev.Frames != 100 {
		t.Errorf("expected 100 frames, got %d", s.dev.Frames)
	}
}

func TestLoopStopsWhenWindowCloses(t *testing.T) {
	s := newTestScene(t, 7)
	loop := New(s.view, Config{})

	result, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Reason != ReasonClosed {
		t.Errorf("expected window closed, got %q", result.Reason)
	}
	if result.StepsTaken != 7 {
		t.Errorf("expected 7 steps, got %d", result.StepsTaken)
	}
	if err := loop.Iterate(); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestLoopRefusesUnboundViewer(t *testing.T) {
	w, _ := physics.NewWorld(physics.DefaultConfig())
	b, _ := w.NewBoxBody(1, 1, 1, 1, true, true)
	_ = w.Add(b)
	v := viewer.New(w, viewer.NewHeadless(1), viewer.DefaultOptions(), logging.Discard())
	_ = v.SetTimestep(0.005)

	loop := New(v, Config{})
	if _, err := loop.Run(context.Background()); !errors.Is(err, viewer.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if loop.State() != Stopped {
		t.Error("loop must stay stopped")
	}
}

func TestLoopCanceled(t *testing.T) {
	s := newTestScene(t, 0)
	loop := New(s.view, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	loop.AddObserver(ObserverFunc(func(w *physics.World) {
		if w.StepCount() == 5 {
			cancel()
		}
	}))
	result, err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled in chain, got %v", err)
	}
	if result.StepsTaken != 5 || result.Reason != ReasonCanceled {
		t.Errorf("unexpected result: %d steps, reason %q", result.StepsTaken, result.Reason)
	}
}

func TestLoopReturnsStepErrors(t *testing.T) {
	s := newTestScene(t, 0)
	s.box.SetVelocity(mgl64.Vec3{math.NaN(), 0, 0})
	loop := New(s.view, Config{MaxSteps: 10})

	result, err := loop.Run(context.Background())
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("expected StepError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable in chain, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState in chain, got %v", err)
	}
	if result.Reason != ReasonError || loop.State() != Stopped {
		t.Errorf("unexpected stop: %q %s", result.Reason, loop.State())
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string             { return "count" }
func (c *countMetric) Observe(w *physics.World) { c.n++ }
func (c *countMetric) Value() float64           { return float64(c.n) }
func (c *countMetric) Reset()                   { c.n = 0 }

func TestLoopMetrics(t *testing.T) {
	s := newTestScene(t, 0)
	loop := New(s.view, Config{MaxSteps: 10})
	m := &countMetric{n: 99}
	loop.AddMetric(m)

	result, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Metrics["count"] != 10 {
		t.Errorf("expected 10 observations, got %g", result.Metrics["count"])
	}
}

func TestLoopIterateManually(t *testing.T) {
	s := newTestScene(t, 0)
	loop := New(s.view, Config{MaxSteps: 3})
	if err := loop.Iterate(); !errors.Is(err, ErrStopped) {
		t.Fatalf("iterate before start: %v", err)
	}
	if err := loop.Start(); err != nil {
		t.Fatal(err)
	}
	for loop.State() == Running {
		if err := loop.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	if loop.Result().StepsTaken != 3 {
		t.Errorf("expected 3 steps, got %d", loop.Result().StepsTaken)
	}
}

func TestEnsemble(t *testing.T) {
	ens := NewEnsemble(3, func(idx int) (*Loop, error) {
		s := newTestScene(t, 0)
		return New(s.view, Config{MaxSteps: 20 * (idx + 1)}), nil
	})
	results, err := ens.Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, r := range results {
		if r.StepsTaken != 20*(i+1) {
			t.Errorf("run %d: expected %d steps, got %d", i, 20*(i+1), r.StepsTaken)
		}
	}

	boom := errors.New("boom")
	ens = NewEnsemble(2, func(idx int) (*Loop, error) { return nil, boom })
	if _, err := ens.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected build error, got %v", err)
	}
}
