package optim

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2, 3}, {-1, 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 6 {
		t.Errorf("expected 6 combinations, got %d", g.Size())
	}

	run := func(_ context.Context, p map[string]float64) (map[string]float64, error) {
		if p["a"] == 3 {
			return nil, errors.New("unstable")
		}
		return map[string]float64{"cost": math.Abs(p["a"]-2) + p["b"]*p["b"]}, nil
	}
	best, val, trials, err := g.Search(context.Background(), run, "cost")
	if err != nil {
		t.Fatal(err)
	}
	if best["a"] != 2 || best["b"] != 0.5 || val != 0.25 {
		t.Errorf("best %v = %g", best, val)
	}
	if len(trials) != 6 {
		t.Fatalf("expected 6 trials, got %d", len(trials))
	}
	failed := 0
	for _, tr := range trials {
		if tr.Err != nil {
			failed++
			if !math.IsNaN(tr.Value) {
				t.Errorf("failed trial has value %g", tr.Value)
			}
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 failed trials, got %d", failed)
	}
}

func TestGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"a"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}

	g, _ := NewGridSearch([]string{"a"}, [][]float64{{1, 2}})
	none := func(context.Context, map[string]float64) (map[string]float64, error) {
		return map[string]float64{"other": 1}, nil
	}
	if _, _, _, err := g.Search(context.Background(), none, "cost"); !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := g.Search(ctx, none, "other"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
