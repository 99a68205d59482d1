// Package optim searches scene parameters for the best value of a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrNoResult is returned when no parameter combination produced the metric.
var ErrNoResult = errors.New("optim: no successful run")

// RunFunc runs one parameter combination and returns its metrics.
type RunFunc func(ctx context.Context, params map[string]float64) (map[string]float64, error)

// Trial is one evaluated combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of combinations in the grid.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination and returns the one minimizing
// metricName, along with all trials in grid order. Failed runs are kept as
// trials but never win.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) (map[string]float64, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		metrics, err := run(ctx, params)
		t := Trial{Params: params, Value: math.NaN(), Err: err}
		if err == nil {
			v, ok := metrics[metricName]
			if !ok {
				t.Err = fmt.Errorf("optim: metric %q not reported", metricName)
			} else {
				t.Value = v
				if v < best {
					best = v
					bestParams = params
				}
			}
		}
		trials = append(trials, t)
	})
	if err != nil {
		return nil, 0, trials, err
	}
	if bestParams == nil {
		return nil, 0, trials, ErrNoResult
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
