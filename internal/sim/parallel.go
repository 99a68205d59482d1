package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent loops concurrently. Each loop must own its
// world and viewer.
type Ensemble struct {
	build   func(idx int) (*Loop, error)
	numRuns int
}

func NewEnsemble(numRuns int, build func(idx int) (*Loop, error)) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			loop, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = loop.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
