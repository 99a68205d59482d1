package solver

import "math"

// SOR is a projected Gauss-Seidel solver with over-relaxation. Each row is
// updated in turn against the latest velocities.
type SOR struct {
	MaxIterations int
	Omega         float64
	Tolerance     float64
}

func (s *SOR) Kind() Kind { return KindSOR }

func (s *SOR) Relaxation() float64 { return s.Omega }

func (s *SOR) Solve(contacts []*Contact) Stats {
	stats := Stats{Contacts: len(contacts)}
	if len(contacts) == 0 {
		return stats
	}
	for _, c := range contacts {
		c.prepare()
		// Warm start from impulses carried over by the caller.
		for row := 0; row < 3; row++ {
			c.apply(row, c.Lambda[row])
		}
	}

	for it := 0; it < s.MaxIterations; it++ {
		maxDelta := 0.0
		for _, c := range contacts {
			old := c.Lambda
			next := old
			next[0] = old[0] - s.Omega*c.mass[0]*(c.relativeVelocity(c.dirs[0])+c.Bias)
			next = c.project(next)
			c.apply(0, next[0]-old[0])

			next[1] = old[1] - s.Omega*c.mass[1]*c.relativeVelocity(c.dirs[1])
			next[2] = old[2] - s.Omega*c.mass[2]*c.relativeVelocity(c.dirs[2])
			next = c.project(next)
			c.apply(1, next[1]-old[1])
			c.apply(2, next[2]-old[2])

			c.Lambda = next
			for row := 0; row < 3; row++ {
				maxDelta = math.Max(maxDelta, math.Abs(next[row]-old[row]))
			}
		}
		stats.Iterations = it + 1
		stats.MaxDelta = maxDelta
		if maxDelta <= s.Tolerance {
			break
		}
	}
	return stats
}
