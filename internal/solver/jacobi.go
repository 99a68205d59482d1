package solver

import "math"

// Jacobi computes every row update from the velocities at the start of the
// sweep and applies them together. Each update is divided by the number of
// contacts on the busiest movable body it touches, so many contacts on one
// body average their corrections instead of adding them up. It needs a
// smaller Omega than SOR.
type Jacobi struct {
	MaxIterations int
	Omega         float64
	Tolerance     float64
}

func (j *Jacobi) Kind() Kind { return KindJacobi }

func (j *Jacobi) Relaxation() float64 { return j.Omega }

func (j *Jacobi) Solve(contacts []*Contact) Stats {
	stats := Stats{Contacts: len(contacts)}
	if len(contacts) == 0 {
		return stats
	}
	for _, c := range contacts {
		c.prepare()
		for row := 0; row < 3; row++ {
			c.apply(row, c.Lambda[row])
		}
	}

	share := splitShares(contacts)
	next := make([][3]float64, len(contacts))
	for it := 0; it < j.MaxIterations; it++ {
		for i, c := range contacts {
			w := j.Omega * share[i]
			l := c.Lambda
			l[0] -= w * c.mass[0] * (c.relativeVelocity(c.dirs[0]) + c.Bias)
			l[1] -= w * c.mass[1] * c.relativeVelocity(c.dirs[1])
			l[2] -= w * c.mass[2] * c.relativeVelocity(c.dirs[2])
			next[i] = c.project(l)
		}

		maxDelta := 0.0
		for i, c := range contacts {
			for row := 0; row < 3; row++ {
				d := next[i][row] - c.Lambda[row]
				c.apply(row, d)
				maxDelta = math.Max(maxDelta, math.Abs(d))
			}
			c.Lambda = next[i]
		}
		stats.Iterations = it + 1
		stats.MaxDelta = maxDelta
		if maxDelta <= j.Tolerance {
			break
		}
	}
	return stats
}

// splitShares returns 1/n for each contact, n being the contact count of the
// movable body it touches with the most contacts. Fixed bodies do not count.
func splitShares(contacts []*Contact) []float64 {
	counts := make(map[*Vars]int)
	for _, c := range contacts {
		if c.A.InvMass > 0 {
			counts[c.A]++
		}
		if c.B.InvMass > 0 {
			counts[c.B]++
		}
	}
	share := make([]float64, len(contacts))
	for i, c := range contacts {
		n := max(counts[c.A], counts[c.B], 1)
		share[i] = 1 / float64(n)
	}
	return share
}
