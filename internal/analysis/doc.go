// Package analysis characterizes a recorded drop.
//
// It works on the samples a run stores, one body at a time:
//
//   - [Analyze]: bounce count, apex heights and settle time
//   - [DominantFrequency]: strongest oscillation in a uniformly sampled signal
//   - [PhasePortrait]: height against vertical velocity
//
// # Settling
//
// A body counts as settled once its vertical speed stays below the
// threshold for the rest of the run:
//
//	r := analysis.Analyze(samples, "shape", 0.01)
//	if r.Settled {
//	    fmt.Printf("at rest after %.3fs\n", r.SettleTime)
//	}
package analysis
