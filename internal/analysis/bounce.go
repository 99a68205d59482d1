package analysis

import (
	"math"

	"github.com/san-kum/cascadedrop/internal/dynamo"
)

// Report summarizes how one body fell and came to rest.
type Report struct {
	Body        string
	Samples     int
	StartHeight float64
	FinalHeight float64
	MinHeight   float64
	// Bounces counts upward reversals of the vertical velocity.
	Bounces int
	// Apexes holds the height reached after each bounce.
	Apexes     []float64
	PeakSpeed  float64
	Settled    bool
	SettleTime float64
}

// Track returns the samples of one body in recording order.
func Track(samples []dynamo.Sample, body string) []dynamo.Sample {
	var out []dynamo.Sample
	for _, s := range samples {
		if s.Body == body {
			out = append(out, s)
		}
	}
	return out
}

// Analyze builds the report of body. Velocities below speed count as rest.
func Analyze(samples []dynamo.Sample, body string, speed float64) Report {
	track := Track(samples, body)
	r := Report{Body: body, Samples: len(track)}
	if len(track) == 0 {
		return r
	}

	r.StartHeight = track[0].State.Pose.Pos[1]
	r.FinalHeight = track[len(track)-1].State.Pose.Pos[1]
	r.MinHeight = math.Inf(1)

	rising := false
	settleIdx := -1
	for i, s := range track {
		y := s.State.Pose.Pos[1]
		vy := s.State.Twist.V[1]
		r.MinHeight = math.Min(r.MinHeight, y)
		r.PeakSpeed = math.Max(r.PeakSpeed, s.State.Twist.V.Len())

		switch {
		case vy > speed && !rising:
			rising = true
			r.Bounces++
		case vy <= 0 && rising:
			rising = false
			r.Apexes = append(r.Apexes, y)
		}

		if s.State.Twist.V.Len() < speed {
			if settleIdx < 0 {
				settleIdx = i
			}
		} else {
			settleIdx = -1
		}
	}
	if rising {
		r.Apexes = append(r.Apexes, r.FinalHeight)
	}
	if settleIdx >= 0 && settleIdx < len(track)-1 {
		r.Settled = true
		r.SettleTime = track[settleIdx].Time
	}
	return r
}
