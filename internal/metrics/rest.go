package metrics

import (
	"github.com/san-kum/cascadedrop/internal/physics"
)

// RestDetector reports the time at which a body came to rest: its linear
// and angular speed stayed below the thresholds for Window consecutive
// steps. Value is -1 until then.
type RestDetector struct {
	name      string
	body      *physics.Body
	linear    float64
	angular   float64
	window    int
	calm      int
	calmSince float64
	restedAt  float64
	rested    bool
}

func NewRestDetector(body *physics.Body, linear, angular float64, window int) *RestDetector {
	if window < 1 {
		window = 1
	}
	return &RestDetector{
		name:     "rest_time",
		body:     body,
		linear:   linear,
		angular:  angular,
		window:   window,
		restedAt: -1,
	}
}

func (r *RestDetector) Name() string { return r.name }

func (r *RestDetector) Observe(w *physics.World) {
	if r.rested {
		return
	}
	if r.body.Velocity().Len() > r.linear || r.body.AngularVelocity().Len() > r.angular {
		r.calm = 0
		return
	}
	if r.calm == 0 {
		r.calmSince = w.Time()
	}
	r.calm++
	if r.calm >= r.window {
		r.rested = true
		r.restedAt = r.calmSince
	}
}

func (r *RestDetector) Value() float64 { return r.restedAt }

func (r *RestDetector) Rested() bool { return r.rested }

func (r *RestDetector) Reset() {
	r.calm = 0
	r.calmSince = 0
	r.restedAt = -1
	r.rested = false
}
