package integrators

import "github.com/san-kum/cascadedrop/internal/dynamo"

// EulerImplicitLinearized is the semi-implicit Euler step used by the
// non-smooth contact time stepper: velocities are already at t+dt when
// Integrate is called, and positions follow from them.
type EulerImplicitLinearized struct{}

func NewEulerImplicitLinearized() *EulerImplicitLinearized {
	return &EulerImplicitLinearized{}
}

func (e *EulerImplicitLinearized) Name() string { return EulerImplicitLinearizedName }

func (e *EulerImplicitLinearized) Integrate(p dynamo.Pose, t dynamo.Twist, dt float64) dynamo.Pose {
	return dynamo.Pose{
		Pos: p.Pos.Add(t.V.Mul(dt)),
		Rot: dynamo.IntegrateQuat(p.Rot, t.W, dt),
	}
}
