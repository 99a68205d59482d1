package integrators

import "github.com/san-kum/cascadedrop/internal/dynamo"

// Exponential advances orientation through the exact exponential map of the
// angular velocity. It stays accurate for fast spins where the linearized
// quaternion update drifts.
type Exponential struct{}

func NewExponential() *Exponential {
	return &Exponential{}
}

func (e *Exponential) Name() string { return ExponentialName }

func (e *Exponential) Integrate(p dynamo.Pose, t dynamo.Twist, dt float64) dynamo.Pose {
	return dynamo.Pose{
		Pos: p.Pos.Add(t.V.Mul(dt)),
		Rot: dynamo.ExpQuat(p.Rot, t.W, dt),
	}
}
