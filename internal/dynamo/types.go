package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose locates a body: Pos is the world position of its center of mass.
type Pose struct {
	Pos mgl64.Vec3
	Rot mgl64.Quat
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Rot: mgl64.QuatIdent()}
}

// Transform maps a point from body coordinates to world coordinates.
func (p Pose) Transform(local mgl64.Vec3) mgl64.Vec3 {
	return p.Rot.Rotate(local).Add(p.Pos)
}

// InverseTransform maps a world point into body coordinates.
func (p Pose) InverseTransform(world mgl64.Vec3) mgl64.Vec3 {
	return p.Rot.Conjugate().Rotate(world.Sub(p.Pos))
}

// Twist is the velocity of a body, both parts in world coordinates.
type Twist struct {
	V mgl64.Vec3
	W mgl64.Vec3
}

// PointVelocity returns the velocity of a point at offset r from the center of mass.
func (t Twist) PointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	return t.V.Add(t.W.Cross(r))
}

type State struct {
	Pose  Pose
	Twist Twist
}

func (s State) IsValid() bool {
	return IsFinite(s.Pose.Pos) && IsFinite(s.Twist.V) && IsFinite(s.Twist.W) &&
		IsFinite(s.Pose.Rot.V) && !math.IsNaN(s.Pose.Rot.W) && !math.IsInf(s.Pose.Rot.W, 0)
}

// Sample is one recorded body state.
type Sample struct {
	Body  string
	Time  float64
	State State
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// RotationMatrix returns the 3x3 rotation matrix of q.
func RotationMatrix(q mgl64.Quat) mgl64.Mat3 {
	return q.Normalize().Mat4().Mat3()
}

// WorldInertia rotates a body-frame tensor into world coordinates: R I R^T.
func WorldInertia(q mgl64.Quat, body mgl64.Mat3) mgl64.Mat3 {
	r := RotationMatrix(q)
	return r.Mul3(body).Mul3(r.Transpose())
}

// IntegrateQuat advances q by angular velocity w over dt with the linearized
// update q' = q + dt/2 * (0,w) * q, then renormalizes.
func IntegrateQuat(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	spin := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

// ExpQuat advances q by rotating it about w through |w|*dt radians.
func ExpQuat(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	speed := w.Len()
	if speed*dt < 1e-12 {
		return q
	}
	dq := mgl64.QuatRotate(speed*dt, w.Mul(1/speed))
	return dq.Mul(q).Normalize()
}
