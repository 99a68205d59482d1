package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/dynamo"
)

// Body is a rigid body. Its pose tracks the center of mass; the reference
// frame of the source geometry sits at refOffset in body coordinates.
type Body struct {
	id    int
	name  string
	world *World
	added bool

	pose  dynamo.Pose
	twist dynamo.Twist

	mass       float64
	inertia    mgl64.Mat3
	invInertia mgl64.Mat3
	refOffset  mgl64.Vec3
	radius     float64

	fixed   bool
	collide bool
	model   *CollisionModel
	assets  []Asset
}

func (b *Body) ID() int          { return b.id }
func (b *Body) Name() string     { return b.name }
func (b *Body) SetName(n string) { b.name = n }

// Pos is the world position of the center of mass.
func (b *Body) Pos() mgl64.Vec3 { return b.pose.Pos }

// SetPos moves the center of mass to p.
func (b *Body) SetPos(p mgl64.Vec3) { b.pose.Pos = p }

// RefPos is the world position of the geometry's own origin.
func (b *Body) RefPos() mgl64.Vec3 { return b.pose.Transform(b.refOffset) }

// SetRefPos places the body so that its geometry origin lands on p.
func (b *Body) SetRefPos(p mgl64.Vec3) {
	b.pose.Pos = p.Sub(b.pose.Rot.Rotate(b.refOffset))
}

func (b *Body) Rot() mgl64.Quat { return b.pose.Rot }

func (b *Body) SetRot(q mgl64.Quat) { b.pose.Rot = q.Normalize() }

func (b *Body) Pose() dynamo.Pose { return b.pose }

func (b *Body) State() dynamo.State { return dynamo.State{Pose: b.pose, Twist: b.twist} }

func (b *Body) Velocity() mgl64.Vec3 { return b.twist.V }

func (b *Body) SetVelocity(v mgl64.Vec3) {
	if !b.fixed {
		b.twist.V = v
	}
}

func (b *Body) AngularVelocity() mgl64.Vec3 { return b.twist.W }

func (b *Body) SetAngularVelocity(w mgl64.Vec3) {
	if !b.fixed {
		b.twist.W = w
	}
}

func (b *Body) Mass() float64 { return b.mass }

// Inertia is the body-frame tensor about the center of mass.
func (b *Body) Inertia() mgl64.Mat3 { return b.inertia }

// Fixed bodies are excluded from integration and behave as infinite mass.
func (b *Body) Fixed() bool { return b.fixed }

func (b *Body) SetFixed(fixed bool) {
	b.fixed = fixed
	if fixed {
		b.twist = dynamo.Twist{}
	}
}

func (b *Body) Collide() bool { return b.collide && b.model != nil }

func (b *Body) SetCollide(c bool) { b.collide = c }

func (b *Body) CollisionModel() *CollisionModel { return b.model }

func (b *Body) AddAsset(a Asset) { b.assets = append(b.assets, a) }

func (b *Body) Assets() []Asset { return b.assets }

// Color returns the last color asset, if any.
func (b *Body) Color() (*ColorAsset, bool) {
	for i := len(b.assets) - 1; i >= 0; i-- {
		if c, ok := b.assets[i].(*ColorAsset); ok {
			return c, true
		}
	}
	return nil, false
}

// KineticEnergy is the translational plus rotational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	if b.fixed {
		return 0
	}
	iw := dynamo.WorldInertia(b.pose.Rot, b.inertia)
	return 0.5*b.mass*b.twist.V.LenSqr() + 0.5*b.twist.W.Dot(iw.Mul3x1(b.twist.W))
}

func (b *Body) invMass() float64 {
	if b.fixed {
		return 0
	}
	return 1 / b.mass
}

func (b *Body) worldInvInertia() mgl64.Mat3 {
	if b.fixed {
		return mgl64.Mat3{}
	}
	return dynamo.WorldInertia(b.pose.Rot, b.invInertia)
}

func (b *Body) bounds() aabb {
	if b.model == nil {
		return aabb{b.pose.Pos, b.pose.Pos}
	}
	r := mgl64.Vec3{b.radius, b.radius, b.radius}
	return aabb{b.pose.Pos.Sub(r), b.pose.Pos.Add(r)}
}

func (b *Body) String() string {
	return fmt.Sprintf("body %d %q", b.id, b.name)
}

func newBody(w *World, mp MassProperties, geom Geometry) (*Body, error) {
	if mp.Mass <= 0 || math.IsNaN(mp.Mass) || math.IsInf(mp.Mass, 0) {
		return nil, fmt.Errorf("%w: mass %g", ErrDegenerateMass, mp.Mass)
	}
	inv := mp.Inertia.Inv()
	if inv == (mgl64.Mat3{}) {
		return nil, fmt.Errorf("%w: singular inertia tensor", ErrDegenerateMass)
	}
	w.nextID++
	b := &Body{
		id:         w.nextID,
		name:       fmt.Sprintf("body%d", w.nextID),
		world:      w,
		pose:       dynamo.Pose{Pos: mp.COM, Rot: mgl64.QuatIdent()},
		mass:       mp.Mass,
		inertia:    mp.Inertia,
		invInertia: inv,
		refOffset:  mp.COM.Mul(-1),
	}
	if geom != nil {
		b.model = &CollisionModel{Geometry: geom, Envelope: w.cfg.Envelope, Margin: w.cfg.Margin}
		min, max := geom.Bounds()
		b.radius = math.Max(min.Len(), max.Len())
	}
	return b, nil
}
