// Package solver resolves frictional contacts between rigid bodies as a
// velocity-level complementarity problem.
//
// Each contact contributes one normal row (impulse >= 0) and two tangent
// rows whose impulse is projected onto the Coulomb friction disk. Solvers
// work on accumulated impulses, so results can be warm started.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/dynamo"
)

var ErrUnknownSolver = errors.New("solver: unknown solver type")

// Kind names a solver implementation.
type Kind string

const (
	KindSOR    Kind = "sor"
	KindJacobi Kind = "jacobi"
)

// Vars are the velocity unknowns of one body.
// A fixed body has zero InvMass and zero InvInertia.
type Vars struct {
	InvMass    float64
	InvInertia mgl64.Mat3
	V          mgl64.Vec3
	W          mgl64.Vec3
}

func (v *Vars) applyImpulse(p, r mgl64.Vec3) {
	if v.InvMass == 0 {
		return
	}
	v.V = v.V.Add(p.Mul(v.InvMass))
	v.W = v.W.Add(v.InvInertia.Mul3x1(r.Cross(p)))
}

// Contact is one contact point between bodies A and B.
// Normal points from B towards A. RA and RB are offsets of the contact
// point from each center of mass.
type Contact struct {
	A, B     *Vars
	Normal   mgl64.Vec3
	RA, RB   mgl64.Vec3
	Friction float64
	// Bias is added to the normal relative velocity; a negative gap gives a
	// negative bias that pushes the bodies apart.
	Bias float64

	// Accumulated impulses: normal, tangent 1, tangent 2.
	Lambda [3]float64

	dirs [3]mgl64.Vec3
	mass [3]float64
}

// Impulse is the total impulse applied to A.
func (c *Contact) Impulse() mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		p = p.Add(c.dirs[i].Mul(c.Lambda[i]))
	}
	return p
}

func (c *Contact) prepare() {
	c.dirs[0] = c.Normal
	c.dirs[1], c.dirs[2] = tangents(c.Normal)
	for i, d := range c.dirs {
		k := c.A.InvMass + c.B.InvMass
		ra := c.RA.Cross(d)
		rb := c.RB.Cross(d)
		k += ra.Dot(c.A.InvInertia.Mul3x1(ra))
		k += rb.Dot(c.B.InvInertia.Mul3x1(rb))
		if k > 0 {
			c.mass[i] = 1 / k
		} else {
			c.mass[i] = 0
		}
	}
}

func (v *Vars) twist() dynamo.Twist { return dynamo.Twist{V: v.V, W: v.W} }

func (c *Contact) relativeVelocity(dir mgl64.Vec3) float64 {
	va := c.A.twist().PointVelocity(c.RA)
	vb := c.B.twist().PointVelocity(c.RB)
	return va.Sub(vb).Dot(dir)
}

func (c *Contact) apply(row int, delta float64) {
	if delta == 0 {
		return
	}
	p := c.dirs[row].Mul(delta)
	c.A.applyImpulse(p, c.RA)
	c.B.applyImpulse(p.Mul(-1), c.RB)
}

// project clamps the normal impulse to be non-negative and the tangential
// impulse into the friction disk. It returns the projected impulses.
func (c *Contact) project(l [3]float64) [3]float64 {
	if l[0] < 0 {
		l[0] = 0
	}
	limit := c.Friction * l[0]
	mag := math.Hypot(l[1], l[2])
	if mag > limit {
		if mag > 0 {
			s := limit / mag
			l[1] *= s
			l[2] *= s
		}
	}
	return l
}

func tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t1 mgl64.Vec3
	if math.Abs(n[0]) > 0.57735 {
		t1 = mgl64.Vec3{n[1], -n[0], 0}
	} else {
		t1 = mgl64.Vec3{0, n[2], -n[1]}
	}
	t1 = t1.Normalize()
	return t1, n.Cross(t1)
}

// Stats reports how a solve went.
type Stats struct {
	Iterations int
	MaxDelta   float64
	Contacts   int
}

// Solver computes contact impulses and applies them to the body velocities.
type Solver interface {
	Solve(contacts []*Contact) Stats
	Kind() Kind
	Relaxation() float64
}

// New returns a solver by kind. maxIter and omega fall back to defaults when
// not positive.
func New(kind Kind, maxIter int, omega, tolerance float64) (Solver, error) {
	switch kind {
	case KindSOR, "":
		if maxIter <= 0 {
			maxIter = DefaultMaxIterations
		}
		if omega <= 0 {
			omega = DefaultSOROmega
		}
		return &SOR{MaxIterations: maxIter, Omega: omega, Tolerance: tolerance}, nil
	case KindJacobi:
		if maxIter <= 0 {
			maxIter = DefaultMaxIterations * 2
		}
		if omega <= 0 {
			omega = DefaultJacobiOmega
		}
		return &Jacobi{MaxIterations: maxIter, Omega: omega, Tolerance: tolerance}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, kind)
	}
}

const (
	DefaultMaxIterations = 50
	DefaultSOROmega      = 1.0
	DefaultJacobiOmega   = 0.2
)
