package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/cad"
	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/integrators"
	"github.com/san-kum/cascadedrop/internal/solver"
)

// Config holds the world-wide settings. Envelope and Margin apply to every
// collision model the world creates.
type Config struct {
	Gravity            mgl64.Vec3
	Envelope           float64
	Margin             float64
	Solver             solver.Kind
	MaxIterations      int
	Omega              float64
	Tolerance          float64
	Friction           float64
	MaxRecoverySpeed   float64
	MaxContactsPerPair int
	Integrator         string
}

func DefaultConfig() Config {
	return Config{
		Gravity:            mgl64.Vec3{0, -9.81, 0},
		Envelope:           0.001,
		Margin:             0.001,
		Solver:             solver.KindSOR,
		MaxIterations:      solver.DefaultMaxIterations,
		Omega:              solver.DefaultSOROmega,
		Tolerance:          1e-8,
		Friction:           0.6,
		MaxRecoverySpeed:   0.6,
		MaxContactsPerPair: 32,
		Integrator:         integrators.EulerImplicitLinearizedName,
	}
}

func (c Config) Validate() error {
	if c.Envelope < 0 || c.Margin < 0 {
		return fmt.Errorf("%w: envelope %g and margin %g must not be negative", ErrInvalidConfig, c.Envelope, c.Margin)
	}
	if c.Friction < 0 {
		return fmt.Errorf("%w: friction %g must not be negative", ErrInvalidConfig, c.Friction)
	}
	if c.MaxRecoverySpeed <= 0 {
		return fmt.Errorf("%w: max recovery speed %g must be positive", ErrInvalidConfig, c.MaxRecoverySpeed)
	}
	if !dynamo.IsFinite(c.Gravity) {
		return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
	}
	return nil
}

// MaxSpeed bounds linear (m/s) and angular (rad/s) speed. A body beyond it
// has diverged.
const MaxSpeed = 1e3

// StepStats summarizes the most recent step.
type StepStats struct {
	Contacts       int
	Iterations     int
	MaxDelta       float64
	MaxPenetration float64
}

// World is a non-smooth contact system.
type World struct {
	cfg        Config
	solver     solver.Solver
	integrator integrators.Integrator

	bodies   []*Body
	nextID   int
	time     float64
	steps    int
	contacts []ContactInfo
	stats    StepStats
}

func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := solver.New(cfg.Solver, cfg.MaxIterations, cfg.Omega, cfg.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	integ, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Omega = s.Relaxation()
	return &World{cfg: cfg, solver: s, integrator: integ}, nil
}

func (w *World) Config() Config { return w.cfg }

// SetSolverType swaps the contact solver keeping iteration settings. The
// relaxation factor is kept when the kind does not change; a different kind
// starts from its own default, which Config then reports.
func (w *World) SetSolverType(kind solver.Kind) error {
	omega := w.cfg.Omega
	if kind != w.solver.Kind() {
		omega = 0
	}
	s, err := solver.New(kind, w.cfg.MaxIterations, omega, w.cfg.Tolerance)
	if err != nil {
		return err
	}
	w.cfg.Solver = kind
	w.cfg.Omega = s.Relaxation()
	w.solver = s
	return nil
}

func (w *World) SolverType() solver.Kind { return w.solver.Kind() }

// NewShapeBody builds a body from a tessellated CAD solid. Mass, center of
// mass and inertia follow from the mesh volume and density. With collide the
// body collides using the mesh vertices against the exact solid; with
// visualize the mesh is attached as a visual asset.
func (w *World) NewShapeBody(mesh *cad.Mesh, density float64, collide, visualize bool) (*Body, error) {
	mp, err := MeshMassProperties(mesh, density)
	if err != nil {
		return nil, err
	}
	com := mp.COM
	verts := mesh.Vertices()
	local := make([]mgl64.Vec3, len(verts))
	for i, v := range verts {
		local[i] = v.Sub(com)
	}

	var geom Geometry
	if mesh.Shape != nil {
		geom = NewMeshGeometry(mesh.Shape, local, com)
	}
	b, err := newBody(w, mp, geom)
	if err != nil {
		return nil, err
	}
	b.collide = collide
	if visualize {
		tris := make([]cad.Triangle, len(mesh.Triangles))
		for i, t := range mesh.Triangles {
			tris[i] = cad.Triangle{V: [3]mgl64.Vec3{t.V[0].Sub(com), t.V[1].Sub(com), t.V[2].Sub(com)}, N: t.N}
		}
		b.AddAsset(&MeshAsset{Triangles: tris})
	}
	return b, nil
}

// NewBoxBody builds a box of full side lengths x, y, z.
func (w *World) NewBoxBody(x, y, z, density float64, collide, visualize bool) (*Body, error) {
	size := mgl64.Vec3{x, y, z}
	mp, err := BoxMassProperties(size, density)
	if err != nil {
		return nil, err
	}
	b, err := newBody(w, mp, NewBoxGeometry(size))
	if err != nil {
		return nil, err
	}
	b.collide = collide
	if visualize {
		b.AddAsset(&BoxAsset{Size: size})
	}
	return b, nil
}

// Add registers a body created by this world.
func (w *World) Add(b *Body) error {
	if b.world != w {
		return fmt.Errorf("%w: %s", ErrForeignBody, b)
	}
	if b.added {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, b)
	}
	b.added = true
	w.bodies = append(w.bodies, b)
	return nil
}

func (w *World) Bodies() []*Body { return w.bodies }

func (w *World) Time() float64 { return w.time }

func (w *World) StepCount() int { return w.steps }

func (w *World) Contacts() []ContactInfo { return w.contacts }

func (w *World) Stats() StepStats { return w.stats }

// Step advances the world by dt.
func (w *World) Step(dt float64) error {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidTimestep, dt)
	}

	for _, b := range w.bodies {
		if !b.fixed {
			b.twist.V = b.twist.V.Add(w.cfg.Gravity.Mul(dt))
		}
	}

	vars := make(map[*Body]*solver.Vars, len(w.bodies))
	for _, b := range w.bodies {
		vars[b] = &solver.Vars{
			InvMass:    b.invMass(),
			InvInertia: b.worldInvInertia(),
			V:          b.twist.V,
			W:          b.twist.W,
		}
	}

	contacts, infos := w.detect(dt, vars)
	st := w.solver.Solve(contacts)

	for i, c := range contacts {
		infos[i].Impulse = c.Impulse()
	}
	w.contacts = infos
	w.stats = StepStats{Contacts: st.Contacts, Iterations: st.Iterations, MaxDelta: st.MaxDelta}
	for _, ci := range infos {
		w.stats.MaxPenetration = math.Max(w.stats.MaxPenetration, -ci.Gap)
	}

	for _, b := range w.bodies {
		if b.fixed {
			continue
		}
		v := vars[b]
		b.twist = dynamo.Twist{V: v.V, W: v.W}
		b.pose = w.integrator.Integrate(b.pose, b.twist, dt)
		if !b.State().IsValid() {
			return &dynamo.SimulationError{Step: w.steps, Time: w.time, Body: b.name,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrUnstable, dynamo.ErrInvalidState)}
		}
		if b.twist.V.Len() > MaxSpeed || b.twist.W.Len() > MaxSpeed {
			return &dynamo.SimulationError{Step: w.steps, Time: w.time, Body: b.name, Wrapped: dynamo.ErrUnstable}
		}
	}

	w.time += dt
	w.steps++
	return nil
}

// detect runs the broad and narrow phase and turns candidates into solver rows.
func (w *World) detect(dt float64, vars map[*Body]*solver.Vars) ([]*solver.Contact, []ContactInfo) {
	var contacts []*solver.Contact
	var infos []ContactInfo

	for i := 0; i < len(w.bodies); i++ {
		a := w.bodies[i]
		if !a.Collide() {
			continue
		}
		for j := i + 1; j < len(w.bodies); j++ {
			b := w.bodies[j]
			if !b.Collide() || (a.fixed && b.fixed) {
				continue
			}

			// Speculative band: how far the pair can close within one step.
			reach := (a.twist.V.Len() + a.twist.W.Len()*a.radius + b.twist.V.Len() + b.twist.W.Len()*b.radius) * dt
			threshold := a.model.Envelope + b.model.Envelope + reach
			if !a.bounds().expand(threshold).overlaps(b.bounds()) {
				continue
			}

			slop := a.model.Margin + b.model.Margin
			for _, c := range collidePair(a, b, threshold, w.cfg.MaxContactsPerPair) {
				contacts = append(contacts, &solver.Contact{
					A:        vars[a],
					B:        vars[b],
					Normal:   c.normal,
					RA:       c.point.Sub(a.pose.Pos),
					RB:       c.point.Sub(b.pose.Pos),
					Friction: w.cfg.Friction,
					Bias:     w.bias(c.gap, slop, dt),
				})
				infos = append(infos, ContactInfo{A: a, B: b, Point: c.point, Normal: c.normal, Gap: c.gap})
			}
		}
	}
	return contacts, infos
}

// bias turns a gap into a velocity target. Open gaps may close within the
// step, penetration up to slop is tolerated, deeper penetration is pushed
// out no faster than MaxRecoverySpeed.
func (w *World) bias(gap, slop, dt float64) float64 {
	switch {
	case gap > 0:
		return gap / dt
	case gap > -slop:
		return 0
	default:
		return math.Max((gap+slop)/dt, -w.cfg.MaxRecoverySpeed)
	}
}
