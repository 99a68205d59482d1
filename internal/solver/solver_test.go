package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
)

func unitBox() *Vars {
	// 1 kg cube of side 0.1: I = m*s^2/6.
	i := 1.0 * 0.1 * 0.1 / 6
	return &Vars{InvMass: 1, InvInertia: mgl64.Diag3(mgl64.Vec3{1 / i, 1 / i, 1 / i})}
}

func groundContacts(body *Vars) []*Contact {
	ground := &Vars{}
	up := mgl64.Vec3{0, 1, 0}
	var cs []*Contact
	for _, x := range []float64{-0.05, 0.05} {
		for _, z := range []float64{-0.05, 0.05} {
			cs = append(cs, &Contact{
				A: body, B: ground, Normal: up,
				RA:       mgl64.Vec3{x, -0.05, z},
				RB:       mgl64.Vec3{x, 0, z},
				Friction: 0.6,
			})
		}
	}
	return cs
}

func TestSolversStopPenetratingVelocity(t *testing.T) {
	for _, kind := range []Kind{KindSOR, KindJacobi} {
		t.Run(string(kind), func(t *testing.T) {
			g := NewWithT(t)
			s, err := New(kind, 200, 0, 1e-9)
			g.Expect(err).NotTo(HaveOccurred())

			body := unitBox()
			body.V = mgl64.Vec3{0, -1, 0}
			stats := s.Solve(groundContacts(body))

			g.Expect(stats.Contacts).To(Equal(4))
			g.Expect(body.V[1]).To(BeNumerically("~", 0, 1e-3))
			g.Expect(body.W.Len()).To(BeNumerically("<", 1e-3))
		})
	}
}

// ringContacts spreads n floor contacts around a ring of radius r under the
// body, the way a torus lying flat touches the floor.
func ringContacts(body *Vars, n int, r float64) []*Contact {
	ground := &Vars{}
	up := mgl64.Vec3{0, 1, 0}
	cs := make([]*Contact, n)
	for i := range cs {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, z := r*math.Cos(a), r*math.Sin(a)
		cs[i] = &Contact{
			A: body, B: ground, Normal: up,
			RA:       mgl64.Vec3{x, -0.02, z},
			RB:       mgl64.Vec3{x, 0, z},
			Friction: 0.6,
		}
	}
	return cs
}

func TestSolversConvergeWithManyContactsOnOneBody(t *testing.T) {
	for _, kind := range []Kind{KindSOR, KindJacobi} {
		t.Run(string(kind), func(t *testing.T) {
			g := NewWithT(t)
			s, err := New(kind, 0, 0, 1e-9)
			g.Expect(err).NotTo(HaveOccurred())

			// Flat ring: I = m*r^2/2 about the tilt axes, m*r^2 about y.
			body := &Vars{InvMass: 1, InvInertia: mgl64.Diag3(mgl64.Vec3{200, 100, 200})}
			body.V = mgl64.Vec3{0, -0.05, 0}
			contacts := ringContacts(body, 32, 0.1)
			s.Solve(contacts)

			g.Expect(finite(body.V)).To(BeTrue())
			g.Expect(body.V[1]).To(BeNumerically("~", 0, 1e-3))
			g.Expect(body.W.Len()).To(BeNumerically("<", 1e-3))
			total := 0.0
			for _, c := range contacts {
				g.Expect(c.Lambda[0]).To(BeNumerically(">=", 0))
				total += c.Lambda[0]
			}
			// The impulses together cancel the approach velocity of 1 kg.
			g.Expect(total).To(BeNumerically("~", 0.05, 1e-3))
		})
	}
}

func TestJacobiSharesSplitPerBody(t *testing.T) {
	a, b := unitBox(), unitBox()
	ground := &Vars{}
	contacts := []*Contact{
		{A: a, B: ground}, {A: a, B: ground}, {A: a, B: ground},
		{A: a, B: b},
		{A: b, B: ground},
	}
	share := splitShares(contacts)
	want := []float64{0.25, 0.25, 0.25, 0.25, 0.5}
	for i := range want {
		if share[i] != want[i] {
			t.Errorf("share[%d] = %g, expected %g", i, share[i], want[i])
		}
	}
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func TestSeparatingContactAppliesNoImpulse(t *testing.T) {
	g := NewWithT(t)
	s, _ := New(KindSOR, 0, 0, 0)

	body := unitBox()
	body.V = mgl64.Vec3{0, 2, 0}
	contacts := groundContacts(body)
	s.Solve(contacts)

	for _, c := range contacts {
		g.Expect(c.Lambda[0]).To(BeZero())
	}
	g.Expect(body.V).To(Equal(mgl64.Vec3{0, 2, 0}))
}

func TestFrictionStaysInsideCone(t *testing.T) {
	g := NewWithT(t)
	s, _ := New(KindSOR, 100, 1.0, 0)

	body := unitBox()
	body.V = mgl64.Vec3{5, -0.5, 0}
	contacts := groundContacts(body)
	s.Solve(contacts)

	for _, c := range contacts {
		tangential := math.Hypot(c.Lambda[1], c.Lambda[2])
		g.Expect(tangential).To(BeNumerically("<=", c.Friction*c.Lambda[0]+1e-12))
	}
	// Friction slows the slide but a 0.5 m/s impact cannot stop 5 m/s.
	g.Expect(body.V[0]).To(BeNumerically("<", 5))
	g.Expect(body.V[0]).To(BeNumerically(">", 0))
}

func TestBiasPushesApart(t *testing.T) {
	g := NewWithT(t)
	s, _ := New(KindSOR, 100, 1.0, 0)

	body := unitBox()
	contacts := groundContacts(body)
	for _, c := range contacts {
		c.Bias = -0.2
	}
	s.Solve(contacts)
	g.Expect(body.V[1]).To(BeNumerically("~", 0.2, 1e-3))
}

func TestUnknownSolver(t *testing.T) {
	_, err := New("barzilai", 10, 1, 0)
	if !errors.Is(err, ErrUnknownSolver) {
		t.Errorf("expected ErrUnknownSolver, got %v", err)
	}
}

func TestTangentsAreOrthonormal(t *testing.T) {
	normals := []mgl64.Vec3{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}, mgl64.Vec3{1, 2, 3}.Normalize()}
	for _, n := range normals {
		t1, t2 := tangents(n)
		for _, d := range []float64{t1.Dot(n), t2.Dot(n), t1.Dot(t2)} {
			if math.Abs(d) > 1e-12 {
				t.Errorf("normal %v: basis not orthogonal (%g)", n, d)
			}
		}
		if math.Abs(t1.Len()-1) > 1e-12 || math.Abs(t2.Len()-1) > 1e-12 {
			t.Errorf("normal %v: tangents not unit length", n)
		}
	}
}
