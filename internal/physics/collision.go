package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is a collision shape in body coordinates (origin at the center of mass).
type Geometry interface {
	// Distance is the signed distance from p to the surface, negative
	// inside, together with the outward unit normal at the closest point.
	Distance(p mgl64.Vec3) (float64, mgl64.Vec3)
	// Samples are surface points tested against other shapes.
	Samples() []mgl64.Vec3
	Bounds() (min, max mgl64.Vec3)
}

// CollisionModel binds a geometry to the tolerances of the world that built it.
type CollisionModel struct {
	Geometry Geometry
	// Envelope widens the band in which contacts are reported.
	Envelope float64
	// Margin is the penetration tolerated before the solver pushes back.
	Margin float64
}

// BoxGeometry is a box centered on the center of mass.
type BoxGeometry struct {
	Half    mgl64.Vec3
	samples []mgl64.Vec3
}

func NewBoxGeometry(size mgl64.Vec3) *BoxGeometry {
	b := &BoxGeometry{Half: size.Mul(0.5)}
	// Corners, edge midpoints and face centers.
	for _, x := range []float64{-1, 0, 1} {
		for _, y := range []float64{-1, 0, 1} {
			for _, z := range []float64{-1, 0, 1} {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				b.samples = append(b.samples, mgl64.Vec3{x * b.Half[0], y * b.Half[1], z * b.Half[2]})
			}
		}
	}
	return b
}

func (b *BoxGeometry) Samples() []mgl64.Vec3 { return b.samples }

func (b *BoxGeometry) Bounds() (min, max mgl64.Vec3) {
	return b.Half.Mul(-1), b.Half
}

func (b *BoxGeometry) Distance(p mgl64.Vec3) (float64, mgl64.Vec3) {
	var q mgl64.Vec3
	for i := 0; i < 3; i++ {
		q[i] = math.Abs(p[i]) - b.Half[i]
	}

	inside := q[0] <= 0 && q[1] <= 0 && q[2] <= 0
	if inside {
		axis := 0
		for i := 1; i < 3; i++ {
			if q[i] > q[axis] {
				axis = i
			}
		}
		var n mgl64.Vec3
		n[axis] = sign(p[axis])
		return q[axis], n
	}

	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		if q[i] > 0 {
			out[i] = q[i] * sign(p[i])
		}
	}
	d := out.Len()
	return d, out.Mul(1 / d)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Distancer answers signed-distance queries in shape coordinates.
type Distancer interface {
	Distance(p [3]float64) float64
}

// MeshGeometry collides with the vertices of a tessellated solid and answers
// distance queries against the solid itself. Offset moves body coordinates
// into shape coordinates.
type MeshGeometry struct {
	Shape    Distancer
	Offset   mgl64.Vec3
	vertices []mgl64.Vec3
	min, max mgl64.Vec3
}

// gradientStep is the finite-difference step for surface normals.
const gradientStep = 1e-5

func NewMeshGeometry(shape Distancer, vertices []mgl64.Vec3, offset mgl64.Vec3) *MeshGeometry {
	g := &MeshGeometry{Shape: shape, Offset: offset, vertices: vertices}
	if len(vertices) > 0 {
		g.min, g.max = vertices[0], vertices[0]
	}
	for _, v := range vertices {
		for i := 0; i < 3; i++ {
			g.min[i] = math.Min(g.min[i], v[i])
			g.max[i] = math.Max(g.max[i], v[i])
		}
	}
	return g
}

func (g *MeshGeometry) Samples() []mgl64.Vec3 { return g.vertices }

func (g *MeshGeometry) Bounds() (min, max mgl64.Vec3) { return g.min, g.max }

func (g *MeshGeometry) Distance(p mgl64.Vec3) (float64, mgl64.Vec3) {
	s := p.Add(g.Offset)
	d := g.Shape.Distance(s)
	var n mgl64.Vec3
	for i := 0; i < 3; i++ {
		hi, lo := s, s
		hi[i] += gradientStep
		lo[i] -= gradientStep
		n[i] = g.Shape.Distance(hi) - g.Shape.Distance(lo)
	}
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	} else {
		n = mgl64.Vec3{0, 1, 0}
	}
	return d, n
}

// aabb is a world-space bounding box.
type aabb struct {
	min, max mgl64.Vec3
}

func (a aabb) overlaps(b aabb) bool {
	for i := 0; i < 3; i++ {
		if a.max[i] < b.min[i] || b.max[i] < a.min[i] {
			return false
		}
	}
	return true
}

func (a aabb) expand(d float64) aabb {
	e := mgl64.Vec3{d, d, d}
	return aabb{a.min.Sub(e), a.max.Add(e)}
}
