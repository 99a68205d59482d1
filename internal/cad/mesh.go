package cad

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultMeshCells controls marching cubes resolution along the longest axis.
const DefaultMeshCells = 64

// Triangle is one mesh face with its outward unit normal.
type Triangle struct {
	V [3]mgl64.Vec3
	N mgl64.Vec3
}

// Mesh is a closed triangle mesh produced by tessellating a Shape.
// Shape keeps the source solid for exact distance queries.
type Mesh struct {
	Triangles []Triangle
	Shape     *Shape
}

func (m *Mesh) TriangleCount() int { return len(m.Triangles) }

func (m *Mesh) IsEmpty() bool { return len(m.Triangles) == 0 }

// Vertices returns the distinct vertices of the mesh in first-seen order.
func (m *Mesh) Vertices() []mgl64.Vec3 {
	seen := make(map[mgl64.Vec3]struct{}, len(m.Triangles))
	out := make([]mgl64.Vec3, 0, len(m.Triangles)/2)
	for _, t := range m.Triangles {
		for _, v := range t.V {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Bounds returns the axis-aligned bounds of the mesh vertices.
func (m *Mesh) Bounds() (min, max mgl64.Vec3) {
	if m.IsEmpty() {
		return
	}
	min, max = m.Triangles[0].V[0], m.Triangles[0].V[0]
	for _, t := range m.Triangles {
		for _, v := range t.V {
			for i := 0; i < 3; i++ {
				if v[i] < min[i] {
					min[i] = v[i]
				}
				if v[i] > max[i] {
					max[i] = v[i]
				}
			}
		}
	}
	return min, max
}

// Volume is the enclosed volume by the divergence theorem.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, t := range m.Triangles {
		vol += t.V[0].Dot(t.V[1].Cross(t.V[2])) / 6
	}
	return vol
}

// Tessellate converts a shape to a triangle mesh using marching cubes.
func Tessellate(s *Shape, cells int) (*Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil shape", ErrEmptyShape)
	}
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	if s.BoundingVolume() == 0 {
		return nil, fmt.Errorf("%w: %s has a degenerate bounding box", ErrEmptyShape, s.name)
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s.s, renderer)

	mesh := &Mesh{Triangles: make([]Triangle, 0, len(triangles)), Shape: s}
	for _, tri := range triangles {
		n := tri.Normal()
		var t Triangle
		for j := 0; j < 3; j++ {
			v := tri[j]
			t.V[j] = mgl64.Vec3{v.X, v.Y, v.Z}
		}
		t.N = mgl64.Vec3{n.X, n.Y, n.Z}
		if t.V[1].Sub(t.V[0]).Cross(t.V[2].Sub(t.V[0])).Len() == 0 {
			continue
		}
		mesh.Triangles = append(mesh.Triangles, t)
	}

	if mesh.IsEmpty() {
		return nil, fmt.Errorf("%w: %s tessellated to zero triangles", ErrEmptyShape, s.name)
	}
	return mesh, nil
}
