// Package cad builds solids for the simulation using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Solids are opaque [Shape] handles. Primitives follow BRep conventions: a
// torus lies in the XY plane around +Z and a cylinder stands on z=0 and
// extends along +Z.
package cad

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var (
	ErrInvalidDimension = errors.New("cad: invalid dimension")
	ErrEmptyShape       = errors.New("cad: shape is empty")
)

// Kernel is the geometry kernel used by the shape builder.
type Kernel interface {
	Torus(major, minor float64) (*Shape, error)
	Cylinder(radius, height float64) (*Shape, error)
	Box(x, y, z float64) (*Shape, error)

	Cut(a, b *Shape) (*Shape, error)
	Translate(s *Shape, x, y, z float64) *Shape
}

// Compile-time interface check.
var _ Kernel = (*SdfxKernel)(nil)

// Shape is an opaque handle to a solid.
type Shape struct {
	s    sdf.SDF3
	name string
}

// Name describes how the shape was built.
func (s *Shape) Name() string { return s.name }

// BoundingBox returns the axis-aligned bounding box.
func (s *Shape) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// BoundingVolume is the volume of the bounding box.
func (s *Shape) BoundingVolume() float64 {
	min, max := s.BoundingBox()
	v := 1.0
	for i := 0; i < 3; i++ {
		d := max[i] - min[i]
		if d <= 0 {
			return 0
		}
		v *= d
	}
	return v
}

// Distance is the signed distance from p to the surface, negative inside.
func (s *Shape) Distance(p [3]float64) float64 {
	return s.s.Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]})
}

// SdfxKernel implements Kernel using sdfx.
type SdfxKernel struct{}

func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Torus revolves a circle of radius minor, centered major away from the Z axis.
func (k *SdfxKernel) Torus(major, minor float64) (*Shape, error) {
	if major <= 0 || minor <= 0 {
		return nil, fmt.Errorf("%w: torus radii must be positive (major=%g, minor=%g)", ErrInvalidDimension, major, minor)
	}
	if minor >= major {
		return nil, fmt.Errorf("%w: torus minor radius %g must be smaller than major radius %g", ErrInvalidDimension, minor, major)
	}
	c, err := sdf.Circle2D(minor)
	if err != nil {
		return nil, fmt.Errorf("cad: torus section: %w", err)
	}
	section := sdf.Transform2D(c, sdf.Translate2d(v2.Vec{X: major, Y: 0}))
	s, err := sdf.Revolve3D(section)
	if err != nil {
		return nil, fmt.Errorf("cad: torus revolve: %w", err)
	}
	return &Shape{s: s, name: fmt.Sprintf("torus(%g,%g)", major, minor)}, nil
}

// Cylinder creates a cylinder whose base disc sits on z=0.
// sdf.Cylinder3D centers the cylinder at the origin, so we lift it by half its height.
func (k *SdfxKernel) Cylinder(radius, height float64) (*Shape, error) {
	if radius <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cylinder radius and height must be positive (r=%g, h=%g)", ErrInvalidDimension, radius, height)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cad: cylinder: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: 0, Y: 0, Z: height / 2})
	return &Shape{s: sdf.Transform3D(s, m), name: fmt.Sprintf("cylinder(%g,%g)", radius, height)}, nil
}

// Box creates a box of full side lengths x, y, z centered at the origin.
func (k *SdfxKernel) Box(x, y, z float64) (*Shape, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("%w: box sides must be positive (%g,%g,%g)", ErrInvalidDimension, x, y, z)
	}
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("cad: box: %w", err)
	}
	return &Shape{s: s, name: fmt.Sprintf("box(%g,%g,%g)", x, y, z)}, nil
}

// Cut returns a minus b.
func (k *SdfxKernel) Cut(a, b *Shape) (*Shape, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: cut operand is nil", ErrEmptyShape)
	}
	return &Shape{s: sdf.Difference3D(a.s, b.s), name: a.name + "-" + b.name}, nil
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s *Shape, x, y, z float64) *Shape {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return &Shape{s: sdf.Transform3D(s.s, m), name: s.name}
}
