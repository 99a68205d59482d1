package cad

import "fmt"

// Dimensions of the torus-minus-cylinder solid.
type Dimensions struct {
	TorusMajor     float64 `yaml:"torus_major"`
	TorusMinor     float64 `yaml:"torus_minor"`
	CylinderRadius float64 `yaml:"cylinder_radius"`
	CylinderHeight float64 `yaml:"cylinder_height"`
}

func DefaultDimensions() Dimensions {
	return Dimensions{
		TorusMajor:     0.1,
		TorusMinor:     0.02,
		CylinderRadius: 0.09,
		CylinderHeight: 0.1,
	}
}

// BuildDemoShape cuts a cylinder out of a torus. The cylinder shares the torus
// axis, so it removes the inner half of the ring on the +Z side.
func BuildDemoShape(k Kernel, d Dimensions) (*Shape, error) {
	torus, err := k.Torus(d.TorusMajor, d.TorusMinor)
	if err != nil {
		return nil, fmt.Errorf("build shape: %w", err)
	}
	cyl, err := k.Cylinder(d.CylinderRadius, d.CylinderHeight)
	if err != nil {
		return nil, fmt.Errorf("build shape: %w", err)
	}
	cut, err := k.Cut(torus, cyl)
	if err != nil {
		return nil, fmt.Errorf("build shape: %w", err)
	}
	return cut, nil
}
