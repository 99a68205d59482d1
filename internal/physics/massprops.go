package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/cad"
)

// MassProperties of a homogeneous solid. Inertia is about the center of
// mass, expressed in the solid's own axes.
type MassProperties struct {
	Volume  float64
	Mass    float64
	COM     mgl64.Vec3
	Inertia mgl64.Mat3
}

// MeshMassProperties integrates a closed triangle mesh as a sum of signed
// tetrahedra spanned with the origin.
func MeshMassProperties(mesh *cad.Mesh, density float64) (MassProperties, error) {
	if density <= 0 {
		return MassProperties{}, fmt.Errorf("%w: density %g", ErrDegenerateMass, density)
	}
	if mesh == nil || mesh.IsEmpty() {
		return MassProperties{}, fmt.Errorf("%w: empty mesh", ErrDegenerateMass)
	}

	var vol float64
	var first mgl64.Vec3
	var cov mgl64.Mat3
	for _, t := range mesh.Triangles {
		a, b, c := t.V[0], t.V[1], t.V[2]
		v := a.Dot(b.Cross(c)) / 6
		s := a.Add(b).Add(c)
		vol += v
		first = first.Add(s.Mul(v / 4))
		outer := a.OuterProd3(a).Add(b.OuterProd3(b)).Add(c.OuterProd3(c)).Add(s.OuterProd3(s))
		cov = cov.Add(outer.Mul(v / 20))
	}
	if vol < 0 {
		// Inward-facing triangles: same magnitudes, opposite signs.
		vol, first, cov = -vol, first.Mul(-1), cov.Mul(-1)
	}
	if vol <= 1e-15 || math.IsNaN(vol) {
		return MassProperties{}, fmt.Errorf("%w: mesh volume %g", ErrDegenerateMass, vol)
	}

	com := first.Mul(1 / vol)
	mass := density * vol
	cov = cov.Mul(density).Sub(com.OuterProd3(com).Mul(mass))
	return MassProperties{
		Volume:  vol,
		Mass:    mass,
		COM:     com,
		Inertia: inertiaFromCovariance(cov),
	}, nil
}

// BoxMassProperties of a box of full side lengths size.
func BoxMassProperties(size mgl64.Vec3, density float64) (MassProperties, error) {
	vol := size[0] * size[1] * size[2]
	if density <= 0 || vol <= 0 {
		return MassProperties{}, fmt.Errorf("%w: box %v density %g", ErrDegenerateMass, size, density)
	}
	m := density * vol
	x2, y2, z2 := size[0]*size[0], size[1]*size[1], size[2]*size[2]
	return MassProperties{
		Volume:  vol,
		Mass:    m,
		Inertia: mgl64.Diag3(mgl64.Vec3{m / 12 * (y2 + z2), m / 12 * (x2 + z2), m / 12 * (x2 + y2)}),
	}, nil
}

func inertiaFromCovariance(c mgl64.Mat3) mgl64.Mat3 {
	tr := c.Trace()
	return mgl64.Ident3().Mul(tr).Sub(c)
}
