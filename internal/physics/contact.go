package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ContactInfo describes one detected contact after the solve.
type ContactInfo struct {
	A, B    *Body
	Point   mgl64.Vec3
	Normal  mgl64.Vec3 // from B towards A
	Gap     float64    // negative when penetrating
	Impulse mgl64.Vec3 // applied to A
}

type candidate struct {
	point  mgl64.Vec3
	normal mgl64.Vec3
	gap    float64
}

// collidePair tests the samples of each body against the other's geometry.
// Every candidate normal points from b towards a.
func collidePair(a, b *Body, threshold float64, limit int) []candidate {
	out := sampleAgainst(a, b, threshold, 1, nil)
	out = sampleAgainst(b, a, threshold, -1, out)
	if limit > 0 && len(out) > limit {
		sort.Slice(out, func(i, j int) bool { return out[i].gap < out[j].gap })
		out = out[:limit]
	}
	return out
}

// sampleAgainst checks the samples of src against the geometry of dst. With
// flip == 1 the normals already point from dst towards src.
func sampleAgainst(src, dst *Body, threshold, flip float64, out []candidate) []candidate {
	geom := dst.model.Geometry
	box := dst.bounds().expand(threshold)
	for _, s := range src.model.Geometry.Samples() {
		pw := src.pose.Transform(s)
		if !box.overlaps(aabb{pw, pw}) {
			continue
		}
		d, nl := geom.Distance(dst.pose.InverseTransform(pw))
		if d >= threshold {
			continue
		}
		n := dst.pose.Rot.Rotate(nl)
		// Midway between the sample and its projection on dst's surface.
		point := pw.Sub(n.Mul(d / 2))
		out = append(out, candidate{point: point, normal: n.Mul(flip), gap: d})
	}
	return out
}
