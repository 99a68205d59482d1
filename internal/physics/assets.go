package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/cad"
)

// Asset is visual data attached to a body. Renderers build their proxies
// from a body's assets.
type Asset interface {
	AssetKind() string
}

// ColorAsset tints every visual shape of the body.
type ColorAsset struct {
	R, G, B float32
}

func NewColorAsset(r, g, b float32) *ColorAsset {
	return &ColorAsset{R: r, G: g, B: b}
}

func (c *ColorAsset) AssetKind() string { return "color" }

// MeshAsset is a triangle mesh in body coordinates.
type MeshAsset struct {
	Triangles []cad.Triangle
}

func (m *MeshAsset) AssetKind() string { return "mesh" }

// BoxAsset is a box of full side lengths Size centered on the body.
type BoxAsset struct {
	Size mgl64.Vec3
}

func (b *BoxAsset) AssetKind() string { return "box" }

// Triangles tessellates the box into 12 outward-facing triangles.
func (b *BoxAsset) Triangles() []cad.Triangle {
	h := b.Size.Mul(0.5)
	c := func(x, y, z float64) mgl64.Vec3 { return mgl64.Vec3{x * h[0], y * h[1], z * h[2]} }
	faces := []struct {
		n    mgl64.Vec3
		quad [4]mgl64.Vec3
	}{
		{mgl64.Vec3{1, 0, 0}, [4]mgl64.Vec3{c(1, -1, -1), c(1, 1, -1), c(1, 1, 1), c(1, -1, 1)}},
		{mgl64.Vec3{-1, 0, 0}, [4]mgl64.Vec3{c(-1, -1, -1), c(-1, -1, 1), c(-1, 1, 1), c(-1, 1, -1)}},
		{mgl64.Vec3{0, 1, 0}, [4]mgl64.Vec3{c(-1, 1, -1), c(-1, 1, 1), c(1, 1, 1), c(1, 1, -1)}},
		{mgl64.Vec3{0, -1, 0}, [4]mgl64.Vec3{c(-1, -1, -1), c(1, -1, -1), c(1, -1, 1), c(-1, -1, 1)}},
		{mgl64.Vec3{0, 0, 1}, [4]mgl64.Vec3{c(-1, -1, 1), c(1, -1, 1), c(1, 1, 1), c(-1, 1, 1)}},
		{mgl64.Vec3{0, 0, -1}, [4]mgl64.Vec3{c(-1, -1, -1), c(-1, 1, -1), c(1, 1, -1), c(1, -1, -1)}},
	}
	tris := make([]cad.Triangle, 0, 12)
	for _, f := range faces {
		tris = append(tris,
			cad.Triangle{V: [3]mgl64.Vec3{f.quad[0], f.quad[1], f.quad[2]}, N: f.n},
			cad.Triangle{V: [3]mgl64.Vec3{f.quad[0], f.quad[2], f.quad[3]}, N: f.n},
		)
	}
	return tris
}
