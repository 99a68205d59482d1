package viewer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/cad"
	"github.com/san-kum/cascadedrop/internal/dynamo"
	"github.com/san-kum/cascadedrop/internal/physics"
)

// DefaultColor is used for bodies without a color asset.
var DefaultColor = [3]float32{0.8, 0.8, 0.8}

// Proxy is the renderable counterpart of a body: its triangles in body
// coordinates, a material color and the pose of the last drawn frame.
type Proxy struct {
	Body      *physics.Body
	Triangles []cad.Triangle
	Color     [3]float32
	Pose      dynamo.Pose

	updated bool
	assets  int // asset count at the last rebuild
}

// rebuild converts the body's visual assets into triangles.
func (p *Proxy) rebuild() {
	p.Triangles = p.Triangles[:0]
	p.Color = DefaultColor
	for _, a := range p.Body.Assets() {
		switch a := a.(type) {
		case *physics.MeshAsset:
			p.Triangles = append(p.Triangles, a.Triangles...)
		case *physics.BoxAsset:
			p.Triangles = append(p.Triangles, a.Triangles()...)
		}
	}
	if c, ok := p.Body.Color(); ok {
		p.Color = [3]float32{c.R, c.G, c.B}
	}
	p.Pose = p.Body.Pose()
	p.assets = len(p.Body.Assets())
	p.updated = true
}

// Updated reports whether the proxy geometry has been built and no asset
// was added to the body since.
func (p *Proxy) Updated() bool {
	return p.updated && p.assets == len(p.Body.Assets())
}

// WorldTriangles returns the triangles placed at the proxy pose.
func (p *Proxy) WorldTriangles() []cad.Triangle {
	out := make([]cad.Triangle, len(p.Triangles))
	for i, t := range p.Triangles {
		out[i] = cad.Triangle{
			V: [3]mgl64.Vec3{p.Pose.Transform(t.V[0]), p.Pose.Transform(t.V[1]), p.Pose.Transform(t.V[2])},
			N: p.Pose.Rot.Rotate(t.N),
		}
	}
	return out
}
