package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

// Camera orbits Target at Distance. Yaw turns about the world Y axis and
// Pitch tilts above the horizon.
type Camera struct {
	Target   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	FOV      float64 // radians
	Near     float64
}

// CameraFrom converts a viewer camera into an orbit camera.
func CameraFrom(c viewer.Camera) *Camera {
	off := c.Position.Sub(c.Target)
	dist := off.Len()
	cam := &Camera{Target: c.Target, Distance: dist, FOV: math.Pi / 4, Near: 1e-3}
	if c.FOV > 0 {
		cam.FOV = mgl64.DegToRad(c.FOV)
	}
	if dist > 0 {
		cam.Yaw = math.Atan2(off[0], off[2])
		cam.Pitch = math.Asin(off[1] / dist)
	}
	return cam
}

func (c *Camera) RotateYaw(a float64) { c.Yaw += a }

func (c *Camera) RotatePitch(a float64) {
	c.Pitch = math.Max(-1.5, math.Min(1.5, c.Pitch+a))
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(0.02, c.Distance/1.2) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(100, c.Distance*1.2) }

func (c *Camera) Position() mgl64.Vec3 {
	return c.Target.Add(mgl64.Vec3{
		c.Distance * math.Cos(c.Pitch) * math.Sin(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
		c.Distance * math.Cos(c.Pitch) * math.Cos(c.Yaw),
	})
}

// Project converts world coordinates to canvas pixels. Returns x, y, depth,
// and whether the point is in front of the camera.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	view := mgl64.LookAtV(c.Position(), c.Target, mgl64.Vec3{0, 1, 0})
	q := view.Mul4x1(p.Vec4(1))
	depth := -q[2]
	if depth < c.Near {
		return 0, 0, depth, false
	}
	f := 1 / math.Tan(c.FOV/2)
	half := float64(sh) / 2
	sx := int(q[0]/depth*f*half) + sw/2
	sy := int(-q[1]/depth*f*half) + sh/2
	return sx, sy, depth, true
}

// RenderProxies draws the camera-facing triangles of every proxy.
func RenderProxies(c *Canvas, proxies []*viewer.Proxy, cam *Camera) int {
	if c == nil || cam == nil {
		return 0
	}
	cw, ch := c.PixelSize()
	eye := cam.Position()
	drawn := 0
	for _, p := range proxies {
		for _, t := range p.WorldTriangles() {
			if t.N.Dot(eye.Sub(t.V[0])) < 0 {
				continue
			}
			var xs, ys [3]int
			ok := true
			for i, v := range t.V {
				x, y, _, vis := cam.Project(v, cw, ch)
				if !vis {
					ok = false
					break
				}
				xs[i], ys[i] = x, y
			}
			if !ok {
				continue
			}
			c.DrawLine(xs[0], ys[0], xs[1], ys[1])
			c.DrawLine(xs[1], ys[1], xs[2], ys[2])
			c.DrawLine(xs[2], ys[2], xs[0], ys[0])
			drawn++
		}
	}
	return drawn
}
