package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	FOV      float64
}

// Light is a directional light shining from Direction towards the origin.
type Light struct {
	Direction mgl64.Vec3
	Intensity float64
	Color     [3]float32
}

// Frame is the per-frame scene description handed to a Device.
type Frame struct {
	Title   string
	Width   int
	Height  int
	Time    float64
	Camera  Camera
	Lights  []Light
	Ambient float64
	SkyDir  string
	Logo    string
}

// Shade returns base lit by the frame lights for a surface with normal n.
func (f *Frame) Shade(base [3]float32, n mgl64.Vec3) [3]float32 {
	if len(f.Lights) == 0 {
		return base
	}
	var out [3]float32
	for c := 0; c < 3; c++ {
		lum := f.Ambient
		for _, l := range f.Lights {
			if d := n.Dot(l.Direction); d > 0 {
				lum += d * l.Intensity * float64(l.Color[c])
			}
		}
		out[c] = float32(math.Min(1, float64(base[c])*lum))
	}
	return out
}

// Device is a rendering backend. Run reports false once the window has
// been closed; the loop then stops.
type Device interface {
	Run() bool
	BeginScene(f *Frame)
	Draw(f *Frame, proxies []*Proxy)
	EndScene()
	Close() error
}

// Headless renders nothing. It closes itself after MaxFrames frames when
// MaxFrames is positive.
type Headless struct {
	MaxFrames int

	Frames    int
	Triangles int
	Calls     []string
	closed    bool
}

func NewHeadless(maxFrames int) *Headless {
	return &Headless{MaxFrames: maxFrames}
}

func (h *Headless) Run() bool {
	if h.closed {
		return false
	}
	return h.MaxFrames <= 0 || h.Frames < h.MaxFrames
}

func (h *Headless) BeginScene(*Frame) {
	h.record("begin")
}

func (h *Headless) Draw(_ *Frame, proxies []*Proxy) {
	h.record("draw")
	h.Triangles = 0
	for _, p := range proxies {
		h.Triangles += len(p.Triangles)
	}
}

func (h *Headless) EndScene() {
	h.record("end")
	h.Frames++
}

// Close stops the device, like the user closing the window.
func (h *Headless) Close() error {
	h.closed = true
	return nil
}

func (h *Headless) record(call string) {
	// Only the first frames matter for ordering checks.
	if len(h.Calls) < 64 {
		h.Calls = append(h.Calls, call)
	}
}
