// Package viewer binds a physics world to a rendering device.
//
// A [Viewer] keeps one [Proxy] per visible body. Proxies are created by
// [Viewer.Bind] (or [Viewer.BindAll]) and filled from the body's visual
// assets by [Viewer.Update] (or [Viewer.UpdateAll]); both must have run for
// every body before the first frame. The render loop is driven through
// BeginScene, DrawAll, DoStep and EndScene.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/physics"
)

var (
	ErrNotReady        = errors.New("viewer: proxies are missing or stale")
	ErrInvalidTimestep = errors.New("viewer: timestep must be positive")
)

// Options configure the viewer window and where assets are loaded from.
type Options struct {
	Title    string
	Width    int
	Height   int
	DataPath string
}

func DefaultOptions() Options {
	return Options{
		Title:    "Use OpenCascade shapes",
		Width:    1024,
		Height:   768,
		DataPath: "data/",
	}
}

type Viewer struct {
	world    *physics.World
	device   Device
	opts     Options
	frame    Frame
	proxies  map[int]*Proxy
	order    []*Proxy
	timestep float64
	log      *slog.Logger
}

func New(world *physics.World, device Device, opts Options, log *slog.Logger) *Viewer {
	if log == nil {
		log = slog.Default()
	}
	return &Viewer{
		world:   world,
		device:  device,
		opts:    opts,
		proxies: make(map[int]*Proxy),
		log:     log,
		frame: Frame{
			Title:   opts.Title,
			Width:   opts.Width,
			Height:  opts.Height,
			Camera:  Camera{Position: mgl64.Vec3{0, 0, -1}, FOV: 45},
			Ambient: 1,
		},
	}
}

func (v *Viewer) Device() Device { return v.device }

func (v *Viewer) World() *physics.World { return v.world }

func (v *Viewer) Options() Options { return v.opts }

func (v *Viewer) Frame() *Frame { return &v.frame }

// resolve joins rel to the data path and warns when it does not exist.
// Missing assets only degrade the visuals.
func (v *Viewer) resolve(kind, rel string) string {
	path := filepath.Join(v.opts.DataPath, rel)
	if _, err := os.Stat(path); err != nil {
		v.log.Warn("asset not found", "kind", kind, "path", path)
		return ""
	}
	return path
}

// AddTypicalSky uses the skybox images in dir, relative to the data path.
func (v *Viewer) AddTypicalSky(dir string) {
	v.frame.SkyDir = v.resolve("sky", dir)
}

// AddTypicalLogo overlays the image at file, relative to the data path.
func (v *Viewer) AddTypicalLogo(file string) {
	v.frame.Logo = v.resolve("logo", file)
}

// AddTypicalCamera places the camera at pos looking at the origin.
func (v *Viewer) AddTypicalCamera(pos mgl64.Vec3) {
	v.frame.Camera = Camera{Position: pos, Target: mgl64.Vec3{}, Up: mgl64.Vec3{0, 1, 0}, FOV: 45}
}

// AddTypicalLights adds two lights high above the scene and a dim ambient term.
func (v *Viewer) AddTypicalLights() {
	v.frame.Ambient = 0.25
	v.frame.Lights = append(v.frame.Lights,
		Light{Direction: mgl64.Vec3{30, 80, 30}.Normalize(), Intensity: 0.7, Color: [3]float32{0.7, 0.7, 0.7}},
		Light{Direction: mgl64.Vec3{30, 80, -30}.Normalize(), Intensity: 0.7, Color: [3]float32{0.7, 0.8, 0.8}},
	)
}

// Bind creates the proxy of one body. Binding twice returns the same proxy.
func (v *Viewer) Bind(b *physics.Body) *Proxy {
	if p, ok := v.proxies[b.ID()]; ok {
		return p
	}
	p := &Proxy{Body: b}
	v.proxies[b.ID()] = p
	v.order = append(v.order, p)
	return p
}

// BindAll creates proxies for every body currently in the world.
func (v *Viewer) BindAll() {
	for _, b := range v.world.Bodies() {
		v.Bind(b)
	}
}

// Update rebuilds the proxy geometry and material of b from its assets.
func (v *Viewer) Update(b *physics.Body) error {
	p, ok := v.proxies[b.ID()]
	if !ok {
		return fmt.Errorf("%w: %s has no proxy", ErrNotReady, b)
	}
	p.rebuild()
	return nil
}

// UpdateAll rebuilds every bound proxy.
func (v *Viewer) UpdateAll() {
	for _, p := range v.order {
		p.rebuild()
	}
}

// Proxies returns the proxies in bind order.
func (v *Viewer) Proxies() []*Proxy { return v.order }

func (v *Viewer) ProxyCount() int { return len(v.order) }

// Ready reports whether every body in the world has an up-to-date proxy.
func (v *Viewer) Ready() error {
	bodies := v.world.Bodies()
	if len(v.proxies) != len(bodies) {
		return fmt.Errorf("%w: %d proxies for %d bodies", ErrNotReady, len(v.proxies), len(bodies))
	}
	for _, b := range bodies {
		p, ok := v.proxies[b.ID()]
		if !ok || !p.Updated() {
			return fmt.Errorf("%w: %s", ErrNotReady, b)
		}
	}
	return nil
}

func (v *Viewer) SetTimestep(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidTimestep, dt)
	}
	v.timestep = dt
	return nil
}

func (v *Viewer) Timestep() float64 { return v.timestep }

// BeginScene clears the frame buffers.
func (v *Viewer) BeginScene() {
	v.frame.Time = v.world.Time()
	v.device.BeginScene(&v.frame)
}

// DrawAll refreshes proxy poses from their bodies and draws them.
func (v *Viewer) DrawAll() {
	for _, p := range v.order {
		p.Pose = p.Body.Pose()
	}
	v.device.Draw(&v.frame, v.order)
}

// DoStep advances the world by the configured timestep.
func (v *Viewer) DoStep() error {
	if v.timestep <= 0 {
		return fmt.Errorf("%w: timestep not set", ErrInvalidTimestep)
	}
	return v.world.Step(v.timestep)
}

// EndScene presents the frame.
func (v *Viewer) EndScene() {
	v.device.EndScene()
}

func (v *Viewer) Close() error {
	return v.device.Close()
}
