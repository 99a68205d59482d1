package viz

import (
	"github.com/san-kum/cascadedrop/internal/viewer"
)

const (
	width  = 80
	height = 24
)

// Terminal is a viewer device drawing into a braille canvas. It is driven
// from a Bubble Tea model, one loop iteration per tick.
type Terminal struct {
	Canvas    *Canvas
	Camera    *Camera
	Triangles int
	Frames    int

	home     Camera
	recorder *Recorder
	closed   bool
}

func NewTerminal(w, h int) *Terminal {
	return &Terminal{Canvas: NewCanvas(w, h)}
}

func (t *Terminal) Run() bool { return !t.closed }

func (t *Terminal) BeginScene(f *viewer.Frame) {
	if t.Camera == nil {
		t.Camera = CameraFrom(f.Camera)
		t.home = *t.Camera
	}
	t.Canvas.Clear()
}

func (t *Terminal) Draw(_ *viewer.Frame, proxies []*viewer.Proxy) {
	t.Triangles = RenderProxies(t.Canvas, proxies, t.Camera)
}

func (t *Terminal) EndScene() {
	t.Frames++
	if t.recorder != nil {
		t.recorder.Capture(t.Canvas)
	}
}

func (t *Terminal) Close() error {
	t.closed = true
	return nil
}

// ResetCamera returns to the camera of the first frame.
func (t *Terminal) ResetCamera() {
	if t.Camera != nil {
		*t.Camera = t.home
	}
}

// Record starts capturing frames, or stops and returns the recorder.
func (t *Terminal) Record() *Recorder {
	if t.recorder == nil {
		t.recorder = NewRecorder()
		return nil
	}
	r := t.recorder
	t.recorder = nil
	return r
}

func (t *Terminal) Recording() bool { return t.recorder != nil }
