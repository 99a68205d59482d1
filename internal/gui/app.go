package gui

import (
	"fmt"
	"math"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

// Theme Colors
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

// SkyFace is the skybox image used as the window backdrop.
const SkyFace = "sky_ft.jpg"

// Device renders proxies into a raylib window.
type Device struct {
	Camera       rl.Camera3D
	CamPosTarget rl.Vector3
	CamTgtTarget rl.Vector3
	ShowGrid     bool
	Wireframe    bool

	width, height int32
	home          rl.Camera3D
	homeSet       bool
	sky           rl.Texture2D
	skyPath       string
	logo          rl.Texture2D
	logoPath      string
	triangles     int
	closed        bool
	title         string
}

// Open creates the window. It must be called from the main goroutine.
func Open(opts viewer.Options, fps int) *Device {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if fps > 0 {
		rl.SetTargetFPS(int32(fps))
	}
	rl.SetExitKey(0)

	cam := rl.NewCamera3D(
		rl.NewVector3(0.2, 0.2, -0.2),
		rl.NewVector3(0, 0, 0),
		rl.NewVector3(0, 1, 0),
		45.0,
		rl.CameraPerspective,
	)
	return &Device{
		Camera:       cam,
		CamPosTarget: cam.Position,
		CamTgtTarget: cam.Target,
		ShowGrid:     true,
		width:        int32(opts.Width),
		height:       int32(opts.Height),
		title:        opts.Title,
	}
}

func (d *Device) Run() bool {
	if d.closed {
		return false
	}
	return !rl.WindowShouldClose()
}

func (d *Device) BeginScene(f *viewer.Frame) {
	d.syncFrame(f)
	d.update()

	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	if d.skyPath != "" {
		w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
		src := rl.NewRectangle(0, 0, float32(d.sky.Width), float32(d.sky.Height))
		rl.DrawTexturePro(d.sky, src, rl.NewRectangle(0, 0, w, h), rl.NewVector2(0, 0), 0, rl.White)
	}
}

func (d *Device) Draw(f *viewer.Frame, proxies []*viewer.Proxy) {
	rl.BeginMode3D(d.Camera)
	rl.DisableBackfaceCulling()
	if d.ShowGrid {
		d.drawGrid(20, 0.05)
	}
	d.triangles = 0
	for _, p := range proxies {
		for _, t := range p.WorldTriangles() {
			a := toVec(t.V[0])
			b := toVec(t.V[1])
			c := toVec(t.V[2])
			if d.Wireframe {
				rl.DrawLine3D(a, b, ColAccent)
				rl.DrawLine3D(b, c, ColAccent)
				rl.DrawLine3D(c, a, ColAccent)
			} else {
				rl.DrawTriangle3D(a, b, c, toColor(f.Shade(p.Color, t.N)))
			}
			d.triangles++
		}
	}
	rl.EnableBackfaceCulling()
	rl.EndMode3D()
	d.drawHUD(f)
}

func (d *Device) EndScene() {
	if d.logoPath != "" {
		x := int32(rl.GetScreenWidth()) - d.logo.Width - 10
		y := int32(rl.GetScreenHeight()) - d.logo.Height - 10
		rl.DrawTexture(d.logo, x, y, rl.White)
	}
	rl.EndDrawing()
}

func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.skyPath != "" {
		rl.UnloadTexture(d.sky)
	}
	if d.logoPath != "" {
		rl.UnloadTexture(d.logo)
	}
	rl.CloseWindow()
	return nil
}

// syncFrame loads textures and camera the first time a frame names them.
func (d *Device) syncFrame(f *viewer.Frame) {
	if f.SkyDir != "" && d.skyPath == "" {
		if path := filepath.Join(f.SkyDir, SkyFace); rl.FileExists(path) {
			d.sky = rl.LoadTexture(path)
			d.skyPath = path
		}
	}
	if f.Logo != "" && d.logoPath == "" && rl.FileExists(f.Logo) {
		d.logo = rl.LoadTexture(f.Logo)
		d.logoPath = f.Logo
	}
	if !d.homeSet {
		c := f.Camera
		d.Camera.Position = toVec(c.Position)
		d.Camera.Target = toVec(c.Target)
		if c.FOV > 0 {
			d.Camera.Fovy = float32(c.FOV)
		}
		d.CamPosTarget = d.Camera.Position
		d.CamTgtTarget = d.Camera.Target
		d.home = d.Camera
		d.homeSet = true
	}
}

// update orbits the camera around its target with the mouse.
func (d *Device) update() {
	if rl.IsKeyPressed(rl.KeyQ) {
		d.closed = true
	}
	if rl.IsKeyPressed(rl.KeyG) {
		d.ShowGrid = !d.ShowGrid
	}
	if rl.IsKeyPressed(rl.KeyW) {
		d.Wireframe = !d.Wireframe
	}
	if rl.IsKeyPressed(rl.KeyR) {
		d.CamPosTarget = d.home.Position
		d.CamTgtTarget = d.home.Target
	}

	offset := rl.Vector3Subtract(d.CamPosTarget, d.CamTgtTarget)
	dist := float64(rl.Vector3Length(offset))
	if dist < 1e-6 {
		return
	}
	yaw := math.Atan2(float64(offset.X), float64(offset.Z))
	pitch := math.Asin(float64(offset.Y) / dist)

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		delta := rl.GetMouseDelta()
		yaw -= float64(delta.X) * 0.005
		pitch += float64(delta.Y) * 0.005
		pitch = math.Max(-1.5, math.Min(1.5, pitch))
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		dist = math.Max(0.02, dist*(1-float64(wheel)*0.1))
	}

	d.CamPosTarget = rl.Vector3Add(d.CamTgtTarget, rl.NewVector3(
		float32(dist*math.Cos(pitch)*math.Sin(yaw)),
		float32(dist*math.Sin(pitch)),
		float32(dist*math.Cos(pitch)*math.Cos(yaw)),
	))

	lerp := 5.0 * rl.GetFrameTime()
	if lerp > 1.0 {
		lerp = 1.0
	}
	d.Camera.Position = rl.Vector3Lerp(d.Camera.Position, d.CamPosTarget, lerp)
	d.Camera.Target = rl.Vector3Lerp(d.Camera.Target, d.CamTgtTarget, lerp)
}

func (d *Device) drawHUD(f *viewer.Frame) {
	rl.DrawText(d.title, 30, 30, 20, ColSelect)
	rl.DrawText(fmt.Sprintf("t = %.3f s", f.Time), 30, 56, 16, ColText)
	rl.DrawText(fmt.Sprintf("%d triangles", d.triangles), 30, 76, 16, ColTextDim)

	h := int32(rl.GetScreenHeight())
	rl.DrawText("[MOUSE] ORBIT  [WHEEL] ZOOM  [R] CAMERA  [W] WIRE  [G] GRID  [Q] QUIT", 30, h-30, 14, ColTextDim)
	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), int32(rl.GetScreenWidth())-90, 30, 14, ColTextDim)
}

func (d *Device) drawGrid(slices int, spacing float32) {
	halfSize := float32(slices) * spacing / 2
	for i := -slices / 2; i <= slices/2; i++ {
		pos := float32(i) * spacing
		rl.DrawLine3D(rl.NewVector3(pos, -0.2, -halfSize), rl.NewVector3(pos, -0.2, halfSize), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-halfSize, -0.2, pos), rl.NewVector3(halfSize, -0.2, pos), ColGrid)
	}
}
