package viewer

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/cascadedrop/internal/physics"
)

func testWorld(t *testing.T) (*physics.World, *physics.Body, *physics.Body) {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	floor, err := w.NewBoxBody(1, 0.2, 1, 1000, true, true)
	if err != nil {
		t.Fatal(err)
	}
	floor.SetPos(mgl64.Vec3{0, -0.3, 0})
	floor.SetFixed(true)
	floor.AddAsset(physics.NewColorAsset(0.2, 0.2, 0.5))
	box, err := w.NewBoxBody(0.1, 0.1, 0.1, 1000, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add(floor); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(box); err != nil {
		t.Fatal(err)
	}
	return w, floor, box
}

func TestBindAllCreatesOneProxyPerBody(t *testing.T) {
	g := NewWithT(t)
	w, floor, _ := testWorld(t)
	v := New(w, NewHeadless(1), DefaultOptions(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	g.Expect(errors.Is(v.Ready(), ErrNotReady)).To(BeTrue())

	v.BindAll()
	g.Expect(v.ProxyCount()).To(Equal(len(w.Bodies())))
	g.Expect(errors.Is(v.Ready(), ErrNotReady)).To(BeTrue(), "bound but not updated")

	v.UpdateAll()
	g.Expect(v.Ready()).To(Succeed())

	// Binding again must not duplicate proxies.
	v.BindAll()
	g.Expect(v.ProxyCount()).To(Equal(2))

	p := v.Proxies()[0]
	g.Expect(p.Body).To(BeIdenticalTo(floor))
	g.Expect(p.Color).To(Equal([3]float32{0.2, 0.2, 0.5}))
	g.Expect(p.Triangles).To(HaveLen(12))
	g.Expect(v.Proxies()[1].Color).To(Equal(DefaultColor))
}

func TestLateBodyNeedsBinding(t *testing.T) {
	g := NewWithT(t)
	w, _, _ := testWorld(t)
	v := New(w, NewHeadless(1), DefaultOptions(), nil)
	v.BindAll()
	v.UpdateAll()

	late, _ := w.NewBoxBody(0.1, 0.1, 0.1, 1000, true, true)
	g.Expect(v.Update(late)).To(MatchError(ErrNotReady))
	g.Expect(w.Add(late)).To(Succeed())
	g.Expect(v.Ready()).To(MatchError(ErrNotReady))

	v.Bind(late)
	g.Expect(v.Update(late)).To(Succeed())
	g.Expect(v.Ready()).To(Succeed())
}

func TestAssetAddedAfterUpdateMarksProxyStale(t *testing.T) {
	g := NewWithT(t)
	w, _, box := testWorld(t)
	v := New(w, NewHeadless(1), DefaultOptions(), nil)
	v.BindAll()
	v.UpdateAll()
	g.Expect(v.Ready()).To(Succeed())

	box.AddAsset(physics.NewColorAsset(0.9, 0.1, 0.1))
	p := v.Proxies()[1]
	g.Expect(p.Updated()).To(BeFalse())
	g.Expect(v.Ready()).To(MatchError(ErrNotReady))
	g.Expect(p.Color).To(Equal(DefaultColor))

	g.Expect(v.Update(box)).To(Succeed())
	g.Expect(v.Ready()).To(Succeed())
	g.Expect(p.Color).To(Equal([3]float32{0.9, 0.1, 0.1}))
}

func TestMissingAssetsWarn(t *testing.T) {
	g := NewWithT(t)
	w, _, _ := testWorld(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	dir := t.TempDir()
	g.Expect(os.MkdirAll(filepath.Join(dir, "skybox"), 0755)).To(Succeed())

	opts := DefaultOptions()
	opts.DataPath = dir
	v := New(w, NewHeadless(1), opts, log)
	v.AddTypicalSky("skybox/")
	v.AddTypicalLogo("logo_pychrono_alpha.png")

	g.Expect(v.Frame().SkyDir).To(Equal(filepath.Join(dir, "skybox")))
	g.Expect(v.Frame().Logo).To(BeEmpty())
	g.Expect(strings.Count(buf.String(), "asset not found")).To(Equal(1))
}

func TestSceneCallOrder(t *testing.T) {
	g := NewWithT(t)
	w, floor, box := testWorld(t)
	dev := NewHeadless(0)
	v := New(w, dev, DefaultOptions(), nil)
	v.AddTypicalCamera(mgl64.Vec3{0.2, 0.2, -0.2})
	v.AddTypicalLights()
	v.BindAll()
	v.UpdateAll()

	g.Expect(v.DoStep()).To(MatchError(ErrInvalidTimestep))
	g.Expect(v.SetTimestep(0)).To(MatchError(ErrInvalidTimestep))
	g.Expect(v.SetTimestep(0.005)).To(Succeed())

	start := box.Pos()
	for i := 0; i < 3 && dev.Run(); i++ {
		v.BeginScene()
		v.DrawAll()
		g.Expect(v.DoStep()).To(Succeed())
		v.EndScene()
	}
	g.Expect(dev.Calls[:4]).To(Equal([]string{"begin", "draw", "end", "begin"}))
	g.Expect(dev.Frames).To(Equal(3))
	g.Expect(dev.Triangles).To(Equal(24))
	g.Expect(box.Pos()).NotTo(Equal(start))
	g.Expect(floor.Pos()).To(Equal(mgl64.Vec3{0, -0.3, 0}))

	// DrawAll picks up the pose of the last step.
	v.DrawAll()
	g.Expect(v.Proxies()[1].Pose).To(Equal(box.Pose()))

	g.Expect(v.Close()).To(Succeed())
	g.Expect(dev.Run()).To(BeFalse())
}

func TestShade(t *testing.T) {
	g := NewWithT(t)
	f := &Frame{}
	base := [3]float32{0.5, 0.5, 0.5}
	g.Expect(f.Shade(base, mgl64.Vec3{0, 1, 0})).To(Equal(base), "unlit frames keep the base color")

	f.Ambient = 0.25
	f.Lights = []Light{{Direction: mgl64.Vec3{0, 1, 0}, Intensity: 1, Color: [3]float32{1, 1, 1}}}
	up := f.Shade(base, mgl64.Vec3{0, 1, 0})
	down := f.Shade(base, mgl64.Vec3{0, -1, 0})
	g.Expect(up[0]).To(BeNumerically("~", 0.625, 1e-6))
	g.Expect(down[0]).To(BeNumerically("~", 0.125, 1e-6))

	bright := f.Shade([3]float32{1, 1, 1}, mgl64.Vec3{0, 1, 0})
	g.Expect(bright[0]).To(BeNumerically("<=", 1))
}

func TestHeadlessFrameBudget(t *testing.T) {
	dev := NewHeadless(2)
	n := 0
	for dev.Run() {
		dev.BeginScene(nil)
		dev.Draw(nil, nil)
		dev.EndScene()
		n++
	}
	if n != 2 {
		t.Errorf("ran %d frames, expected 2", n)
	}
}
