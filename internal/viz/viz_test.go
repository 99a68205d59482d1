package viz

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/cascadedrop/internal/logging"
	"github.com/san-kum/cascadedrop/internal/physics"
	"github.com/san-kum/cascadedrop/internal/sim"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	pw, ph := c.PixelSize()
	if pw != 8 || ph != 8 {
		t.Fatalf("unexpected pixel size %dx%d", pw, ph)
	}
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("pixel (%d,%d) not set", i, i)
		}
	}
	if c.IsSet(7, 0) {
		t.Error("unexpected pixel set")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 2 {
		t.Errorf("expected 2 rows, got %d", lines)
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left pixels set")
	}
	// Off-canvas lines are ignored.
	c.DrawLine(-10, -10, -1, -5)
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != '\n' && r != brailleBlank }) {
		t.Error("off-canvas line drew pixels")
	}
}

func TestCameraProjectsTargetToCenter(t *testing.T) {
	cam := CameraFrom(viewer.Camera{Position: mgl64.Vec3{0.2, 0.2, -0.2}, FOV: 45})
	x, y, depth, ok := cam.Project(mgl64.Vec3{}, 160, 96)
	if !ok {
		t.Fatal("target should be visible")
	}
	if x != 80 || y != 48 {
		t.Errorf("target projected to (%d,%d)", x, y)
	}
	if d := (mgl64.Vec3{0.2, 0.2, -0.2}).Len(); depth < d-1e-9 || depth > d+1e-9 {
		t.Errorf("depth %g, expected %g", depth, d)
	}
	if pos := cam.Position(); pos.Sub(mgl64.Vec3{0.2, 0.2, -0.2}).Len() > 1e-9 {
		t.Errorf("camera position %v", pos)
	}

	// Points above the target land higher on screen.
	_, yUp, _, _ := cam.Project(mgl64.Vec3{0, 0.05, 0}, 160, 96)
	if yUp >= y {
		t.Errorf("expected y < %d, got %d", y, yUp)
	}

	// Behind the camera is invisible.
	if _, _, _, ok := cam.Project(mgl64.Vec3{1, 1, -1}, 160, 96); ok {
		t.Error("point behind the camera should not be visible")
	}
}

func testSession(t *testing.T, maxSteps int) *Session {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	floor, _ := w.NewBoxBody(1, 0.2, 1, 1000, true, true)
	floor.SetPos(mgl64.Vec3{0, -0.3, 0})
	floor.SetFixed(true)
	box, _ := w.NewBoxBody(0.1, 0.1, 0.1, 1000, true, true)
	_ = w.Add(floor)
	_ = w.Add(box)

	dev := NewTerminal(width, height)
	v := viewer.New(w, dev, viewer.DefaultOptions(), logging.Discard())
	v.AddTypicalCamera(mgl64.Vec3{0.2, 0.2, -0.2})
	v.BindAll()
	v.UpdateAll()
	if err := v.SetTimestep(0.005); err != nil {
		t.Fatal(err)
	}
	return &Session{Loop: sim.New(v, sim.Config{MaxSteps: maxSteps}), Device: dev, Tracked: box}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRunsSession(t *testing.T) {
	var built []string
	build := func(p string) (*Session, error) {
		built = append(built, p)
		return testSession(t, 0), nil
	}
	m := NewModel([]string{"default", "heavy"}, build, "heavy")
	if m.Session() == nil || len(built) != 1 || built[0] != "heavy" {
		t.Fatalf("expected heavy session, built %v", built)
	}
	if m.Init() == nil {
		t.Error("expected a tick command")
	}

	var tm tea.Model = m
	for i := 0; i < 10; i++ {
		tm, _ = tm.Update(TickMsg{Gen: 1})
	}
	m = tm.(Model)
	steps := m.Session().Loop.Result().StepsTaken
	if steps != 10 {
		t.Errorf("expected 10 steps, got %d", steps)
	}
	if m.Session().Device.Triangles == 0 {
		t.Error("expected triangles drawn")
	}
	if !strings.Contains(m.View(), "RUNNING") {
		t.Error("view should show RUNNING")
	}

	// Stale generations are ignored.
	tm, _ = tm.Update(TickMsg{Gen: 0})
	if tm.(Model).Session().Loop.Result().StepsTaken != steps {
		t.Error("stale tick advanced the loop")
	}

	// Pause stops stepping.
	tm, _ = tm.Update(key(" "))
	tm, _ = tm.Update(TickMsg{Gen: 1})
	if tm.(Model).Session().Loop.Result().StepsTaken != steps {
		t.Error("paused model advanced the loop")
	}
	if !strings.Contains(tm.(Model).View(), "PAUSED") {
		t.Error("view should show PAUSED")
	}

	_, cmd := tm.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelMenu(t *testing.T) {
	build := func(p string) (*Session, error) {
		if p == "broken" {
			return nil, errors.New("broken preset")
		}
		return testSession(t, 3), nil
	}
	var tm tea.Model = NewModel([]string{"broken", "default"}, build, "")
	if tm.(Model).Session() != nil {
		t.Fatal("menu should not start a session")
	}
	if !strings.Contains(tm.View(), "CASCADEDROP") {
		t.Error("menu view missing title")
	}

	tm, _ = tm.Update(key("enter"))
	if tm.(Model).Session() != nil || !strings.Contains(tm.View(), "broken preset") {
		t.Error("build error should be shown in the menu")
	}

	tm, _ = tm.Update(key("down"))
	tm, cmd := tm.Update(key("enter"))
	if tm.(Model).Session() == nil || cmd == nil {
		t.Fatal("expected session to start")
	}
	for i := 0; i < 5; i++ {
		tm, _ = tm.Update(TickMsg{Gen: 1})
	}
	loop := tm.(Model).Session().Loop
	if loop.State() != sim.Stopped || loop.Result().StepsTaken != 3 {
		t.Errorf("expected stop after 3 steps, got %s with %d", loop.State(), loop.Result().StepsTaken)
	}
	if !strings.Contains(tm.View(), "STOPPED") {
		t.Error("view should show STOPPED")
	}

	tm, _ = tm.Update(key("esc"))
	if tm.(Model).Session() != nil {
		t.Error("esc should close the session")
	}
}

func TestRecorder(t *testing.T) {
	s := testSession(t, 0)
	if err := s.Loop.Start(); err != nil {
		t.Fatal(err)
	}
	if r := s.Device.Record(); r != nil {
		t.Fatal("first call starts recording")
	}
	for i := 0; i < 3; i++ {
		if err := s.Loop.Iterate(); err != nil {
			t.Fatal(err)
		}
	}
	r := s.Device.Record()
	if r == nil || r.Len() != 3 {
		t.Fatalf("expected 3 frames, got %v", r)
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("GIF89a")) {
		t.Error("expected GIF header")
	}
	if s.Device.Recording() {
		t.Error("recording should have stopped")
	}
}
