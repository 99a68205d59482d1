package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cascadedrop/internal/export"
	"github.com/san-kum/cascadedrop/internal/physics"
	"github.com/san-kum/cascadedrop/internal/sim"
)

const (
	historyCapacity = 600
	gifPath         = "drop.gif"
	svgPath         = "drop.svg"
)

// Session is one running scene: its loop, the terminal device the loop's
// viewer draws on, and the body whose height is charted.
type Session struct {
	Loop    *sim.Loop
	Device  *Terminal
	Tracked *physics.Body
}

// Builder creates a ready-to-start session for a preset.
type Builder func(preset string) (*Session, error)

// TickMsg advances the session with the matching generation.
type TickMsg struct {
	Gen  int
	Time time.Time
}

type Model struct {
	presets []string
	cursor  int
	inMenu  bool
	build   Builder

	session  *Session
	preset   string
	gen      int
	paused   bool
	heights  []float64
	energies []float64
	err      error
	notice   string
	showHelp bool
}

// NewModel opens the preset menu, or starts the start preset right away
// when it is not empty.
func NewModel(presets []string, build Builder, start string) Model {
	m := Model{presets: presets, build: build, inMenu: true}
	for i, p := range presets {
		if p == start {
			m.cursor = i
		}
	}
	if start != "" {
		m.start(start)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.session == nil {
		return nil
	}
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg{Gen: gen, Time: t} })
}

func (m *Model) start(preset string) {
	m.stop()
	s, err := m.build(preset)
	if err == nil {
		err = s.Loop.Start()
	}
	if err != nil {
		m.err = err
		return
	}
	m.session = s
	m.preset = preset
	m.inMenu = false
	m.paused = false
	m.err = nil
	m.gen++
	m.heights = m.heights[:0]
	m.energies = m.energies[:0]
}

func (m *Model) stop() {
	if m.session != nil {
		_ = m.session.Device.Close()
		m.session.Loop.Stop()
		m.session = nil
	}
}

// Session returns the running session, if any.
func (m Model) Session() *Session { return m.session }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inMenu {
			return m.menuKey(msg)
		}
		return m.simKey(msg)
	case TickMsg:
		if m.session == nil || msg.Gen != m.gen {
			return m, nil
		}
		if !m.paused && m.session.Loop.State() == sim.Running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) menuKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		m.start(m.presets[m.cursor])
		if m.session != nil {
			return m, m.tick()
		}
	}
	return m, nil
}

func (m Model) simKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	dev := m.session.Device
	switch msg.String() {
	case "q", "ctrl+c":
		m.stop()
		return m, tea.Quit
	case "esc":
		m.stop()
		m.inMenu = true
	case " ":
		m.paused = !m.paused
	case "x":
		if dev.Camera != nil {
			dev.Camera.RotateYaw(0.1)
		}
	case "X":
		if dev.Camera != nil {
			dev.Camera.RotateYaw(-0.1)
		}
	case "y":
		if dev.Camera != nil {
			dev.Camera.RotatePitch(0.1)
		}
	case "Y":
		if dev.Camera != nil {
			dev.Camera.RotatePitch(-0.1)
		}
	case "+", "=":
		if dev.Camera != nil {
			dev.Camera.ZoomIn()
		}
	case "-", "_":
		if dev.Camera != nil {
			dev.Camera.ZoomOut()
		}
	case "c":
		dev.ResetCamera()
	case "g":
		if r := dev.Record(); r != nil {
			if err := r.Save(gifPath); err != nil {
				m.notice = "gif: " + err.Error()
			} else {
				m.notice = fmt.Sprintf("saved %d frames to %s", r.Len(), gifPath)
			}
		}
	case "s":
		if err := export.WriteFile(svgPath, export.CanvasToSVG(dev.Canvas, 4)); err != nil {
			m.notice = "svg: " + err.Error()
		} else {
			m.notice = "saved frame to " + svgPath
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) step() {
	loop := m.session.Loop
	if err := loop.Iterate(); err != nil {
		m.err = err
		return
	}
	w := loop.Viewer().World()
	energy := 0.0
	for _, b := range w.Bodies() {
		energy += b.KineticEnergy()
	}
	m.energies = appendCapped(m.energies, energy)
	if m.session.Tracked != nil {
		m.heights = appendCapped(m.heights, m.session.Tracked.Pos()[1])
	}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) View() string {
	if m.inMenu {
		return m.viewMenu()
	}
	return m.viewSim()
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + HeaderStyle.Render("CASCADEDROP") + "\n    " + Subtle.Render("CAD shape drop on a fixed floor") + "\n\n")
	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuCursor.Render("▸"), menuSelected.Render(name)))
		} else {
			b.WriteString(fmt.Sprintf("      %s\n", menuItem.Render(name)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + SparkLow.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuItem.Render(" navigate  ") + menuKey.Render("enter") + menuItem.Render(" start  ") + menuKey.Render("q") + menuItem.Render(" quit") + "\n")
	return b.String()
}

func (m Model) viewSim() string {
	loop := m.session.Loop
	dev := m.session.Device
	res := loop.Result()
	w := loop.Viewer().World()

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.preset)) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(SparkLow.Render("ERROR") + "\n")
	case loop.State() == sim.Stopped:
		s.WriteString(StatusPaused.Render("STOPPED ("+string(res.Reason)+")") + "\n")
	case m.paused:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n")
	default:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n")
	}
	if dev.Recording() {
		s.WriteString(StatusRecording.Render("● REC") + "\n")
	}
	s.WriteString("\n")

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Height"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(MetricLabel.Render("Energy") + SparklineChart(m.energies, 30) + "\n\n")

	s.WriteString(MetricLabel.Render("Time") + MetricValue.Render(fmt.Sprintf("%.3fs", w.Time())) + "\n")
	s.WriteString(MetricLabel.Render("Steps") + MetricValue.Render(fmt.Sprintf("%d", w.StepCount())) + "\n")
	s.WriteString(MetricLabel.Render("Contacts") + MetricValue.Render(fmt.Sprintf("%d", len(w.Contacts()))) + "\n")
	s.WriteString(MetricLabel.Render("Solver") + MetricValue.Render(string(w.SolverType())) + "\n")
	s.WriteString(MetricLabel.Render("Triangles") + MetricValue.Render(fmt.Sprintf("%d", dev.Triangles)) + "\n")
	if m.session.Tracked != nil {
		p := m.session.Tracked.Pos()
		s.WriteString(MetricLabel.Render("Height") + MetricValue.Render(fmt.Sprintf("%.4f m", p[1])) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + SparkLow.Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + Subtle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(24) + "\nSP:Pause C:Camera Q:Quit\nG:Record S:Snap ?:Help ESC:Menu"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(dev.Canvas.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return KeyHint.Render(`
  Space  pause / resume
  x / X  orbit left / right
  y / Y  orbit up / down
  + / -  zoom
  c      reset camera
  g      start / stop GIF recording
  s      save the frame as SVG
  esc    back to presets
  q      quit
`) + "\n" + main
	}
	return main
}

// Run starts the terminal program.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
