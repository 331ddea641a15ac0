// Package tui is the terminal front end of the editor. It turns terminal
// mouse reports into pointer events for the gesture controller, paints the
// graph as a character canvas, and schedules traversal steps on the
// bubbletea event loop so every level is painted before the next one starts.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/TFMV/graphsketch/editor"
	"github.com/TFMV/graphsketch/interaction"
	"github.com/TFMV/graphsketch/models"
	"github.com/TFMV/graphsketch/render"
)

// Terminal cells are about twice as tall as wide
const cellAspect = 2.0

// Rows taken by the title, status and help lines
const (
	canvasTop   = 1
	chromeLines = 3
)

// Default terminal size until the first WindowSizeMsg
const (
	defaultWidth  = 80
	defaultHeight = 24
)

type stepMsg struct{}

// Option customizes a Model
type Option func(*Model)

// WithClock replaces time.Now for double-click detection
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithLogger sets the logger for front-end events
func WithLogger(log *slog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// pointer tracks the press and click history of the mouse
type pointer struct {
	pressed   bool
	onStage   bool // the press began on empty stage
	last      models.Point
	hover     string
	clickNode string // node of the previous release, for double clicks
	clickAt   time.Time
}

// Model is the bubbletea model of the editor
type Model struct {
	ed       *editor.Editor
	keys     keyMap
	help     help.Model
	palette  *palette
	log      *slog.Logger
	now      func() time.Time
	width    int
	height   int
	ptr      *pointer
	message  string
	errMsg   bool
	quitting bool
}

// New creates the model for an editing session
func New(ed *editor.Editor, opts ...Option) Model {
	m := Model{
		ed:      ed,
		keys:    keys,
		help:    help.New(),
		palette: newPalette(ed.Config().Canvas.Background),
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
		ptr:     &pointer{},
		message: "click to add nodes, double-click a node to draw an edge",
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.log = m.log.With("component", "tui")
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Run starts the interactive program and blocks until it exits
func Run(ed *editor.Editor, opts ...Option) error {
	p := tea.NewProgram(New(ed, opts...), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case stepMsg:
		return m.step()
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	cols, rows := m.canvasSize()
	m.ed.Viewport().Resize(float64(cols), float64(rows)*cellAspect)
}

func (m Model) canvasSize() (cols, rows int) {
	return max(m.width, 1), max(m.height-chromeLines, 1)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Traverse):
		if err := m.ed.BeginTraversal(); err != nil {
			m.fail(err)
			return m, nil
		}
		m.notify("traversal started")
		return m, m.scheduleStep()

	case key.Matches(msg, m.keys.Arrange):
		moved, err := m.ed.Arrange()
		if err != nil {
			m.fail(err)
			return m, nil
		}
		m.notify(fmt.Sprintf("arranged %d nodes", moved))

	case key.Matches(msg, m.keys.Refit):
		m.ed.Viewport().Unfreeze()
		m.notify("view fitted to the graph")
	}
	return m, nil
}

func (m Model) scheduleStep() tea.Cmd {
	return tea.Tick(m.ed.Config().Traversal.StepInterval, func(time.Time) tea.Msg {
		return stepMsg{}
	})
}

func (m Model) step() (tea.Model, tea.Cmd) {
	more, err := m.ed.StepTraversal()
	if err != nil {
		m.fail(err)
		return m, nil
	}
	if more {
		return m, m.scheduleStep()
	}
	if res, ok := m.ed.LastTraversal(); ok {
		m.notify(fmt.Sprintf("traversal finished: %s", strings.Join(res.Order, " → ")))
	}
	return m, nil
}

// handleMouse translates a terminal mouse report into pointer events
func (m *Model) handleMouse(msg tea.MouseMsg) {
	ev := tea.MouseEvent(msg)
	col, row := msg.X, msg.Y-canvasTop
	cols, rows := m.canvasSize()
	if col < 0 || col >= cols || row < 0 || row >= rows {
		// presses outside the canvas are ignored; moves and releases are
		// clamped so a drag always ends
		if msg.Action == tea.MouseActionPress {
			return
		}
		col, row = min(max(col, 0), cols-1), min(max(row, 0), rows-1)
	}
	raster := m.hitRaster(cols, rows)
	screen := raster.CellCenter(col, row)
	node, onNode := raster.NodeAt(col, row, m.ed.Config().Canvas.HitRadius)

	switch {
	case ev.IsWheel():
		m.dispatch(interaction.Event{Kind: interaction.Wheel, Screen: screen})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if onNode {
			// a press on a node lands on the node itself, however coarse the
			// cell is in graph units
			if a, err := m.ed.Store().NodeAttributes(node); err == nil {
				screen = m.ed.Viewport().GraphToViewport(a.Position())
			}
			m.dispatch(interaction.Event{Kind: interaction.DownOnNode, Node: node, Screen: screen})
		} else {
			m.dispatch(interaction.Event{Kind: interaction.DownOnStage, Screen: screen})
		}
		m.ptr.pressed, m.ptr.onStage, m.ptr.last = true, !onNode, screen

	case msg.Action == tea.MouseActionRelease:
		m.dispatch(interaction.Event{Kind: interaction.PointerUp, Screen: screen})
		m.ptr.pressed = false
		m.click(node, onNode, screen)

	case msg.Action == tea.MouseActionMotion:
		reaction := m.dispatch(interaction.Event{Kind: interaction.PointerMove, Screen: screen})
		if m.ptr.pressed && m.ptr.onStage && !reaction.SuppressCamera {
			m.ed.Viewport().Pan(screen.X-m.ptr.last.X, screen.Y-m.ptr.last.Y)
		}
		m.ptr.last = screen
		if onNode && node != m.ptr.hover {
			m.dispatch(interaction.Event{Kind: interaction.EnterNode, Node: node, Screen: screen})
		}
		m.ptr.hover = node
	}
}

// click records a completed click and reports a double click when the same
// node was clicked twice within the window
func (m *Model) click(node string, onNode bool, screen models.Point) {
	now := m.now()
	window := m.ed.Config().Interaction.DoubleClickWindow
	if onNode && node == m.ptr.clickNode && now.Sub(m.ptr.clickAt) <= window {
		m.ptr.clickNode = ""
		m.dispatch(interaction.Event{Kind: interaction.DoubleClickOnNode, Node: node, Screen: screen})
		return
	}
	m.ptr.clickNode, m.ptr.clickAt = "", now
	if onNode {
		m.ptr.clickNode = node
	}
}

func (m *Model) dispatch(ev interaction.Event) interaction.Reaction {
	reaction, err := m.ed.Dispatch(ev)
	if err != nil {
		m.fail(err)
	}
	return reaction
}

// hitRaster rasterizes the graph without placeholders, which follow the
// pointer and would otherwise hide the node under it
func (m Model) hitRaster(cols, rows int) *render.Raster {
	g := m.ed.Snapshot()
	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if !n.IsPlaceholder() {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes
	return render.Rasterize(g, m.ed.Viewport(), cols, rows, cellAspect)
}

func (m *Model) notify(s string) {
	m.message, m.errMsg = s, false
}

func (m *Model) fail(err error) {
	m.message, m.errMsg = err.Error(), true
	m.log.Warn("command failed", "error", err)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cols, rows := m.canvasSize()
	raster := render.Rasterize(m.ed.Snapshot(), m.ed.Viewport(), cols, rows, cellAspect)

	var b strings.Builder
	b.WriteString(titleStyle.Render("graphsketch"))
	b.WriteByte('\n')
	b.WriteString(m.paint(raster))
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// paint renders the raster row by row, styling runs of equal color together
func (m Model) paint(r *render.Raster) string {
	var b strings.Builder
	for _, row := range r.Cells {
		var run strings.Builder
		color := ""
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(m.palette.style(color).Render(run.String()))
				run.Reset()
			}
		}
		for _, c := range row {
			if c.Color != color {
				flush()
				color = c.Color
			}
			run.WriteRune(c.Rune)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) statusLine() string {
	st := m.ed.State()
	parts := []string{
		stateStyle.Render(st.String()),
		statsStyle.Render(fmt.Sprintf("nodes:%d edges:%d", m.ed.Store().Order(), m.ed.Store().Size())),
	}
	if m.ed.TraversalRunning() {
		parts = append(parts, successStyle.Render("traversing"))
	}
	if m.message != "" {
		style := statsStyle
		if m.errMsg {
			style = errorStyle
		}
		parts = append(parts, style.Render(m.message))
	}
	return " " + strings.Join(parts, "  ")
}
