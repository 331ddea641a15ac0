package editor

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/graphsketch/config"
	"github.com/TFMV/graphsketch/interaction"
	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
	"github.com/TFMV/graphsketch/traversal"
)

// On an 800x600 screen with 0.1 padding, the first press freezes the
// unit box at scale 480, centered on (400, 300).
var (
	topLeft     = models.Point{X: 160, Y: 60}  // graph (0, 0)
	center      = models.Point{X: 400, Y: 300} // graph (0.5, 0.5)
	bottomRight = models.Point{X: 640, Y: 540} // graph (1, 1)
)

func newEditor(t *testing.T, mutate func(*config.Config)) (*Editor, *metrics.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.Traversal.StepInterval = 0
	if mutate != nil {
		mutate(cfg)
	}
	reg := metrics.NewRegistry()
	e, err := New(Options{Config: cfg, Metrics: reg})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, reg
}

func dispatch(t *testing.T, e *Editor, events ...interaction.Event) {
	t.Helper()
	for _, ev := range events {
		_, err := e.Dispatch(ev)
		require.NoError(t, err, ev.Kind.String())
	}
}

// buildPath draws 0 - 1 - 2 through gestures
func buildPath(t *testing.T, e *Editor) {
	t.Helper()
	dispatch(t, e,
		interaction.Event{Kind: interaction.DownOnStage, Screen: topLeft},
		interaction.Event{Kind: interaction.DownOnStage, Screen: center},
		interaction.Event{Kind: interaction.DownOnStage, Screen: bottomRight},
		interaction.Event{Kind: interaction.DoubleClickOnNode, Node: "0", Screen: topLeft},
		interaction.Event{Kind: interaction.DownOnNode, Node: "1", Screen: center},
		interaction.Event{Kind: interaction.DoubleClickOnNode, Node: "1", Screen: center},
		interaction.Event{Kind: interaction.DownOnStage, Screen: bottomRight},
	)
}

func TestGesturesBuildGraph(t *testing.T) {
	e, _ := newEditor(t, nil)
	buildPath(t, e)

	assert.Equal(t, 3, e.Store().Order())
	assert.True(t, e.Store().HasEdge("0", "1"))
	assert.True(t, e.Store().HasEdge("1", "2"))
	assert.Equal(t, []models.EdgeRecord{{Source: "0", Target: "1"}, {Source: "1", Target: "2"}}, e.EdgeLog())
	assert.Equal(t, interaction.Neutral{}, e.State())

	n, err := e.Store().NodeAttributes("2")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, n.X, 1e-9)
	assert.InDelta(t, 1.0, n.Y, 1e-9)
	assert.True(t, e.Viewport().HasFrozenViewport())
}

func TestSteppedTraversalFromFirstVertex(t *testing.T) {
	var steps []traversal.Step
	cfg := config.Default()
	e, err := New(Options{Config: cfg, OnStep: func(s traversal.Step) { steps = append(steps, s) }})
	require.NoError(t, err)
	defer e.Close()
	buildPath(t, e)

	require.NoError(t, e.BeginTraversal())
	assert.True(t, e.TraversalRunning())

	for {
		more, err := e.StepTraversal()
		require.NoError(t, err)
		if !more {
			break
		}
	}
	assert.False(t, e.TraversalRunning())

	order := make([]string, len(steps))
	for i, s := range steps {
		order[i] = s.Node
	}
	assert.Equal(t, []string{"0", "1", "2"}, order)
	assert.Empty(t, e.Vertices(), "logs reset after a completed walk")
	assert.Empty(t, e.EdgeLog())

	more, err := e.StepTraversal()
	assert.NoError(t, err)
	assert.False(t, more)
}

func TestEdgeDrawDuringSteppedTraversal(t *testing.T) {
	e, _ := newEditor(t, nil)
	buildPath(t, e)
	require.NoError(t, e.BeginTraversal())

	dispatch(t, e, interaction.Event{Kind: interaction.DoubleClickOnNode, Node: "1", Screen: center})
	drawing, ok := e.State().(interaction.EdgeDrawing)
	require.True(t, ok)

	for range 2 {
		more, err := e.StepTraversal()
		require.NoError(t, err)
		require.True(t, more)
	}
	placeholder, err := e.Store().NodeAttributes(drawing.Placeholder)
	require.NoError(t, err)
	assert.NotEqual(t, "green", placeholder.Color, "placeholders are not visited")

	// resolve on empty stage, dropping the placeholder mid-walk
	dispatch(t, e, interaction.Event{Kind: interaction.DownOnStage, Screen: models.Point{X: 0, Y: 0}})
	require.False(t, e.Store().HasNode(drawing.Placeholder))

	more, err := e.StepTraversal()
	require.NoError(t, err)
	assert.False(t, more)

	res, ok := e.LastTraversal()
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1", "2"}, res.Order)
	assert.Equal(t, 3, e.Store().Order())
	assert.Empty(t, e.Vertices(), "logs reset after a completed walk")
}

func TestTraverse(t *testing.T) {
	e, reg := newEditor(t, func(c *config.Config) { c.Traversal.ResetLogs = false })
	buildPath(t, e)

	res, err := e.Traverse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, res.Order)
	assert.Equal(t, []models.EdgeKey{models.NewEdgeKey("0", "1"), models.NewEdgeKey("1", "2")}, res.Edges)
	assert.Len(t, e.Vertices(), 3, "logs kept when reset_logs is off")
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TraversalsTotal.WithLabelValues(metrics.OutcomeOK)))

	svg, err := e.Render("svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "green")
}

func TestTraversalNeedsAVertex(t *testing.T) {
	e, reg := newEditor(t, nil)

	err := e.BeginTraversal()
	assert.ErrorIs(t, err, models.ErrPrecondition)
	_, err = e.Traverse(context.Background())
	assert.ErrorIs(t, err, models.ErrPrecondition)
	assert.False(t, e.TraversalRunning())
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.TraversalsTotal.WithLabelValues(metrics.OutcomePrecondition)))
}

func TestCommandsRefusedWhileBusy(t *testing.T) {
	e, _ := newEditor(t, nil)
	buildPath(t, e)

	dispatch(t, e, interaction.Event{Kind: interaction.DoubleClickOnNode, Node: "2", Screen: bottomRight})
	require.IsType(t, interaction.EdgeDrawing{}, e.State())
	assert.ErrorIs(t, e.BeginTraversal(), models.ErrPrecondition)
	_, err := e.Arrange()
	assert.ErrorIs(t, err, models.ErrPrecondition)

	dispatch(t, e, interaction.Event{Kind: interaction.DownOnStage, Screen: models.Point{X: 790, Y: 10}})
	require.NoError(t, e.BeginTraversal())
	assert.ErrorIs(t, e.BeginTraversal(), models.ErrPrecondition)
	_, err = e.Arrange()
	assert.ErrorIs(t, err, models.ErrPrecondition)
}

func TestArrangeSeparatesStackedNodes(t *testing.T) {
	e, reg := newEditor(t, nil)
	dispatch(t, e,
		interaction.Event{Kind: interaction.DownOnStage, Screen: center},
		interaction.Event{Kind: interaction.DownOnStage, Screen: center},
	)

	moved, err := e.Arrange()
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	a, _ := e.Store().NodeAttributes("0")
	b, _ := e.Store().NodeAttributes("1")
	assert.NotEqual(t, a.Position(), b.Position())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ArrangeRunsTotal))
}

func TestGraphSizeGauges(t *testing.T) {
	e, reg := newEditor(t, nil)
	buildPath(t, e)
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.GraphNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.GraphEdges))

	e.Close()
	dispatch(t, e, interaction.Event{Kind: interaction.DownOnStage, Screen: center})
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.GraphNodes), "closed sessions stop publishing")
}

func TestRenderUsesCanvasColors(t *testing.T) {
	e, _ := newEditor(t, func(c *config.Config) { c.Canvas.Background = "#101010" })
	dispatch(t, e, interaction.Event{Kind: interaction.DownOnStage, Screen: center})

	for _, format := range []string{"svg", "ascii", "json", "dot"} {
		out, err := e.Render(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, out, format)
	}
	svg, _ := e.Render("svg")
	assert.Contains(t, string(svg), "#101010")

	_, err := e.Render("png")
	assert.Error(t, err)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Interaction.IDScheme = "bogus"
	_, err := New(Options{Config: cfg})
	assert.Error(t, err)
}
