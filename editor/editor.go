// Package editor wires the graph store, the viewport camera, the gesture
// controller and the traversal driver into one editing session, and owns the
// commands that span them: running a traversal from the first created node
// and rearranging the graph.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TFMV/graphsketch/config"
	"github.com/TFMV/graphsketch/graph"
	"github.com/TFMV/graphsketch/ids"
	"github.com/TFMV/graphsketch/interaction"
	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
	"github.com/TFMV/graphsketch/physics"
	"github.com/TFMV/graphsketch/render"
	"github.com/TFMV/graphsketch/traversal"
)

// Options configure an Editor
type Options struct {
	Config  *config.Config
	Width   float64 // screen width in viewport units
	Height  float64 // screen height in viewport units
	Logger  *slog.Logger
	Metrics *metrics.Registry
	// OnStep observes traversal steps, e.g. to print them
	OnStep func(traversal.Step)
}

// Editor is one editing session. It is not safe for concurrent use, except
// that Snapshot and Render may be called from other goroutines.
type Editor struct {
	cfg      *config.Config
	store    *graph.Store
	viewport *render.Viewport
	ctrl     *interaction.Controller
	driver   *traversal.Driver
	metrics  *metrics.Registry
	log      *slog.Logger
	walk     *traversal.Walk
	last     *traversal.Result
	cancels  []func()
}

// New creates an empty session
func New(opts Options) (*Editor, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	stageIDs, placeholderIDs, err := ids.ForScheme(cfg.Interaction.IDScheme)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = 800, 600
	}

	e := &Editor{
		cfg:      cfg,
		store:    graph.NewStore(),
		viewport: render.NewViewport(width, height, cfg.Canvas.Padding),
		metrics:  opts.Metrics,
		log:      log,
	}
	e.ctrl = interaction.New(e.store, e.viewport, interaction.Options{
		NodeSize:         cfg.Canvas.NodeSize,
		NodeColor:        cfg.Canvas.NodeColor,
		PlaceholderColor: cfg.Canvas.PlaceholderColor,
		EdgeColor:        cfg.Canvas.EdgeColor,
		Tolerance:        physics.Tolerance{X: cfg.Interaction.ToleranceX, Y: cfg.Interaction.ToleranceY},
		StageIDs:         stageIDs,
		PlaceholderIDs:   placeholderIDs,
		Logger:           log,
		Metrics:          opts.Metrics,
	})
	e.driver = traversal.New(e.store, traversal.Options{
		VisitedColor: cfg.Traversal.VisitedColor,
		Interval:     cfg.Traversal.StepInterval,
		Logger:       log,
		Metrics:      opts.Metrics,
		OnStep:       opts.OnStep,
	})

	e.cancels = append(e.cancels,
		e.viewport.Track(e.store),
		e.store.Subscribe(func(graph.Change) {
			e.metrics.SetGraphSize(e.store.Order(), e.store.Size())
		}),
	)
	e.metrics.SetGraphSize(0, 0)
	return e, nil
}

// Config returns the session settings
func (e *Editor) Config() *config.Config { return e.cfg }

// Store returns the graph store
func (e *Editor) Store() *graph.Store { return e.store }

// Viewport returns the camera
func (e *Editor) Viewport() *render.Viewport { return e.viewport }

// State returns the gesture in progress
func (e *Editor) State() interaction.State { return e.ctrl.State() }

// Vertices returns the stage-created nodes, oldest first
func (e *Editor) Vertices() []models.VertexRecord { return e.ctrl.Vertices() }

// EdgeLog returns the user-drawn edges, oldest first
func (e *Editor) EdgeLog() []models.EdgeRecord { return e.ctrl.EdgeLog() }

// Dispatch forwards a pointer event to the controller
func (e *Editor) Dispatch(ev interaction.Event) (interaction.Reaction, error) {
	return e.ctrl.Dispatch(ev)
}

// TraversalRunning reports whether a stepped walk is in progress
func (e *Editor) TraversalRunning() bool {
	return e.walk != nil
}

// BeginTraversal starts a stepped walk from the first created node. The
// root is colored immediately; call StepTraversal for each further dequeue.
// It fails with a PreconditionError when no node was created, when a walk is
// already running, or while a drag or edge-draw is in progress.
func (e *Editor) BeginTraversal() error {
	root, err := e.traversalRoot()
	if err != nil {
		e.metrics.RecordTraversal(err, 0, 0)
		return err
	}
	w, err := e.driver.Start(root)
	if err != nil {
		return err
	}
	e.walk = w
	return nil
}

// StepTraversal performs one dequeue of the running walk. It returns false
// once the walk is over, successfully or not.
func (e *Editor) StepTraversal() (more bool, err error) {
	if e.walk == nil {
		return false, nil
	}
	more, err = e.walk.Next()
	if more {
		return true, nil
	}
	res := e.walk.Result()
	e.last, e.walk = &res, nil
	if err == nil {
		e.afterTraversal()
	}
	return false, err
}

// Traverse runs a whole walk from the first created node, paced by the
// configured step interval. Its preconditions are those of BeginTraversal.
func (e *Editor) Traverse(ctx context.Context) (*traversal.Result, error) {
	root, err := e.traversalRoot()
	if err != nil {
		e.metrics.RecordTraversal(err, 0, 0)
		return nil, err
	}
	res, err := e.driver.Run(ctx, root)
	e.last = res
	if err != nil {
		return res, err
	}
	e.afterTraversal()
	return res, nil
}

// LastTraversal returns the result of the most recent walk, complete or
// aborted; ok is false before the first walk ends.
func (e *Editor) LastTraversal() (res traversal.Result, ok bool) {
	if e.last == nil {
		return traversal.Result{}, false
	}
	return *e.last, true
}

// Arrange runs the force-directed layout over the graph and moves every
// node except placeholders. It returns the number of nodes moved.
func (e *Editor) Arrange() (int, error) {
	if err := e.requireIdle("arrange"); err != nil {
		return 0, err
	}

	moved := physics.Arrange(e.store.Snapshot(), physics.Options{
		Iterations: e.cfg.Layout.Iterations,
		Jitter:     e.cfg.Layout.Jitter,
		Seed:       e.cfg.Layout.Seed,
	})
	for id, p := range moved {
		err := e.store.UpdateNode(id, func(a models.NodeAttributes) models.NodeAttributes {
			a.SetPosition(p)
			return a
		})
		if err != nil {
			return 0, fmt.Errorf("arrange: %w", err)
		}
	}
	e.metrics.RecordArrange(len(moved))
	e.log.Info("graph arranged", "moved", len(moved))
	return len(moved), nil
}

// Snapshot returns a detached copy of the graph
func (e *Editor) Snapshot() *models.Graph {
	return e.store.Snapshot()
}

// RenderOptions returns export options carrying the canvas colors
func (e *Editor) RenderOptions(format string) *render.OutputOptions {
	opts := render.NewDefaultOptions(format)
	opts.Background = e.cfg.Canvas.Background
	opts.NodeColor = e.cfg.Canvas.NodeColor
	opts.EdgeColor = e.cfg.Canvas.EdgeColor
	opts.Padding = e.cfg.Canvas.Padding
	return opts
}

// Render exports the current graph in format
func (e *Editor) Render(format string) ([]byte, error) {
	return render.GenerateWithOptions(e.store.Snapshot(), e.RenderOptions(format))
}

// Close detaches the session's store observers
func (e *Editor) Close() {
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
}

func (e *Editor) traversalRoot() (string, error) {
	if err := e.requireIdle("traverse"); err != nil {
		return "", err
	}
	vertices := e.ctrl.Vertices()
	if len(vertices) == 0 {
		return "", &models.PreconditionError{Op: "traverse", Reason: "no starting node"}
	}
	return vertices[0].ID, nil
}

func (e *Editor) requireIdle(op string) error {
	if e.walk != nil {
		return &models.PreconditionError{Op: op, Reason: "a traversal is running"}
	}
	if s := e.ctrl.State(); s != (interaction.Neutral{}) {
		return &models.PreconditionError{Op: op, Reason: fmt.Sprintf("gesture in progress (%s)", s)}
	}
	return nil
}

func (e *Editor) afterTraversal() {
	if e.cfg.Traversal.ResetLogs {
		e.ctrl.ResetLogs()
		e.log.Debug("vertex and edge logs reset")
	}
}
