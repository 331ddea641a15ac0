// Package interaction turns pointer events into graph edits. The Controller
// is a small state machine: pressing a node drags it, double-clicking a node
// starts drawing an edge to a pointer-following placeholder, and the next
// press resolves that edge against whatever node lies under the pointer.
package interaction

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/TFMV/graphsketch/ids"
	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
	"github.com/TFMV/graphsketch/physics"
)

// Defaults applied by New to zero-valued options
const (
	DefaultNodeSize         = 20
	DefaultPlaceholderColor = "rgba(0, 0, 0)"
	DefaultTolerance        = 0.05
)

// Options configure a Controller
type Options struct {
	NodeSize         float64
	NodeColor        string
	PlaceholderColor string
	EdgeColor        string
	Tolerance        physics.Tolerance
	StageIDs         ids.Allocator // ids of nodes created on the stage
	PlaceholderIDs   ids.Allocator // ids of edge-draw placeholders
	Logger           *slog.Logger
	Metrics          *metrics.Registry
}

// Controller applies gestures to a graph store
type Controller struct {
	store    Store
	surface  Surface
	opts     Options
	log      *slog.Logger
	state    State
	vertices []models.VertexRecord
	edges    []models.EdgeRecord
}

// New creates a controller in the Neutral state
func New(store Store, surface Surface, opts Options) *Controller {
	if opts.NodeSize <= 0 {
		opts.NodeSize = DefaultNodeSize
	}
	if opts.PlaceholderColor == "" {
		opts.PlaceholderColor = DefaultPlaceholderColor
	}
	if opts.Tolerance == (physics.Tolerance{}) {
		opts.Tolerance = physics.Tolerance{X: DefaultTolerance, Y: DefaultTolerance}
	}
	if opts.StageIDs == nil {
		opts.StageIDs = ids.NewCounter(0)
	}
	if opts.PlaceholderIDs == nil {
		opts.PlaceholderIDs = ids.UUID{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:   store,
		surface: surface,
		opts:    opts,
		log:     log.With("component", "interaction"),
		state:   Neutral{},
	}
}

// State returns the gesture in progress
func (c *Controller) State() State {
	return c.state
}

// Vertices returns the log of stage-created nodes, oldest first
func (c *Controller) Vertices() []models.VertexRecord {
	return slices.Clone(c.vertices)
}

// EdgeLog returns the log of user-drawn edges, oldest first
func (c *Controller) EdgeLog() []models.EdgeRecord {
	return slices.Clone(c.edges)
}

// ResetLogs clears the vertex and edge logs
func (c *Controller) ResetLogs() {
	c.vertices = nil
	c.edges = nil
}

// Dispatch applies one event. On error the gesture in progress is abandoned
// and the controller is back in Neutral before the error is returned.
func (c *Controller) Dispatch(ev Event) (Reaction, error) {
	if (ev.Kind == DownOnNode || ev.Kind == DownOnStage) && !c.surface.HasFrozenViewport() {
		c.surface.FreezeCurrentViewport()
		c.log.Debug("viewport frozen")
	}

	prev := c.state
	next, reaction, err := c.handle(prev, ev)
	if err != nil {
		c.abandon(next)
		c.state = Neutral{}
		c.log.Warn("gesture failed", "event", ev.Kind, "node", ev.Node, "state", prev, "error", err)
	} else {
		c.state = next
		if next != prev {
			c.log.Debug("gesture", "event", ev.Kind, "node", ev.Node, "from", prev, "to", next)
		}
	}
	c.opts.Metrics.RecordGesture(ev.Kind.String(), err)
	return reaction, err
}

func (c *Controller) handle(s State, ev Event) (State, Reaction, error) {
	switch ev.Kind {
	case DownOnStage:
		return c.downOnStage(s, ev)
	case DownOnNode:
		return c.downOnNode(s, ev)
	case DoubleClickOnNode:
		return c.doubleClickOnNode(s, ev)
	case PointerMove:
		return c.pointerMove(s, ev)
	case PointerUp:
		return c.pointerUp(s)
	case EnterNode:
		return c.enterNode(s, ev)
	case Wheel:
		return s, Reaction{SuppressCamera: true}, nil
	default:
		return s, Reaction{}, fmt.Errorf("dispatch: unknown event %s", ev.Kind)
	}
}

func (c *Controller) downOnStage(s State, ev Event) (State, Reaction, error) {
	switch s := s.(type) {
	case EdgeDrawing:
		next, err := c.resolve(s, ev)
		return next, Reaction{}, err
	case Dragging:
		c.release(s)
	}

	p := c.surface.ViewportToGraph(ev.Screen)
	id := c.opts.StageIDs.Next()
	if err := c.store.AddNode(id, models.NewNodeAttributes(p, c.opts.NodeSize, c.opts.NodeColor)); err != nil {
		return Neutral{}, Reaction{}, fmt.Errorf("create node %q: %w", id, err)
	}
	c.vertices = append(c.vertices, models.VertexRecord{ID: id})
	c.opts.Metrics.RecordNodeCreated("stage")
	c.log.Debug("node created", "node", id, "x", p.X, "y", p.Y)
	return Neutral{}, Reaction{}, nil
}

func (c *Controller) downOnNode(s State, ev Event) (State, Reaction, error) {
	switch s := s.(type) {
	case EdgeDrawing:
		next, err := c.resolve(s, ev)
		return next, Reaction{}, err
	case Dragging:
		c.release(s)
	}

	if err := c.requireNode("drag", ev.Node); err != nil {
		return Neutral{}, Reaction{}, err
	}
	if err := c.store.SetNodeAttribute(ev.Node, models.AttrHighlighted, true); err != nil {
		return Neutral{}, Reaction{}, fmt.Errorf("highlight %q: %w", ev.Node, err)
	}
	return Dragging{Node: ev.Node}, Reaction{}, nil
}

func (c *Controller) doubleClickOnNode(s State, ev Event) (State, Reaction, error) {
	suppress := Reaction{SuppressCamera: true}
	switch s := s.(type) {
	case Dragging:
		c.release(s)
	case EdgeDrawing:
		c.dropPlaceholder(s.Placeholder)
	}

	if err := c.requireNode("draw edge", ev.Node); err != nil {
		return Neutral{}, suppress, err
	}

	p := c.surface.ViewportToGraph(ev.Screen)
	id := c.opts.PlaceholderIDs.Next()
	attrs := models.NewNodeAttributes(p, c.opts.NodeSize, c.opts.PlaceholderColor)
	attrs.Type = models.NodeTypeBorder
	if err := c.store.AddNode(id, attrs); err != nil {
		return Neutral{}, suppress, fmt.Errorf("create placeholder %q: %w", id, err)
	}
	c.opts.Metrics.RecordNodeCreated(models.NodeTypeBorder)

	next := EdgeDrawing{Source: ev.Node, Placeholder: id}
	if _, err := c.store.AddEdge(ev.Node, id, models.EdgeAttributes{Color: c.opts.EdgeColor}); err != nil {
		return next, suppress, fmt.Errorf("draw edge from %q: %w", ev.Node, err)
	}
	return next, suppress, nil
}

func (c *Controller) pointerMove(s State, ev Event) (State, Reaction, error) {
	switch s := s.(type) {
	case EdgeDrawing:
		if err := c.moveTo(s.Placeholder, ev.Screen); err != nil {
			return s, Reaction{}, fmt.Errorf("move placeholder: %w", err)
		}
		return s, Reaction{}, nil
	case Dragging:
		if err := c.moveTo(s.Node, ev.Screen); err != nil {
			return s, Reaction{SuppressCamera: true}, fmt.Errorf("drag: %w", err)
		}
		return s, Reaction{SuppressCamera: true}, nil
	default:
		return s, Reaction{}, nil
	}
}

func (c *Controller) pointerUp(s State) (State, Reaction, error) {
	if d, ok := s.(Dragging); ok {
		c.release(d)
		return Neutral{}, Reaction{}, nil
	}
	return s, Reaction{}, nil
}

func (c *Controller) enterNode(s State, ev Event) (State, Reaction, error) {
	suppress := Reaction{SuppressCamera: true}
	if d, ok := s.(Dragging); ok && d.Node == ev.Node {
		return s, suppress, nil
	}
	err := c.store.RemoveNodeAttribute(ev.Node, models.AttrHighlighted)
	if err != nil && !errors.Is(err, models.ErrNodeNotFound) {
		return s, suppress, fmt.Errorf("clear highlight of %q: %w", ev.Node, err)
	}
	return s, suppress, nil
}

// resolve closes an edge-draw. The placeholder always goes; the edge is
// kept only when the press lands within tolerance of another node.
func (c *Controller) resolve(s EdgeDrawing, ev Event) (State, error) {
	if !c.store.HasNode(s.Placeholder) {
		return Neutral{}, &models.PreconditionError{
			Op:     "resolve edge",
			Reason: fmt.Sprintf("placeholder %q no longer exists", s.Placeholder),
		}
	}

	p := c.surface.ViewportToGraph(ev.Screen)
	candidate, found := physics.FindCollision(c.store.Nodes(), p, c.opts.Tolerance, s.Placeholder)

	if err := c.store.RemoveNode(s.Placeholder); err != nil {
		return Neutral{}, fmt.Errorf("resolve edge: drop placeholder: %w", err)
	}
	c.opts.Metrics.RecordPlaceholderDropped()

	if !found {
		c.log.Debug("edge draw missed", "source", s.Source, "x", p.X, "y", p.Y)
		return Neutral{}, nil
	}
	if c.store.HasEdge(s.Source, candidate) {
		c.log.Debug("edge exists", "source", s.Source, "target", candidate)
		return Neutral{}, nil
	}

	added, err := c.store.AddEdge(s.Source, candidate, models.EdgeAttributes{Color: c.opts.EdgeColor})
	if err != nil {
		return Neutral{}, fmt.Errorf("resolve edge: %w", err)
	}
	if added {
		c.edges = append(c.edges, models.EdgeRecord{Source: s.Source, Target: candidate})
		c.opts.Metrics.RecordEdgeCreated()
		c.log.Debug("edge created", "source", s.Source, "target", candidate)
	}
	return Neutral{}, nil
}

// abandon undoes the visible traces of a failed gesture
func (c *Controller) abandon(s State) {
	switch s := s.(type) {
	case EdgeDrawing:
		c.dropPlaceholder(s.Placeholder)
	case Dragging:
		c.release(s)
	}
}

// release ends a drag; a vanished node has nothing left to clear
func (c *Controller) release(s Dragging) {
	if err := c.store.RemoveNodeAttribute(s.Node, models.AttrHighlighted); err != nil {
		c.log.Debug("release drag", "node", s.Node, "error", err)
	}
}

func (c *Controller) dropPlaceholder(id string) {
	if !c.store.HasNode(id) {
		return
	}
	if err := c.store.RemoveNode(id); err != nil {
		c.log.Warn("drop placeholder", "node", id, "error", err)
		return
	}
	c.opts.Metrics.RecordPlaceholderDropped()
}

func (c *Controller) moveTo(id string, screen models.Point) error {
	p := c.surface.ViewportToGraph(screen)
	return c.store.UpdateNode(id, func(a models.NodeAttributes) models.NodeAttributes {
		a.SetPosition(p)
		return a
	})
}

func (c *Controller) requireNode(op, id string) error {
	if c.store.HasNode(id) {
		return nil
	}
	return &models.PreconditionError{
		Op:     op,
		Reason: fmt.Sprintf("node %q does not exist", id),
		Cause:  models.ErrNodeNotFound,
	}
}
