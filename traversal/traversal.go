// Package traversal animates a breadth-first walk over the graph store. A
// Walk colors the root, then on every Next call expands one queued node,
// coloring each newly reached neighbor and the edge it was reached by.
package traversal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/TFMV/graphsketch/metrics"
	"github.com/TFMV/graphsketch/models"
)

// DefaultVisitedColor is the color of visited nodes and traversal edges
const DefaultVisitedColor = "green"

// Store is the part of the graph store a walk reads and recolors
type Store interface {
	HasNode(id string) bool
	NodeAttributes(id string) (models.NodeAttributes, error)
	Neighbors(id string) ([]string, error)
	UpdateNode(id string, fn func(models.NodeAttributes) models.NodeAttributes) error
	UpdateEdge(a, b string, fn func(models.EdgeAttributes) models.EdgeAttributes) error
}

// Options configure a Driver
type Options struct {
	VisitedColor string
	// Interval between dequeues in Run. Zero runs unpaced.
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Registry
	// OnStep, when set, observes every step right after it is applied
	OnStep func(Step)
}

// Step is one visible mutation of a walk. The root is step 0 and has no Via.
type Step struct {
	Seq   int    `json:"seq"`
	Node  string `json:"node"`
	Via   string `json:"via,omitempty"`
	Depth int    `json:"depth"`
}

// Edge returns the traversal edge of the step; ok is false for the root
func (s Step) Edge() (models.EdgeKey, bool) {
	if s.Via == "" {
		return models.EdgeKey{}, false
	}
	return models.NewEdgeKey(s.Via, s.Node), true
}

// Result summarizes a walk
type Result struct {
	Root  string           `json:"root"`
	Order []string         `json:"order"`
	Edges []models.EdgeKey `json:"edges"`
	Steps []Step           `json:"steps"`
}

// Driver starts walks over a store
type Driver struct {
	store Store
	opts  Options
	log   *slog.Logger
}

// New creates a driver
func New(store Store, opts Options) *Driver {
	if opts.VisitedColor == "" {
		opts.VisitedColor = DefaultVisitedColor
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Driver{store: store, opts: opts, log: log.With("component", "traversal")}
}

// Walk is a breadth-first traversal in progress. It is not safe for
// concurrent use.
type Walk struct {
	d       *Driver
	queue   []string
	depth   map[string]int // visited set
	result  Result
	done    bool
	err     error
	started time.Time
}

// Start colors root and returns a walk positioned before its first dequeue
func (d *Driver) Start(root string) (*Walk, error) {
	var precondition error
	switch {
	case root == "":
		precondition = &models.PreconditionError{Op: "traverse", Reason: "no starting node"}
	case !d.store.HasNode(root):
		precondition = &models.PreconditionError{
			Op:     "traverse",
			Reason: fmt.Sprintf("starting node %q does not exist", root),
			Cause:  models.ErrNodeNotFound,
		}
	}
	if precondition != nil {
		d.opts.Metrics.RecordTraversal(precondition, 0, 0)
		return nil, precondition
	}

	w := &Walk{
		d:       d,
		queue:   []string{root},
		depth:   map[string]int{root: 0},
		result:  Result{Root: root},
		started: time.Now(),
	}
	if err := d.store.UpdateNode(root, d.paint); err != nil {
		return nil, w.fail(&models.InvariantViolation{Op: "traverse", Missing: root, Cause: err})
	}
	w.record(Step{Node: root})
	d.log.Debug("traversal started", "root", root)
	return w, nil
}

// Next dequeues one node and visits its unvisited neighbors in store order.
// Edge-draw placeholders are never visited.
// It returns false once the queue is empty or the walk has failed.
func (w *Walk) Next() (more bool, err error) {
	if w.done {
		return false, w.err
	}
	if len(w.queue) == 0 {
		w.finish()
		return false, nil
	}

	u := w.queue[0]
	w.queue = w.queue[1:]
	d := w.d

	neighbors, err := d.store.Neighbors(u)
	if err != nil {
		return false, w.fail(&models.InvariantViolation{Op: "traverse", Missing: u, Cause: err})
	}
	d.log.Debug("expanding", "node", u, "neighbors", neighbors)

	for _, v := range neighbors {
		if _, seen := w.depth[v]; seen {
			continue
		}
		// placeholders come and go with edge-draw gestures and are not part
		// of the graph being walked
		if a, err := d.store.NodeAttributes(v); err == nil && a.IsPlaceholder() {
			continue
		}
		w.depth[v] = w.depth[u] + 1
		w.queue = append(w.queue, v)

		if err := d.store.UpdateEdge(u, v, d.paintEdge); err != nil {
			return false, w.fail(&models.InvariantViolation{Op: "traverse", Edge: models.NewEdgeKey(u, v), Cause: err})
		}
		if err := d.store.UpdateNode(v, d.paint); err != nil {
			return false, w.fail(&models.InvariantViolation{Op: "traverse", Edge: models.NewEdgeKey(u, v), Missing: v, Cause: err})
		}
		w.record(Step{Node: v, Via: u, Depth: w.depth[v]})
	}

	if len(w.queue) == 0 {
		w.finish()
		return false, nil
	}
	return true, nil
}

// Done reports whether the walk has finished or failed
func (w *Walk) Done() bool {
	return w.done
}

// Err returns the error that aborted the walk, if any
func (w *Walk) Err() error {
	return w.err
}

// Result returns a copy of the walk's progress so far
func (w *Walk) Result() Result {
	return Result{
		Root:  w.result.Root,
		Order: slices.Clone(w.result.Order),
		Edges: slices.Clone(w.result.Edges),
		Steps: slices.Clone(w.result.Steps),
	}
}

// Run walks from root to completion, pacing dequeues at the configured
// interval so each level is visible before the next starts. ctx is checked
// only between dequeues. On failure the partial result is returned with the
// error; colors already applied stay.
func (d *Driver) Run(ctx context.Context, root string) (*Result, error) {
	w, err := d.Start(root)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if d.opts.Interval > 0 {
		limit = rate.Every(d.opts.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for more := true; more; {
		if err := limiter.Wait(ctx); err != nil {
			res := w.Result()
			return &res, fmt.Errorf("traverse from %q: %w", root, err)
		}
		if more, err = w.Next(); err != nil {
			res := w.Result()
			return &res, err
		}
	}
	res := w.Result()
	return &res, nil
}

func (w *Walk) record(s Step) {
	s.Seq = len(w.result.Steps)
	w.result.Steps = append(w.result.Steps, s)
	w.result.Order = append(w.result.Order, s.Node)
	if e, ok := s.Edge(); ok {
		w.result.Edges = append(w.result.Edges, e)
	}
	w.d.opts.Metrics.RecordTraversalStep()
	if w.d.opts.OnStep != nil {
		w.d.opts.OnStep(s)
	}
}

// finish drops the working state of a completed walk
func (w *Walk) finish() {
	if w.done {
		return
	}
	w.done = true
	w.queue = nil
	w.depth = nil
	w.d.opts.Metrics.RecordTraversal(nil, len(w.result.Order), time.Since(w.started))
	w.d.log.Info("traversal finished", "root", w.result.Root, "visited", len(w.result.Order))
}

func (w *Walk) fail(err error) error {
	w.done = true
	w.err = err
	w.queue = nil
	w.depth = nil
	w.d.opts.Metrics.RecordTraversal(err, len(w.result.Order), time.Since(w.started))
	w.d.log.Error("traversal aborted", "root", w.result.Root, "error", err)
	return err
}

func (d *Driver) paint(a models.NodeAttributes) models.NodeAttributes {
	a.Color = d.opts.VisitedColor
	return a
}

func (d *Driver) paintEdge(a models.EdgeAttributes) models.EdgeAttributes {
	a.Color = d.opts.VisitedColor
	return a
}
