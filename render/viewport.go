package render

import (
	"math"
	"sync"

	"github.com/TFMV/graphsketch/graph"
	"github.com/TFMV/graphsketch/models"
)

// Projector maps graph-space coordinates to screen coordinates
type Projector interface {
	GraphToViewport(p models.Point) models.Point
}

// Viewport is the camera over the graph. It fits the content bounding box
// into the screen until it is frozen; a frozen viewport keeps its box no
// matter how the content changes, and only moves when panned.
type Viewport struct {
	mu         sync.RWMutex
	width      float64
	height     float64
	padding    float64 // fraction of each screen side left empty
	content    models.BBox
	hasContent bool
	custom     *models.BBox
}

// NewViewport creates a viewport of the given screen size
func NewViewport(width, height, padding float64) *Viewport {
	return &Viewport{
		width:   width,
		height:  height,
		padding: math.Max(0, math.Min(padding, 0.45)),
	}
}

// Resize changes the screen size. The graph-space box is unchanged.
func (v *Viewport) Resize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.width, v.height = width, height
}

// Size returns the screen size
func (v *Viewport) Size() (width, height float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// SetContentBounds records the box the viewport fits while unfrozen
func (v *Viewport) SetContentBounds(box models.BBox, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content, v.hasContent = box, ok
}

// Track keeps the content bounds in sync with the store
func (v *Viewport) Track(s *graph.Store) (cancel func()) {
	v.SetContentBounds(s.Bounds())
	return s.Subscribe(func(c graph.Change) {
		switch c.Kind {
		case graph.NodeAdded, graph.NodeUpdated, graph.NodeRemoved:
			v.SetContentBounds(s.Bounds())
		}
	})
}

// Bounds returns the graph-space box currently mapped onto the screen
func (v *Viewport) Bounds() models.BBox {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.boundsLocked()
}

// FreezeCurrentViewport pins the current box, so later content changes no
// longer move the camera.
func (v *Viewport) FreezeCurrentViewport() {
	v.mu.Lock()
	defer v.mu.Unlock()
	box := v.boundsLocked()
	v.custom = &box
}

// HasFrozenViewport reports whether the box is pinned
func (v *Viewport) HasFrozenViewport() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.custom != nil
}

// Unfreeze returns to fitting the content
func (v *Viewport) Unfreeze() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.custom = nil
}

// Pan moves the camera so the content shifts by (dx, dy) screen units. An
// unfrozen viewport is frozen first.
func (v *Viewport) Pan(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	box := v.boundsLocked()
	s := v.scaleLocked(box)
	box = box.Translate(-dx/s, -dy/s)
	v.custom = &box
}

// Scale returns the number of screen units per graph unit
func (v *Viewport) Scale() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scaleLocked(v.boundsLocked())
}

// GraphToViewport maps a graph-space point to the screen
func (v *Viewport) GraphToViewport(p models.Point) models.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	box := v.boundsLocked()
	s := v.scaleLocked(box)
	c := box.Center()
	return models.Point{
		X: (p.X-c.X)*s + v.width/2,
		Y: (p.Y-c.Y)*s + v.height/2,
	}
}

// ViewportToGraph maps a screen point to graph space
func (v *Viewport) ViewportToGraph(p models.Point) models.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	box := v.boundsLocked()
	s := v.scaleLocked(box)
	c := box.Center()
	return models.Point{
		X: (p.X-v.width/2)/s + c.X,
		Y: (p.Y-v.height/2)/s + c.Y,
	}
}

func (v *Viewport) boundsLocked() models.BBox {
	if v.custom != nil {
		return *v.custom
	}
	if !v.hasContent {
		return models.BBox{MaxX: 1, MaxY: 1}
	}
	return v.content.Normalize(1)
}

// scaleLocked never returns zero, so the inverse transform stays finite
func (v *Viewport) scaleLocked(box models.BBox) float64 {
	sx := v.width * (1 - 2*v.padding) / box.Width()
	sy := v.height * (1 - 2*v.padding) / box.Height()
	s := math.Min(sx, sy)
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return s
}
