package models

import (
	"fmt"
	"maps"
	"math"
)

// NewNodeAttributes creates node attributes at p with the given appearance
func NewNodeAttributes(p Point, size float64, color string) NodeAttributes {
	return NodeAttributes{
		X:     p.X,
		Y:     p.Y,
		Size:  size,
		Color: color,
	}
}

// Position returns the node's graph-space position
func (a NodeAttributes) Position() Point {
	return Point{X: a.X, Y: a.Y}
}

// SetPosition sets the position of a node
func (a *NodeAttributes) SetPosition(p Point) {
	a.X = p.X
	a.Y = p.Y
}

// IsPlaceholder reports whether the node was created mid edge-draw
func (a NodeAttributes) IsPlaceholder() bool {
	return a.Type == NodeTypeBorder
}

// Clone returns a copy that shares no mutable state with a
func (a NodeAttributes) Clone() NodeAttributes {
	a.Properties = maps.Clone(a.Properties)
	return a
}

// Clone returns a copy that shares no mutable state with a
func (a EdgeAttributes) Clone() EdgeAttributes {
	a.Properties = maps.Clone(a.Properties)
	return a
}

// Key returns the normalized key of the edge
func (e Edge) Key() EdgeKey {
	return NewEdgeKey(e.Source, e.Target)
}

// FindNodeByID returns a node by its ID
func (g *Graph) FindNodeByID(id string) (*Node, error) {
	for i, node := range g.Nodes {
		if node.ID == id {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node with ID %s: %w", id, ErrNodeNotFound)
}

// FindConnectedNodes returns the ids of all nodes directly connected to a node
func (g *Graph) FindConnectedNodes(nodeID string) []string {
	var result []string
	for _, edge := range g.Edges {
		if k := edge.Key(); k.Has(nodeID) {
			result = append(result, k.Other(nodeID))
		}
	}
	return result
}

// Bounds returns the bounding box of all node positions. ok is false for an
// empty graph.
func (g *Graph) Bounds() (box BBox, ok bool) {
	if len(g.Nodes) == 0 {
		return BBox{}, false
	}
	box = BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range g.Nodes {
		box = box.Extend(n.Position())
	}
	return box, true
}

// Extend grows the box to include p
func (b BBox) Extend(p Point) BBox {
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
	return b
}

// Width of the box
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height of the box
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Center of the box
func (b BBox) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Translate shifts the box by (dx, dy)
func (b BBox) Translate(dx, dy float64) BBox {
	return BBox{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// Normalize widens degenerate axes to span at least minSpan around their
// center, so a single node or a row of nodes still has a usable extent.
func (b BBox) Normalize(minSpan float64) BBox {
	c := b.Center()
	if b.Width() < minSpan {
		b.MinX, b.MaxX = c.X-minSpan/2, c.X+minSpan/2
	}
	if b.Height() < minSpan {
		b.MinY, b.MaxY = c.Y-minSpan/2, c.Y+minSpan/2
	}
	return b
}
