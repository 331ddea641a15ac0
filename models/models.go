// Package models provides the value types shared by the graphsketch packages.
// It defines nodes, edges, graph snapshots and the records the editor keeps
// about user-created vertices and edges.
package models

import "fmt"

// Node type tags
const (
	NodeTypeDefault = ""
	NodeTypeBorder  = "border" // placeholder created while drawing an edge
)

// Attribute keys understood by the graph store's keyed accessors
const (
	AttrX           = "x"
	AttrY           = "y"
	AttrSize        = "size"
	AttrColor       = "color"
	AttrType        = "type"
	AttrLabel       = "label"
	AttrHighlighted = "highlighted"
)

// Point is a 2D coordinate, in screen or graph space depending on context
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is an axis-aligned bounding box in graph space
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NodeAttributes holds the display state of a node
type NodeAttributes struct {
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Size        float64        `json:"size"`
	Color       string         `json:"color,omitempty"`
	Type        string         `json:"type,omitempty"`
	Label       string         `json:"label,omitempty"`
	Highlighted bool           `json:"highlighted,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// EdgeAttributes holds the display state of an edge
type EdgeAttributes struct {
	Color      string         `json:"color,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// EdgeKey identifies an undirected edge. A is always <= B.
type EdgeKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Node is a node id with its attributes
type Node struct {
	ID string `json:"id"`
	NodeAttributes
}

// Edge is an undirected edge with its attributes
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	EdgeAttributes
}

// Graph is a point-in-time copy of the store, in insertion order
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// VertexRecord is an entry in the log of stage-created vertices
type VertexRecord struct {
	ID string `json:"id"`
}

// EdgeRecord is an entry in the log of user-drawn edges
type EdgeRecord struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewEdgeKey returns the normalized key for the pair (a, b)
func NewEdgeKey(a, b string) EdgeKey {
	if b < a {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// Other returns the endpoint opposite id
func (k EdgeKey) Other(id string) string {
	if k.A == id {
		return k.B
	}
	return k.A
}

// Has reports whether id is one of the endpoints
func (k EdgeKey) Has(id string) bool {
	return k.A == id || k.B == id
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("(%s,%s)", k.A, k.B)
}
