// Package graph is the in-memory graph store behind the editor: nodes keyed
// by id, undirected edges keyed by unordered pair, insertion-ordered
// adjacency, and change notifications for every mutation.
package graph

import (
	"fmt"
	"math"
	"sync"

	"github.com/TFMV/graphsketch/models"
)

type node struct {
	attrs models.NodeAttributes
	adj   []string // neighbor ids in edge insertion order
}

// Store holds nodes and edges. It is safe for concurrent use; observers are
// called after the mutation is applied and the lock released.
type Store struct {
	mu        sync.RWMutex
	nodes     map[string]*node
	order     []string
	edges     map[models.EdgeKey]*models.EdgeAttributes
	edgeOrder []models.EdgeKey

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		nodes:     make(map[string]*node),
		edges:     make(map[models.EdgeKey]*models.EdgeAttributes),
		observers: make(map[int]Observer),
	}
}

// AddNode inserts a new node into the graph.
func (s *Store) AddNode(id string, attrs models.NodeAttributes) error {
	s.mu.Lock()
	if _, ok := s.nodes[id]; ok {
		s.mu.Unlock()
		return fmt.Errorf("add node %q: %w", id, models.ErrNodeExists)
	}
	s.nodes[id] = &node{attrs: attrs.Clone()}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.emit(Change{Kind: NodeAdded, Node: id})
	return nil
}

// HasNode reports whether id exists.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// NodeAttributes returns a copy of the node's attributes.
func (s *Store) NodeAttributes(id string) (models.NodeAttributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return models.NodeAttributes{}, fmt.Errorf("node %q: %w", id, models.ErrNodeNotFound)
	}
	return n.attrs.Clone(), nil
}

// UpdateNode replaces the node's attributes with fn(current).
func (s *Store) UpdateNode(id string, fn func(models.NodeAttributes) models.NodeAttributes) error {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update node %q: %w", id, models.ErrNodeNotFound)
	}
	n.attrs = fn(n.attrs.Clone())
	s.mu.Unlock()

	s.emit(Change{Kind: NodeUpdated, Node: id})
	return nil
}

// RemoveNode removes a node and all connected edges from the graph.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove node %q: %w", id, models.ErrNodeNotFound)
	}

	changes := make([]Change, 0, len(n.adj)+1)
	for _, other := range append([]string(nil), n.adj...) {
		key := models.NewEdgeKey(id, other)
		s.dropEdgeLocked(key)
		changes = append(changes, Change{Kind: EdgeRemoved, Edge: key})
	}
	delete(s.nodes, id)
	s.order = removeString(s.order, id)
	s.mu.Unlock()

	changes = append(changes, Change{Kind: NodeRemoved, Node: id})
	s.emit(changes...)
	return nil
}

// AddEdge connects a and b. Both nodes must exist; a missing endpoint is an
// *models.InvariantViolation. Adding an existing pair is a no-op that
// reports added == false.
func (s *Store) AddEdge(a, b string, attrs models.EdgeAttributes) (added bool, err error) {
	key := models.NewEdgeKey(a, b)

	s.mu.Lock()
	for _, id := range []string{a, b} {
		if _, ok := s.nodes[id]; !ok {
			s.mu.Unlock()
			return false, &models.InvariantViolation{Op: "add edge", Edge: key, Missing: id, Cause: models.ErrNodeNotFound}
		}
	}
	if _, ok := s.edges[key]; ok {
		s.mu.Unlock()
		return false, nil
	}

	e := attrs.Clone()
	s.edges[key] = &e
	s.edgeOrder = append(s.edgeOrder, key)
	s.nodes[a].adj = append(s.nodes[a].adj, b)
	if a != b {
		s.nodes[b].adj = append(s.nodes[b].adj, a)
	}
	s.mu.Unlock()

	s.emit(Change{Kind: EdgeAdded, Edge: key})
	return true, nil
}

// HasEdge reports whether a and b are connected.
func (s *Store) HasEdge(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[models.NewEdgeKey(a, b)]
	return ok
}

// EdgeAttributes returns a copy of the edge's attributes.
func (s *Store) EdgeAttributes(a, b string) (models.EdgeAttributes, error) {
	key := models.NewEdgeKey(a, b)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[key]
	if !ok {
		return models.EdgeAttributes{}, fmt.Errorf("edge %s: %w", key, models.ErrEdgeNotFound)
	}
	return e.Clone(), nil
}

// UpdateEdge replaces the edge's attributes with fn(current).
func (s *Store) UpdateEdge(a, b string, fn func(models.EdgeAttributes) models.EdgeAttributes) error {
	key := models.NewEdgeKey(a, b)

	s.mu.Lock()
	e, ok := s.edges[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update edge %s: %w", key, models.ErrEdgeNotFound)
	}
	*e = fn(e.Clone())
	s.mu.Unlock()

	s.emit(Change{Kind: EdgeUpdated, Edge: key})
	return nil
}

// Neighbors returns the ids adjacent to id, in the order their edges were
// added.
func (s *Store) Neighbors(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("neighbors of %q: %w", id, models.ErrNodeNotFound)
	}
	return append([]string(nil), n.adj...), nil
}

// NodeIDs returns every node id in insertion order.
func (s *Store) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Nodes returns every node in insertion order.
func (s *Store) Nodes() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodesLocked()
}

// Order is the number of nodes.
func (s *Store) Order() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Size is the number of edges.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Snapshot copies the whole graph.
func (s *Store) Snapshot() *models.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := &models.Graph{
		Nodes: s.nodesLocked(),
		Edges: make([]models.Edge, 0, len(s.edgeOrder)),
	}
	for _, key := range s.edgeOrder {
		g.Edges = append(g.Edges, models.Edge{
			Source:         key.A,
			Target:         key.B,
			EdgeAttributes: s.edges[key].Clone(),
		})
	}
	return g
}

// Bounds returns the bounding box of all node positions; ok is false when
// the store is empty.
func (s *Store) Bounds() (box models.BBox, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.nodes) == 0 {
		return models.BBox{}, false
	}
	box = models.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range s.nodes {
		box = box.Extend(n.attrs.Position())
	}
	return box, true
}

func (s *Store) nodesLocked() []models.Node {
	out := make([]models.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, models.Node{ID: id, NodeAttributes: s.nodes[id].attrs.Clone()})
	}
	return out
}

func (s *Store) dropEdgeLocked(key models.EdgeKey) {
	delete(s.edges, key)
	for i, k := range s.edgeOrder {
		if k == key {
			s.edgeOrder = append(s.edgeOrder[:i], s.edgeOrder[i+1:]...)
			break
		}
	}
	if n, ok := s.nodes[key.A]; ok {
		n.adj = removeString(n.adj, key.B)
	}
	if n, ok := s.nodes[key.B]; ok && key.A != key.B {
		n.adj = removeString(n.adj, key.A)
	}
}

func removeString(list []string, v string) []string {
	for i, s := range list {
		if s == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
