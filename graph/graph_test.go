package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/graphsketch/models"
)

func newTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s := NewStore()
	for i, id := range ids {
		require.NoError(t, s.AddNode(id, models.NodeAttributes{X: float64(i), Y: float64(i), Size: 20}))
	}
	return s
}

func TestAddNodeRejectsDuplicate(t *testing.T) {
	s := newTestStore(t, "a")
	err := s.AddNode("a", models.NodeAttributes{})
	assert.ErrorIs(t, err, models.ErrNodeExists)
	assert.Equal(t, 1, s.Order())
}

func TestAddEdgeRequiresBothEndpoints(t *testing.T) {
	s := newTestStore(t, "a")
	added, err := s.AddEdge("a", "ghost", models.EdgeAttributes{})
	assert.False(t, added)
	assert.ErrorIs(t, err, models.ErrInvariant)

	var iv *models.InvariantViolation
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, "ghost", iv.Missing)
	assert.Equal(t, 0, s.Size())
}

func TestAddEdgeIsIdempotentPerPair(t *testing.T) {
	s := newTestStore(t, "a", "b")
	added, err := s.AddEdge("a", "b", models.EdgeAttributes{Color: "red"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddEdge("b", "a", models.EdgeAttributes{Color: "blue"})
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, 1, s.Size())
	attrs, err := s.EdgeAttributes("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "red", attrs.Color)
}

func TestNeighborsKeepInsertionOrder(t *testing.T) {
	s := newTestStore(t, "1", "2", "3", "4")
	for _, other := range []string{"3", "2", "4"} {
		_, err := s.AddEdge("1", other, models.EdgeAttributes{})
		require.NoError(t, err)
	}

	got, err := s.Neighbors("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "4"}, got)

	got, err = s.Neighbors("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, got)

	_, err = s.Neighbors("9")
	assert.ErrorIs(t, err, models.ErrNodeNotFound)
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	s := newTestStore(t, "a", "b", "c")
	_, err := s.AddEdge("a", "b", models.EdgeAttributes{})
	require.NoError(t, err)
	_, err = s.AddEdge("b", "c", models.EdgeAttributes{})
	require.NoError(t, err)

	require.NoError(t, s.RemoveNode("b"))

	assert.False(t, s.HasNode("b"))
	assert.Equal(t, 0, s.Size())
	n, err := s.Neighbors("a")
	require.NoError(t, err)
	assert.Empty(t, n)
	assert.Equal(t, []string{"a", "c"}, s.NodeIDs())

	assert.ErrorIs(t, s.RemoveNode("b"), models.ErrNodeNotFound)
}

func TestSelfLoop(t *testing.T) {
	s := newTestStore(t, "a")
	added, err := s.AddEdge("a", "a", models.EdgeAttributes{})
	require.NoError(t, err)
	assert.True(t, added)

	n, err := s.Neighbors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, n)

	require.NoError(t, s.RemoveNode("a"))
	assert.Equal(t, 0, s.Size())
}

func TestUpdateNodeAndEdge(t *testing.T) {
	s := newTestStore(t, "a", "b")
	_, err := s.AddEdge("a", "b", models.EdgeAttributes{})
	require.NoError(t, err)

	require.NoError(t, s.UpdateNode("a", func(a models.NodeAttributes) models.NodeAttributes {
		a.Color = "green"
		return a
	}))
	require.NoError(t, s.UpdateEdge("b", "a", func(e models.EdgeAttributes) models.EdgeAttributes {
		e.Color = "green"
		return e
	}))

	attrs, err := s.NodeAttributes("a")
	require.NoError(t, err)
	assert.Equal(t, "green", attrs.Color)
	edge, err := s.EdgeAttributes("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "green", edge.Color)

	assert.ErrorIs(t, s.UpdateEdge("a", "z", func(e models.EdgeAttributes) models.EdgeAttributes { return e }), models.ErrEdgeNotFound)
	assert.ErrorIs(t, s.UpdateNode("z", func(a models.NodeAttributes) models.NodeAttributes { return a }), models.ErrNodeNotFound)
}

func TestKeyedAttributes(t *testing.T) {
	s := newTestStore(t, "a")

	require.NoError(t, s.SetNodeAttribute("a", models.AttrHighlighted, true))
	v, err := s.GetNodeAttribute("a", models.AttrHighlighted)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	require.NoError(t, s.RemoveNodeAttribute("a", models.AttrHighlighted))
	v, err = s.GetNodeAttribute("a", models.AttrHighlighted)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	require.NoError(t, s.SetNodeAttribute("a", models.AttrX, 3))
	v, err = s.GetNodeAttribute("a", models.AttrX)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	require.NoError(t, s.SetNodeAttribute("a", "weight", "heavy"))
	v, err = s.GetNodeAttribute("a", "weight")
	require.NoError(t, err)
	assert.Equal(t, "heavy", v)
	require.NoError(t, s.RemoveNodeAttribute("a", "weight"))
	v, err = s.GetNodeAttribute("a", "weight")
	require.NoError(t, err)
	assert.Nil(t, v)

	err = s.SetNodeAttribute("a", models.AttrColor, 42)
	assert.ErrorIs(t, err, models.ErrInvalidAttribute)

	assert.ErrorIs(t, s.SetNodeAttribute("z", models.AttrColor, "red"), models.ErrNodeNotFound)
	assert.ErrorIs(t, s.RemoveNodeAttribute("z", models.AttrHighlighted), models.ErrNodeNotFound)
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestStore(t, "a", "b")
	_, err := s.AddEdge("a", "b", models.EdgeAttributes{Color: "gray"})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Nodes, 2)
	require.Len(t, snap.Edges, 1)
	snap.Nodes[0].Color = "changed"

	attrs, err := s.NodeAttributes("a")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", attrs.Color)
	assert.Equal(t, models.NewEdgeKey("a", "b"), snap.Edges[0].Key())
}

func TestBounds(t *testing.T) {
	s := NewStore()
	_, ok := s.Bounds()
	assert.False(t, ok)

	require.NoError(t, s.AddNode("a", models.NodeAttributes{X: -1, Y: 2}))
	require.NoError(t, s.AddNode("b", models.NodeAttributes{X: 3, Y: -4}))
	box, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, models.BBox{MinX: -1, MinY: -4, MaxX: 3, MaxY: 2}, box)
}

func TestSubscribeReceivesChanges(t *testing.T) {
	s := NewStore()
	var got []Change
	cancel := s.Subscribe(func(c Change) {
		got = append(got, c)
		// observers may read the store without deadlocking
		_ = s.Order()
	})

	require.NoError(t, s.AddNode("a", models.NodeAttributes{}))
	require.NoError(t, s.AddNode("b", models.NodeAttributes{}))
	_, err := s.AddEdge("a", "b", models.EdgeAttributes{})
	require.NoError(t, err)
	require.NoError(t, s.RemoveNode("b"))

	assert.Equal(t, []Change{
		{Kind: NodeAdded, Node: "a"},
		{Kind: NodeAdded, Node: "b"},
		{Kind: EdgeAdded, Edge: models.NewEdgeKey("a", "b")},
		{Kind: EdgeRemoved, Edge: models.NewEdgeKey("a", "b")},
		{Kind: NodeRemoved, Node: "b"},
	}, got)

	assert.Equal(t, 1, s.SubscriberCount())
	cancel()
	assert.Equal(t, 0, s.SubscriberCount())
	require.NoError(t, s.AddNode("c", models.NodeAttributes{}))
	assert.Len(t, got, 5)
}

func TestRejectedAttributeEmitsNothing(t *testing.T) {
	s := newTestStore(t, "a")
	var got []Change
	s.Subscribe(func(c Change) { got = append(got, c) })

	assert.ErrorIs(t, s.SetNodeAttribute("a", models.AttrX, "left"), models.ErrInvalidAttribute)
	assert.ErrorIs(t, s.SetNodeAttribute("a", models.AttrHighlighted, 1), models.ErrInvalidAttribute)
	assert.Empty(t, got)

	require.NoError(t, s.SetNodeAttribute("a", models.AttrLabel, "start"))
	assert.Equal(t, []Change{{Kind: NodeUpdated, Node: "a"}}, got)
}

func TestDuplicateEdgeEmitsNothing(t *testing.T) {
	s := newTestStore(t, "a", "b")
	_, err := s.AddEdge("a", "b", models.EdgeAttributes{})
	require.NoError(t, err)

	calls := 0
	s.Subscribe(func(Change) { calls++ })
	_, err = s.AddEdge("a", "b", models.EdgeAttributes{})
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, "edge_added", EdgeAdded.String())
}
