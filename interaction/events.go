package interaction

import (
	"fmt"

	"github.com/TFMV/graphsketch/models"
)

// Kind identifies a pointer event
type Kind int

// Pointer events understood by the controller
const (
	DownOnNode Kind = iota
	DoubleClickOnNode
	DownOnStage
	PointerMove
	PointerUp
	EnterNode
	Wheel
)

var kindNames = [...]string{
	DownOnNode:        "down_on_node",
	DoubleClickOnNode: "double_click_on_node",
	DownOnStage:       "down_on_stage",
	PointerMove:       "pointer_move",
	PointerUp:         "pointer_up",
	EnterNode:         "enter_node",
	Wheel:             "wheel",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Event is one pointer event from the rendering surface
type Event struct {
	Kind   Kind
	Node   string       // target of node events
	Screen models.Point // pointer position in screen space
}

// Reaction tells the surface how to treat the event after dispatch
type Reaction struct {
	// SuppressCamera prevents the surface's default camera pan or zoom
	SuppressCamera bool
}

// Surface is the camera the controller reads and freezes
type Surface interface {
	ViewportToGraph(p models.Point) models.Point
	FreezeCurrentViewport()
	HasFrozenViewport() bool
}

// Store is the part of the graph store the controller mutates
type Store interface {
	AddNode(id string, attrs models.NodeAttributes) error
	RemoveNode(id string) error
	HasNode(id string) bool
	UpdateNode(id string, fn func(models.NodeAttributes) models.NodeAttributes) error
	AddEdge(a, b string, attrs models.EdgeAttributes) (bool, error)
	HasEdge(a, b string) bool
	Nodes() []models.Node
	SetNodeAttribute(id, key string, value any) error
	RemoveNodeAttribute(id, key string) error
}
