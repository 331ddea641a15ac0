package interaction

import "fmt"

// State is the gesture in progress. It is one of Neutral, Dragging or
// EdgeDrawing.
type State interface {
	fmt.Stringer
	state()
}

// Neutral means no gesture is in progress
type Neutral struct{}

// Dragging means Node follows the pointer until the button is released
type Dragging struct {
	Node string
}

// EdgeDrawing means an edge from Source to the pointer-following
// Placeholder node awaits resolution by the next primary press.
type EdgeDrawing struct {
	Source      string
	Placeholder string
}

func (Neutral) state()     {}
func (Dragging) state()    {}
func (EdgeDrawing) state() {}

func (Neutral) String() string { return "neutral" }

func (s Dragging) String() string { return fmt.Sprintf("dragging(%s)", s.Node) }

func (s EdgeDrawing) String() string {
	return fmt.Sprintf("edge_drawing(%s->%s)", s.Source, s.Placeholder)
}
