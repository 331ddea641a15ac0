package physics

import (
	"math"
	"slices"

	"github.com/TFMV/graphsketch/models"
)

// Tolerance is the half-extent of an axis-aligned hit box. X and Y are
// bounded independently; it is not a radius.
type Tolerance struct {
	X float64
	Y float64
}

// Within reports whether q lies inside the tolerance box centered on p.
func Within(p, q models.Point, tol Tolerance) bool {
	return math.Abs(p.X-q.X) <= tol.X && math.Abs(p.Y-q.Y) <= tol.Y
}

// FindCollision returns the first node, in slice order, whose position is
// within tol of at. Nodes whose id appears in exclude are skipped.
func FindCollision(nodes []models.Node, at models.Point, tol Tolerance, exclude ...string) (string, bool) {
	for _, n := range nodes {
		if slices.Contains(exclude, n.ID) {
			continue
		}
		if Within(at, n.Position(), tol) {
			return n.ID, true
		}
	}
	return "", false
}
