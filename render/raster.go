package render

import (
	"math"
	"strings"

	"github.com/TFMV/graphsketch/models"
)

// Glyphs drawn on the character grid
const (
	GlyphNode        = '●'
	GlyphHighlighted = '◉'
	GlyphPlaceholder = '○'
	GlyphEdge        = '·'
	GlyphEmpty       = ' '
)

// Cell is one character of a raster
type Cell struct {
	Rune  rune
	Color string // CSS color of the element drawn here, empty for background
	Node  string // id of the node drawn here, empty otherwise
}

// Raster is a character grid projection of a graph. Screen y is divided
// by Aspect to get the row, since terminal cells are taller than wide.
type Raster struct {
	Cols   int
	Rows   int
	Aspect float64
	Cells  [][]Cell
}

// NewRaster creates an empty raster
func NewRaster(cols, rows int, aspect float64) *Raster {
	cols, rows = max(cols, 1), max(rows, 1)
	if aspect <= 0 {
		aspect = 1
	}
	cells := make([][]Cell, rows)
	for i := range cells {
		cells[i] = make([]Cell, cols)
		for j := range cells[i] {
			cells[i][j].Rune = GlyphEmpty
		}
	}
	return &Raster{Cols: cols, Rows: rows, Aspect: aspect, Cells: cells}
}

// Rasterize projects graph onto a cols x rows grid. Edges are drawn first
// so nodes stay visible; later nodes cover earlier ones.
func Rasterize(graph *models.Graph, proj Projector, cols, rows int, aspect float64) *Raster {
	r := NewRaster(cols, rows, aspect)

	positions := make(map[string][2]int, len(graph.Nodes))
	for _, node := range graph.Nodes {
		col, row := r.CellOf(proj.GraphToViewport(node.Position()))
		positions[node.ID] = [2]int{col, row}
	}

	for _, edge := range graph.Edges {
		from, ok1 := positions[edge.Source]
		to, ok2 := positions[edge.Target]
		if !ok1 || !ok2 {
			continue
		}
		r.drawLine(from[0], from[1], to[0], to[1], edge.Color)
	}

	for _, node := range graph.Nodes {
		pos := positions[node.ID]
		glyph := rune(GlyphNode)
		switch {
		case node.IsPlaceholder():
			glyph = GlyphPlaceholder
		case node.Highlighted:
			glyph = GlyphHighlighted
		}
		r.set(pos[0], pos[1], Cell{Rune: glyph, Color: node.Color, Node: node.ID})
	}
	return r
}

// CellOf returns the cell containing screen point p. The result may lie
// outside the raster.
func (r *Raster) CellOf(p models.Point) (col, row int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y / r.Aspect))
}

// CellCenter returns the screen point at the center of a cell
func (r *Raster) CellCenter(col, row int) models.Point {
	return models.Point{X: float64(col) + 0.5, Y: (float64(row) + 0.5) * r.Aspect}
}

// At returns the cell at (col, row); ok is false outside the raster
func (r *Raster) At(col, row int) (Cell, bool) {
	if !r.inside(col, row) {
		return Cell{}, false
	}
	return r.Cells[row][col], true
}

// NodeAt returns the node drawn nearest to (col, row) within radius cells.
// Ties go to the node drawn last, which is the one visible on top.
func (r *Raster) NodeAt(col, row, radius int) (string, bool) {
	best, bestDist := "", math.MaxInt
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			cell, ok := r.At(col+dc, row+dr)
			if !ok || cell.Node == "" {
				continue
			}
			if d := max(abs(dc), abs(dr)); d < bestDist {
				best, bestDist = cell.Node, d
			}
		}
	}
	return best, best != ""
}

// String returns the raster as plain text, one line per row
func (r *Raster) String() string {
	var b strings.Builder
	for _, row := range r.Cells {
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (r *Raster) inside(col, row int) bool {
	return col >= 0 && col < r.Cols && row >= 0 && row < r.Rows
}

func (r *Raster) set(col, row int, c Cell) {
	if r.inside(col, row) {
		r.Cells[row][col] = c
	}
}

// drawLine plots an edge with Bresenham's algorithm, leaving node cells alone
func (r *Raster) drawLine(x1, y1, x2, y2 int, color string) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	// Skip edges whose span dwarfs the grid; they only occur once a node
	// has been dragged far off screen.
	if max(dx, -dy) > 8*(r.Cols+r.Rows) {
		return
	}

	for {
		if r.inside(x1, y1) && r.Cells[y1][x1].Node == "" {
			r.Cells[y1][x1] = Cell{Rune: GlyphEdge, Color: color}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
