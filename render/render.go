// Package render is the drawing surface of the editor: the viewport camera,
// the character raster used by the terminal front end, and the export
// renderers (SVG, ASCII, JSON, DOT) shared by the demo and the HTTP view.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/graphsketch/models"
)

// OutputOptions defines rendering configuration options
type OutputOptions struct {
	Format     string    // Output format (svg, ascii, json, dot)
	Width      float64   // Width of the output
	Height     float64   // Height of the output
	Background string    // Background color
	Padding    float64   // Fraction of each side left empty when fitting
	NodeColor  string    // Color of nodes without one
	EdgeColor  string    // Color of edges without one
	EdgeWidth  float64   // Stroke width of edges
	FontSize   float64   // Font size for labels
	ShowLabels bool      // Show node labels, falling back to the id
	Timestamp  bool      // Include a timestamp
	Projector  Projector // Camera to draw through; nil fits the graph
}

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render creates a visualization of the graph using the provided options
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// ContentType returns the media type of the rendered output
	ContentType() string
}

// NewDefaultOptions creates a default set of output options
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Width:      800,
		Height:     600,
		Background: "#f8f8f8",
		Padding:    0.1,
		NodeColor:  "#999999",
		EdgeColor:  "#cccccc",
		EdgeWidth:  1.0,
		FontSize:   10.0,
		ShowLabels: true,
	}
}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii", "txt":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Formats lists the formats GetRenderer accepts
func Formats() []string {
	return []string{"svg", "ascii", "json", "dot"}
}

// GenerateWithOptions renders graph in options.Format
func GenerateWithOptions(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	renderer, err := GetRenderer(options.Format)
	if err != nil {
		return nil, err
	}
	return renderer.Render(graph, options)
}

// projector returns the camera to draw through
func (o *OutputOptions) projector(graph *models.Graph, width, height float64) Projector {
	if o.Projector != nil {
		return o.Projector
	}
	v := NewViewport(width, height, o.Padding)
	v.SetContentBounds(graph.Bounds())
	return v
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// ContentType returns the media type of SVG output
func (r *SVGRenderer) ContentType() string {
	return "image/svg+xml"
}

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer
	proj := options.projector(graph, options.Width, options.Height)

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, options.Width, options.Height, options.Width, options.Height, xmlEscape(options.Background))

	screen := make(map[string]models.Point, len(graph.Nodes))
	for _, node := range graph.Nodes {
		screen[node.ID] = proj.GraphToViewport(node.Position())
	}

	for _, edge := range graph.Edges {
		from, ok1 := screen[edge.Source]
		to, ok2 := screen[edge.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%g"/>
`, from.X, from.Y, to.X, to.Y, xmlEscape(fallback(edge.Color, options.EdgeColor)), options.EdgeWidth)
	}

	for _, node := range graph.Nodes {
		p := screen[node.ID]
		radius := node.Size / 2
		if radius <= 0 {
			radius = 5
		}
		stroke := "rgba(0,0,0,0.3)"
		if node.Highlighted {
			stroke = "#000000"
		}
		dash := ""
		if node.IsPlaceholder() {
			dash = ` stroke-dasharray="2,2"`
		}
		fmt.Fprintf(&buf, `<circle id="node-%s" cx="%.2f" cy="%.2f" r="%g" fill="%s" stroke="%s" stroke-width="1"%s/>
`, xmlEscape(node.ID), p.X, p.Y, radius, xmlEscape(fallback(node.Color, options.NodeColor)), stroke, dash)

		if options.ShowLabels && !node.IsPlaceholder() {
			fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%g" fill="#333333" text-anchor="middle">%s</text>
`, p.X, p.Y+radius+options.FontSize+2, options.FontSize, xmlEscape(fallback(node.Label, node.ID)))
		}
	}

	if options.Timestamp {
		fmt.Fprintf(&buf, `<text x="5" y="%g" font-family="sans-serif" font-size="8" fill="#808080">%s</text>
`, options.Height-5, time.Now().Format("2006-01-02 15:04:05"))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// ContentType returns the media type of ASCII output
func (r *ASCIIRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render creates a character-grid representation of the graph. Width and
// Height are scaled down so one cell covers 10x20 output units.
func (r *ASCIIRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	cols := max(int(options.Width/10), 40)
	rows := max(int(options.Height/20), 20)
	const aspect = 2.0

	proj := options.projector(graph, float64(cols-2), float64(rows-2)*aspect)
	inner := Rasterize(graph, proj, cols-2, rows-2, aspect)

	var b strings.Builder
	border := "+" + strings.Repeat("-", cols-2) + "+\n"
	b.WriteString(border)
	for _, row := range inner.Cells {
		b.WriteRune('|')
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		b.WriteString("|\n")
	}
	b.WriteString(border)

	if options.Timestamp {
		b.WriteString(time.Now().Format("2006-01-02 15:04"))
		b.WriteRune('\n')
	}
	return []byte(b.String()), nil
}

// JSONRenderer outputs the graph as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// ContentType returns the media type of JSON output
func (r *JSONRenderer) ContentType() string {
	return "application/json"
}

// Render creates a JSON representation of the graph
func (r *JSONRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	type jsonGraph struct {
		Nodes    []models.Node  `json:"nodes"`
		Edges    []models.Edge  `json:"edges"`
		Metadata map[string]any `json:"metadata"`
	}

	data := jsonGraph{
		Nodes: graph.Nodes,
		Edges: graph.Edges,
		Metadata: map[string]any{
			"nodeCount": len(graph.Nodes),
			"edgeCount": len(graph.Edges),
		},
	}
	if data.Nodes == nil {
		data.Nodes = []models.Node{}
	}
	if data.Edges == nil {
		data.Edges = []models.Edge{}
	}
	if box, ok := graph.Bounds(); ok {
		data.Metadata["bounds"] = box
	}
	if options.Timestamp {
		data.Metadata["timestamp"] = time.Now().Format(time.RFC3339)
	}

	return json.MarshalIndent(data, "", "  ")
}

// DOTRenderer outputs Graphviz DOT format
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string {
	return "DOT Renderer"
}

// ContentType returns the media type of DOT output
func (r *DOTRenderer) ContentType() string {
	return "text/vnd.graphviz"
}

// Render creates an undirected DOT representation of the graph. Positions
// are pinned so neato reproduces the editor layout.
func (r *DOTRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%q];\n", options.Background)
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fontname=\"Arial\", fontsize=%g];\n", options.FontSize)

	for _, node := range graph.Nodes {
		shape := ""
		if node.IsPlaceholder() {
			shape = ", shape=point"
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q, pos=\"%g,%g!\"%s];\n",
			node.ID, fallback(node.Label, node.ID), HexColor(fallback(node.Color, options.NodeColor), "#999999"),
			node.X, -node.Y, shape)
	}

	for _, edge := range graph.Edges {
		fmt.Fprintf(&buf, "  %q -- %q [color=%q];\n",
			edge.Source, edge.Target, HexColor(fallback(edge.Color, options.EdgeColor), "#cccccc"))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
