// Package physics holds the spatial helpers of the editor: the tolerance-box
// collision search used when an edge-draw resolves, and the force-directed
// layout behind the arrange command.
package physics

import (
	"hash/fnv"
	"math"
	"sync"

	"github.com/TFMV/graphsketch/models"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// The simulation runs in a fixed frame and is mapped back onto the graph's
// bounding box when applied.
const (
	frameWidth  = 800
	frameHeight = 600
)

// LayoutAlgorithm defines an interface for layout algorithms
type LayoutAlgorithm interface {
	Initialize(graph *models.Graph)
	Step() bool // Returns true if stable, false if needs more steps
	Apply(graph *models.Graph)
	GetName() string
}

// ForceDirectedLayout implements a Fruchterman-Reingold force-directed layout.
// Placeholder nodes are pinned: they push on others but never move.
type ForceDirectedLayout struct {
	bounds          models.BBox
	order           []string
	pinned          map[string]bool
	nodePositions   map[string]position
	nodeVelocities  map[string]velocity
	forces          map[string]force
	springs         []spring
	temperature     float64
	k               float64 // optimal distance
	iterations      int
	maxIterations   int
	stable          bool
	energyThreshold float64
	gravity         float64
	repulsionForce  float64
	dampingFactor   float64
	springConstant  float64
	randState       uint32
	mu              sync.Mutex
}

type force struct {
	fx, fy float64
}

type position struct {
	x, y float64
}

type velocity struct {
	vx, vy float64
}

// spring is an attracting pair; weight counts the edges between them
type spring struct {
	a, b   string
	weight float64
}

// NewForceDirectedLayout creates a layout that runs at most maxIterations
// steps. A non-positive value selects 1000.
func NewForceDirectedLayout(maxIterations int) *ForceDirectedLayout {
	if maxIterations <= 0 {
		maxIterations = 1000
	}
	return &ForceDirectedLayout{
		maxIterations:   maxIterations,
		temperature:     1.0,
		energyThreshold: 0.001,
		gravity:         0.05,
		repulsionForce:  100.0,
		dampingFactor:   0.9,
		springConstant:  0.04,
		randState:       1234567890,
	}
}

// GetName returns the name of the layout algorithm
func (fd *ForceDirectedLayout) GetName() string {
	return "Force-Directed Layout"
}

// Initialize loads the node positions of graph into the simulation frame
func (fd *ForceDirectedLayout) Initialize(graph *models.Graph) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	fd.iterations = 0
	fd.stable = false
	fd.temperature = 1.0
	fd.order = fd.order[:0]
	fd.pinned = make(map[string]bool)
	fd.nodePositions = make(map[string]position, len(graph.Nodes))
	fd.nodeVelocities = make(map[string]velocity, len(graph.Nodes))
	fd.forces = make(map[string]force, len(graph.Nodes))
	fd.springs = nil

	box, ok := graph.Bounds()
	if !ok {
		return
	}
	fd.bounds = box.Normalize(1)

	nodeCount := float64(len(graph.Nodes))
	fd.k = math.Sqrt(frameWidth * frameHeight / nodeCount)

	taken := make(map[position]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		pos := fd.toFrame(node.Position())
		// Coincident nodes exert no directional force on each other
		for taken[pos] && !node.IsPlaceholder() {
			pos.x += (fd.fastRand() - 0.5) * fd.k * 0.1
			pos.y += (fd.fastRand() - 0.5) * fd.k * 0.1
		}
		taken[pos] = true

		fd.order = append(fd.order, node.ID)
		fd.nodePositions[node.ID] = pos
		fd.nodeVelocities[node.ID] = velocity{}
		fd.forces[node.ID] = force{}
		if node.IsPlaceholder() {
			fd.pinned[node.ID] = true
		}
	}

	index := make(map[models.EdgeKey]int)
	for _, edge := range graph.Edges {
		key := edge.Key()
		if key.A == key.B {
			continue
		}
		if _, ok := fd.nodePositions[key.A]; !ok {
			continue
		}
		if _, ok := fd.nodePositions[key.B]; !ok {
			continue
		}
		if i, ok := index[key]; ok {
			fd.springs[i].weight++
			continue
		}
		index[key] = len(fd.springs)
		fd.springs = append(fd.springs, spring{a: key.A, b: key.B, weight: 1})
	}
}

// Step performs one iteration of the layout algorithm
func (fd *ForceDirectedLayout) Step() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	if len(fd.order) == 0 {
		return true
	}
	if fd.iterations >= fd.maxIterations || fd.stable {
		return true
	}

	for id := range fd.forces {
		fd.forces[id] = force{}
	}

	centerX := frameWidth / 2.0
	centerY := frameHeight / 2.0
	for i, id1 := range fd.order {
		pos1 := fd.nodePositions[id1]

		// Gravity grows with the distance from the center
		dx := centerX - pos1.x
		dy := centerY - pos1.y
		distance := math.Max(0.1, math.Sqrt(dx*dx+dy*dy))
		gravityFactor := fd.gravity * (distance / math.Min(frameWidth, frameHeight))
		fd.addForce(id1, dx*gravityFactor, dy*gravityFactor)

		for _, id2 := range fd.order[i+1:] {
			pos2 := fd.nodePositions[id2]

			dx := pos1.x - pos2.x
			dy := pos1.y - pos2.y
			distance := math.Max(0.1, math.Sqrt(dx*dx+dy*dy))

			// F = k^2 / distance
			repulsive := (fd.k * fd.k / distance) * fd.repulsionForce / 100.0
			dx /= distance
			dy /= distance
			fd.addForce(id1, dx*repulsive, dy*repulsive)
			fd.addForce(id2, -dx*repulsive, -dy*repulsive)
		}
	}

	for _, s := range fd.springs {
		pos1 := fd.nodePositions[s.a]
		pos2 := fd.nodePositions[s.b]

		dx := pos2.x - pos1.x
		dy := pos2.y - pos1.y
		distance := math.Max(0.1, math.Sqrt(dx*dx+dy*dy))

		// F = distance^2 / k, stronger for parallel edges
		attractive := distance * distance / fd.k * fd.springConstant * (1.0 + s.weight)
		dx /= distance
		dy /= distance
		fd.addForce(s.a, dx*attractive, dy*attractive)
		fd.addForce(s.b, -dx*attractive, -dy*attractive)
	}

	// Apply forces with temperature limiting (simulated annealing)
	totalEnergy := 0.0
	padding := fd.k * 0.5
	for _, id := range fd.order {
		if fd.pinned[id] {
			continue
		}
		f := fd.forces[id]
		magnitude := math.Sqrt(f.fx*f.fx + f.fy*f.fy)
		if magnitude > 0 {
			scale := math.Min(magnitude, fd.temperature) / magnitude
			f.fx *= scale
			f.fy *= scale
		}

		v := fd.nodeVelocities[id]
		v.vx = (v.vx + f.fx) * fd.dampingFactor
		v.vy = (v.vy + f.fy) * fd.dampingFactor
		fd.nodeVelocities[id] = v

		pos := fd.nodePositions[id]
		pos.x = clamp(pos.x+v.vx, padding, frameWidth-padding)
		pos.y = clamp(pos.y+v.vy, padding, frameHeight-padding)
		fd.nodePositions[id] = pos

		totalEnergy += magnitude
	}

	fd.temperature *= 0.95
	fd.stable = totalEnergy/float64(len(fd.order)) < fd.energyThreshold
	fd.iterations++
	return fd.stable
}

// Apply updates node positions in the graph. Pinned nodes keep their
// original coordinates.
func (fd *ForceDirectedLayout) Apply(graph *models.Graph) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		if fd.pinned[node.ID] {
			continue
		}
		if pos, ok := fd.nodePositions[node.ID]; ok {
			node.SetPosition(fd.fromFrame(pos))
		}
	}
}

// Iterations returns the number of steps taken since Initialize
func (fd *ForceDirectedLayout) Iterations() int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.iterations
}

func (fd *ForceDirectedLayout) addForce(id string, fx, fy float64) {
	f := fd.forces[id]
	fd.forces[id] = force{fx: f.fx + fx, fy: f.fy + fy}
}

func (fd *ForceDirectedLayout) toFrame(p models.Point) position {
	return position{
		x: (p.X - fd.bounds.MinX) / fd.bounds.Width() * frameWidth,
		y: (p.Y - fd.bounds.MinY) / fd.bounds.Height() * frameHeight,
	}
}

func (fd *ForceDirectedLayout) fromFrame(p position) models.Point {
	return models.Point{
		X: fd.bounds.MinX + p.x/frameWidth*fd.bounds.Width(),
		Y: fd.bounds.MinY + p.y/frameHeight*fd.bounds.Height(),
	}
}

// fastRand is a xorshift generator returning values in [0, 1]
func (fd *ForceDirectedLayout) fastRand() float64 {
	fd.randState ^= fd.randState << 13
	fd.randState ^= fd.randState >> 17
	fd.randState ^= fd.randState << 5
	return float64(fd.randState) / float64(math.MaxUint32)
}

// JitterLayout displaces the result of a base layout with simplex noise, so
// arranged graphs look hand placed.
type JitterLayout struct {
	baseLayout     LayoutAlgorithm
	noiseGenerator opensimplex.Noise
	noiseScale     float64
	amount         float64 // fraction of the bounding box span
}

// NewJitterLayout wraps base. amount is the largest displacement as a
// fraction of the graph's extent.
func NewJitterLayout(base LayoutAlgorithm, amount float64, seed int64) *JitterLayout {
	return &JitterLayout{
		baseLayout:     base,
		noiseGenerator: opensimplex.New(seed),
		noiseScale:     3.0,
		amount:         amount,
	}
}

// GetName returns the name of the layout algorithm
func (jl *JitterLayout) GetName() string {
	return "Jittered " + jl.baseLayout.GetName()
}

// Initialize initializes the base layout
func (jl *JitterLayout) Initialize(graph *models.Graph) {
	jl.baseLayout.Initialize(graph)
}

// Step advances the base layout
func (jl *JitterLayout) Step() bool {
	return jl.baseLayout.Step()
}

// Apply applies the base layout and then the noise displacement
func (jl *JitterLayout) Apply(graph *models.Graph) {
	jl.baseLayout.Apply(graph)

	box, ok := graph.Bounds()
	if !ok || jl.amount == 0 {
		return
	}
	box = box.Normalize(1)
	span := math.Max(box.Width(), box.Height())

	for i := range graph.Nodes {
		node := &graph.Nodes[i]
		if node.IsPlaceholder() {
			continue
		}
		phase := nodePhase(node.ID)
		nx := (node.X - box.MinX) / box.Width() * jl.noiseScale
		ny := (node.Y - box.MinY) / box.Height() * jl.noiseScale
		node.X += jl.noiseGenerator.Eval3(nx, ny, phase) * jl.amount * span
		node.Y += jl.noiseGenerator.Eval3(nx+100, ny+100, phase) * jl.amount * span
	}
}

// nodePhase derives a stable noise offset from the node id
func nodePhase(id string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return float64(h.Sum32()%1000) * 0.1
}

// Options configure Arrange
type Options struct {
	Iterations int
	Jitter     float64
	Seed       int64
}

// GetLayoutAlgorithm returns the layout selected by opts
func GetLayoutAlgorithm(opts Options) LayoutAlgorithm {
	var layout LayoutAlgorithm = NewForceDirectedLayout(opts.Iterations)
	if opts.Jitter > 0 {
		layout = NewJitterLayout(layout, opts.Jitter, opts.Seed)
	}
	return layout
}

// Arrange runs a layout on a copy of graph until it settles and returns the
// new position of every node that moved.
func Arrange(graph *models.Graph, opts Options) map[string]models.Point {
	work := &models.Graph{
		Nodes: make([]models.Node, len(graph.Nodes)),
		Edges: graph.Edges,
	}
	copy(work.Nodes, graph.Nodes)

	layout := GetLayoutAlgorithm(opts)
	layout.Initialize(work)
	for !layout.Step() {
	}
	layout.Apply(work)

	moved := make(map[string]models.Point)
	for i, node := range work.Nodes {
		if node.Position() != graph.Nodes[i].Position() {
			moved[node.ID] = node.Position()
		}
	}
	return moved
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
