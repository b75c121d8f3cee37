package graph

import (
	"fmt"
	"math/rand"

	"github.com/andrescamacho/supplysim-go/pkg/utils"
)

// GenerationMode controls how initial edge weights are drawn
type GenerationMode string

const (
	// GenerationUniform gives every edge the same baseline weight of 1
	GenerationUniform GenerationMode = "uniform"
	// GenerationDifferent draws each edge weight uniformly from [1, MaxCost]
	GenerationDifferent GenerationMode = "different"
)

// BuilderConfig describes the grid world to generate
type BuilderConfig struct {
	Width          int
	Height         int
	Mode           GenerationMode
	MaxCost        int
	Highway        bool
	NumWarehouses  int
	NumSuppliers   int
	NumStores      int
	NumGasStations int
}

// Facilities lists the node ids assigned to each role during placement
type Facilities struct {
	Warehouses  []int
	Suppliers   []int
	Stores      []int
	GasStations []int
}

// Builder generates the initial road network: a connected W x H grid,
// optionally with one long-haul highway edge, and places facilities by
// shuffling the node list under the supplied RNG. The same seed always
// yields the same cost matrix and facility assignment.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a graph builder for the given configuration
func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build generates the graph and facility placement
func (b *Builder) Build(rng *rand.Rand) (*Graph, *Facilities, error) {
	w, h := b.cfg.Width, b.cfg.Height
	if w < 1 || h < 1 {
		return nil, nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", w, h)
	}
	total := w * h
	if n := b.cfg.NumWarehouses + b.cfg.NumSuppliers + b.cfg.NumStores + b.cfg.NumGasStations; n > total {
		return nil, nil, fmt.Errorf("facility count %d exceeds node count %d", n, total)
	}

	g := New()

	// Nodes are numbered 1..W*H, row-major; coordinates are grid cells in km
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			g.AddNode(&Node{ID: row*w + col + 1, X: float64(col), Y: float64(row)})
		}
	}

	// Grid edges: right and down neighbours, added as pairs
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			id := row*w + col + 1
			if col+1 < w {
				if err := g.AddEdgePair(id, id+1, b.edgeWeight(rng), 1.0); err != nil {
					return nil, nil, err
				}
			}
			if row+1 < h {
				if err := g.AddEdgePair(id, id+w, b.edgeWeight(rng), 1.0); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	// One long-haul highway between the two corner nodes, weight 1
	if b.cfg.Highway && total > 1 {
		first, _ := g.Node(1)
		last, _ := g.Node(total)
		dist := utils.Euclidean(first.X, first.Y, last.X, last.Y)
		if err := g.AddEdgePair(1, total, 1.0, dist); err != nil {
			return nil, nil, err
		}
	}

	facilities := b.placeFacilities(g, rng)
	return g, facilities, nil
}

// BuildFromMatrix generates the graph exactly like Build (consuming the
// same RNG sequence, so facility placement stays aligned with the seed)
// and then overwrites edge weights from a persisted cost matrix.
func (b *Builder) BuildFromMatrix(rng *rand.Rand, matrix [][]float64) (*Graph, *Facilities, error) {
	g, facilities, err := b.Build(rng)
	if err != nil {
		return nil, nil, err
	}
	g.ApplyCostMatrix(matrix)
	return g, facilities, nil
}

func (b *Builder) edgeWeight(rng *rand.Rand) float64 {
	if b.cfg.Mode == GenerationDifferent && b.cfg.MaxCost > 1 {
		return float64(1 + rng.Intn(b.cfg.MaxCost))
	}
	return 1.0
}

// placeFacilities shuffles the node list and assigns role flags in order:
// warehouses, suppliers, stores, gas stations. Each node receives at most
// one role from this procedure.
func (b *Builder) placeFacilities(g *Graph, rng *rand.Rand) *Facilities {
	ids := g.NodeIDs()
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	f := &Facilities{}
	cursor := 0
	take := func(n int) []int {
		out := ids[cursor : cursor+n]
		cursor += n
		return out
	}

	for _, id := range take(b.cfg.NumWarehouses) {
		n, _ := g.Node(id)
		n.IsWarehouse = true
		f.Warehouses = append(f.Warehouses, id)
	}
	for _, id := range take(b.cfg.NumSuppliers) {
		n, _ := g.Node(id)
		n.IsSupplier = true
		f.Suppliers = append(f.Suppliers, id)
	}
	for _, id := range take(b.cfg.NumStores) {
		n, _ := g.Node(id)
		n.IsStore = true
		f.Stores = append(f.Stores, id)
	}
	for _, id := range take(b.cfg.NumGasStations) {
		n, _ := g.Node(id)
		n.IsGasStation = true
		f.GasStations = append(f.GasStations, id)
	}
	return f
}
