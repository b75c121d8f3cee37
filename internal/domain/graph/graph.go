package graph

import (
	"sort"

	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Graph is an arena-allocated directed weighted graph: one node table, one
// edge table, neighbour lists as edge-index arrays. Dijkstra, the task
// planner and serialization all operate on integer ids, never on pointer
// webs.
//
// Invariants:
// - both endpoints of every edge are present in the node table
// - neighbour lists are consistent with the edge table
// - edge Weight >= InitialWeight >= 1 at all times
type Graph struct {
	nodes     map[int]*Node
	edges     []*Edge
	adjacency map[int][]int   // node id -> indices into edges
	edgeIndex map[[2]int]int  // (from, to) -> index into edges
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes:     make(map[int]*Node),
		adjacency: make(map[int][]int),
		edgeIndex: make(map[[2]int]int),
	}
}

// AddNode inserts a node into the node table
func (g *Graph) AddNode(n *Node) {
	g.nodes[n.ID] = n
}

// AddEdgePair inserts both directions of a road segment with the same
// weight and distance. The directions are independent thereafter.
func (g *Graph) AddEdgePair(from, to int, weight, distance float64) error {
	if err := g.addEdge(from, to, weight, distance); err != nil {
		return err
	}
	return g.addEdge(to, from, weight, distance)
}

func (g *Graph) addEdge(from, to int, weight, distance float64) error {
	if _, ok := g.nodes[from]; !ok {
		return shared.NewNodeNotFoundError(from)
	}
	if _, ok := g.nodes[to]; !ok {
		return shared.NewNodeNotFoundError(to)
	}
	e := &Edge{From: from, To: to, Weight: weight, InitialWeight: weight, Distance: distance}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.adjacency[from] = append(g.adjacency[from], idx)
	g.edgeIndex[[2]int{from, to}] = idx
	return nil
}

// Node returns the node with the given id
func (g *Graph) Node(id int) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, shared.NewNodeNotFoundError(id)
	}
	return n, nil
}

// HasNode reports whether the node exists
func (g *Graph) HasNode(id int) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns the directed edge from -> to
func (g *Graph) Edge(from, to int) (*Edge, error) {
	idx, ok := g.edgeIndex[[2]int{from, to}]
	if !ok {
		return nil, shared.NewEdgeNotFoundError(from, to)
	}
	return g.edges[idx], nil
}

// SetEdgeWeight updates the current weight of a single directed edge.
// The weight is clamped at the edge's initial weight from below: traffic
// clearing relaxes toward the baseline, never under it.
func (g *Graph) SetEdgeWeight(from, to int, weight float64) error {
	e, err := g.Edge(from, to)
	if err != nil {
		return err
	}
	if weight < e.InitialWeight {
		weight = e.InitialWeight
	}
	e.Weight = weight
	return nil
}

// OutEdges returns the edges leaving a node
func (g *Graph) OutEdges(id int) []*Edge {
	indices := g.adjacency[id]
	out := make([]*Edge, len(indices))
	for i, idx := range indices {
		out[i] = g.edges[idx]
	}
	return out
}

// Edges returns the full edge table
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// NodeIDs returns all node ids in ascending order
func (g *Graph) NodeIDs() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// NodesWhere returns the ids of nodes matching the predicate, ascending
func (g *Graph) NodesWhere(pred func(*Node) bool) []int {
	var ids []int
	for id, n := range g.nodes {
		if pred(n) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy of the graph. Vehicles hold their own snapshot
// of edge weights, updated only by transit events; they never touch the
// world's ground-truth graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, n := range g.nodes {
		cn := *n
		c.nodes[cn.ID] = &cn
	}
	c.edges = make([]*Edge, len(g.edges))
	for i, e := range g.edges {
		ce := *e
		c.edges[i] = &ce
	}
	for id, indices := range g.adjacency {
		c.adjacency[id] = append([]int(nil), indices...)
	}
	for k, v := range g.edgeIndex {
		c.edgeIndex[k] = v
	}
	return c
}

// CostMatrix serializes the current edge weights into a square matrix of
// size (maxID+1) x (maxID+1), zero where no edge exists. Used for seed
// persistence and replay.
func (g *Graph) CostMatrix() [][]float64 {
	maxID := 0
	for id := range g.nodes {
		if id > maxID {
			maxID = id
		}
	}
	m := make([][]float64, maxID+1)
	for i := range m {
		m[i] = make([]float64, maxID+1)
	}
	for _, e := range g.edges {
		m[e.From][e.To] = e.Weight
	}
	return m
}

// ApplyCostMatrix overwrites both current and initial weights of existing
// edges from a persisted matrix. Entries for missing edges are ignored.
func (g *Graph) ApplyCostMatrix(m [][]float64) {
	for _, e := range g.edges {
		if e.From < len(m) && e.To < len(m[e.From]) {
			if w := m[e.From][e.To]; w > 0 {
				e.Weight = w
				e.InitialWeight = w
			}
		}
	}
}
