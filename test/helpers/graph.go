package helpers

import (
	"testing"

	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
)

// NewLineGraph builds the path 1 - 2 - ... - n with every edge at the
// given weight and unit distance
func NewLineGraph(t *testing.T, n int, weight float64) *graph.Graph {
	g := graph.New()
	for i := 1; i <= n; i++ {
		g.AddNode(&graph.Node{ID: i, X: float64(i - 1), Y: 0})
	}
	for i := 1; i < n; i++ {
		if err := g.AddEdgePair(i, i+1, weight, 1.0); err != nil {
			t.Fatalf("failed to add edge %d-%d: %v", i, i+1, err)
		}
	}
	return g
}
