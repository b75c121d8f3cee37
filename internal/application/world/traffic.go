// Package world owns the ground-truth graph and generates traffic events
// deterministically under its RNG.
package world

import (
	"math/rand"

	"github.com/andrescamacho/supplysim-go/internal/domain/event"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
)

// TrafficConfig holds the per-step perturbation probabilities
type TrafficConfig struct {
	// OnsetProbability is the chance per step of new congestion on a
	// random edge
	OnsetProbability float64
	// SpreadProbability is the chance per step that congestion spreads
	// from a congested edge to one of its neighbours
	SpreadProbability float64
	// ClearProbability is the chance per step that a congested edge
	// relaxes back toward its initial weight
	ClearProbability float64
	// MaxCost caps the random weight increment of a single perturbation
	MaxCost float64
}

// TrafficModel applies traffic perturbations to the graph over simulated
// windows. The same seed always produces the same trajectory.
type TrafficModel struct {
	g   *graph.Graph
	rng *rand.Rand
	cfg TrafficConfig
}

// NewTrafficModel creates a traffic model over the given graph
func NewTrafficModel(g *graph.Graph, rng *rand.Rand, cfg TrafficConfig) *TrafficModel {
	return &TrafficModel{g: g, rng: rng, cfg: cfg}
}

// Graph exposes the ground-truth graph for read-only reflection
func (m *TrafficModel) Graph() *graph.Graph {
	return m.g
}

type edgeKey struct {
	from int
	to   int
}

// Simulate advances the model by window discrete steps and returns one
// TransitEvent per edge whose weight changed since the start of the
// window. Multiple changes to the same edge collapse to the latest value;
// Instant is the 0-based step of the last change.
func (m *TrafficModel) Simulate(window int) []event.TransitEvent {
	type change struct {
		instant int
		weight  float64
	}
	changed := make(map[edgeKey]change)

	record := func(e *graph.Edge, step int) {
		changed[edgeKey{e.From, e.To}] = change{instant: step, weight: e.Weight}
	}

	for step := 0; step < window; step++ {
		if m.rng.Float64() < m.cfg.OnsetProbability {
			if e := m.randomEdge(); e != nil {
				e.Weight += m.increment()
				record(e, step)
			}
		}
		if m.rng.Float64() < m.cfg.SpreadProbability {
			if e := m.randomNeighbourOfCongested(); e != nil {
				e.Weight += m.increment()
				record(e, step)
			}
		}
		if m.rng.Float64() < m.cfg.ClearProbability {
			if e := m.randomCongestedEdge(); e != nil {
				e.Weight -= m.increment()
				if e.Weight < e.InitialWeight {
					e.Weight = e.InitialWeight
				}
				record(e, step)
			}
		}
	}

	events := make([]event.TransitEvent, 0, len(changed))
	for _, e := range m.g.Edges() {
		c, ok := changed[edgeKey{e.From, e.To}]
		if !ok {
			continue
		}
		events = append(events, event.TransitEvent{
			Node1:              e.From,
			Node2:              e.To,
			NewWeight:          c.weight,
			NewFuelConsumption: e.FuelConsumption(graph.ReferenceVehicleWeightKg),
			Instant:            c.instant,
		})
	}
	return events
}

func (m *TrafficModel) increment() float64 {
	if m.cfg.MaxCost <= 0 {
		return 1
	}
	return m.rng.Float64() * m.cfg.MaxCost
}

func (m *TrafficModel) randomEdge() *graph.Edge {
	edges := m.g.Edges()
	if len(edges) == 0 {
		return nil
	}
	return edges[m.rng.Intn(len(edges))]
}

func (m *TrafficModel) randomCongestedEdge() *graph.Edge {
	var congested []*graph.Edge
	for _, e := range m.g.Edges() {
		if e.Weight > e.InitialWeight {
			congested = append(congested, e)
		}
	}
	if len(congested) == 0 {
		return nil
	}
	return congested[m.rng.Intn(len(congested))]
}

func (m *TrafficModel) randomNeighbourOfCongested() *graph.Edge {
	src := m.randomCongestedEdge()
	if src == nil {
		return nil
	}
	out := m.g.OutEdges(src.To)
	if len(out) == 0 {
		return nil
	}
	return out[m.rng.Intn(len(out))]
}
