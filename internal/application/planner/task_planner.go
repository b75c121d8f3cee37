// Package planner implements the vehicle route planner: a best-first
// search over task interleavings that, given a set of pickup/delivery
// orders, finds a time-minimal visit ordering respecting cargo capacity
// at every prefix and per-leg fuel feasibility.
package planner

import (
	"container/heap"
	"math/bits"

	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/pkg/utils"
)

// DefaultLambda is the active-task penalty weight of the heuristic
const DefaultLambda = 2.0

// RouteStop is one step of a vehicle route: the node to reach and the
// order serviced there. Colocated pickups and drops appear as successive
// stops sharing the node, discharged in sequence on a single arrival.
type RouteStop struct {
	Node    int
	OrderID int64
}

// Plan is the planner result. A nil Plan means no feasible ordering
// exists under the capacity and fuel bounds.
type Plan struct {
	Stops     []RouteStop
	TotalTime float64

	// Root is the initial search state, kept for diagnostics
	Root *SearchNode
}

// SearchNode is a state in the task-interleaving search space
type SearchNode struct {
	node      int
	picked    uint64 // bitmask over orders whose pickup occurred
	delivered uint64 // bitmask over orders whose delivery occurred
	load      int
	g         float64
	f         float64
	depth     int
	seq       int // insertion order, the tie-breaker
	parent    *SearchNode
	stop      RouteStop // the stop that led to this state
}

type openList []*SearchNode

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openList) Push(x any) { *o = append(*o, x.(*SearchNode)) }

func (o *openList) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}

// TaskPlanner searches task orderings over a graph snapshot. One planner
// is owned by one vehicle; it is not safe for concurrent use.
type TaskPlanner struct {
	cache  *graph.RouteCache
	lambda float64
}

// NewTaskPlanner creates a planner with the default heuristic weight
func NewTaskPlanner() *TaskPlanner {
	return &TaskPlanner{cache: graph.NewRouteCache(), lambda: DefaultLambda}
}

// Plan finds a minimum-time ordering of pickups and deliveries for the
// given orders starting at startNode. The route cache is cleared on
// entry so no memoized path predates the latest traffic update.
//
// The heuristic h = avg_deliver_time x remaining_tasks - lambda x
// active_tasks is deliberately inadmissible: it biases the search toward
// finishing half-completed orders before starting new ones. The search
// stays complete over the finite state space but is not guaranteed
// optimal.
// Orders whose pickup already occurred (Started) enter the search with
// their pickup bit set, so only their delivery is scheduled.
func (p *TaskPlanner) Plan(g *graph.Graph, startNode int, orders []*order.Order, capacity int, maxFuel, vehicleWeightKg float64) *Plan {
	p.cache.Clear()

	root := &SearchNode{node: startNode}
	for i, o := range orders {
		if o.Started {
			root.picked |= uint64(1) << uint(i)
			root.load += o.Quantity
			root.depth++
		}
	}
	if len(orders) == 0 {
		return &Plan{Stops: nil, TotalTime: 0, Root: root}
	}

	n := len(orders)
	goalDepth := 2 * n

	avgCost := 0.0
	for _, o := range orders {
		avgCost += o.DeliverTime
	}
	avgCost /= float64(n)

	seq := 0
	open := &openList{}
	heap.Init(open)
	root.f = p.heuristic(avgCost, goalDepth, root)
	heap.Push(open, root)

	type stateKey struct {
		node      int
		picked    uint64
		delivered uint64
	}
	bestG := map[stateKey]float64{}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*SearchNode)

		if cur.depth == goalDepth {
			return reconstruct(cur, root)
		}

		key := stateKey{cur.node, cur.picked, cur.delivered}
		if g0, seen := bestG[key]; seen && g0 <= cur.g {
			continue
		}
		bestG[key] = cur.g

		for i, o := range orders {
			bit := uint64(1) << uint(i)

			if cur.picked&bit == 0 {
				// Pickup: must not overflow capacity, leg must be
				// fuel-feasible (full tank after each stop).
				if cur.load+o.Quantity > capacity {
					continue
				}
				leg, err := p.cache.ShortestPath(g, cur.node, o.SenderLocation, vehicleWeightKg)
				if err != nil || leg.TotalFuel > maxFuel {
					continue
				}
				seq++
				next := &SearchNode{
					node:      o.SenderLocation,
					picked:    cur.picked | bit,
					delivered: cur.delivered,
					load:      cur.load + o.Quantity,
					g:         cur.g + leg.TotalTime,
					depth:     cur.depth + 1,
					seq:       seq,
					parent:    cur,
					stop:      RouteStop{Node: o.SenderLocation, OrderID: o.ID},
				}
				next.f = next.g + p.heuristic(avgCost, goalDepth, next)
				heap.Push(open, next)
				continue
			}

			if cur.delivered&bit == 0 {
				leg, err := p.cache.ShortestPath(g, cur.node, o.ReceiverLocation, vehicleWeightKg)
				if err != nil || leg.TotalFuel > maxFuel {
					continue
				}
				seq++
				next := &SearchNode{
					node:      o.ReceiverLocation,
					picked:    cur.picked,
					delivered: cur.delivered | bit,
					load:      cur.load - o.Quantity,
					g:         cur.g + leg.TotalTime,
					depth:     cur.depth + 1,
					seq:       seq,
					parent:    cur,
					stop:      RouteStop{Node: o.ReceiverLocation, OrderID: o.ID},
				}
				next.f = next.g + p.heuristic(avgCost, goalDepth, next)
				heap.Push(open, next)
			}
		}
	}

	// Open set exhausted: no feasible ordering
	return nil
}

func (p *TaskPlanner) heuristic(avgCost float64, goalDepth int, s *SearchNode) float64 {
	remaining := float64(goalDepth - s.depth)
	active := float64(bits.OnesCount64(s.picked) - bits.OnesCount64(s.delivered))
	return avgCost*remaining - p.lambda*active
}

func reconstruct(goal, root *SearchNode) *Plan {
	var stops []RouteStop
	for n := goal; n != nil && n.parent != nil; n = n.parent {
		stops = append(stops, n.stop)
	}
	for i, j := 0, len(stops)-1; i < j; i, j = i+1, j-1 {
		stops[i], stops[j] = stops[j], stops[i]
	}
	return &Plan{Stops: stops, TotalTime: utils.Round3(goal.g), Root: root}
}
