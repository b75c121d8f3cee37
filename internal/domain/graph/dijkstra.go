package graph

import (
	"container/heap"

	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/pkg/utils"
)

// Route is a Dijkstra result: the node sequence plus the cumulative time
// and fuel, both rounded to three decimals.
type Route struct {
	Path      []int
	TotalTime float64
	TotalFuel float64
}

// dijkstraItem is an entry in the priority queue. Ordering is
// lexicographic: cumulative time first, cumulative fuel second.
type dijkstraItem struct {
	node  int
	time  float64
	fuel  float64
	index int
}

type dijkstraQueue []*dijkstraItem

func (q dijkstraQueue) Len() int { return len(q) }

func (q dijkstraQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].fuel < q[j].fuel
}

func (q dijkstraQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *dijkstraQueue) Push(x any) {
	item := x.(*dijkstraItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// ShortestPath runs lexicographic (time, fuel) Dijkstra from one node to
// another for a vehicle of the given mass. Edge time is the current
// weight; edge fuel follows the consumption formula.
func (g *Graph) ShortestPath(from, to int, vehicleWeightKg float64) (*Route, error) {
	if !g.HasNode(from) {
		return nil, shared.NewNodeNotFoundError(from)
	}
	if !g.HasNode(to) {
		return nil, shared.NewNodeNotFoundError(to)
	}

	if from == to {
		return &Route{Path: []int{from}, TotalTime: 0, TotalFuel: 0}, nil
	}

	type cost struct {
		time float64
		fuel float64
	}
	best := map[int]cost{from: {0, 0}}
	parent := map[int]int{}
	settled := map[int]bool{}

	q := &dijkstraQueue{}
	heap.Init(q)
	heap.Push(q, &dijkstraItem{node: from})

	for q.Len() > 0 {
		item := heap.Pop(q).(*dijkstraItem)
		if settled[item.node] {
			continue
		}
		settled[item.node] = true

		if item.node == to {
			break
		}

		for _, e := range g.OutEdges(item.node) {
			if settled[e.To] {
				continue
			}
			nt := item.time + e.Weight
			nf := item.fuel + e.FuelConsumption(vehicleWeightKg)
			cur, seen := best[e.To]
			if !seen || nt < cur.time || (nt == cur.time && nf < cur.fuel) {
				best[e.To] = cost{nt, nf}
				parent[e.To] = item.node
				heap.Push(q, &dijkstraItem{node: e.To, time: nt, fuel: nf})
			}
		}
	}

	final, ok := best[to]
	if !ok || !settled[to] {
		return nil, shared.NewNoRouteError(from, to)
	}

	// Walk parents back to the start
	var path []int
	for n := to; ; n = parent[n] {
		path = append(path, n)
		if n == from {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return &Route{
		Path:      path,
		TotalTime: utils.Round3(final.time),
		TotalFuel: utils.Round3(final.fuel),
	}, nil
}
