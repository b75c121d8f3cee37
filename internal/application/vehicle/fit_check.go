package vehicle

import (
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
)

// fitCheck decides whether a proposed order fits the current plan without
// overflowing capacity, and what delivery time the seller should expect.
//
// Three outcomes:
//   - an idle vehicle fits anything: (true, precomputed deliver time)
//   - the proposal threads into the current route (pickup node reached
//     with capacity headroom, drop node downstream of it): (true,
//     cumulative time to the drop)
//   - otherwise the order would run after the current route: (false,
//     remaining route time + planner time over pending + proposed)
//
// A vehicle holding its configured maximum of orders always takes the
// third outcome.
func (a *Agent) fitCheck(o *order.Order) (bool, float64) {
	// A vehicle at its order cap never threads the proposal in; it can
	// only run after the current commitments.
	if a.cfg.MaxOrders > 0 && len(a.committed)+len(a.pending) >= a.cfg.MaxOrders {
		return false, a.projectedFutureTime(o)
	}
	if len(a.committed) == 0 {
		return true, o.DeliverTime
	}

	cumTime := a.remainingTime
	load := a.load
	prev := a.location
	pickedUp := false

	cache := graph.NewRouteCache()
	for i, stop := range a.route {
		if i > 0 || a.nextNode == 0 {
			leg, err := cache.ShortestPath(a.g, prev, stop.Node, a.cfg.WeightKg)
			if err != nil {
				return false, a.projectedFutureTime(o)
			}
			cumTime += leg.TotalTime
		}
		prev = stop.Node

		// Insert the proposed pickup at the first visit of its sender node
		if !pickedUp && stop.Node == o.SenderLocation {
			pickedUp = true
			load += o.Quantity
			if load > a.cfg.Capacity {
				return false, a.projectedFutureTime(o)
			}
		}

		// Apply this stop's own load delta
		if co, _ := a.findCommitted(stop.OrderID); co != nil {
			if stop.Node == co.SenderLocation && !co.Started {
				load += co.Quantity
				if load > a.cfg.Capacity {
					return false, a.projectedFutureTime(o)
				}
			} else if stop.Node == co.ReceiverLocation {
				load -= co.Quantity
			}
		}

		// The drop downstream of the pickup closes the thread
		if pickedUp && stop.Node == o.ReceiverLocation {
			return true, cumTime
		}
	}

	return false, a.projectedFutureTime(o)
}

// projectedFutureTime estimates when a deferred order would complete: the
// remainder of the active route plus a plan over the pending orders with
// the proposal appended. An infeasible plan falls back on the order's
// precomputed deliver time.
func (a *Agent) projectedFutureTime(o *order.Order) float64 {
	remaining := a.remainingRouteTime()
	future := append(append([]*order.Order{}, a.pending...), o)

	lastNode := a.location
	if n := len(a.route); n > 0 {
		lastNode = a.route[n-1].Node
	}
	plan := a.planner.Plan(a.g, lastNode, future, a.cfg.Capacity, a.cfg.MaxFuel, a.cfg.WeightKg)
	if plan == nil {
		return remaining + o.DeliverTime
	}
	return remaining + plan.TotalTime
}

// remainingRouteTime sums the legs from the current position to the end
// of the active route.
func (a *Agent) remainingRouteTime() float64 {
	total := a.remainingTime
	prev := a.nextNode
	if prev == 0 {
		prev = a.location
		total = 0
	}
	cache := graph.NewRouteCache()
	for i, stop := range a.route {
		if i == 0 && stop.Node == a.nextNode {
			continue
		}
		leg, err := cache.ShortestPath(a.g, prev, stop.Node, a.cfg.WeightKg)
		if err != nil {
			continue
		}
		total += leg.TotalTime
		prev = stop.Node
	}
	return total
}
