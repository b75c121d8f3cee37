package vehicle

import (
	"context"

	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// onArrival executes the next stop(s) of the active route when the
// scheduler's batched arrival notice lists this vehicle.
func (a *Agent) onArrival(ctx context.Context, msg *messaging.Message) {
	var body messaging.ArrivalNoticeBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed arrival notice", map[string]interface{}{"error": err.Error()})
		return
	}

	listed := false
	for _, v := range body.Vehicles {
		if v == a.rt.ID().Name() {
			listed = true
			break
		}
	}
	if !listed {
		// The bootstrap broadcast (and other vehicles' arrivals) reach
		// every vehicle; only the listed ones move.
		return
	}

	if len(a.route) == 0 {
		a.rt.Log("warn", "arrival with empty route, ignoring", nil)
		return
	}

	// Reach the stop and discharge it, then any further stops colocated
	// on the same node (multiple pickups/drops at one facility).
	stop := a.route[0]
	a.route = a.route[1:]
	a.location = stop.Node
	a.processStop(stop.OrderID)
	for len(a.route) > 0 && a.route[0].Node == a.location {
		next := a.route[0]
		a.route = a.route[1:]
		a.processStop(next.OrderID)
	}

	if len(a.route) == 0 {
		if len(a.pending) > 0 {
			// Transplant the deferred orders into a fresh plan
			a.committed = append(a.committed, a.pending...)
			a.pending = nil
			a.replanRoute()
			return
		}
		a.status = StatusAvailable
		a.nextNode = 0
		a.remainingTime = 0
		return
	}

	a.reportNextLeg()
}

// processStop applies the pickup or delivery the stop stands for. A stop
// that matches neither endpoint of its order is a logical conflict: log
// and ignore.
func (a *Agent) processStop(orderID int64) {
	o, idx := a.findCommitted(orderID)
	if o == nil {
		a.rt.Log("warn", "route stop for unknown order, ignoring", map[string]interface{}{"order": orderID})
		return
	}

	switch {
	case a.location == o.SenderLocation && !o.Started:
		o.Started = true
		a.load += o.Quantity
		a.fuel = a.cfg.MaxFuel
		a.rt.Send(o.Sender, messaging.PerfVehiclePickup, o)

	case a.location == o.ReceiverLocation && o.Started:
		a.load -= o.Quantity
		a.fuel = a.cfg.MaxFuel
		a.committed = append(a.committed[:idx], a.committed[idx+1:]...)
		a.rt.Send(o.Receiver, messaging.PerfVehicleDelivery, o)

	default:
		a.rt.Log("warn", "stop does not match order endpoints, ignoring", map[string]interface{}{
			"order": orderID, "node": a.location,
		})
	}
}

// onTransit applies a traffic update to the private map and then moves
// the vehicle forward by the event's time delta.
func (a *Agent) onTransit(ctx context.Context, msg *messaging.Message) {
	var body messaging.TransitNoticeBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed transit notice", map[string]interface{}{"error": err.Error()})
		return
	}

	// Map update first: this is the only mutation of the local snapshot
	for _, ch := range body.Data.Edges {
		if err := a.g.SetEdgeWeight(ch.Node1, ch.Node2, ch.NewWeight); err != nil {
			a.rt.Log("warn", "transit update for unknown edge, skipping", map[string]interface{}{
				"from": ch.Node1, "to": ch.Node2,
			})
		}
	}

	if body.Time > 0 && a.nextNode != 0 {
		a.advance(body.Time)
	}

	if a.nextNode != 0 {
		// Re-measure the leg on the updated map and tell the scheduler
		leg, err := a.g.ShortestPath(a.location, a.nextNode, a.cfg.WeightKg)
		if err != nil {
			a.rt.Log("error", "no path to next stop after traffic update", map[string]interface{}{
				"from": a.location, "to": a.nextNode,
			})
			return
		}
		a.remainingTime = leg.TotalTime
		a.rt.Send(a.scheduler, messaging.PerfTimeUpdate, messaging.TimeUpdateBody{
			Time:    a.remainingTime,
			Vehicle: a.rt.ID().Name(),
		})
	}
}

// advance walks the vehicle along the Dijkstra path toward the next stop,
// consuming edge weights until the time budget runs out. The vehicle only
// ever rests at nodes; a partially traversed edge leaves it at the last
// fully reached node.
func (a *Agent) advance(delta float64) {
	leg, err := a.g.ShortestPath(a.location, a.nextNode, a.cfg.WeightKg)
	if err != nil {
		return
	}

	for i := 0; i+1 < len(leg.Path) && delta > 0; i++ {
		e, err := a.g.Edge(leg.Path[i], leg.Path[i+1])
		if err != nil {
			return
		}
		if e.Weight > delta {
			break
		}
		delta -= e.Weight
		a.location = e.To
		a.fuel -= e.FuelConsumption(a.cfg.WeightKg)
	}
}

// Scheduler returns the scheduler this vehicle reports to
func (a *Agent) Scheduler() shared.AgentID {
	return a.scheduler
}
