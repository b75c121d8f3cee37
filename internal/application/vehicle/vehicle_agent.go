// Package vehicle implements the stateful mover of the simulation: it
// bids on order proposals, commits confirmed orders into its route via
// the task planner, executes the route on arrival events and keeps its
// private map in sync with transit events.
package vehicle

import (
	"context"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/planner"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Status replaces the XMPP presence side channel of the original design:
// peers learn whether a vehicle is idle from this explicit field.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
)

// Config holds the per-vehicle constraints
type Config struct {
	Capacity  int
	MaxFuel   float64
	WeightKg  float64
	MaxOrders int
	StartNode int
}

// proposal is a parked order awaiting the seller's verdict
type proposal struct {
	order  *order.Order
	canFit bool
}

// Agent is one vehicle
type Agent struct {
	rt        *agent.Runtime
	cfg       Config
	g         *graph.Graph // private snapshot, mutated only by transit events
	planner   *planner.TaskPlanner
	scheduler shared.AgentID

	status        Status
	location      int
	nextNode      int // 0 = none
	remainingTime float64
	load          int
	fuel          float64

	committed []*order.Order
	pending   []*order.Order
	route     []planner.RouteStop

	pendingConfirmations map[int64]*proposal
}

// NewAgent creates a vehicle agent with its own map snapshot
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, cfg Config, snapshot *graph.Graph, scheduler shared.AgentID) *Agent {
	a := &Agent{
		rt:                   agent.New(id, bus, clock, logger),
		cfg:                  cfg,
		g:                    snapshot,
		planner:              planner.NewTaskPlanner(),
		scheduler:            scheduler,
		status:               StatusAvailable,
		location:             cfg.StartNode,
		fuel:                 cfg.MaxFuel,
		pendingConfirmations: make(map[int64]*proposal),
	}
	a.rt.Handle(messaging.PerfOrderProposal, a.onOrderProposal)
	a.rt.Handle(messaging.PerfOrderConfirmation, a.onOrderConfirmation)
	a.rt.Handle(messaging.PerfArrival, a.onArrival)
	a.rt.Handle(messaging.PerfTransit, a.onTransit)
	return a
}

// Runtime returns the underlying agent runtime
func (a *Agent) Runtime() *agent.Runtime {
	return a.rt
}

// Start launches the agent loop
func (a *Agent) Start(ctx context.Context) error {
	return a.rt.Start(ctx)
}

// Stop shuts the agent down
func (a *Agent) Stop() {
	a.rt.Stop()
}

// Status returns the vehicle's availability
func (a *Agent) Status() Status {
	return a.status
}

// Location returns the current node
func (a *Agent) Location() int {
	return a.location
}

// Load returns the current cargo load
func (a *Agent) Load() int {
	return a.load
}

// Fuel returns the current fuel level
func (a *Agent) Fuel() float64 {
	return a.fuel
}

// Route returns the active route
func (a *Agent) Route() []planner.RouteStop {
	return a.route
}

// CommittedOrders returns the orders planned into the active route
func (a *Agent) CommittedOrders() []*order.Order {
	return a.committed
}

// PendingOrders returns the orders deferred to after the current route
func (a *Agent) PendingOrders() []*order.Order {
	return a.pending
}

// onOrderProposal answers a seller's order-proposal with a bid and parks
// the order until the seller's verdict arrives.
func (a *Agent) onOrderProposal(ctx context.Context, msg *messaging.Message) {
	var o order.Order
	if err := msg.DecodeBody(&o); err != nil {
		a.rt.Log("error", "dropping malformed order-proposal", map[string]interface{}{"error": err.Error()})
		return
	}
	if o.ID == 0 || o.Quantity <= 0 {
		a.rt.Log("error", "rejecting order-proposal with missing fields", map[string]interface{}{"order": o.ID})
		return
	}

	canFit, deliveryTime := a.fitCheck(&o)
	a.pendingConfirmations[o.ID] = &proposal{order: &o, canFit: canFit}

	a.rt.Send(msg.From, messaging.PerfVehicleProposal, messaging.VehicleProposalBody{
		OrderID:      o.ID,
		CanFit:       canFit,
		DeliveryTime: deliveryTime,
		VehicleID:    a.rt.ID().Name(),
	})
}

// onOrderConfirmation settles a parked proposal: a confirmed fitting
// order joins the committed set and the route is recomputed; a confirmed
// non-fitting order waits in the pending set for the current route to
// end. Confirmations for unknown ids are discarded.
func (a *Agent) onOrderConfirmation(ctx context.Context, msg *messaging.Message) {
	var body messaging.OrderConfirmationBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed order-confirmation", map[string]interface{}{"error": err.Error()})
		return
	}

	p, ok := a.pendingConfirmations[body.OrderID]
	if !ok {
		a.rt.Log("warn", "order-confirmation for unknown order, ignoring", map[string]interface{}{"order": body.OrderID})
		return
	}
	delete(a.pendingConfirmations, body.OrderID)

	if !body.Confirmed {
		return
	}

	if p.canFit {
		a.committed = append(a.committed, p.order)
		a.replanRoute()
	} else {
		a.pending = append(a.pending, p.order)
	}
	a.status = StatusBusy
}

// replanRoute recomputes the active route over the committed orders from
// the current location. A planner returning nil leaves the previous
// route in place; the affected orders stay queued with no progress.
func (a *Agent) replanRoute() {
	plan := a.planner.Plan(a.g, a.location, a.committed, a.cfg.Capacity, a.cfg.MaxFuel, a.cfg.WeightKg)
	metrics.RecordPlan(len(a.committed), plan != nil)
	if plan == nil {
		a.rt.Log("warn", "no feasible route for committed orders", map[string]interface{}{"orders": len(a.committed)})
		return
	}
	a.route = plan.Stops
	a.reportNextLeg()
}

// reportNextLeg recomputes the leg to the next route stop and tells the
// scheduler when this vehicle will arrive there.
func (a *Agent) reportNextLeg() {
	if len(a.route) == 0 {
		a.nextNode = 0
		a.remainingTime = 0
		return
	}
	a.nextNode = a.route[0].Node
	leg, err := a.g.ShortestPath(a.location, a.nextNode, a.cfg.WeightKg)
	if err != nil {
		a.rt.Log("error", "no path to next route stop", map[string]interface{}{
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

func (a *Agent) findCommitted(id int64) (*order.Order, int) {
	for i, o := range a.committed {
		if o.ID == id {
			return o, i
		}
	}
	return nil, -1
}
