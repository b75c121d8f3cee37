// Package scheduler implements the temporal coordinator of the
// simulation: it ingests arrival and transit events, orders them by
// simulation time, processes all events sharing the earliest timestamp as
// one atomic batch, fans them out to subscribers and keeps the traffic
// stream alive by re-requesting windows from the world.
package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/domain/event"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// bootstrapEpsilon is the fictitious time of the initial-arrival
// broadcast that wakes the vehicles up.
const bootstrapEpsilon = 0.001

// Config holds the scheduler's tunables
type Config struct {
	// SimulationInterval is the wall-clock period of the processing tick
	SimulationInterval time.Duration
	// Window is the number of steps requested per traffic simulation
	Window int
}

// queued wraps an event with its insertion order for stable heap ordering
type queued struct {
	ev  *event.Event
	seq int
}

type eventQueue []*queued

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].ev.Time != q[j].ev.Time {
		return q[i].ev.Time < q[j].ev.Time
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int)  { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)    { *q = append(*q, x.(*queued)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Agent is the event scheduler. All event times are relative to "now":
// vehicles report the remaining time to their next node, the world
// reports change instants within the current window, and the scheduler
// decrements the surviving transit events by each batch time.
type Agent struct {
	rt  *agent.Runtime
	cfg Config

	// main queue holds non-transit events; transit events live in their
	// own list because their times are rewritten between batches
	mainQueue     eventQueue
	seq           int
	transitEvents []*event.Event
	arrivalBuffer []*event.Event

	eventsReceived   int
	eventsProcessed  int
	firstArrivalSeen bool

	vehicles   []shared.AgentID
	stores     []shared.AgentID
	warehouses []shared.AgentID
	suppliers  []shared.AgentID
	world      shared.AgentID
}

// NewAgent creates a scheduler agent
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, cfg Config) *Agent {
	a := &Agent{rt: agent.New(id, bus, clock, logger), cfg: cfg}
	a.rt.Handle(messaging.PerfTimeUpdate, a.onTimeUpdate)
	a.rt.Handle(messaging.PerfTrafficEvents, a.onTrafficEvents)
	a.rt.AddPeriodic("processing-tick", cfg.SimulationInterval, func(ctx context.Context) {
		a.ProcessTick()
	})
	return a
}

// Runtime returns the underlying agent runtime
func (a *Agent) Runtime() *agent.Runtime {
	return a.rt
}

// RegisterVehicle subscribes a vehicle to event notifications
func (a *Agent) RegisterVehicle(id shared.AgentID) {
	a.vehicles = append(a.vehicles, id)
}

// RegisterStore subscribes a store to event notifications
func (a *Agent) RegisterStore(id shared.AgentID) {
	a.stores = append(a.stores, id)
}

// RegisterWarehouse subscribes a warehouse
func (a *Agent) RegisterWarehouse(id shared.AgentID) {
	a.warehouses = append(a.warehouses, id)
}

// RegisterSupplier subscribes a supplier
func (a *Agent) RegisterSupplier(id shared.AgentID) {
	a.suppliers = append(a.suppliers, id)
}

// SetWorld registers the world agent that serves traffic simulations
func (a *Agent) SetWorld(id shared.AgentID) {
	a.world = id
}

// Start launches the scheduler: it bootstraps the vehicles with the
// initial-arrival broadcast, requests the first traffic window and then
// processes ticks on the configured interval.
func (a *Agent) Start(ctx context.Context) error {
	if err := a.rt.Start(ctx); err != nil {
		return err
	}
	a.Bootstrap()
	return nil
}

// Stop shuts the scheduler down
func (a *Agent) Stop() {
	a.rt.Stop()
}

// Bootstrap sends the initial-arrival broadcast at a fictitious time with
// the reserved fictitious vehicle id, then requests the first traffic
// window from the world.
func (a *Agent) Bootstrap() {
	notice := messaging.ArrivalNoticeBody{
		Type:     "arrival",
		Time:     bootstrapEpsilon,
		Vehicles: []string{shared.VehicleInitSignal},
	}
	for _, v := range a.vehicles {
		a.rt.Send(v, messaging.PerfArrival, notice)
	}
	a.requestSimulation()
}

// onTimeUpdate buffers a vehicle's arrival event. Arrivals are drained
// into the main queue at the start of each processing tick.
func (a *Agent) onTimeUpdate(ctx context.Context, msg *messaging.Message) {
	var body messaging.TimeUpdateBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed time-update", map[string]interface{}{"error": err.Error()})
		return
	}
	if body.Time < 0 {
		a.rt.Log("error", "dropping time-update with negative time", map[string]interface{}{"from": msg.From.String()})
		return
	}
	a.arrivalBuffer = append(a.arrivalBuffer, event.NewArrival(body.Time, msg.From))
	a.eventsReceived++
	a.firstArrivalSeen = true
}

// onTrafficEvents ingests a fresh traffic window from the world: one
// transit event per changed edge, timed at its change instant.
func (a *Agent) onTrafficEvents(ctx context.Context, msg *messaging.Message) {
	var body messaging.TrafficEventsBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed traffic_events", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, te := range body.Events {
		ev := event.NewTransit(float64(te.Instant), []event.EdgeChange{{
			Node1:              te.Node1,
			Node2:              te.Node2,
			NewWeight:          te.NewWeight,
			NewFuelConsumption: te.NewFuelConsumption,
		}})
		a.transitEvents = append(a.transitEvents, ev)
		a.eventsReceived++
	}
}

// ProcessTick runs one scheduling cycle: gather events, pop the earliest
// batch, rewrite remaining transit times, notify subscribers and refresh
// the traffic window if it drained. Anything left in the main queue after
// a batch is discarded; the next cycle re-collects fresh data.
func (a *Agent) ProcessTick() {
	// Idle until the first real arrival bootstraps the simulation
	if !a.firstArrivalSeen {
		return
	}

	for _, ev := range a.arrivalBuffer {
		a.push(ev)
	}
	a.arrivalBuffer = nil

	for _, ev := range a.transitEvents {
		a.push(ev)
	}

	if a.mainQueue.Len() == 0 {
		return
	}

	first := heap.Pop(&a.mainQueue).(*queued).ev
	batchTime := first.Time
	batch := []*event.Event{first}
	for a.mainQueue.Len() > 0 && a.mainQueue[0].ev.Time == batchTime {
		batch = append(batch, heap.Pop(&a.mainQueue).(*queued).ev)
	}

	// Remove the batch's transit events from the active list
	hadTransit := false
	for _, ev := range batch {
		if ev.Type == event.TypeTransit {
			hadTransit = true
			a.removeTransit(ev)
		}
	}
	// A drained window joins the batch as a resimulate event and rides
	// the same fan-out as everything else
	if hadTransit && len(a.transitEvents) == 0 {
		batch = append(batch, event.NewResimulate(batchTime))
	}

	// The surviving transit events now measure time from the new "now"
	for _, ev := range a.transitEvents {
		ev.Time -= batchTime
	}

	a.notifyEvents(batch, batchTime)

	a.eventsProcessed += len(batch)
	metrics.RecordSchedulerBatch(len(batch), batchTime)

	// Events beyond the batch time are stale by design: the next tick
	// re-collects arrivals and the rewritten transit list.
	a.mainQueue = nil
}

// notifyEvents fans one batch out to the subscribers. Arrivals coalesce
// into a single message per recipient. Transit events are sent
// individually; only the first carries the real batch time, the rest go
// out with time zero so downstream agents do not simulate the same
// interval twice. Resimulate events turn into simulate_traffic requests.
func (a *Agent) notifyEvents(batch []*event.Event, batchTime float64) {
	var arrivedVehicles []string
	var transits []*event.Event
	resimulate := false

	for _, ev := range batch {
		switch ev.Type {
		case event.TypeArrival:
			arrivedVehicles = append(arrivedVehicles, ev.Sender.Name())
		case event.TypeTransit:
			transits = append(transits, ev)
		case event.TypeResimulate:
			resimulate = true
		}
	}

	recipients := make([]shared.AgentID, 0, len(a.vehicles)+len(a.stores))
	recipients = append(recipients, a.vehicles...)
	recipients = append(recipients, a.stores...)

	if len(arrivedVehicles) > 0 {
		notice := messaging.ArrivalNoticeBody{Type: "arrival", Time: batchTime, Vehicles: arrivedVehicles}
		for _, r := range recipients {
			a.rt.Send(r, messaging.PerfArrival, notice)
		}
	}

	for i, ev := range transits {
		t := batchTime
		if i > 0 {
			t = 0
		}
		notice := messaging.TransitNoticeBody{
			Type: "transit",
			Time: t,
			Data: messaging.TransitEdgeData{Edges: ev.Changes},
		}
		for _, r := range recipients {
			a.rt.Send(r, messaging.PerfTransit, notice)
		}
	}

	if resimulate {
		a.requestSimulation()
	}
}

func (a *Agent) requestSimulation() {
	if a.world.IsZero() {
		a.rt.Log("warn", "no world registered, dropping traffic simulation request", nil)
		return
	}
	a.rt.Send(a.world, messaging.PerfSimulateTraffic, messaging.SimulateTrafficBody{
		SimulationTime: float64(a.cfg.Window),
		Requester:      a.rt.ID(),
	})
}

func (a *Agent) push(ev *event.Event) {
	a.seq++
	heap.Push(&a.mainQueue, &queued{ev: ev, seq: a.seq})
}

func (a *Agent) removeTransit(target *event.Event) {
	for i, ev := range a.transitEvents {
		if ev == target {
			a.transitEvents = append(a.transitEvents[:i], a.transitEvents[i+1:]...)
			return
		}
	}
}

// EventsReceived returns the ingestion counter
func (a *Agent) EventsReceived() int {
	return a.eventsReceived
}

// EventsProcessed returns the processing counter
func (a *Agent) EventsProcessed() int {
	return a.eventsProcessed
}

// ActiveTransitCount returns the number of transit events still pending
func (a *Agent) ActiveTransitCount() int {
	return len(a.transitEvents)
}
