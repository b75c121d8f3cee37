package world

import (
	"context"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Agent is the world agent: it serves simulate_traffic requests against
// the traffic model and answers read-only graph reflections.
type Agent struct {
	rt         *agent.Runtime
	model      *TrafficModel
	facilities *graph.Facilities
}

// NewAgent creates a world agent over the given traffic model
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, model *TrafficModel, facilities *graph.Facilities) *Agent {
	a := &Agent{
		rt:         agent.New(id, bus, clock, logger),
		model:      model,
		facilities: facilities,
	}
	a.rt.Handle(messaging.PerfSimulateTraffic, a.onSimulateTraffic)
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

// onSimulateTraffic advances the traffic model by the requested window and
// replies with one traffic_events inform carrying every changed edge.
func (a *Agent) onSimulateTraffic(ctx context.Context, msg *messaging.Message) {
	var body messaging.SimulateTrafficBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed simulate_traffic request", map[string]interface{}{"error": err.Error()})
		return
	}

	window := int(body.SimulationTime)
	if window <= 0 {
		a.rt.Log("warn", "simulate_traffic with non-positive window, ignoring", map[string]interface{}{"window": window})
		return
	}

	events := a.model.Simulate(window)
	metrics.RecordTrafficWindow(window, len(events))

	requester := body.Requester
	if requester.IsZero() {
		requester = msg.From
	}
	a.rt.Send(requester, messaging.PerfTrafficEvents, messaging.TrafficEventsBody{Events: events})
}

// GetNode is a read-only reflection of the ground-truth graph
func (a *Agent) GetNode(id int) (*graph.Node, error) {
	return a.model.Graph().Node(id)
}

// GetEdge is a read-only reflection of the ground-truth graph
func (a *Agent) GetEdge(from, to int) (*graph.Edge, error) {
	return a.model.Graph().Edge(from, to)
}

// QueryFacilities returns the facility placement decided at graph build
func (a *Agent) QueryFacilities() *graph.Facilities {
	return a.facilities
}
