// Package supplier implements the source end of the supply chain: an
// unbounded producer that accepts every warehouse resupply request and
// runs the vehicle-assignment handshake for confirmed ones.
package supplier

import (
	"context"
	"time"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/seller"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Config holds one supplier's parameters
type Config struct {
	Node         int
	RoundTimeout time.Duration
}

// offer is an accepted resupply request awaiting the warehouse's verdict
type offer struct {
	warehouse shared.AgentID
	product   string
	quantity  int
}

// Agent is one supplier
type Agent struct {
	rt       *agent.Runtime
	cfg      Config
	g        *graph.Graph
	ids      *order.IDGenerator
	assigner *seller.Assigner

	locations map[shared.AgentID]int
	offers    map[string]*offer

	totalSupplied map[string]int
}

// NewAgent creates a supplier agent
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, cfg Config, g *graph.Graph, ids *order.IDGenerator, vehicles []shared.AgentID, locations map[shared.AgentID]int) *Agent {
	a := &Agent{
		rt:            agent.New(id, bus, clock, logger),
		cfg:           cfg,
		g:             g,
		ids:           ids,
		locations:     locations,
		offers:        make(map[string]*offer),
		totalSupplied: make(map[string]int),
	}
	a.assigner = seller.NewAssigner(a.rt, vehicles, cfg.RoundTimeout)

	a.rt.Handle(messaging.PerfWarehouseBuy, a.onWarehouseBuy)
	a.rt.Handle(messaging.PerfWarehouseConfirm, a.onWarehouseConfirm)
	a.rt.Handle(messaging.PerfWarehouseDeny, a.onWarehouseDeny)
	a.rt.Handle(messaging.PerfVehicleProposal, a.onVehicleProposal)
	a.rt.Handle(messaging.PerfVehiclePickup, a.onVehiclePickup)
	a.rt.Handle(messaging.PerfNegotiationTimeout, a.onNegotiationTimeout)
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

// TotalSupplied returns the quantity of a product shipped so far
func (a *Agent) TotalSupplied(product string) int {
	return a.totalSupplied[product]
}

// onWarehouseBuy accepts every resupply request; production is unbounded
func (a *Agent) onWarehouseBuy(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyRequestBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed warehouse-buy", map[string]interface{}{"error": err.Error()})
		return
	}
	if body.Quantity <= 0 || body.Product == "" {
		a.rt.Log("warn", "warehouse-buy with invalid fields, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}

	a.offers[body.RequestID] = &offer{
		warehouse: msg.From,
		product:   body.Product,
		quantity:  body.Quantity,
	}
	a.rt.Send(msg.From, messaging.PerfSupplierAccept, messaging.BuyReplyBody{
		RequestID: body.RequestID,
		Quantity:  body.Quantity,
		Product:   body.Product,
	})
}

// onWarehouseConfirm turns a won resupply round into an order and opens
// the vehicle-assignment round for it
func (a *Agent) onWarehouseConfirm(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyReplyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed warehouse-confirm", map[string]interface{}{"error": err.Error()})
		return
	}
	of, ok := a.offers[body.RequestID]
	if !ok {
		a.rt.Log("warn", "warehouse-confirm for unknown request, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}
	delete(a.offers, body.RequestID)

	warehouseNode, ok := a.locations[of.warehouse]
	if !ok {
		a.rt.Log("error", "confirming warehouse has no known location, dropping", map[string]interface{}{
			"warehouse": of.warehouse.String(),
		})
		return
	}

	o, err := order.New(a.ids.Next(), of.product, of.quantity, a.rt.ID(), of.warehouse, a.cfg.Node, warehouseNode)
	if err != nil {
		a.rt.Log("error", "order creation failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if route, rerr := a.g.ShortestPath(a.cfg.Node, warehouseNode, graph.ReferenceVehicleWeightKg); rerr == nil {
		o.Route = route.Path
		o.DeliverTime = route.TotalTime
		o.Fuel = route.TotalFuel
	}
	metrics.RecordOrderCreated(o.Product, o.Quantity)
	a.assigner.Assign(o)
}

// onWarehouseDeny drops a lost offer; nothing was reserved
func (a *Agent) onWarehouseDeny(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyDenyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed warehouse-deny", map[string]interface{}{"error": err.Error()})
		return
	}
	delete(a.offers, body.RequestID)
}

// onVehicleProposal forwards a vehicle bid to the assigner
func (a *Agent) onVehicleProposal(ctx context.Context, msg *messaging.Message) {
	a.assigner.OnVehicleProposal(msg)
}

// onVehiclePickup counts the shipped material once the vehicle takes it
func (a *Agent) onVehiclePickup(ctx context.Context, msg *messaging.Message) {
	var o order.Order
	if err := msg.DecodeBody(&o); err != nil {
		a.rt.Log("error", "dropping malformed vehicle-pickup", map[string]interface{}{"error": err.Error()})
		return
	}
	a.totalSupplied[o.Product] += o.Quantity
	metrics.RecordPickup(o.Product, o.Quantity)
	metrics.RecordSupplied(o.Product, o.Quantity)
}

func (a *Agent) onNegotiationTimeout(ctx context.Context, msg *messaging.Message) {
	var body messaging.NegotiationTimeoutBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed negotiation-timeout", map[string]interface{}{"error": err.Error()})
		return
	}
	if !a.assigner.Settle(body.RequestID) {
		a.rt.Log("warn", "negotiation-timeout for unknown round, ignoring", map[string]interface{}{"request": body.RequestID})
	}
}
