// Package warehouse implements the middle tier of the supply chain: it
// sells products to stores out of a bounded stock, restocks from
// suppliers when a sale drains the stock below its threshold, and runs
// the vehicle-assignment handshake for every confirmed sale.
package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/negotiation"
	"github.com/andrescamacho/supplysim-go/internal/application/seller"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Config holds one warehouse's stock parameters
type Config struct {
	Node             int
	Capacity         int
	InitialStock     map[string]int
	Threshold        int
	ResupplyQuantity int
	RoundTimeout     time.Duration
}

// reservation parks stock for a store between accept and confirm/deny
type reservation struct {
	store    shared.AgentID
	product  string
	quantity int
	order    int64 // set once the sale becomes an order
}

// Agent is one warehouse
type Agent struct {
	rt       *agent.Runtime
	cfg      Config
	g        *graph.Graph
	ids      *order.IDGenerator
	assigner *seller.Assigner

	suppliers []shared.AgentID
	locations map[shared.AgentID]int

	stock    map[string]int
	reserved map[string]int
	inbound  map[string]int

	reservations map[string]*reservation
	buyRounds    map[string]*negotiation.BuyRound
	buying       map[string]bool // products with an open or confirmed resupply
}

// NewAgent creates a warehouse agent
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, cfg Config, g *graph.Graph, ids *order.IDGenerator, vehicles, suppliers []shared.AgentID, locations map[shared.AgentID]int) *Agent {
	a := &Agent{
		rt:           agent.New(id, bus, clock, logger),
		cfg:          cfg,
		g:            g,
		ids:          ids,
		suppliers:    suppliers,
		locations:    locations,
		stock:        make(map[string]int),
		reserved:     make(map[string]int),
		inbound:      make(map[string]int),
		reservations: make(map[string]*reservation),
		buyRounds:    make(map[string]*negotiation.BuyRound),
		buying:       make(map[string]bool),
	}
	for p, q := range cfg.InitialStock {
		a.stock[p] = q
	}
	a.assigner = seller.NewAssigner(a.rt, vehicles, cfg.RoundTimeout)

	a.rt.Handle(messaging.PerfStoreBuy, a.onStoreBuy)
	a.rt.Handle(messaging.PerfStoreConfirm, a.onStoreConfirm)
	a.rt.Handle(messaging.PerfStoreDeny, a.onStoreDeny)
	a.rt.Handle(messaging.PerfSupplierAccept, a.onSupplierAccept)
	a.rt.Handle(messaging.PerfSupplierDeny, a.onSupplierDeny)
	a.rt.Handle(messaging.PerfVehicleProposal, a.onVehicleProposal)
	a.rt.Handle(messaging.PerfVehiclePickup, a.onVehiclePickup)
	a.rt.Handle(messaging.PerfVehicleDelivery, a.onVehicleDelivery)
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

// Stock returns the on-hand quantity of a product
func (a *Agent) Stock(product string) int {
	return a.stock[product]
}

// Available returns the sellable quantity: on hand minus reserved
func (a *Agent) Available(product string) int {
	return a.stock[product] - a.reserved[product]
}

// onStoreBuy answers a store's buy broadcast. The warehouse accepts when
// the sellable stock covers the request and reserves the quantity until
// the store settles; a warehouse that cannot serve stays silent, the
// store's timeout is the deny.
func (a *Agent) onStoreBuy(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyRequestBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed store-buy", map[string]interface{}{"error": err.Error()})
		return
	}
	if body.Quantity <= 0 || body.Product == "" {
		a.rt.Log("warn", "store-buy with invalid fields, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}

	if a.Available(body.Product) < body.Quantity {
		a.rt.Log("debug", "insufficient stock for store-buy", map[string]interface{}{
			"product": body.Product, "requested": body.Quantity, "available": a.Available(body.Product),
		})
		return
	}

	a.reserved[body.Product] += body.Quantity
	a.reservations[body.RequestID] = &reservation{
		store:    msg.From,
		product:  body.Product,
		quantity: body.Quantity,
	}
	a.rt.Send(msg.From, messaging.PerfWarehouseAccept, messaging.BuyReplyBody{
		RequestID: body.RequestID,
		Quantity:  body.Quantity,
		Product:   body.Product,
	})
}

// onStoreConfirm turns a won negotiation into an order and opens the
// vehicle-assignment round for it. The reservation stays until pickup.
func (a *Agent) onStoreConfirm(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyReplyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed store-confirm", map[string]interface{}{"error": err.Error()})
		return
	}
	res, ok := a.reservations[body.RequestID]
	if !ok {
		a.rt.Log("warn", "store-confirm for unknown request, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}

	storeNode, ok := a.locations[res.store]
	if !ok {
		a.rt.Log("error", "confirming store has no known location, releasing reservation", map[string]interface{}{
			"store": res.store.String(),
		})
		a.release(body.RequestID)
		return
	}

	o, err := order.New(a.ids.Next(), res.product, res.quantity, a.rt.ID(), res.store, a.cfg.Node, storeNode)
	if err != nil {
		a.rt.Log("error", "order creation failed, releasing reservation", map[string]interface{}{"error": err.Error()})
		a.release(body.RequestID)
		return
	}
	if route, rerr := a.g.ShortestPath(a.cfg.Node, storeNode, graph.ReferenceVehicleWeightKg); rerr == nil {
		o.Route = route.Path
		o.DeliverTime = route.TotalTime
		o.Fuel = route.TotalFuel
	}
	res.order = o.ID
	metrics.RecordOrderCreated(o.Product, o.Quantity)

	a.assigner.Assign(o)
	a.maybeResupply(res.product)
}

// onStoreDeny releases the reservation of a lost negotiation
func (a *Agent) onStoreDeny(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyDenyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed store-deny", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, ok := a.reservations[body.RequestID]; !ok {
		a.rt.Log("warn", "store-deny for unknown request, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}
	a.release(body.RequestID)
}

func (a *Agent) release(requestID string) {
	res := a.reservations[requestID]
	a.reserved[res.product] -= res.quantity
	delete(a.reservations, requestID)
}

// maybeResupply opens a warehouse-buy round toward the suppliers when the
// sellable stock plus confirmed inbound falls below the threshold. At
// most one resupply per product is in flight.
func (a *Agent) maybeResupply(product string) {
	if a.buying[product] {
		return
	}
	projected := a.Available(product) + a.inbound[product]
	if projected >= a.cfg.Threshold {
		return
	}

	requestID := uuid.NewString()
	a.buyRounds[requestID] = negotiation.NewBuyRound(requestID, product, a.cfg.ResupplyQuantity)
	a.buying[product] = true
	for _, s := range a.suppliers {
		a.rt.Send(s, messaging.PerfWarehouseBuy, messaging.BuyRequestBody{
			RequestID: requestID,
			Quantity:  a.cfg.ResupplyQuantity,
			Product:   product,
		})
	}
	a.rt.ScheduleTimeout(a.cfg.RoundTimeout, requestID)
}

// onSupplierAccept records a supplier's accept for an open resupply round
func (a *Agent) onSupplierAccept(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyReplyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed supplier-accept", map[string]interface{}{"error": err.Error()})
		return
	}
	r, ok := a.buyRounds[body.RequestID]
	if !ok {
		a.rt.Log("warn", "supplier-accept for unknown request, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}
	r.AddAccepter(msg.From)
}

// onSupplierDeny withdraws a supplier from an open resupply round
func (a *Agent) onSupplierDeny(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyDenyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed supplier-deny", map[string]interface{}{"error": err.Error()})
		return
	}
	r, ok := a.buyRounds[body.RequestID]
	if !ok {
		return
	}
	r.RemoveAccepter(msg.From)
}

// onNegotiationTimeout settles whichever round the request id names:
// first the vehicle-assignment rounds, then the resupply rounds.
func (a *Agent) onNegotiationTimeout(ctx context.Context, msg *messaging.Message) {
	var body messaging.NegotiationTimeoutBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed negotiation-timeout", map[string]interface{}{"error": err.Error()})
		return
	}
	if a.assigner.Settle(body.RequestID) {
		return
	}
	a.settleResupply(body.RequestID)
}

// settleResupply closes a resupply round: the nearest accepter wins and
// is confirmed, the rest are denied. An empty round just ends; the next
// sale below threshold reopens it.
func (a *Agent) settleResupply(requestID string) {
	r, ok := a.buyRounds[requestID]
	if !ok {
		a.rt.Log("warn", "negotiation-timeout for unknown round, ignoring", map[string]interface{}{"request": requestID})
		return
	}
	delete(a.buyRounds, requestID)

	winner, losers, ok := r.SelectNearest(a.g, a.cfg.Node, a.locations)
	if !ok {
		a.rt.Log("warn", "no supplier accepted resupply", map[string]interface{}{"product": r.Product})
		metrics.RecordNegotiationRound("resupply", 0, false)
		delete(a.buying, r.Product)
		return
	}

	a.rt.Send(winner, messaging.PerfWarehouseConfirm, messaging.BuyReplyBody{
		RequestID: requestID,
		Quantity:  r.Quantity,
		Product:   r.Product,
	})
	for _, l := range losers {
		a.rt.Send(l, messaging.PerfWarehouseDeny, messaging.BuyDenyBody{RequestID: requestID})
	}
	metrics.RecordNegotiationRound("resupply", len(r.Accepters), true)
	a.inbound[r.Product] += r.Quantity
}

// onVehicleProposal forwards a vehicle bid to the assigner
func (a *Agent) onVehicleProposal(ctx context.Context, msg *messaging.Message) {
	a.assigner.OnVehicleProposal(msg)
}

// onVehiclePickup finalizes a sale: the vehicle took the cargo, so the
// stock and its reservation drop together. A pickup naming no live
// reservation is a logical conflict and leaves the books alone.
func (a *Agent) onVehiclePickup(ctx context.Context, msg *messaging.Message) {
	var o order.Order
	if err := msg.DecodeBody(&o); err != nil {
		a.rt.Log("error", "dropping malformed vehicle-pickup", map[string]interface{}{"error": err.Error()})
		return
	}
	if o.ID == 0 {
		a.rt.Log("warn", "vehicle-pickup with no order id, ignoring", nil)
		return
	}

	res, ok := a.takeReservationByOrder(o.ID)
	if !ok {
		a.rt.Log("warn", "vehicle-pickup for unknown order, ignoring", map[string]interface{}{"order": o.ID})
		return
	}

	a.stock[res.product] -= res.quantity
	a.reserved[res.product] -= res.quantity
	metrics.RecordPickup(res.product, res.quantity)
}

// onVehicleDelivery receives a resupply from a supplier. Stock above
// capacity is clamped and the surplus logged as lost.
func (a *Agent) onVehicleDelivery(ctx context.Context, msg *messaging.Message) {
	var o order.Order
	if err := msg.DecodeBody(&o); err != nil {
		a.rt.Log("error", "dropping malformed vehicle-delivery", map[string]interface{}{"error": err.Error()})
		return
	}

	a.stock[o.Product] += o.Quantity
	if a.inbound[o.Product] >= o.Quantity {
		a.inbound[o.Product] -= o.Quantity
	} else {
		a.inbound[o.Product] = 0
	}
	delete(a.buying, o.Product)
	if a.stock[o.Product] > a.cfg.Capacity {
		a.rt.Log("warn", "delivery exceeds warehouse capacity, clamping", map[string]interface{}{
			"product": o.Product, "overflow": a.stock[o.Product] - a.cfg.Capacity,
		})
		a.stock[o.Product] = a.cfg.Capacity
	}
	metrics.RecordDelivery(o.Product, o.Quantity)
}

// takeReservationByOrder removes and returns the reservation its order
// id names, if any sale reached the order stage under that id.
func (a *Agent) takeReservationByOrder(orderID int64) (*reservation, bool) {
	for id, res := range a.reservations {
		if res.order == orderID {
			delete(a.reservations, id)
			return res, true
		}
	}
	return nil, false
}
