// Package store implements the demand end of the supply chain: a store
// periodically broadcasts buy requests for its products, settles each
// round on the nearest accepting warehouse and receives the cargo from
// whatever vehicle the warehouse assigned.
package store

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/negotiation"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Config holds one store's demand parameters
type Config struct {
	Node           int
	Products       []string
	MinQuantity    int
	MaxQuantity    int
	BuyFrequency   time.Duration
	BuyProbability float64
	RoundTimeout   time.Duration
}

// Agent is one store
type Agent struct {
	rt  *agent.Runtime
	cfg Config
	g   *graph.Graph
	rng *rand.Rand

	warehouses []shared.AgentID
	locations  map[shared.AgentID]int

	// limiter caps the buy broadcast rate independently of the periodic
	// interval, so a misconfigured frequency cannot flood the bus
	limiter *rate.Limiter

	stock  map[string]int
	rounds map[string]*negotiation.BuyRound
}

// NewAgent creates a store agent. The rng drives the buy coin flips and
// product picks; give each store its own seeded source for replayable runs.
func NewAgent(id shared.AgentID, bus messaging.Bus, clock shared.Clock, logger common.AgentLogger, cfg Config, g *graph.Graph, rng *rand.Rand, warehouses []shared.AgentID, locations map[shared.AgentID]int) *Agent {
	a := &Agent{
		rt:         agent.New(id, bus, clock, logger),
		cfg:        cfg,
		g:          g,
		rng:        rng,
		warehouses: warehouses,
		locations:  locations,
		limiter:    rate.NewLimiter(rate.Every(cfg.BuyFrequency), 1),
		stock:      make(map[string]int),
		rounds:     make(map[string]*negotiation.BuyRound),
	}
	a.rt.Handle(messaging.PerfWarehouseAccept, a.onWarehouseAccept)
	a.rt.Handle(messaging.PerfVehicleDelivery, a.onVehicleDelivery)
	a.rt.Handle(messaging.PerfNegotiationTimeout, a.onNegotiationTimeout)
	a.rt.Handle(messaging.PerfArrival, a.onArrival)
	a.rt.Handle(messaging.PerfTransit, a.onTransit)
	a.rt.AddPeriodic("buy", cfg.BuyFrequency, a.TryBuy)
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

// Stock returns the received quantity of a product
func (a *Agent) Stock(product string) int {
	return a.stock[product]
}

// OpenRounds returns the number of unsettled buy rounds. Test hook.
func (a *Agent) OpenRounds() int {
	return len(a.rounds)
}

// TryBuy is the periodic buy behaviour: with the configured probability
// it opens one buy round for a random product and quantity.
func (a *Agent) TryBuy(ctx context.Context) {
	if a.rng.Float64() >= a.cfg.BuyProbability {
		return
	}
	if !a.limiter.Allow() {
		a.rt.Log("debug", "buy rate limited, skipping tick", nil)
		return
	}
	if len(a.cfg.Products) == 0 {
		return
	}

	product := a.cfg.Products[a.rng.Intn(len(a.cfg.Products))]
	quantity := a.cfg.MinQuantity
	if a.cfg.MaxQuantity > a.cfg.MinQuantity {
		quantity += a.rng.Intn(a.cfg.MaxQuantity - a.cfg.MinQuantity + 1)
	}

	requestID := uuid.NewString()
	a.rounds[requestID] = negotiation.NewBuyRound(requestID, product, quantity)
	for _, w := range a.warehouses {
		a.rt.Send(w, messaging.PerfStoreBuy, messaging.BuyRequestBody{
			RequestID: requestID,
			Quantity:  quantity,
			Product:   product,
		})
	}
	a.rt.ScheduleTimeout(a.cfg.RoundTimeout, requestID)
}

// onWarehouseAccept records an accepting warehouse for an open round
func (a *Agent) onWarehouseAccept(ctx context.Context, msg *messaging.Message) {
	var body messaging.BuyReplyBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed warehouse-accept", map[string]interface{}{"error": err.Error()})
		return
	}
	r, ok := a.rounds[body.RequestID]
	if !ok {
		// Accept arrived after the round's timeout: the warehouse holds
		// a reservation it must release, so deny explicitly.
		a.rt.Send(msg.From, messaging.PerfStoreDeny, messaging.BuyDenyBody{RequestID: body.RequestID})
		return
	}
	r.AddAccepter(msg.From)
}

// onNegotiationTimeout settles a buy round: the nearest accepter is
// confirmed, the rest are denied so their reservations come back. An
// empty round just ends; the periodic behaviour will try again.
func (a *Agent) onNegotiationTimeout(ctx context.Context, msg *messaging.Message) {
	var body messaging.NegotiationTimeoutBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed negotiation-timeout", map[string]interface{}{"error": err.Error()})
		return
	}
	r, ok := a.rounds[body.RequestID]
	if !ok {
		a.rt.Log("warn", "negotiation-timeout for unknown round, ignoring", map[string]interface{}{"request": body.RequestID})
		return
	}
	delete(a.rounds, body.RequestID)

	winner, losers, ok := r.SelectNearest(a.g, a.cfg.Node, a.locations)
	if !ok {
		a.rt.Log("info", "no warehouse accepted buy request", map[string]interface{}{
			"product": r.Product, "quantity": r.Quantity,
		})
		metrics.RecordNegotiationRound("buy", 0, false)
		return
	}

	a.rt.Send(winner, messaging.PerfStoreConfirm, messaging.BuyReplyBody{
		RequestID: r.RequestID,
		Quantity:  r.Quantity,
		Product:   r.Product,
	})
	for _, l := range losers {
		a.rt.Send(l, messaging.PerfStoreDeny, messaging.BuyDenyBody{RequestID: r.RequestID})
	}
	metrics.RecordNegotiationRound("buy", len(r.Accepters), true)
}

// onVehicleDelivery receives the bought cargo
func (a *Agent) onVehicleDelivery(ctx context.Context, msg *messaging.Message) {
	var o order.Order
	if err := msg.DecodeBody(&o); err != nil {
		a.rt.Log("error", "dropping malformed vehicle-delivery", map[string]interface{}{"error": err.Error()})
		return
	}
	a.stock[o.Product] += o.Quantity
	metrics.RecordDelivery(o.Product, o.Quantity)
	a.rt.Log("info", "delivery received", map[string]interface{}{
		"product": o.Product, "quantity": o.Quantity, "order": o.ID,
	})
}

// Stores are addressed by the scheduler's arrival broadcast but have no
// position to advance; the notices are acknowledged at debug level only.
func (a *Agent) onArrival(ctx context.Context, msg *messaging.Message) {
	a.rt.Log("debug", "arrival notice ignored", nil)
}

// onTransit folds traffic updates into the local map so buy rounds
// settle on current travel times.
func (a *Agent) onTransit(ctx context.Context, msg *messaging.Message) {
	var body messaging.TransitNoticeBody
	if err := msg.DecodeBody(&body); err != nil {
		a.rt.Log("error", "dropping malformed transit notice", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, ch := range body.Data.Edges {
		if err := a.g.SetEdgeWeight(ch.Node1, ch.Node2, ch.NewWeight); err != nil {
			a.rt.Log("warn", "transit update for unknown edge, skipping", map[string]interface{}{
				"from": ch.Node1, "to": ch.Node2,
			})
		}
	}
}
