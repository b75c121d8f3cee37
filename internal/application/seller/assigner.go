// Package seller implements the selling side of the vehicle-assignment
// handshake, shared by warehouses and suppliers: broadcast an
// order-proposal to every vehicle, collect bids until the timeout
// message closes the round, confirm the best bidder and deny the rest.
package seller

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/supplysim-go/internal/adapters/metrics"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/negotiation"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// MaxAttempts bounds the rebroadcasts of an order nobody bid on
const MaxAttempts = 2

type assignment struct {
	round *negotiation.VehicleRound
	order *order.Order
}

// Assigner runs vehicle-assignment rounds on behalf of one selling
// agent. It shares the agent's runtime, so all methods are called from
// the agent's handler goroutine and need no locking.
type Assigner struct {
	rt       *agent.Runtime
	vehicles []shared.AgentID
	timeout  time.Duration

	rounds  map[string]*assignment
	byOrder map[int64]string
}

// NewAssigner creates an assigner broadcasting to the given vehicles
func NewAssigner(rt *agent.Runtime, vehicles []shared.AgentID, timeout time.Duration) *Assigner {
	return &Assigner{
		rt:       rt,
		vehicles: vehicles,
		timeout:  timeout,
		rounds:   make(map[string]*assignment),
		byOrder:  make(map[int64]string),
	}
}

// Assign opens a round for the order: every vehicle gets the proposal
// and the verdict is settled when the round's timeout message arrives.
func (s *Assigner) Assign(o *order.Order) {
	requestID := uuid.NewString()
	s.rounds[requestID] = &assignment{
		round: negotiation.NewVehicleRound(requestID, o.ID),
		order: o,
	}
	s.byOrder[o.ID] = requestID
	s.broadcast(o, requestID)
}

func (s *Assigner) broadcast(o *order.Order, requestID string) {
	for _, v := range s.vehicles {
		s.rt.Send(v, messaging.PerfOrderProposal, o)
	}
	s.rt.ScheduleTimeout(s.timeout, requestID)
}

// OnVehicleProposal records a vehicle's bid. Bids for unknown or already
// settled orders are logged and dropped.
func (s *Assigner) OnVehicleProposal(msg *messaging.Message) {
	var body messaging.VehicleProposalBody
	if err := msg.DecodeBody(&body); err != nil {
		s.rt.Log("error", "dropping malformed vehicle-proposal", map[string]interface{}{"error": err.Error()})
		return
	}
	requestID, ok := s.byOrder[body.OrderID]
	if !ok {
		s.rt.Log("warn", "vehicle-proposal for unknown order, ignoring", map[string]interface{}{"order": body.OrderID})
		return
	}
	s.rounds[requestID].round.AddBid(negotiation.VehicleBid{
		Vehicle:      msg.From,
		CanFit:       body.CanFit,
		DeliveryTime: body.DeliveryTime,
	})
}

// Settle closes the round the timeout names. Returns false when the
// request id belongs to no open round, so the caller can route the
// timeout to its other negotiations.
//
// An empty round is rebroadcast once; a second empty round abandons the
// order as unassignable.
func (s *Assigner) Settle(requestID string) bool {
	a, ok := s.rounds[requestID]
	if !ok {
		return false
	}

	winner, losers, ok := a.round.Best()
	if !ok {
		if a.round.Attempt < MaxAttempts {
			a.round.Attempt++
			s.rt.Log("warn", "no vehicle bids, rebroadcasting order", map[string]interface{}{
				"order": a.order.ID, "attempt": a.round.Attempt,
			})
			s.broadcast(a.order, requestID)
			return true
		}
		s.rt.Log("error", "order unassignable, abandoning", map[string]interface{}{"order": a.order.ID})
		metrics.RecordOrderUnassignable(a.order.Product)
		metrics.RecordNegotiationRound("vehicle", 0, false)
		delete(s.rounds, requestID)
		delete(s.byOrder, a.order.ID)
		return true
	}

	s.rt.Send(winner, messaging.PerfOrderConfirmation, messaging.OrderConfirmationBody{
		OrderID: a.order.ID, Confirmed: true,
	})
	for _, l := range losers {
		s.rt.Send(l, messaging.PerfOrderConfirmation, messaging.OrderConfirmationBody{
			OrderID: a.order.ID, Confirmed: false,
		})
	}
	metrics.RecordNegotiationRound("vehicle", len(a.round.Bids), true)

	delete(s.rounds, requestID)
	delete(s.byOrder, a.order.ID)
	return true
}

// OpenRounds returns the number of unsettled rounds. Test hook.
func (s *Assigner) OpenRounds() int {
	return len(s.rounds)
}
