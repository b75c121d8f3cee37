// Package negotiation holds the bookkeeping shared by the buy and
// vehicle-assignment handshakes: a round is opened by a broadcast,
// collects responses until its timeout message closes it, and then picks
// a winner.
package negotiation

import (
	"math"

	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// BuyRound tracks an outbound buy negotiation (store-buy or
// warehouse-buy) awaiting accepts.
type BuyRound struct {
	RequestID string
	Product   string
	Quantity  int
	Accepters []shared.AgentID
}

// NewBuyRound opens a round for one buy request
func NewBuyRound(requestID, product string, quantity int) *BuyRound {
	return &BuyRound{RequestID: requestID, Product: product, Quantity: quantity}
}

// AddAccepter records a seller that accepted the request
func (r *BuyRound) AddAccepter(id shared.AgentID) {
	for _, a := range r.Accepters {
		if a == id {
			return
		}
	}
	r.Accepters = append(r.Accepters, id)
}

// RemoveAccepter withdraws a candidate (supplier-deny path)
func (r *BuyRound) RemoveAccepter(id shared.AgentID) {
	for i, a := range r.Accepters {
		if a == id {
			r.Accepters = append(r.Accepters[:i], r.Accepters[i+1:]...)
			return
		}
	}
}

// SelectNearest picks the accepter with the lowest Dijkstra travel time
// from the buyer's node, using the supplied location directory. Losers
// are every other accepter. Returns ok=false when no accepter has a
// known, reachable location.
func (r *BuyRound) SelectNearest(g *graph.Graph, from int, locations map[shared.AgentID]int) (winner shared.AgentID, losers []shared.AgentID, ok bool) {
	best := math.Inf(1)
	for _, a := range r.Accepters {
		loc, known := locations[a]
		if !known {
			continue
		}
		route, err := g.ShortestPath(from, loc, graph.ReferenceVehicleWeightKg)
		if err != nil {
			continue
		}
		if route.TotalTime < best {
			best = route.TotalTime
			winner = a
		}
	}
	if winner.IsZero() {
		return "", nil, false
	}
	for _, a := range r.Accepters {
		if a != winner {
			losers = append(losers, a)
		}
	}
	return winner, losers, true
}

// VehicleBid is one vehicle's answer to an order-proposal
type VehicleBid struct {
	Vehicle      shared.AgentID
	CanFit       bool
	DeliveryTime float64
}

// VehicleRound tracks a vehicle-assignment sub-negotiation for one order
type VehicleRound struct {
	RequestID string
	OrderID   int64
	Attempt   int
	Bids      []VehicleBid
}

// NewVehicleRound opens a vehicle-assignment round
func NewVehicleRound(requestID string, orderID int64) *VehicleRound {
	return &VehicleRound{RequestID: requestID, OrderID: orderID, Attempt: 1}
}

// AddBid records a vehicle proposal
func (r *VehicleRound) AddBid(bid VehicleBid) {
	for i, b := range r.Bids {
		if b.Vehicle == bid.Vehicle {
			r.Bids[i] = bid
			return
		}
	}
	r.Bids = append(r.Bids, bid)
}

// Best scores the bids: a fitting vehicle always beats a non-fitting one,
// and within each class the lower delivery time wins. Ties keep the bid
// received first. Losers are every other bidder.
func (r *VehicleRound) Best() (winner shared.AgentID, losers []shared.AgentID, ok bool) {
	if len(r.Bids) == 0 {
		return "", nil, false
	}
	best := r.Bids[0]
	for _, b := range r.Bids[1:] {
		if b.CanFit != best.CanFit {
			if b.CanFit {
				best = b
			}
			continue
		}
		if b.DeliveryTime < best.DeliveryTime {
			best = b
		}
	}
	for _, b := range r.Bids {
		if b.Vehicle != best.Vehicle {
			losers = append(losers, b.Vehicle)
		}
	}
	return best.Vehicle, losers, true
}
