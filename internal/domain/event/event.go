package event

import "github.com/andrescamacho/supplysim-go/internal/domain/shared"

// Type tags a scheduler event
type Type string

const (
	// TypeArrival marks a vehicle reaching a node
	TypeArrival Type = "arrival"
	// TypeTransit marks a batch of edge-weight changes at a time instant
	TypeTransit Type = "transit"
	// TypeResimulate asks the world for a fresh traffic window
	TypeResimulate Type = "resimulate"
)

// EdgeChange is one edge whose weight changed under traffic
type EdgeChange struct {
	Node1              int     `json:"node1"`
	Node2              int     `json:"node2"`
	NewWeight          float64 `json:"weight"`
	NewFuelConsumption float64 `json:"fuel_consumption"`
}

// TransitEvent is emitted by the world for every edge whose weight changed
// within a simulated window. Instant is the 0-based step index within the
// window at which the change occurred; multiple changes to the same edge
// in one window collapse to the latest value.
type TransitEvent struct {
	Node1              int     `json:"node1_id"`
	Node2              int     `json:"node2_id"`
	NewWeight          float64 `json:"new_time"`
	NewFuelConsumption float64 `json:"new_fuel_consumption"`
	Instant            int     `json:"instant"`
}

// Event is a tagged record in the scheduler's queues. Events are totally
// ordered by Time; equal times are processed as one atomic batch. The
// scheduler is the only writer of Time after creation (it decrements the
// remaining transit events by the batch time).
type Event struct {
	Type    Type
	Time    float64
	Sender  shared.AgentID
	Changes []EdgeChange // transit payload; nil otherwise
}

// NewArrival creates an arrival event produced by a vehicle
func NewArrival(t float64, sender shared.AgentID) *Event {
	return &Event{Type: TypeArrival, Time: t, Sender: sender}
}

// NewTransit creates a transit event carrying edge changes
func NewTransit(t float64, changes []EdgeChange) *Event {
	return &Event{Type: TypeTransit, Time: t, Changes: changes}
}

// NewResimulate creates a resimulation request event
func NewResimulate(t float64) *Event {
	return &Event{Type: TypeResimulate, Time: t}
}
