package order

import (
	"sync/atomic"

	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Order is the central work unit of the simulator: a confirmed sale that
// must be carried from the seller's node to the buyer's node.
//
// Invariants:
// - ID is unique and monotonic for the run
// - Quantity is positive
// - SenderLocation and ReceiverLocation are valid graph nodes at creation
//
// The precomputed Route/DeliverTime/Fuel are the Dijkstra result from
// sender to receiver at creation time. They are advisory: the actual
// traversal always uses the vehicle's live map.
type Order struct {
	ID               int64          `json:"id"`
	Product          string         `json:"product"`
	Quantity         int            `json:"quantity"`
	Sender           shared.AgentID `json:"sender"`
	Receiver         shared.AgentID `json:"receiver"`
	SenderLocation   int            `json:"sender_location"`
	ReceiverLocation int            `json:"receiver_location"`
	DeliverTime      float64        `json:"deliver_time"`
	Fuel             float64        `json:"fuel"`
	Route            []int          `json:"route"`

	// Started flags that pickup has occurred (the source's "comecou")
	Started bool `json:"started"`
}

// New creates a validated order
func New(id int64, product string, quantity int, sender, receiver shared.AgentID, senderLoc, receiverLoc int) (*Order, error) {
	if product == "" {
		return nil, shared.NewInvalidOrderDataError("product cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewInvalidOrderDataError("quantity must be positive")
	}
	if sender.IsZero() || receiver.IsZero() {
		return nil, shared.NewInvalidOrderDataError("sender and receiver must be set")
	}
	return &Order{
		ID:               id,
		Product:          product,
		Quantity:         quantity,
		Sender:           sender,
		Receiver:         receiver,
		SenderLocation:   senderLoc,
		ReceiverLocation: receiverLoc,
	}, nil
}

// IDGenerator hands out monotonic order ids. One generator is shared by
// all sellers in a run.
type IDGenerator struct {
	next int64
}

// NewIDGenerator creates a generator starting at 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns the next order id
func (g *IDGenerator) Next() int64 {
	return atomic.AddInt64(&g.next, 1)
}
