package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/andrescamacho/supplysim-go/internal/domain/event"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Performative names the intent of a message, FIPA-style
type Performative string

// The full message catalog of the negotiation and simulation protocols.
const (
	// Store <-> Warehouse product negotiation
	PerfStoreBuy        Performative = "store-buy"
	PerfWarehouseAccept Performative = "warehouse-accept"
	PerfStoreConfirm    Performative = "store-confirm"
	PerfStoreDeny       Performative = "store-deny"

	// Warehouse <-> Supplier material negotiation
	PerfWarehouseBuy     Performative = "warehouse-buy"
	PerfSupplierAccept   Performative = "supplier-accept"
	PerfSupplierDeny     Performative = "supplier-deny"
	PerfWarehouseConfirm Performative = "warehouse-confirm"
	PerfWarehouseDeny    Performative = "warehouse-deny"

	// Seller <-> Vehicle assignment
	PerfOrderProposal     Performative = "order-proposal"
	PerfVehicleProposal   Performative = "vehicle-proposal"
	PerfOrderConfirmation Performative = "order-confirmation"
	PerfVehiclePickup     Performative = "vehicle-pickup"
	PerfVehicleDelivery   Performative = "vehicle-delivery"

	// Scheduler <-> agents
	PerfArrival         Performative = "arrival"
	PerfTransit         Performative = "transit"
	PerfTimeUpdate      Performative = "time-update"
	PerfSimulateTraffic Performative = "simulate_traffic"
	PerfTrafficEvents   Performative = "traffic_events"

	// Self-addressed timer tick closing a negotiation round
	PerfNegotiationTimeout Performative = "negotiation-timeout"
)

// Message is the unit of delivery on the bus. The body is a JSON object;
// receivers decode it into the typed payload for the performative and
// log-and-drop on malformed input.
type Message struct {
	From         shared.AgentID  `json:"from"`
	To           shared.AgentID  `json:"to"`
	Performative Performative    `json:"performative"`
	Body         json.RawMessage `json:"body"`
}

// NewMessage builds a message, marshaling the body to JSON
func NewMessage(from, to shared.AgentID, performative Performative, body any) (*Message, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", performative, err)
	}
	return &Message{From: from, To: to, Performative: performative, Body: raw}, nil
}

// DecodeBody unmarshals the message body into out
func (m *Message) DecodeBody(out any) error {
	if err := json.Unmarshal(m.Body, out); err != nil {
		return shared.NewProtocolError(fmt.Sprintf("malformed %s body from %s: %v", m.Performative, m.From, err))
	}
	return nil
}

// Typed payloads

// BuyRequestBody opens a buy negotiation (store-buy, warehouse-buy)
type BuyRequestBody struct {
	RequestID string `json:"request_id"`
	Quantity  int    `json:"quantity"`
	Product   string `json:"product"`
}

// BuyReplyBody answers or settles a buy negotiation (warehouse-accept,
// supplier-accept, store-confirm, warehouse-confirm)
type BuyReplyBody struct {
	RequestID string `json:"request_id"`
	Quantity  int    `json:"quantity"`
	Product   string `json:"product"`
}

// BuyDenyBody releases a losing bidder (store-deny, warehouse-deny)
type BuyDenyBody struct {
	RequestID string `json:"request_id"`
}

// VehicleProposalBody is a vehicle's bid for an order
type VehicleProposalBody struct {
	OrderID      int64   `json:"orderid"`
	CanFit       bool    `json:"can_fit"`
	DeliveryTime float64 `json:"delivery_time"`
	VehicleID    string  `json:"vehicle_id"`
}

// OrderConfirmationBody is the seller's verdict on a vehicle proposal
type OrderConfirmationBody struct {
	OrderID   int64 `json:"orderid"`
	Confirmed bool  `json:"confirmed"`
}

// ArrivalNoticeBody is the scheduler's coalesced arrival broadcast
type ArrivalNoticeBody struct {
	Type     string   `json:"type"`
	Time     float64  `json:"time"`
	Vehicles []string `json:"vehicles"`
}

// TransitNoticeBody is the scheduler's per-event transit notification
type TransitNoticeBody struct {
	Type string          `json:"type"`
	Time float64         `json:"time"`
	Data TransitEdgeData `json:"data"`
}

// TransitEdgeData carries the edge updates of one transit event
type TransitEdgeData struct {
	Edges []event.EdgeChange `json:"edges"`
}

// TimeUpdateBody is a vehicle reporting the remaining time to its next node
type TimeUpdateBody struct {
	Time    float64 `json:"time"`
	Vehicle string  `json:"vehicle"`
}

// SimulateTrafficBody asks the world for a fresh traffic window
type SimulateTrafficBody struct {
	SimulationTime float64        `json:"simulation_time"`
	Requester      shared.AgentID `json:"requester"`
}

// TrafficEventsBody is the world's reply: one entry per changed edge
type TrafficEventsBody struct {
	Events []event.TransitEvent `json:"events"`
}

// NegotiationTimeoutBody closes a pending negotiation round
type NegotiationTimeoutBody struct {
	RequestID string `json:"request_id"`
}
