package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// Graph-related errors

type GraphError struct {
	*DomainError
}

func NewGraphError(message string) *GraphError {
	return &GraphError{DomainError: &DomainError{Message: message}}
}

type NodeNotFoundError struct {
	*GraphError
	NodeID int
}

func NewNodeNotFoundError(nodeID int) *NodeNotFoundError {
	return &NodeNotFoundError{
		GraphError: NewGraphError(fmt.Sprintf("node %d not found in graph", nodeID)),
		NodeID:     nodeID,
	}
}

type EdgeNotFoundError struct {
	*GraphError
	From int
	To   int
}

func NewEdgeNotFoundError(from, to int) *EdgeNotFoundError {
	return &EdgeNotFoundError{
		GraphError: NewGraphError(fmt.Sprintf("edge %d->%d not found in graph", from, to)),
		From:       from,
		To:         to,
	}
}

// NoRouteError indicates Dijkstra found no path between two nodes
type NoRouteError struct {
	*GraphError
	From int
	To   int
}

func NewNoRouteError(from, to int) *NoRouteError {
	return &NoRouteError{
		GraphError: NewGraphError(fmt.Sprintf("no route from node %d to node %d", from, to)),
		From:       from,
		To:         to,
	}
}

// Order-related errors

type OrderError struct {
	*DomainError
}

func NewOrderError(message string) *OrderError {
	return &OrderError{DomainError: &DomainError{Message: message}}
}

type InvalidOrderDataError struct {
	*OrderError
}

func NewInvalidOrderDataError(message string) *InvalidOrderDataError {
	return &InvalidOrderDataError{OrderError: NewOrderError(message)}
}

// Vehicle-related errors

type VehicleError struct {
	*DomainError
}

func NewVehicleError(message string) *VehicleError {
	return &VehicleError{DomainError: &DomainError{Message: message}}
}

type CapacityExceededError struct {
	*VehicleError
	Load     int
	Capacity int
}

func NewCapacityExceededError(load, capacity int) *CapacityExceededError {
	return &CapacityExceededError{
		VehicleError: NewVehicleError(fmt.Sprintf("cargo load %d exceeds capacity %d", load, capacity)),
		Load:         load,
		Capacity:     capacity,
	}
}

type InsufficientFuelError struct {
	*VehicleError
	Required  float64
	Available float64
}

func NewInsufficientFuelError(required, available float64) *InsufficientFuelError {
	return &InsufficientFuelError{
		VehicleError: NewVehicleError(fmt.Sprintf("insufficient fuel: need %.3f, have %.3f", required, available)),
		Required:     required,
		Available:    available,
	}
}

// Inventory-related errors

type InventoryError struct {
	*DomainError
}

func NewInventoryError(message string) *InventoryError {
	return &InventoryError{DomainError: &DomainError{Message: message}}
}

type InsufficientStockError struct {
	*InventoryError
	Product   string
	Requested int
	Available int
}

func NewInsufficientStockError(product string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		InventoryError: NewInventoryError(fmt.Sprintf("insufficient stock of %s: requested %d, available %d", product, requested, available)),
		Product:        product,
		Requested:      requested,
		Available:      available,
	}
}

// Protocol errors (malformed messages, unknown performatives)

type ProtocolError struct {
	*DomainError
}

func NewProtocolError(message string) *ProtocolError {
	return &ProtocolError{DomainError: &DomainError{Message: message}}
}

// Negotiation errors

type NegotiationError struct {
	*DomainError
}

func NewNegotiationError(message string) *NegotiationError {
	return &NegotiationError{DomainError: &DomainError{Message: message}}
}

type UnknownRequestError struct {
	*NegotiationError
	RequestID string
}

func NewUnknownRequestError(requestID string) *UnknownRequestError {
	return &UnknownRequestError{
		NegotiationError: NewNegotiationError(fmt.Sprintf("unknown negotiation request %s", requestID)),
		RequestID:        requestID,
	}
}

// Validation error

type ValidationError struct {
	*DomainError
	Field string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s: %s", field, message)},
		Field:       field,
	}
}
