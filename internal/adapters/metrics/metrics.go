// Package metrics provides operator visibility into the simulation:
// deliveries, negotiation outcomes, planner activity, scheduler batches
// and traffic churn. Recording goes through nil-safe package-level
// helpers so agents never need to know whether metrics are enabled.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "supplysim"
)

var (
	// Registry is the global Prometheus registry for all metrics.
	// Nil when metrics are disabled.
	Registry *prometheus.Registry

	globalCollector SimulationRecorder
)

// SimulationRecorder is the interface agents record through
type SimulationRecorder interface {
	RecordOrderCreated(product string, quantity int)
	RecordPickup(product string, quantity int)
	RecordDelivery(product string, quantity int)
	RecordOrderUnassignable(product string)

	RecordNegotiationRound(kind string, responses int, won bool)

	RecordPlan(tasks int, feasible bool)

	RecordSchedulerBatch(size int, simTime float64)
	RecordTrafficWindow(window int, changedEdges int)

	RecordSupplied(product string, quantity int)
}

// InitRegistry initializes the Prometheus registry. Call once at startup
// when metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector installs the collector behind the package helpers
func SetGlobalCollector(c SimulationRecorder) {
	globalCollector = c
}

// RecordOrderCreated records a confirmed sale
func RecordOrderCreated(product string, quantity int) {
	if globalCollector != nil {
		globalCollector.RecordOrderCreated(product, quantity)
	}
}

// RecordPickup records cargo leaving a seller
func RecordPickup(product string, quantity int) {
	if globalCollector != nil {
		globalCollector.RecordPickup(product, quantity)
	}
}

// RecordDelivery records cargo reaching a buyer
func RecordDelivery(product string, quantity int) {
	if globalCollector != nil {
		globalCollector.RecordDelivery(product, quantity)
	}
}

// RecordOrderUnassignable records an order no vehicle bid for
func RecordOrderUnassignable(product string) {
	if globalCollector != nil {
		globalCollector.RecordOrderUnassignable(product)
	}
}

// RecordNegotiationRound records one closed negotiation round
func RecordNegotiationRound(kind string, responses int, won bool) {
	if globalCollector != nil {
		globalCollector.RecordNegotiationRound(kind, responses, won)
	}
}

// RecordPlan records one task-planner invocation
func RecordPlan(tasks int, feasible bool) {
	if globalCollector != nil {
		globalCollector.RecordPlan(tasks, feasible)
	}
}

// RecordSchedulerBatch records one processed batch of same-time events
func RecordSchedulerBatch(size int, simTime float64) {
	if globalCollector != nil {
		globalCollector.RecordSchedulerBatch(size, simTime)
	}
}

// RecordTrafficWindow records one simulated traffic window
func RecordTrafficWindow(window int, changedEdges int) {
	if globalCollector != nil {
		globalCollector.RecordTrafficWindow(window, changedEdges)
	}
}

// RecordSupplied records supplier output (advisory statistics only)
func RecordSupplied(product string, quantity int) {
	if globalCollector != nil {
		globalCollector.RecordSupplied(product, quantity)
	}
}
