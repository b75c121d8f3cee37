package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements SimulationRecorder over a Prometheus
// registry
type PrometheusCollector struct {
	ordersCreated      *prometheus.CounterVec
	pickups            *prometheus.CounterVec
	deliveries         *prometheus.CounterVec
	unitsDelivered     *prometheus.CounterVec
	ordersUnassignable *prometheus.CounterVec

	negotiationRounds    *prometheus.CounterVec
	negotiationResponses *prometheus.HistogramVec

	planInvocations *prometheus.CounterVec
	planTasks       prometheus.Histogram

	schedulerBatchSize prometheus.Histogram
	schedulerSimTime   prometheus.Gauge

	trafficWindows      prometheus.Counter
	trafficChangedEdges prometheus.Histogram

	unitsSupplied *prometheus.CounterVec
}

// NewPrometheusCollector creates and registers all simulation collectors
func NewPrometheusCollector(registry *prometheus.Registry) *PrometheusCollector {
	c := &PrometheusCollector{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created by confirmed buy negotiations",
		}, []string{"product"}),
		pickups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pickups_total",
			Help:      "Order pickups executed by vehicles",
		}, []string{"product"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Orders delivered to their buyers",
		}, []string{"product"}),
		unitsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_delivered_total",
			Help:      "Product units delivered to buyers",
		}, []string{"product"}),
		ordersUnassignable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_unassignable_total",
			Help:      "Orders no vehicle could be assigned to",
		}, []string{"product"}),
		negotiationRounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiation_rounds_total",
			Help:      "Closed negotiation rounds by kind and outcome",
		}, []string{"kind", "won"}),
		negotiationResponses: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "negotiation_responses",
			Help:      "Responses collected per negotiation round",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}, []string{"kind"}),
		planInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_invocations_total",
			Help:      "Task-planner invocations by feasibility",
		}, []string{"feasible"}),
		planTasks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_tasks",
			Help:      "Orders per task-planner invocation",
			Buckets:   prometheus.LinearBuckets(0, 1, 16),
		}),
		schedulerBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_batch_size",
			Help:      "Events per same-time scheduler batch",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		schedulerSimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_simulation_time",
			Help:      "Simulation time of the last processed batch",
		}),
		trafficWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traffic_windows_total",
			Help:      "Traffic windows simulated by the world",
		}),
		trafficChangedEdges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "traffic_changed_edges",
			Help:      "Edges changed per traffic window",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		unitsSupplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_supplied_total",
			Help:      "Units shipped by suppliers (advisory)",
		}, []string{"product"}),
	}

	registry.MustRegister(
		c.ordersCreated, c.pickups, c.deliveries, c.unitsDelivered,
		c.ordersUnassignable, c.negotiationRounds, c.negotiationResponses,
		c.planInvocations, c.planTasks, c.schedulerBatchSize,
		c.schedulerSimTime, c.trafficWindows, c.trafficChangedEdges,
		c.unitsSupplied,
	)
	return c
}

func (c *PrometheusCollector) RecordOrderCreated(product string, quantity int) {
	c.ordersCreated.WithLabelValues(product).Inc()
}

func (c *PrometheusCollector) RecordPickup(product string, quantity int) {
	c.pickups.WithLabelValues(product).Inc()
}

func (c *PrometheusCollector) RecordDelivery(product string, quantity int) {
	c.deliveries.WithLabelValues(product).Inc()
	c.unitsDelivered.WithLabelValues(product).Add(float64(quantity))
}

func (c *PrometheusCollector) RecordOrderUnassignable(product string) {
	c.ordersUnassignable.WithLabelValues(product).Inc()
}

func (c *PrometheusCollector) RecordNegotiationRound(kind string, responses int, won bool) {
	c.negotiationRounds.WithLabelValues(kind, strconv.FormatBool(won)).Inc()
	c.negotiationResponses.WithLabelValues(kind).Observe(float64(responses))
}

func (c *PrometheusCollector) RecordPlan(tasks int, feasible bool) {
	c.planInvocations.WithLabelValues(strconv.FormatBool(feasible)).Inc()
	c.planTasks.Observe(float64(tasks))
}

func (c *PrometheusCollector) RecordSchedulerBatch(size int, simTime float64) {
	c.schedulerBatchSize.Observe(float64(size))
	c.schedulerSimTime.Set(simTime)
}

func (c *PrometheusCollector) RecordTrafficWindow(window int, changedEdges int) {
	c.trafficWindows.Inc()
	c.trafficChangedEdges.Observe(float64(changedEdges))
}

func (c *PrometheusCollector) RecordSupplied(product string, quantity int) {
	c.unitsSupplied.WithLabelValues(product).Add(float64(quantity))
}
