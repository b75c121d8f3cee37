package vehicle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/vehicle"
	"github.com/andrescamacho/supplysim-go/internal/domain/event"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/test/helpers"
)

var (
	truckID     = shared.NewAgentID("truck", "test")
	sellerID    = shared.NewAgentID("warehouse-1", "test")
	buyerID     = shared.NewAgentID("store-1", "test")
	schedulerID = shared.NewAgentID("scheduler", "test")
)

func newTruck(t *testing.T) (*vehicle.Agent, *bus.ChannelBus) {
	b := helpers.NewTestBus(t, sellerID, buyerID, schedulerID)
	g := helpers.NewLineGraph(t, 6, 1)
	v := vehicle.NewAgent(truckID, b, shared.NewMockClock(time.Now()), nil, vehicle.Config{
		Capacity:  20,
		MaxFuel:   100,
		WeightKg:  1500,
		StartNode: 1,
	}, g, schedulerID)
	return v, b
}

func newOrder(t *testing.T, id int64, qty, from, to int, deliverTime float64) *order.Order {
	o, err := order.New(id, "banana", qty, sellerID, buyerID, from, to)
	require.NoError(t, err)
	o.DeliverTime = deliverTime
	return o
}

func confirm(t *testing.T, v *vehicle.Agent, orderID int64, confirmed bool) {
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderConfirmation,
		messaging.OrderConfirmationBody{OrderID: orderID, Confirmed: confirmed}))
}

func arrive(t *testing.T, v *vehicle.Agent, at float64) {
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, schedulerID, truckID, messaging.PerfArrival,
		messaging.ArrivalNoticeBody{Type: "arrival", Time: at, Vehicles: []string{truckID.Name()}}))
}

func TestVehicle_IdleProposalUsesPrecomputedTime(t *testing.T) {
	v, b := newTruck(t)
	o := newOrder(t, 1, 10, 2, 4, 3.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))

	msgs := helpers.Drain(t, b, sellerID)
	require.Len(t, msgs, 1)
	var bid messaging.VehicleProposalBody
	require.NoError(t, msgs[0].DecodeBody(&bid))
	assert.True(t, bid.CanFit)
	assert.Equal(t, 3.0, bid.DeliveryTime)
	assert.Equal(t, "truck", bid.VehicleID)
}

func TestVehicle_ConfirmationCommitsAndReportsLeg(t *testing.T) {
	v, b := newTruck(t)
	o := newOrder(t, 1, 10, 2, 4, 3.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)

	assert.Equal(t, vehicle.StatusBusy, v.Status())
	require.Len(t, v.CommittedOrders(), 1)
	require.Len(t, v.Route(), 2)
	assert.Equal(t, 2, v.Route()[0].Node)
	assert.Equal(t, 4, v.Route()[1].Node)

	msgs := helpers.Drain(t, b, schedulerID)
	require.Len(t, msgs, 1)
	var update messaging.TimeUpdateBody
	require.NoError(t, msgs[0].DecodeBody(&update))
	assert.Equal(t, 1.0, update.Time)
	assert.Equal(t, "truck", update.Vehicle)
}

func TestVehicle_UnknownConfirmationIgnored(t *testing.T) {
	v, _ := newTruck(t)

	confirm(t, v, 99, true)

	assert.Empty(t, v.CommittedOrders())
	assert.Equal(t, vehicle.StatusAvailable, v.Status())
}

func TestVehicle_DeniedProposalNotCommitted(t *testing.T) {
	v, b := newTruck(t)
	o := newOrder(t, 1, 10, 2, 4, 3.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, false)

	assert.Empty(t, v.CommittedOrders())
	assert.Equal(t, vehicle.StatusAvailable, v.Status())
}

func TestVehicle_ArrivalPicksUpAndDelivers(t *testing.T) {
	v, b := newTruck(t)
	o := newOrder(t, 1, 10, 2, 4, 3.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	// First arrival: pickup at node 2
	arrive(t, v, 1.0)
	assert.Equal(t, 2, v.Location())
	assert.Equal(t, 10, v.Load())

	pickups := helpers.Drain(t, b, sellerID)
	require.Len(t, pickups, 1)
	assert.Equal(t, messaging.PerfVehiclePickup, pickups[0].Performative)
	var picked order.Order
	require.NoError(t, pickups[0].DecodeBody(&picked))
	assert.True(t, picked.Started)

	// Next leg reported to the scheduler
	updates := helpers.Drain(t, b, schedulerID)
	require.Len(t, updates, 1)
	var update messaging.TimeUpdateBody
	require.NoError(t, updates[0].DecodeBody(&update))
	assert.Equal(t, 2.0, update.Time)

	// Second arrival: delivery at node 4
	arrive(t, v, 2.0)
	assert.Equal(t, 4, v.Location())
	assert.Zero(t, v.Load())
	assert.Equal(t, vehicle.StatusAvailable, v.Status())
	assert.Empty(t, v.CommittedOrders())

	deliveries := helpers.Drain(t, b, buyerID)
	require.Len(t, deliveries, 1)
	assert.Equal(t, messaging.PerfVehicleDelivery, deliveries[0].Performative)
}

func TestVehicle_BootstrapSignalIgnored(t *testing.T) {
	v, _ := newTruck(t)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, schedulerID, truckID, messaging.PerfArrival,
		messaging.ArrivalNoticeBody{Type: "arrival", Time: 0.001, Vehicles: []string{shared.VehicleInitSignal}}))

	assert.Equal(t, 1, v.Location())
	assert.Equal(t, vehicle.StatusAvailable, v.Status())
}

func TestVehicle_TransitMovesAlongRoute(t *testing.T) {
	v, b := newTruck(t)
	// Pickup three edges away so a partial transit leaves the vehicle
	// mid-leg at a node boundary
	o := newOrder(t, 1, 10, 4, 6, 5.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, schedulerID, truckID, messaging.PerfTransit,
		messaging.TransitNoticeBody{Type: "transit", Time: 1.5}))

	// 1.5 time units cover one full unit edge; the half-traversed second
	// edge leaves the vehicle at node 2
	assert.Equal(t, 2, v.Location())

	updates := helpers.Drain(t, b, schedulerID)
	require.Len(t, updates, 1)
	var update messaging.TimeUpdateBody
	require.NoError(t, updates[0].DecodeBody(&update))
	assert.Equal(t, 2.0, update.Time)
}

func TestVehicle_TransitAppliesEdgeUpdates(t *testing.T) {
	v, b := newTruck(t)
	o := newOrder(t, 1, 10, 2, 4, 3.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, o))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	// Congestion on the leg in progress with no time elapsed: the vehicle
	// stays put but re-measures the leg on the updated map
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, schedulerID, truckID, messaging.PerfTransit,
		messaging.TransitNoticeBody{
			Type: "transit",
			Time: 0,
			Data: messaging.TransitEdgeData{Edges: []event.EdgeChange{
				{Node1: 1, Node2: 2, NewWeight: 5},
			}},
		}))

	assert.Equal(t, 1, v.Location())

	updates := helpers.Drain(t, b, schedulerID)
	require.Len(t, updates, 1)
	var update messaging.TimeUpdateBody
	require.NoError(t, updates[0].DecodeBody(&update))
	assert.Equal(t, 5.0, update.Time)
}

func TestVehicle_SecondOrderThreadsIntoRoute(t *testing.T) {
	v, b := newTruck(t)
	first := newOrder(t, 1, 10, 2, 5, 4.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, first))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	// Second order picks up and drops along the existing route
	second := newOrder(t, 2, 5, 2, 5, 4.0)
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, second))

	msgs := helpers.Drain(t, b, sellerID)
	require.Len(t, msgs, 1)
	var bid messaging.VehicleProposalBody
	require.NoError(t, msgs[0].DecodeBody(&bid))
	assert.True(t, bid.CanFit)
}

func TestVehicle_OrderCapBidsNonFitting(t *testing.T) {
	b := helpers.NewTestBus(t, sellerID, buyerID, schedulerID)
	g := helpers.NewLineGraph(t, 6, 1)
	v := vehicle.NewAgent(truckID, b, shared.NewMockClock(time.Now()), nil, vehicle.Config{
		Capacity:  20,
		MaxFuel:   100,
		WeightKg:  1500,
		MaxOrders: 1,
		StartNode: 1,
	}, g, schedulerID)

	first := newOrder(t, 1, 5, 2, 5, 4.0)
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, first))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	// Capacity would thread the second order in, but the cap is reached
	second := newOrder(t, 2, 5, 2, 5, 4.0)
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, second))

	msgs := helpers.Drain(t, b, sellerID)
	require.Len(t, msgs, 1)
	var bid messaging.VehicleProposalBody
	require.NoError(t, msgs[0].DecodeBody(&bid))
	assert.False(t, bid.CanFit)
	assert.Positive(t, bid.DeliveryTime)
}

func TestVehicle_OverflowingOrderBidsNonFitting(t *testing.T) {
	v, b := newTruck(t)
	first := newOrder(t, 1, 15, 2, 5, 4.0)

	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, first))
	helpers.Drain(t, b, sellerID)
	confirm(t, v, 1, true)
	helpers.Drain(t, b, schedulerID)

	// 15 + 10 exceeds the capacity of 20 on the shared span
	second := newOrder(t, 2, 10, 2, 5, 4.0)
	v.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, sellerID, truckID, messaging.PerfOrderProposal, second))

	msgs := helpers.Drain(t, b, sellerID)
	require.Len(t, msgs, 1)
	var bid messaging.VehicleProposalBody
	require.NoError(t, msgs[0].DecodeBody(&bid))
	assert.False(t, bid.CanFit)
	assert.Positive(t, bid.DeliveryTime)
}
