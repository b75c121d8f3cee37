package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/warehouse"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/test/helpers"
)

var (
	whID       = shared.NewAgentID("warehouse-1", "test")
	storeID    = shared.NewAgentID("store-1", "test")
	supplier1  = shared.NewAgentID("supplier-1", "test")
	supplier2  = shared.NewAgentID("supplier-2", "test")
	vehicle1   = shared.NewAgentID("vehicle-1", "test")
	vehicle2   = shared.NewAgentID("vehicle-2", "test")
	roundLimit = 500 * time.Millisecond
)

type fixture struct {
	wh    *warehouse.Agent
	bus   *bus.ChannelBus
	clock *shared.MockClock
}

func newWarehouse(t *testing.T) *fixture {
	b := helpers.NewTestBus(t, whID, storeID, supplier1, supplier2, vehicle1, vehicle2)
	g := helpers.NewLineGraph(t, 6, 1)
	clock := shared.NewMockClock(time.Time{})

	wh := warehouse.NewAgent(whID, b, clock, nil, warehouse.Config{
		Node:             2,
		Capacity:         100,
		InitialStock:     map[string]int{"banana": 50},
		Threshold:        20,
		ResupplyQuantity: 40,
		RoundTimeout:     roundLimit,
	}, g, order.NewIDGenerator(),
		[]shared.AgentID{vehicle1, vehicle2},
		[]shared.AgentID{supplier1, supplier2},
		map[shared.AgentID]int{storeID: 4, supplier1: 1, supplier2: 6})

	return &fixture{wh: wh, bus: b, clock: clock}
}

// fireTimeouts advances the mock clock past the round timeout and feeds
// the resulting self-addressed timeout messages to the handler.
func (f *fixture) fireTimeouts(t *testing.T) {
	f.clock.Advance(roundLimit + time.Millisecond)
	for _, msg := range helpers.Drain(t, f.bus, whID) {
		f.wh.Runtime().Dispatch(context.Background(), msg)
	}
}

func (f *fixture) storeBuy(t *testing.T, requestID string, qty int) {
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreBuy,
		messaging.BuyRequestBody{RequestID: requestID, Quantity: qty, Product: "banana"}))
}

func TestWarehouse_StoreBuyReservesStock(t *testing.T) {
	f := newWarehouse(t)

	f.storeBuy(t, "req-1", 10)

	msgs := helpers.Drain(t, f.bus, storeID)
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.PerfWarehouseAccept, msgs[0].Performative)
	var reply messaging.BuyReplyBody
	require.NoError(t, msgs[0].DecodeBody(&reply))
	assert.Equal(t, "req-1", reply.RequestID)
	assert.Equal(t, 10, reply.Quantity)

	assert.Equal(t, 50, f.wh.Stock("banana"))
	assert.Equal(t, 40, f.wh.Available("banana"))
}

func TestWarehouse_InsufficientStockStaysSilent(t *testing.T) {
	f := newWarehouse(t)

	f.storeBuy(t, "req-1", 60)

	assert.Empty(t, helpers.Drain(t, f.bus, storeID))
	assert.Equal(t, 50, f.wh.Available("banana"))
}

func TestWarehouse_ReservationsStackUntilExhausted(t *testing.T) {
	f := newWarehouse(t)

	f.storeBuy(t, "req-1", 30)
	f.storeBuy(t, "req-2", 30) // only 20 sellable left

	msgs := helpers.Drain(t, f.bus, storeID)
	require.Len(t, msgs, 1)
	var reply messaging.BuyReplyBody
	require.NoError(t, msgs[0].DecodeBody(&reply))
	assert.Equal(t, "req-1", reply.RequestID)
}

func TestWarehouse_StoreDenyReleasesReservation(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 10)
	helpers.Drain(t, f.bus, storeID)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreDeny,
		messaging.BuyDenyBody{RequestID: "req-1"}))

	assert.Equal(t, 50, f.wh.Available("banana"))
}

func TestWarehouse_StoreConfirmOpensVehicleRound(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 10)
	helpers.Drain(t, f.bus, storeID)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 10, Product: "banana"}))

	// Every vehicle gets the proposal, precomputed over the warehouse's map
	for _, v := range []shared.AgentID{vehicle1, vehicle2} {
		msgs := helpers.Drain(t, f.bus, v)
		require.Len(t, msgs, 1)
		assert.Equal(t, messaging.PerfOrderProposal, msgs[0].Performative)
		var o order.Order
		require.NoError(t, msgs[0].DecodeBody(&o))
		assert.Equal(t, "banana", o.Product)
		assert.Equal(t, 10, o.Quantity)
		assert.Equal(t, 2, o.SenderLocation)
		assert.Equal(t, 4, o.ReceiverLocation)
		assert.Equal(t, 2.0, o.DeliverTime)
	}

	// The reservation holds until pickup
	assert.Equal(t, 40, f.wh.Available("banana"))
}

func TestWarehouse_ConfirmForUnknownRequestIgnored(t *testing.T) {
	f := newWarehouse(t)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "ghost", Quantity: 10, Product: "banana"}))

	assert.Empty(t, helpers.Drain(t, f.bus, vehicle1))
	assert.Equal(t, 50, f.wh.Available("banana"))
}

func TestWarehouse_VehicleRoundConfirmsBestBid(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 10)
	helpers.Drain(t, f.bus, storeID)
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 10, Product: "banana"}))

	proposals := helpers.Drain(t, f.bus, vehicle1)
	require.Len(t, proposals, 1)
	var o order.Order
	require.NoError(t, proposals[0].DecodeBody(&o))
	helpers.Drain(t, f.bus, vehicle2)

	bid := func(from shared.AgentID, fit bool, dt float64) {
		f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, from, whID, messaging.PerfVehicleProposal,
			messaging.VehicleProposalBody{OrderID: o.ID, CanFit: fit, DeliveryTime: dt, VehicleID: from.Name()}))
	}
	bid(vehicle1, true, 5)
	bid(vehicle2, true, 3)

	f.fireTimeouts(t)

	winner := helpers.Drain(t, f.bus, vehicle2)
	require.Len(t, winner, 1)
	var verdict messaging.OrderConfirmationBody
	require.NoError(t, winner[0].DecodeBody(&verdict))
	assert.True(t, verdict.Confirmed)
	assert.Equal(t, o.ID, verdict.OrderID)

	loser := helpers.Drain(t, f.bus, vehicle1)
	require.Len(t, loser, 1)
	require.NoError(t, loser[0].DecodeBody(&verdict))
	assert.False(t, verdict.Confirmed)
}

func TestWarehouse_EmptyVehicleRoundRebroadcastsOnce(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 10)
	helpers.Drain(t, f.bus, storeID)
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 10, Product: "banana"}))
	helpers.Drain(t, f.bus, vehicle1)
	helpers.Drain(t, f.bus, vehicle2)

	// Nobody bids: the round rebroadcasts
	f.fireTimeouts(t)
	assert.Len(t, helpers.Drain(t, f.bus, vehicle1), 1)
	assert.Len(t, helpers.Drain(t, f.bus, vehicle2), 1)

	// Still nobody: the order is abandoned, no further proposals
	f.fireTimeouts(t)
	assert.Empty(t, helpers.Drain(t, f.bus, vehicle1))
	assert.Empty(t, helpers.Drain(t, f.bus, vehicle2))
}

func TestWarehouse_PickupDropsStockAndReservation(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 30)
	helpers.Drain(t, f.bus, storeID)
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 30, Product: "banana"}))

	proposals := helpers.Drain(t, f.bus, vehicle1)
	require.Len(t, proposals, 1)
	var o order.Order
	require.NoError(t, proposals[0].DecodeBody(&o))
	helpers.Drain(t, f.bus, vehicle2)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicle1, whID, messaging.PerfVehiclePickup, &o))

	assert.Equal(t, 20, f.wh.Stock("banana"))
	assert.Equal(t, 20, f.wh.Available("banana"))
}

func TestWarehouse_PickupForUnknownOrderIgnored(t *testing.T) {
	f := newWarehouse(t)
	o, err := order.New(99, "banana", 5, whID, storeID, 2, 4)
	require.NoError(t, err)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicle1, whID, messaging.PerfVehiclePickup, o))

	assert.Equal(t, 50, f.wh.Stock("banana"))
	assert.Equal(t, 50, f.wh.Available("banana"))
}

func TestWarehouse_DuplicatePickupAppliesOnce(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 30)
	helpers.Drain(t, f.bus, storeID)
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 30, Product: "banana"}))

	proposals := helpers.Drain(t, f.bus, vehicle1)
	require.Len(t, proposals, 1)
	var o order.Order
	require.NoError(t, proposals[0].DecodeBody(&o))
	helpers.Drain(t, f.bus, vehicle2)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicle1, whID, messaging.PerfVehiclePickup, &o))
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicle1, whID, messaging.PerfVehiclePickup, &o))

	assert.Equal(t, 20, f.wh.Stock("banana"))
	assert.Equal(t, 20, f.wh.Available("banana"))
}

func TestWarehouse_SaleBelowThresholdOpensResupply(t *testing.T) {
	f := newWarehouse(t)
	// 50 - 35 leaves 15 sellable, below the threshold of 20
	f.storeBuy(t, "req-1", 35)
	helpers.Drain(t, f.bus, storeID)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 35, Product: "banana"}))

	for _, s := range []shared.AgentID{supplier1, supplier2} {
		msgs := helpers.Drain(t, f.bus, s)
		require.Len(t, msgs, 1)
		assert.Equal(t, messaging.PerfWarehouseBuy, msgs[0].Performative)
		var req messaging.BuyRequestBody
		require.NoError(t, msgs[0].DecodeBody(&req))
		assert.Equal(t, "banana", req.Product)
		assert.Equal(t, 40, req.Quantity)
	}
}

func TestWarehouse_SaleAboveThresholdSkipsResupply(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 10)
	helpers.Drain(t, f.bus, storeID)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 10, Product: "banana"}))

	assert.Empty(t, helpers.Drain(t, f.bus, supplier1))
	assert.Empty(t, helpers.Drain(t, f.bus, supplier2))
}

func TestWarehouse_ResupplySettlesOnNearestSupplier(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 35)
	helpers.Drain(t, f.bus, storeID)
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 35, Product: "banana"}))

	reqs := helpers.Drain(t, f.bus, supplier1)
	require.Len(t, reqs, 1)
	var req messaging.BuyRequestBody
	require.NoError(t, reqs[0].DecodeBody(&req))
	helpers.Drain(t, f.bus, supplier2)
	helpers.Drain(t, f.bus, vehicle1)
	helpers.Drain(t, f.bus, vehicle2)

	accept := func(from shared.AgentID) {
		f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, from, whID, messaging.PerfSupplierAccept,
			messaging.BuyReplyBody{RequestID: req.RequestID, Quantity: 40, Product: "banana"}))
	}
	accept(supplier1)
	accept(supplier2)

	f.fireTimeouts(t)

	// supplier1 sits at node 1, one hop from the warehouse at node 2
	won := helpers.Drain(t, f.bus, supplier1)
	require.Len(t, won, 1)
	assert.Equal(t, messaging.PerfWarehouseConfirm, won[0].Performative)

	lost := helpers.Drain(t, f.bus, supplier2)
	require.Len(t, lost, 1)
	assert.Equal(t, messaging.PerfWarehouseDeny, lost[0].Performative)
}

func TestWarehouse_OneResupplyInFlightPerProduct(t *testing.T) {
	f := newWarehouse(t)
	f.storeBuy(t, "req-1", 35)
	f.storeBuy(t, "req-2", 10)
	helpers.Drain(t, f.bus, storeID)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 35, Product: "banana"}))
	helpers.Drain(t, f.bus, supplier1)
	helpers.Drain(t, f.bus, supplier2)

	// A second qualifying sale must not open another round
	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, storeID, whID, messaging.PerfStoreConfirm,
		messaging.BuyReplyBody{RequestID: "req-2", Quantity: 10, Product: "banana"}))

	assert.Empty(t, helpers.Drain(t, f.bus, supplier1))
	assert.Empty(t, helpers.Drain(t, f.bus, supplier2))
}

func TestWarehouse_DeliveryRestocksAndClamps(t *testing.T) {
	f := newWarehouse(t)
	o, err := order.New(7, "banana", 80, supplier1, whID, 1, 2)
	require.NoError(t, err)

	f.wh.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, supplier1, whID, messaging.PerfVehicleDelivery, o))

	// 50 + 80 exceeds the capacity of 100
	assert.Equal(t, 100, f.wh.Stock("banana"))
}
