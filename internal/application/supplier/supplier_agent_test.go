package supplier_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/supplier"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/test/helpers"
)

var (
	supID      = shared.NewAgentID("supplier-1", "test")
	whID       = shared.NewAgentID("warehouse-1", "test")
	vehicleID  = shared.NewAgentID("vehicle-1", "test")
	roundLimit = 500 * time.Millisecond
)

type fixture struct {
	sup   *supplier.Agent
	bus   *bus.ChannelBus
	clock *shared.MockClock
}

func newSupplier(t *testing.T) *fixture {
	b := helpers.NewTestBus(t, supID, whID, vehicleID)
	g := helpers.NewLineGraph(t, 6, 1)
	clock := shared.NewMockClock(time.Time{})

	sup := supplier.NewAgent(supID, b, clock, nil, supplier.Config{
		Node:         1,
		RoundTimeout: roundLimit,
	}, g, order.NewIDGenerator(),
		[]shared.AgentID{vehicleID},
		map[shared.AgentID]int{whID: 3})

	return &fixture{sup: sup, bus: b, clock: clock}
}

func (f *fixture) warehouseBuy(t *testing.T, requestID string, qty int) {
	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseBuy,
		messaging.BuyRequestBody{RequestID: requestID, Quantity: qty, Product: "banana"}))
}

func TestSupplier_AcceptsEveryBuyRequest(t *testing.T) {
	f := newSupplier(t)

	f.warehouseBuy(t, "req-1", 40)
	f.warehouseBuy(t, "req-2", 4000)

	msgs := helpers.Drain(t, f.bus, whID)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, messaging.PerfSupplierAccept, m.Performative)
	}
}

func TestSupplier_InvalidBuyRequestIgnored(t *testing.T) {
	f := newSupplier(t)

	f.warehouseBuy(t, "req-1", 0)
	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseBuy,
		messaging.BuyRequestBody{RequestID: "req-2", Quantity: 10, Product: ""}))

	assert.Empty(t, helpers.Drain(t, f.bus, whID))
}

func TestSupplier_ConfirmOpensVehicleRound(t *testing.T) {
	f := newSupplier(t)
	f.warehouseBuy(t, "req-1", 40)
	helpers.Drain(t, f.bus, whID)

	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 40, Product: "banana"}))

	msgs := helpers.Drain(t, f.bus, vehicleID)
	require.Len(t, msgs, 1)
	assert.Equal(t, messaging.PerfOrderProposal, msgs[0].Performative)
	var o order.Order
	require.NoError(t, msgs[0].DecodeBody(&o))
	assert.Equal(t, "banana", o.Product)
	assert.Equal(t, 40, o.Quantity)
	assert.Equal(t, 1, o.SenderLocation)
	assert.Equal(t, 3, o.ReceiverLocation)
	assert.Equal(t, 2.0, o.DeliverTime)
	assert.Equal(t, supID, o.Sender)
	assert.Equal(t, whID, o.Receiver)
}

func TestSupplier_ConfirmForUnknownRequestIgnored(t *testing.T) {
	f := newSupplier(t)

	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseConfirm,
		messaging.BuyReplyBody{RequestID: "ghost", Quantity: 40, Product: "banana"}))

	assert.Empty(t, helpers.Drain(t, f.bus, vehicleID))
}

func TestSupplier_DenyDropsOffer(t *testing.T) {
	f := newSupplier(t)
	f.warehouseBuy(t, "req-1", 40)
	helpers.Drain(t, f.bus, whID)

	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseDeny,
		messaging.BuyDenyBody{RequestID: "req-1"}))

	// A confirm after the deny finds nothing to ship
	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 40, Product: "banana"}))

	assert.Empty(t, helpers.Drain(t, f.bus, vehicleID))
}

func TestSupplier_RoundSettlesOnVehicleBid(t *testing.T) {
	f := newSupplier(t)
	f.warehouseBuy(t, "req-1", 40)
	helpers.Drain(t, f.bus, whID)
	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, whID, supID, messaging.PerfWarehouseConfirm,
		messaging.BuyReplyBody{RequestID: "req-1", Quantity: 40, Product: "banana"}))

	proposals := helpers.Drain(t, f.bus, vehicleID)
	require.Len(t, proposals, 1)
	var o order.Order
	require.NoError(t, proposals[0].DecodeBody(&o))

	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicleID, supID, messaging.PerfVehicleProposal,
		messaging.VehicleProposalBody{OrderID: o.ID, CanFit: true, DeliveryTime: 2, VehicleID: vehicleID.Name()}))

	f.clock.Advance(roundLimit + time.Millisecond)
	for _, msg := range helpers.Drain(t, f.bus, supID) {
		f.sup.Runtime().Dispatch(context.Background(), msg)
	}

	verdicts := helpers.Drain(t, f.bus, vehicleID)
	require.Len(t, verdicts, 1)
	var verdict messaging.OrderConfirmationBody
	require.NoError(t, verdicts[0].DecodeBody(&verdict))
	assert.True(t, verdict.Confirmed)
}

func TestSupplier_PickupCountsSuppliedMaterial(t *testing.T) {
	f := newSupplier(t)
	o, err := order.New(5, "banana", 40, supID, whID, 1, 3)
	require.NoError(t, err)

	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicleID, supID, messaging.PerfVehiclePickup, o))
	f.sup.Runtime().Dispatch(context.Background(), helpers.NewMessage(t, vehicleID, supID, messaging.PerfVehiclePickup, o))

	assert.Equal(t, 80, f.sup.TotalSupplied("banana"))
}
