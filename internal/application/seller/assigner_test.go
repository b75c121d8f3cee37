package seller_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/seller"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/test/helpers"
)

var (
	sellerID = shared.NewAgentID("warehouse-1", "test")
	buyerID  = shared.NewAgentID("store-1", "test")
	v1       = shared.NewAgentID("vehicle-1", "test")
	v2       = shared.NewAgentID("vehicle-2", "test")
)

type fixture struct {
	assigner *seller.Assigner
	bus      *bus.ChannelBus
	clock    *shared.MockClock
}

func newAssigner(t *testing.T) *fixture {
	b := helpers.NewTestBus(t, sellerID, v1, v2)
	clock := shared.NewMockClock(time.Time{})
	rt := agent.New(sellerID, b, clock, nil)
	return &fixture{
		assigner: seller.NewAssigner(rt, []shared.AgentID{v1, v2}, 500*time.Millisecond),
		bus:      b,
		clock:    clock,
	}
}

func (f *fixture) assign(t *testing.T) *order.Order {
	o, err := order.New(1, "banana", 10, sellerID, buyerID, 2, 4)
	require.NoError(t, err)
	f.assigner.Assign(o)
	return o
}

// timeoutRequestID pulls the request id out of the self-addressed timeout
// the assigner scheduled when it opened the round.
func (f *fixture) timeoutRequestID(t *testing.T) string {
	t.Helper()
	f.clock.Advance(time.Second)
	msgs := helpers.Drain(t, f.bus, sellerID)
	require.NotEmpty(t, msgs)
	var body messaging.NegotiationTimeoutBody
	require.NoError(t, msgs[len(msgs)-1].DecodeBody(&body))
	return body.RequestID
}

func bid(t *testing.T, f *fixture, from shared.AgentID, orderID int64, fit bool, dt float64) {
	f.assigner.OnVehicleProposal(helpers.NewMessage(t, from, sellerID, messaging.PerfVehicleProposal,
		messaging.VehicleProposalBody{OrderID: orderID, CanFit: fit, DeliveryTime: dt, VehicleID: from.Name()}))
}

func TestAssigner_AssignBroadcastsToAllVehicles(t *testing.T) {
	f := newAssigner(t)

	o := f.assign(t)

	for _, v := range []shared.AgentID{v1, v2} {
		msgs := helpers.Drain(t, f.bus, v)
		require.Len(t, msgs, 1)
		assert.Equal(t, messaging.PerfOrderProposal, msgs[0].Performative)
		var got order.Order
		require.NoError(t, msgs[0].DecodeBody(&got))
		assert.Equal(t, o.ID, got.ID)
	}
	assert.Equal(t, 1, f.assigner.OpenRounds())
}

func TestAssigner_SettleConfirmsBestBid(t *testing.T) {
	f := newAssigner(t)
	o := f.assign(t)
	helpers.Drain(t, f.bus, v1)
	helpers.Drain(t, f.bus, v2)

	bid(t, f, v1, o.ID, true, 5)
	bid(t, f, v2, o.ID, true, 3)

	require.True(t, f.assigner.Settle(f.timeoutRequestID(t)))

	won := helpers.Drain(t, f.bus, v2)
	require.Len(t, won, 1)
	var verdict messaging.OrderConfirmationBody
	require.NoError(t, won[0].DecodeBody(&verdict))
	assert.True(t, verdict.Confirmed)

	lost := helpers.Drain(t, f.bus, v1)
	require.Len(t, lost, 1)
	require.NoError(t, lost[0].DecodeBody(&verdict))
	assert.False(t, verdict.Confirmed)

	assert.Zero(t, f.assigner.OpenRounds())
}

func TestAssigner_SettleUnknownRequest(t *testing.T) {
	f := newAssigner(t)

	assert.False(t, f.assigner.Settle("ghost"))
}

func TestAssigner_EmptyRoundRebroadcastsThenAbandons(t *testing.T) {
	f := newAssigner(t)
	f.assign(t)
	helpers.Drain(t, f.bus, v1)
	helpers.Drain(t, f.bus, v2)

	requestID := f.timeoutRequestID(t)

	// First empty settle: the order goes out again under the same round
	require.True(t, f.assigner.Settle(requestID))
	assert.Len(t, helpers.Drain(t, f.bus, v1), 1)
	assert.Len(t, helpers.Drain(t, f.bus, v2), 1)
	assert.Equal(t, 1, f.assigner.OpenRounds())

	// Second empty settle: abandoned
	require.True(t, f.assigner.Settle(requestID))
	assert.Empty(t, helpers.Drain(t, f.bus, v1))
	assert.Empty(t, helpers.Drain(t, f.bus, v2))
	assert.Zero(t, f.assigner.OpenRounds())
}

func TestAssigner_BidForUnknownOrderIgnored(t *testing.T) {
	f := newAssigner(t)

	bid(t, f, v1, 42, true, 1)

	assert.Zero(t, f.assigner.OpenRounds())
}
