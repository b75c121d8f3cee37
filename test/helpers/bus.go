package helpers

import (
	"context"
	"testing"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// NewTestBus creates an in-process bus with the given agents connected
func NewTestBus(t *testing.T, ids ...shared.AgentID) *bus.ChannelBus {
	b := bus.NewChannelBus()
	for _, id := range ids {
		if err := b.Connect(id); err != nil {
			t.Fatalf("failed to connect %s: %v", id, err)
		}
	}
	return b
}

// Drain pops every queued message for an agent without blocking
func Drain(t *testing.T, b *bus.ChannelBus, id shared.AgentID) []*messaging.Message {
	var out []*messaging.Message
	for b.Pending(id) > 0 {
		msg, err := b.Receive(context.Background(), id)
		if err != nil {
			t.Fatalf("failed to receive for %s: %v", id, err)
		}
		out = append(out, msg)
	}
	return out
}

// NewMessage builds a message for handler-level tests, failing the test
// on marshal errors
func NewMessage(t *testing.T, from, to shared.AgentID, p messaging.Performative, body any) *messaging.Message {
	msg, err := messaging.NewMessage(from, to, p, body)
	if err != nil {
		t.Fatalf("failed to build %s message: %v", p, err)
	}
	return msg
}
