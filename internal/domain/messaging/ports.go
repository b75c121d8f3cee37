package messaging

import (
	"context"

	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Filter decides whether a message is delivered to a subscriber's mailbox
type Filter func(*Message) bool

// Bus is the narrow transport contract every agent is polymorphic over.
// The in-process implementation delivers over unbounded mailboxes; a wire
// transport can be plugged in behind the same interface.
//
// Ordering guarantee: messages sent from A to B are received by B in send
// order. There is no ordering across three or more agents.
type Bus interface {
	// Connect registers an agent id and allocates its mailbox
	Connect(id shared.AgentID) error

	// Disconnect removes the agent and drops undelivered messages
	Disconnect(id shared.AgentID) error

	// Subscribe installs a delivery filter for the agent. A nil filter
	// accepts everything (the default).
	Subscribe(id shared.AgentID, filter Filter) error

	// Send delivers a message to the recipient's mailbox. Marshals the
	// body to JSON. Mailboxes are unbounded; Send never blocks on a slow
	// receiver.
	Send(from, to shared.AgentID, performative Performative, body any) error

	// Receive yields the next message for the agent, blocking until one
	// is available or the context is done.
	Receive(ctx context.Context, id shared.AgentID) (*Message, error)
}
