// Package bus provides the in-process MessageBus used by the standalone
// simulator. Delivery is reliable and FIFO per mailbox; mailboxes are
// unbounded, so a slow receiver grows memory rather than blocking senders.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// mailbox is an unbounded FIFO queue with a wakeup channel
type mailbox struct {
	mu     sync.Mutex
	queue  []*messaging.Message
	wake   chan struct{}
	filter messaging.Filter
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg *messaging.Message) {
	m.mu.Lock()
	if m.filter != nil && !m.filter(msg) {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) pop() (*messaging.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	msg := m.queue[0]
	m.queue = m.queue[1:]
	return msg, true
}

// ChannelBus implements messaging.Bus over in-memory mailboxes
type ChannelBus struct {
	mu        sync.RWMutex
	mailboxes map[shared.AgentID]*mailbox
}

// NewChannelBus creates an empty bus
func NewChannelBus() *ChannelBus {
	return &ChannelBus{mailboxes: make(map[shared.AgentID]*mailbox)}
}

// Connect registers an agent and allocates its mailbox
func (b *ChannelBus) Connect(id shared.AgentID) error {
	if id.IsZero() {
		return fmt.Errorf("agent id cannot be empty")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.mailboxes[id]; exists {
		return fmt.Errorf("agent %s already connected", id)
	}
	b.mailboxes[id] = newMailbox()
	return nil
}

// Disconnect removes the agent and drops undelivered messages
func (b *ChannelBus) Disconnect(id shared.AgentID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.mailboxes[id]; !exists {
		return fmt.Errorf("agent %s not connected", id)
	}
	delete(b.mailboxes, id)
	return nil
}

// Subscribe installs a delivery filter for the agent
func (b *ChannelBus) Subscribe(id shared.AgentID, filter messaging.Filter) error {
	b.mu.RLock()
	mb, exists := b.mailboxes[id]
	b.mu.RUnlock()
	if !exists {
		return fmt.Errorf("agent %s not connected", id)
	}
	mb.mu.Lock()
	mb.filter = filter
	mb.mu.Unlock()
	return nil
}

// Send delivers a message to the recipient's mailbox. Never blocks.
func (b *ChannelBus) Send(from, to shared.AgentID, performative messaging.Performative, body any) error {
	msg, err := messaging.NewMessage(from, to, performative, body)
	if err != nil {
		return err
	}

	b.mu.RLock()
	mb, exists := b.mailboxes[to]
	b.mu.RUnlock()
	if !exists {
		return fmt.Errorf("no mailbox for %s", to)
	}
	mb.push(msg)
	return nil
}

// Receive yields the next message for the agent, blocking until one is
// available or the context is done.
func (b *ChannelBus) Receive(ctx context.Context, id shared.AgentID) (*messaging.Message, error) {
	b.mu.RLock()
	mb, exists := b.mailboxes[id]
	b.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no mailbox for %s", id)
	}

	for {
		if msg, ok := mb.pop(); ok {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-mb.wake:
		}
	}
}

// Pending returns the number of queued messages for an agent. Test hook.
func (b *ChannelBus) Pending(id shared.AgentID) int {
	b.mu.RLock()
	mb, exists := b.mailboxes[id]
	b.mu.RUnlock()
	if !exists {
		return 0
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}
