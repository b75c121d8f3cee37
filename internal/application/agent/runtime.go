// Package agent provides the runtime every simulation agent is built on:
// one goroutine per agent draining its mailbox and firing periodic
// behaviours. Handlers of one agent never run concurrently with each
// other, so agent state needs no locking; agents interact only through
// the bus.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

// Status is the lifecycle state of an agent runtime
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusStopped Status = "STOPPED"
)

// perfPeriodicTick is the self-addressed performative carrying periodic
// behaviour ticks. Routing ticks through the mailbox keeps handler
// execution strictly serial.
const perfPeriodicTick messaging.Performative = "periodic-tick"

type periodicTickBody struct {
	Name string `json:"name"`
}

// Handler processes one inbound message. Errors are handled inside (log
// and drop); a handler returning is the only way the loop advances.
type Handler func(ctx context.Context, msg *messaging.Message)

// periodic is a recurring behaviour on a wall-clock interval
type periodic struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
}

// Runtime runs one agent: it connects the agent to the bus, receives
// messages, dispatches them to per-performative handlers and drives
// periodic behaviours, all handler execution on a single goroutine.
type Runtime struct {
	id        shared.AgentID
	bus       messaging.Bus
	clock     shared.Clock
	logger    common.AgentLogger
	handlers  map[messaging.Performative]Handler
	periodics map[string]periodic

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a runtime for the given agent id
func New(id shared.AgentID, b messaging.Bus, clock shared.Clock, logger common.AgentLogger) *Runtime {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Runtime{
		id:        id,
		bus:       b,
		clock:     clock,
		logger:    logger,
		handlers:  make(map[messaging.Performative]Handler),
		periodics: make(map[string]periodic),
		status:    StatusPending,
		done:      make(chan struct{}),
	}
}

// ID returns the agent id
func (r *Runtime) ID() shared.AgentID {
	return r.id
}

// Status returns the lifecycle state
func (r *Runtime) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Handle registers the handler for a performative. Must be called before
// Start.
func (r *Runtime) Handle(p messaging.Performative, h Handler) {
	r.handlers[p] = h
}

// AddPeriodic registers a recurring behaviour. Must be called before Start.
func (r *Runtime) AddPeriodic(name string, interval time.Duration, fn func(ctx context.Context)) {
	r.periodics[name] = periodic{name: name, interval: interval, fn: fn}
}

// Start connects to the bus and launches the agent goroutine. Each
// periodic behaviour gets a ticker goroutine that posts ticks to the
// agent's own mailbox, so behaviour bodies still run on the main loop.
func (r *Runtime) Start(ctx context.Context) error {
	if err := r.bus.Connect(r.id); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.status = StatusRunning
	r.cancel = cancel
	r.mu.Unlock()

	for _, p := range r.periodics {
		go r.tickLoop(ctx, p)
	}
	go r.loop(ctx)
	return nil
}

// Stop asks the agent to finish its current handler and exit, then waits
// for the goroutine to return
func (r *Runtime) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-r.done
}

func (r *Runtime) tickLoop(ctx context.Context, p periodic) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Send(r.id, perfPeriodicTick, periodicTickBody{Name: p.name})
		}
	}
}

func (r *Runtime) loop(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.status = StatusStopped
		r.mu.Unlock()
		close(r.done)
	}()

	for {
		msg, err := r.bus.Receive(ctx, r.id)
		if err != nil {
			return
		}
		r.Dispatch(ctx, msg)
	}
}

// Dispatch routes one message to its handler. Unknown performatives are
// logged and dropped; the agent continues. Exported so tests can feed
// messages synchronously without running the loop.
func (r *Runtime) Dispatch(ctx context.Context, msg *messaging.Message) {
	if msg.Performative == perfPeriodicTick {
		var body periodicTickBody
		if err := msg.DecodeBody(&body); err != nil {
			r.log("warn", "malformed periodic tick", map[string]interface{}{"error": err.Error()})
			return
		}
		if p, ok := r.periodics[body.Name]; ok {
			p.fn(ctx)
		}
		return
	}

	h, ok := r.handlers[msg.Performative]
	if !ok {
		r.log("warn", "unknown performative, dropping message", map[string]interface{}{
			"performative": string(msg.Performative),
			"from":         msg.From.String(),
		})
		return
	}
	h(ctx, msg)
}

// RunPeriodic fires a registered periodic behaviour once. Test hook.
func (r *Runtime) RunPeriodic(ctx context.Context, name string) {
	if p, ok := r.periodics[name]; ok {
		p.fn(ctx)
	}
}

// Send delivers a message from this agent, logging delivery failures
func (r *Runtime) Send(to shared.AgentID, p messaging.Performative, body any) {
	if err := r.bus.Send(r.id, to, p, body); err != nil {
		r.log("warn", "send failed", map[string]interface{}{
			"to":           to.String(),
			"performative": string(p),
			"error":        err.Error(),
		})
	}
}

// ScheduleTimeout posts a negotiation-timeout message to this agent's own
// mailbox after d. The timeout is handled like any other message, so it
// never races the agent's state.
func (r *Runtime) ScheduleTimeout(d time.Duration, requestID string) {
	r.clock.AfterFunc(d, func() {
		r.Send(r.id, messaging.PerfNegotiationTimeout, messaging.NegotiationTimeoutBody{RequestID: requestID})
	})
}

// Clock returns the runtime's clock
func (r *Runtime) Clock() shared.Clock {
	return r.clock
}

func (r *Runtime) log(level, msg string, metadata map[string]interface{}) {
	if r.logger == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["agent"] = r.id.String()
	r.logger.Log(level, msg, metadata)
}

// Log exposes structured logging to the agent built on this runtime
func (r *Runtime) Log(level, msg string, metadata map[string]interface{}) {
	r.log(level, msg, metadata)
}
