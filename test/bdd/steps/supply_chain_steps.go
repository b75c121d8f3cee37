package steps

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/agent"
	"github.com/andrescamacho/supplysim-go/internal/application/store"
	"github.com/andrescamacho/supplysim-go/internal/application/vehicle"
	"github.com/andrescamacho/supplysim-go/internal/application/warehouse"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/messaging"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
)

const (
	bddHost    = "bdd"
	roundLimit = 500 * time.Millisecond
)

type warehouseSpec struct {
	node    int
	stock   int
	product string
}

type vehicleSpec struct {
	capacity int
	start    int
}

// supplyChainContext drives the agents synchronously: messages are pumped
// between mailboxes on the calling goroutine and negotiation timeouts fire
// by advancing a mock clock, so scenarios are fully deterministic.
type supplyChainContext struct {
	worldSize int
	storeNode int
	buyQty    int
	product   string

	warehouseSpecs map[string]warehouseSpec
	vehicleSpecs   map[string]vehicleSpec
	vehicleOrder   []string

	built       bool
	bus         *bus.ChannelBus
	clock       *shared.MockClock
	g           *graph.Graph
	shop        *store.Agent
	warehouses  map[string]*warehouse.Agent
	vehicles    map[string]*vehicle.Agent
	runtimes    map[shared.AgentID]*agent.Runtime
	storeID     shared.AgentID
	schedulerID shared.AgentID
}

func (c *supplyChainContext) reset() {
	*c = supplyChainContext{
		warehouseSpecs: make(map[string]warehouseSpec),
		vehicleSpecs:   make(map[string]vehicleSpec),
	}
}

func newDeterministicRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func lineGraph(n int) *graph.Graph {
	g := graph.New()
	for i := 1; i <= n; i++ {
		g.AddNode(&graph.Node{ID: i, X: float64(i - 1)})
	}
	for i := 1; i < n; i++ {
		_ = g.AddEdgePair(i, i+1, 1, 1)
	}
	return g
}

// build wires the declared world into live agents. Idempotent so any
// When step can trigger it.
func (c *supplyChainContext) build() error {
	if c.built {
		return nil
	}
	if c.worldSize == 0 || c.storeNode == 0 {
		return fmt.Errorf("world or store not declared")
	}

	c.g = lineGraph(c.worldSize)
	c.bus = bus.NewChannelBus()
	c.clock = shared.NewMockClock(time.Time{})
	c.warehouses = make(map[string]*warehouse.Agent)
	c.vehicles = make(map[string]*vehicle.Agent)
	c.runtimes = make(map[shared.AgentID]*agent.Runtime)

	c.storeID = shared.NewAgentID("store-1", bddHost)
	c.schedulerID = shared.NewAgentID("scheduler", bddHost)
	if err := c.bus.Connect(c.schedulerID); err != nil {
		return err
	}

	locations := map[shared.AgentID]int{c.storeID: c.storeNode}
	var warehouseIDs []shared.AgentID
	for name, spec := range c.warehouseSpecs {
		id := shared.NewAgentID(name, bddHost)
		warehouseIDs = append(warehouseIDs, id)
		locations[id] = spec.node
	}
	var vehicleIDs []shared.AgentID
	for _, name := range c.vehicleOrder {
		vehicleIDs = append(vehicleIDs, shared.NewAgentID(name, bddHost))
	}

	connect := func(id shared.AgentID) error { return c.bus.Connect(id) }

	ids := order.NewIDGenerator()
	for name, spec := range c.warehouseSpecs {
		id := shared.NewAgentID(name, bddHost)
		if err := connect(id); err != nil {
			return err
		}
		wh := warehouse.NewAgent(id, c.bus, c.clock, nil, warehouse.Config{
			Node:             spec.node,
			Capacity:         1000,
			InitialStock:     map[string]int{spec.product: spec.stock},
			Threshold:        0,
			ResupplyQuantity: 10,
			RoundTimeout:     roundLimit,
		}, c.g, ids, vehicleIDs, nil, locations)
		c.warehouses[name] = wh
		c.runtimes[id] = wh.Runtime()
	}

	if err := connect(c.storeID); err != nil {
		return err
	}
	c.shop = store.NewAgent(c.storeID, c.bus, c.clock, nil, store.Config{
		Node:           c.storeNode,
		Products:       []string{c.product},
		MinQuantity:    c.buyQty,
		MaxQuantity:    c.buyQty,
		BuyFrequency:   time.Second,
		BuyProbability: 1,
		RoundTimeout:   roundLimit,
	}, c.g, newDeterministicRand(), warehouseIDs, locations)
	c.runtimes[c.storeID] = c.shop.Runtime()

	for _, name := range c.vehicleOrder {
		spec := c.vehicleSpecs[name]
		id := shared.NewAgentID(name, bddHost)
		if err := connect(id); err != nil {
			return err
		}
		v := vehicle.NewAgent(id, c.bus, c.clock, nil, vehicle.Config{
			Capacity:  spec.capacity,
			MaxFuel:   1000,
			WeightKg:  1500,
			StartNode: spec.start,
		}, c.g.Clone(), c.schedulerID)
		c.vehicles[name] = v
		c.runtimes[id] = v.Runtime()
	}

	c.built = true
	return nil
}

// pump delivers queued messages to their agents until every mailbox is
// empty. Scheduler-bound time updates are discarded; no scheduler runs in
// these scenarios.
func (c *supplyChainContext) pump() error {
	for moved := true; moved; {
		moved = false
		for id, rt := range c.runtimes {
			for c.bus.Pending(id) > 0 {
				msg, err := c.bus.Receive(context.Background(), id)
				if err != nil {
					return err
				}
				rt.Dispatch(context.Background(), msg)
				moved = true
			}
		}
		for c.bus.Pending(c.schedulerID) > 0 {
			if _, err := c.bus.Receive(context.Background(), c.schedulerID); err != nil {
				return err
			}
			moved = true
		}
	}
	return nil
}

// Given steps

func (c *supplyChainContext) aLineWorldOfNodes(n int) error {
	c.worldSize = n
	return nil
}

func (c *supplyChainContext) aStoreAtNodeBuying(node, qty int, product string) error {
	c.storeNode = node
	c.buyQty = qty
	c.product = product
	return nil
}

func (c *supplyChainContext) aWarehouseAtNodeStocking(name string, node, stock int, product string) error {
	c.warehouseSpecs[name] = warehouseSpec{node: node, stock: stock, product: product}
	return nil
}

func (c *supplyChainContext) aVehicleWithCapacityStartingAtNode(name string, capacity, start int) error {
	c.vehicleSpecs[name] = vehicleSpec{capacity: capacity, start: start}
	c.vehicleOrder = append(c.vehicleOrder, name)
	return nil
}

// When steps

func (c *supplyChainContext) theStoreBroadcastsItsBuyRequest() error {
	if err := c.build(); err != nil {
		return err
	}
	c.shop.TryBuy(context.Background())
	return c.pump()
}

func (c *supplyChainContext) theRoundTimesOut() error {
	if err := c.build(); err != nil {
		return err
	}
	c.clock.Advance(roundLimit + time.Millisecond)
	return c.pump()
}

func (c *supplyChainContext) theVehicleCompletesItsRoute() error {
	if err := c.build(); err != nil {
		return err
	}
	for _, name := range c.vehicleOrder {
		v := c.vehicles[name]
		id := shared.NewAgentID(name, bddHost)
		for hops := 0; len(v.Route()) > 0; hops++ {
			if hops > 2*c.worldSize {
				return fmt.Errorf("vehicle %s never finished its route", name)
			}
			msg, err := messaging.NewMessage(c.schedulerID, id, messaging.PerfArrival,
				messaging.ArrivalNoticeBody{Type: "arrival", Time: 1, Vehicles: []string{name}})
			if err != nil {
				return err
			}
			v.Runtime().Dispatch(context.Background(), msg)
			if err := c.pump(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Then steps

func (c *supplyChainContext) warehouseHasSellableUnits(name string, want int, product string) error {
	wh, ok := c.warehouses[name]
	if !ok {
		return fmt.Errorf("unknown warehouse %q", name)
	}
	if got := wh.Available(product); got != want {
		return fmt.Errorf("warehouse %s has %d sellable units of %s, want %d", name, got, product, want)
	}
	return nil
}

func (c *supplyChainContext) warehouseHasUnitsInStock(name string, want int, product string) error {
	wh, ok := c.warehouses[name]
	if !ok {
		return fmt.Errorf("unknown warehouse %q", name)
	}
	if got := wh.Stock(product); got != want {
		return fmt.Errorf("warehouse %s has %d units of %s in stock, want %d", name, got, product, want)
	}
	return nil
}

func (c *supplyChainContext) theStoreHasUnits(want int, product string) error {
	if got := c.shop.Stock(product); got != want {
		return fmt.Errorf("store has %d units of %s, want %d", got, product, want)
	}
	return nil
}

func (c *supplyChainContext) theStoreHasNoOpenBuyRounds() error {
	if n := c.shop.OpenRounds(); n != 0 {
		return fmt.Errorf("store has %d open buy rounds, want 0", n)
	}
	return nil
}

func (c *supplyChainContext) vehicleIsAvailable(name string) error {
	v, ok := c.vehicles[name]
	if !ok {
		return fmt.Errorf("unknown vehicle %q", name)
	}
	if v.Status() != vehicle.StatusAvailable {
		return fmt.Errorf("vehicle %s has status %s, want %s", name, v.Status(), vehicle.StatusAvailable)
	}
	return nil
}

// InitializeSupplyChainScenario registers the supply chain step definitions
func InitializeSupplyChainScenario(sc *godog.ScenarioContext) {
	c := &supplyChainContext{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^a line world of (\d+) nodes$`, c.aLineWorldOfNodes)
	sc.Step(`^a store at node (\d+) buying (\d+) units of "([^"]*)"$`, c.aStoreAtNodeBuying)
	sc.Step(`^a warehouse "([^"]*)" at node (\d+) stocking (\d+) units of "([^"]*)"$`, c.aWarehouseAtNodeStocking)
	sc.Step(`^a vehicle "([^"]*)" with capacity (\d+) starting at node (\d+)$`, c.aVehicleWithCapacityStartingAtNode)

	sc.Step(`^the store broadcasts its buy request$`, c.theStoreBroadcastsItsBuyRequest)
	sc.Step(`^the (?:buy|assignment) round times out$`, c.theRoundTimesOut)
	sc.Step(`^the vehicle completes its route$`, c.theVehicleCompletesItsRoute)

	sc.Step(`^warehouse "([^"]*)" has (\d+) sellable units of "([^"]*)"$`, c.warehouseHasSellableUnits)
	sc.Step(`^warehouse "([^"]*)" has (\d+) units of "([^"]*)" in stock$`, c.warehouseHasUnitsInStock)
	sc.Step(`^the store has (\d+) units of "([^"]*)"$`, c.theStoreHasUnits)
	sc.Step(`^the store has no open buy rounds$`, c.theStoreHasNoOpenBuyRounds)
	sc.Step(`^vehicle "([^"]*)" is available$`, c.vehicleIsAvailable)
}
