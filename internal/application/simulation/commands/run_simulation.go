// Package commands holds the application commands the CLI dispatches
// through the mediator.
package commands

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/andrescamacho/supplysim-go/internal/adapters/bus"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/scheduler"
	"github.com/andrescamacho/supplysim-go/internal/application/store"
	"github.com/andrescamacho/supplysim-go/internal/application/supplier"
	"github.com/andrescamacho/supplysim-go/internal/application/vehicle"
	"github.com/andrescamacho/supplysim-go/internal/application/warehouse"
	"github.com/andrescamacho/supplysim-go/internal/application/world"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
	"github.com/andrescamacho/supplysim-go/internal/domain/order"
	"github.com/andrescamacho/supplysim-go/internal/domain/shared"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/config"
)

// busHost is the advisory host part of every agent id in a run
const busHost = "supplysim"

// RunSimulationCommand starts a full simulation run
type RunSimulationCommand struct {
	// Duration bounds the run; zero runs until the context is cancelled
	Duration time.Duration
}

// RunSimulationResponse summarizes a finished run
type RunSimulationResponse struct {
	Seed            int64
	EventsReceived  int
	EventsProcessed int
}

// RunSimulationHandler wires the world, the scheduler and the agent
// population together and runs them until the command's deadline.
type RunSimulationHandler struct {
	cfg      *config.Config
	seedRepo graph.SeedRepository
	logger   common.AgentLogger
	clock    shared.Clock
}

// NewRunSimulationHandler creates a new run simulation handler
func NewRunSimulationHandler(cfg *config.Config, seedRepo graph.SeedRepository, logger common.AgentLogger, clock shared.Clock) *RunSimulationHandler {
	return &RunSimulationHandler{
		cfg:      cfg,
		seedRepo: seedRepo,
		logger:   logger,
		clock:    clock,
	}
}

// Handle executes the run simulation command
func (h *RunSimulationHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunSimulationCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	g, facilities, seed, err := h.buildWorld(ctx)
	if err != nil {
		return nil, err
	}
	h.logger.Log("info", "world built", map[string]interface{}{
		"seed": seed, "nodes": g.NodeCount(),
		"warehouses": len(facilities.Warehouses),
		"suppliers":  len(facilities.Suppliers),
		"stores":     len(facilities.Stores),
	})

	sim, err := h.wire(g, facilities, seed)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Duration)
		defer cancel()
	}

	if err := sim.start(runCtx); err != nil {
		return nil, fmt.Errorf("failed to start simulation: %w", err)
	}
	<-runCtx.Done()
	sim.stop()

	return &RunSimulationResponse{
		Seed:            seed,
		EventsReceived:  sim.scheduler.EventsReceived(),
		EventsProcessed: sim.scheduler.EventsProcessed(),
	}, nil
}

// buildWorld resolves the seed against the seed store and generates the
// graph: a known seed replays its persisted cost matrix, a fresh one is
// generated and persisted. Seed 0 in the configuration means "pick the
// lowest unused seed".
func (h *RunSimulationHandler) buildWorld(ctx context.Context) (*graph.Graph, *graph.Facilities, int64, error) {
	wc := h.cfg.World

	seed := wc.Seed
	if seed == 0 {
		next, err := h.seedRepo.NextUnusedSeed(ctx)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to pick a seed: %w", err)
		}
		seed = next
	}

	builder := graph.NewBuilder(graph.BuilderConfig{
		Width:          wc.Width,
		Height:         wc.Height,
		Mode:           graph.GenerationMode(wc.Mode),
		MaxCost:        wc.MaxCost,
		Highway:        wc.Highway,
		NumWarehouses:  wc.NumWarehouses,
		NumSuppliers:   wc.NumSuppliers,
		NumStores:      wc.NumStores,
		NumGasStations: wc.NumGasStations,
	})
	rng := rand.New(rand.NewSource(seed))

	known, err := h.seedRepo.Exists(ctx, seed)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to check seed %d: %w", seed, err)
	}

	if known {
		matrix, err := h.seedRepo.Load(ctx, seed)
		if err != nil {
			return nil, nil, 0, err
		}
		g, facilities, err := builder.BuildFromMatrix(rng, matrix)
		if err != nil {
			return nil, nil, 0, err
		}
		return g, facilities, seed, nil
	}

	g, facilities, err := builder.Build(rng)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := h.seedRepo.Save(ctx, seed, g.CostMatrix()); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to persist seed %d: %w", seed, err)
	}
	return g, facilities, seed, nil
}

// simulation bundles the running agent population
type simulation struct {
	scheduler  *scheduler.Agent
	world      *world.Agent
	vehicles   []*vehicle.Agent
	warehouses []*warehouse.Agent
	stores     []*store.Agent
	suppliers  []*supplier.Agent
}

// wire builds the whole agent population over one in-process bus. Every
// vehicle gets its own snapshot of the graph; the world keeps the ground
// truth.
func (h *RunSimulationHandler) wire(g *graph.Graph, facilities *graph.Facilities, seed int64) (*simulation, error) {
	cfg := h.cfg
	b := bus.NewChannelBus()
	ids := order.NewIDGenerator()

	schedulerID := shared.NewAgentID("scheduler", busHost)
	worldID := shared.NewAgentID("world", busHost)

	var vehicleIDs []shared.AgentID
	for i := 0; i < cfg.Agents.Vehicle.Count; i++ {
		vehicleIDs = append(vehicleIDs, shared.NewAgentID(fmt.Sprintf("vehicle-%d", i+1), busHost))
	}
	var warehouseIDs []shared.AgentID
	for i := range facilities.Warehouses {
		warehouseIDs = append(warehouseIDs, shared.NewAgentID(fmt.Sprintf("warehouse-%d", i+1), busHost))
	}
	var supplierIDs []shared.AgentID
	for i := range facilities.Suppliers {
		supplierIDs = append(supplierIDs, shared.NewAgentID(fmt.Sprintf("supplier-%d", i+1), busHost))
	}
	var storeIDs []shared.AgentID
	for i := range facilities.Stores {
		storeIDs = append(storeIDs, shared.NewAgentID(fmt.Sprintf("store-%d", i+1), busHost))
	}

	// The directory every negotiator selects nearest sellers against
	locations := make(map[shared.AgentID]int)
	for i, id := range warehouseIDs {
		locations[id] = facilities.Warehouses[i]
	}
	for i, id := range supplierIDs {
		locations[id] = facilities.Suppliers[i]
	}
	for i, id := range storeIDs {
		locations[id] = facilities.Stores[i]
	}

	sched := scheduler.NewAgent(schedulerID, b, h.clock, h.logger, scheduler.Config{
		SimulationInterval: cfg.Scheduler.SimulationInterval,
		Window:             int(cfg.Scheduler.Window),
	})
	sched.SetWorld(worldID)

	trafficRng := rand.New(rand.NewSource(seed + 1))
	model := world.NewTrafficModel(g, trafficRng, world.TrafficConfig{
		OnsetProbability:  cfg.World.Traffic.OnsetProbability,
		SpreadProbability: cfg.World.Traffic.SpreadProbability,
		ClearProbability:  cfg.World.Traffic.ClearProbability,
		MaxCost:           cfg.World.Traffic.MaxCost,
	})
	worldAgent := world.NewAgent(worldID, b, h.clock, h.logger, model, facilities)

	sim := &simulation{scheduler: sched, world: worldAgent}

	// Vehicles start spread over the warehouses round-robin
	for i, id := range vehicleIDs {
		start := facilities.Warehouses[i%len(facilities.Warehouses)]
		v := vehicle.NewAgent(id, b, h.clock, h.logger, vehicle.Config{
			Capacity:  cfg.Agents.Vehicle.Capacity,
			MaxFuel:   cfg.Agents.Vehicle.MaxFuel,
			WeightKg:  cfg.Agents.Vehicle.WeightKg,
			MaxOrders: cfg.Agents.Vehicle.MaxOrders,
			StartNode: start,
		}, g.Clone(), schedulerID)
		sim.vehicles = append(sim.vehicles, v)
		sched.RegisterVehicle(id)
	}

	for i, id := range warehouseIDs {
		initial := make(map[string]int)
		for _, p := range cfg.Agents.Store.Products {
			initial[p] = cfg.Agents.Warehouse.InitialStock
		}
		w := warehouse.NewAgent(id, b, h.clock, h.logger, warehouse.Config{
			Node:             facilities.Warehouses[i],
			Capacity:         cfg.Agents.Warehouse.Capacity,
			InitialStock:     initial,
			Threshold:        cfg.Agents.Warehouse.Threshold,
			ResupplyQuantity: cfg.Agents.Warehouse.ResupplyQuantity,
			RoundTimeout:     cfg.Agents.RoundTimeout,
		}, g.Clone(), ids, vehicleIDs, supplierIDs, locations)
		sim.warehouses = append(sim.warehouses, w)
		sched.RegisterWarehouse(id)
	}

	for i, id := range supplierIDs {
		s := supplier.NewAgent(id, b, h.clock, h.logger, supplier.Config{
			Node:         facilities.Suppliers[i],
			RoundTimeout: cfg.Agents.RoundTimeout,
		}, g.Clone(), ids, vehicleIDs, locations)
		sim.suppliers = append(sim.suppliers, s)
		sched.RegisterSupplier(id)
	}

	for i, id := range storeIDs {
		storeRng := rand.New(rand.NewSource(seed + 100 + int64(i)))
		st := store.NewAgent(id, b, h.clock, h.logger, store.Config{
			Node:           facilities.Stores[i],
			Products:       cfg.Agents.Store.Products,
			MinQuantity:    cfg.Agents.Store.MinQuantity,
			MaxQuantity:    cfg.Agents.Store.MaxQuantity,
			BuyFrequency:   cfg.Agents.Store.BuyFrequency,
			BuyProbability: cfg.Agents.Store.BuyProbability,
			RoundTimeout:   cfg.Agents.RoundTimeout,
		}, g.Clone(), storeRng, warehouseIDs, locations)
		sim.stores = append(sim.stores, st)
		sched.RegisterStore(id)
	}

	return sim, nil
}

// start launches the population. The scheduler goes last so its bootstrap
// broadcast finds every vehicle connected.
func (s *simulation) start(ctx context.Context) error {
	starters := []func(context.Context) error{s.world.Start}
	for _, v := range s.vehicles {
		starters = append(starters, v.Start)
	}
	for _, w := range s.warehouses {
		starters = append(starters, w.Start)
	}
	for _, sp := range s.suppliers {
		starters = append(starters, sp.Start)
	}
	for _, st := range s.stores {
		starters = append(starters, st.Start)
	}
	starters = append(starters, s.scheduler.Start)

	for _, start := range starters {
		if err := start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// stop shuts the population down, scheduler first so no new batches go
// out while the rest drain.
func (s *simulation) stop() {
	s.scheduler.Stop()
	for _, st := range s.stores {
		st.Stop()
	}
	for _, sp := range s.suppliers {
		sp.Stop()
	}
	for _, w := range s.warehouses {
		w.Stop()
	}
	for _, v := range s.vehicles {
		v.Stop()
	}
	s.world.Stop()
}
