package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "supplysim.db"
	}

	// World defaults
	if cfg.World.Width == 0 {
		cfg.World.Width = 6
	}
	if cfg.World.Height == 0 {
		cfg.World.Height = 6
	}
	if cfg.World.Mode == "" {
		cfg.World.Mode = "different"
	}
	if cfg.World.MaxCost == 0 {
		cfg.World.MaxCost = 10
	}
	if cfg.World.NumWarehouses == 0 {
		cfg.World.NumWarehouses = 2
	}
	if cfg.World.NumSuppliers == 0 {
		cfg.World.NumSuppliers = 2
	}
	if cfg.World.NumStores == 0 {
		cfg.World.NumStores = 3
	}
	if cfg.World.Traffic.OnsetProbability == 0 {
		cfg.World.Traffic.OnsetProbability = 0.3
	}
	if cfg.World.Traffic.SpreadProbability == 0 {
		cfg.World.Traffic.SpreadProbability = 0.2
	}
	if cfg.World.Traffic.ClearProbability == 0 {
		cfg.World.Traffic.ClearProbability = 0.3
	}
	if cfg.World.Traffic.MaxCost == 0 {
		cfg.World.Traffic.MaxCost = 5
	}

	// Scheduler defaults
	if cfg.Scheduler.SimulationInterval == 0 {
		cfg.Scheduler.SimulationInterval = 1 * time.Second
	}
	if cfg.Scheduler.Window == 0 {
		cfg.Scheduler.Window = 30
	}

	// Agent defaults
	if cfg.Agents.RoundTimeout == 0 {
		cfg.Agents.RoundTimeout = 2 * time.Second
	}
	if cfg.Agents.Vehicle.Count == 0 {
		cfg.Agents.Vehicle.Count = 2
	}
	if cfg.Agents.Vehicle.Capacity == 0 {
		cfg.Agents.Vehicle.Capacity = 100
	}
	if cfg.Agents.Vehicle.MaxFuel == 0 {
		cfg.Agents.Vehicle.MaxFuel = 100
	}
	if cfg.Agents.Vehicle.WeightKg == 0 {
		cfg.Agents.Vehicle.WeightKg = 1500
	}
	if cfg.Agents.Warehouse.Capacity == 0 {
		cfg.Agents.Warehouse.Capacity = 500
	}
	if cfg.Agents.Warehouse.InitialStock == 0 {
		cfg.Agents.Warehouse.InitialStock = 200
	}
	if cfg.Agents.Warehouse.Threshold == 0 {
		cfg.Agents.Warehouse.Threshold = 50
	}
	if cfg.Agents.Warehouse.ResupplyQuantity == 0 {
		cfg.Agents.Warehouse.ResupplyQuantity = 100
	}
	if len(cfg.Agents.Store.Products) == 0 {
		cfg.Agents.Store.Products = []string{"banana"}
	}
	if cfg.Agents.Store.MinQuantity == 0 {
		cfg.Agents.Store.MinQuantity = 10
	}
	if cfg.Agents.Store.MaxQuantity == 0 {
		cfg.Agents.Store.MaxQuantity = 40
	}
	if cfg.Agents.Store.BuyFrequency == 0 {
		cfg.Agents.Store.BuyFrequency = 3 * time.Second
	}
	if cfg.Agents.Store.BuyProbability == 0 {
		cfg.Agents.Store.BuyProbability = 0.5
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "localhost:9091"
	}
}
