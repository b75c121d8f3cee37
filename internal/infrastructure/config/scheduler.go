package config

import "time"

// SchedulerConfig drives the discrete-event loop
type SchedulerConfig struct {
	// Wall-clock interval between processing ticks
	SimulationInterval time.Duration `mapstructure:"simulation_interval" validate:"required"`

	// Traffic window, in simulated time units, requested from the world
	Window float64 `mapstructure:"window" validate:"required,gt=0"`
}
