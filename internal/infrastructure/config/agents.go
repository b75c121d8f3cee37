package config

import "time"

// AgentsConfig groups the per-role agent parameters
type AgentsConfig struct {
	// Negotiation round timeout shared by all sellers and buyers
	RoundTimeout time.Duration `mapstructure:"round_timeout" validate:"required"`

	Vehicle   VehicleConfig   `mapstructure:"vehicle"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Store     StoreConfig     `mapstructure:"store"`
}

// VehicleConfig holds the fleet parameters. All vehicles of a run share
// them; per-vehicle variation was not worth the configuration surface.
type VehicleConfig struct {
	Count     int     `mapstructure:"count" validate:"required,min=1"`
	Capacity  int     `mapstructure:"capacity" validate:"required,min=1"`
	MaxFuel   float64 `mapstructure:"max_fuel" validate:"required,gt=0"`
	WeightKg  float64 `mapstructure:"weight_kg" validate:"required,gt=0"`
	MaxOrders int     `mapstructure:"max_orders" validate:"min=0"`
}

// WarehouseConfig holds the warehouse stock parameters
type WarehouseConfig struct {
	Capacity         int `mapstructure:"capacity" validate:"required,min=1"`
	InitialStock     int `mapstructure:"initial_stock" validate:"min=0"`
	Threshold        int `mapstructure:"threshold" validate:"min=0"`
	ResupplyQuantity int `mapstructure:"resupply_quantity" validate:"required,min=1"`
}

// StoreConfig holds the store demand parameters
type StoreConfig struct {
	Products       []string      `mapstructure:"products" validate:"required,min=1"`
	MinQuantity    int           `mapstructure:"min_quantity" validate:"required,min=1"`
	MaxQuantity    int           `mapstructure:"max_quantity" validate:"required,min=1"`
	BuyFrequency   time.Duration `mapstructure:"buy_frequency" validate:"required"`
	BuyProbability float64       `mapstructure:"buy_probability" validate:"min=0,max=1"`
}
