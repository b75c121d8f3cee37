package config

// WorldConfig describes the generated road network and its traffic
type WorldConfig struct {
	// Grid dimensions in nodes
	Width  int `mapstructure:"width" validate:"required,min=1"`
	Height int `mapstructure:"height" validate:"required,min=1"`

	// Edge weight generation: "uniform" or "different"
	Mode string `mapstructure:"mode" validate:"required,oneof=uniform different"`

	// Upper bound for randomly drawn edge weights (mode "different")
	MaxCost int `mapstructure:"max_cost" validate:"min=1"`

	// Add the corner-to-corner highway edge
	Highway bool `mapstructure:"highway"`

	// Seed for the world RNG; 0 means pick the lowest unused seed from
	// the seed store
	Seed int64 `mapstructure:"seed" validate:"min=0"`

	// Facility counts
	NumWarehouses  int `mapstructure:"num_warehouses" validate:"required,min=1"`
	NumSuppliers   int `mapstructure:"num_suppliers" validate:"required,min=1"`
	NumStores      int `mapstructure:"num_stores" validate:"required,min=1"`
	NumGasStations int `mapstructure:"num_gas_stations" validate:"min=0"`

	Traffic TrafficConfig `mapstructure:"traffic"`
}

// TrafficConfig holds the per-step traffic perturbation probabilities
type TrafficConfig struct {
	OnsetProbability  float64 `mapstructure:"onset_probability" validate:"min=0,max=1"`
	SpreadProbability float64 `mapstructure:"spread_probability" validate:"min=0,max=1"`
	ClearProbability  float64 `mapstructure:"clear_probability" validate:"min=0,max=1"`
	MaxCost           float64 `mapstructure:"max_cost" validate:"min=0"`
}
