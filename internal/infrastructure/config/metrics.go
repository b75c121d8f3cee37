package config

// MetricsConfig holds the Prometheus exposition configuration
type MetricsConfig struct {
	// Enable the metrics endpoint and collectors
	Enabled bool `mapstructure:"enabled"`

	// Listen address for the /metrics endpoint
	Address string `mapstructure:"address"`
}
