package config

// DatabaseConfig holds the seed store connection configuration. Seeds
// live in SQLite; ":memory:" gives a throwaway store for ephemeral runs.
type DatabaseConfig struct {
	// SQLite file path or ":memory:"
	Path string `mapstructure:"path"`
}
