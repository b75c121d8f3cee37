// Package persistence implements the repository ports on GORM. The only
// persisted artifact is the seed store: one cost matrix per RNG seed, so
// a simulation can be replayed on the exact same world.
package persistence

import "time"

// SeedModel is the GORM model for a persisted world seed
type SeedModel struct {
	Seed int64 `gorm:"primaryKey;column:seed"`

	// MatrixData is the JSON-encoded cost matrix. JSON keeps float64
	// values exact (encoding/json emits the shortest round-tripping
	// representation), which the replay guarantee depends on.
	MatrixData string `gorm:"column:matrix_data;not null"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the GORM table name
func (SeedModel) TableName() string {
	return "world_seeds"
}
