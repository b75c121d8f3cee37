package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
)

// GormSeedRepository implements graph.SeedRepository using GORM
type GormSeedRepository struct {
	db *gorm.DB
}

// NewGormSeedRepository creates a new GORM-based seed repository
func NewGormSeedRepository(db *gorm.DB) graph.SeedRepository {
	return &GormSeedRepository{db: db}
}

// Save persists the cost matrix under the given seed (upsert)
func (r *GormSeedRepository) Save(ctx context.Context, seed int64, matrix [][]float64) error {
	data, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("failed to marshal cost matrix: %w", err)
	}

	model := SeedModel{
		Seed:       seed,
		MatrixData: string(data),
		CreatedAt:  time.Now(),
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seed"}},
			DoUpdates: clause.AssignmentColumns([]string{"matrix_data"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save seed %d: %w", seed, err)
	}
	return nil
}

// Load retrieves the cost matrix for a seed
func (r *GormSeedRepository) Load(ctx context.Context, seed int64) ([][]float64, error) {
	var model SeedModel
	err := r.db.WithContext(ctx).
		Where("seed = ?", seed).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("seed %d not found", seed)
		}
		return nil, fmt.Errorf("failed to load seed %d: %w", seed, err)
	}

	var matrix [][]float64
	if err := json.Unmarshal([]byte(model.MatrixData), &matrix); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cost matrix for seed %d: %w", seed, err)
	}
	return matrix, nil
}

// Exists reports whether a matrix is stored for the seed
func (r *GormSeedRepository) Exists(ctx context.Context, seed int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SeedModel{}).
		Where("seed = ?", seed).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check seed %d: %w", seed, err)
	}
	return count > 0, nil
}

// ListSeeds returns all persisted seeds in ascending order
func (r *GormSeedRepository) ListSeeds(ctx context.Context) ([]int64, error) {
	var seeds []int64
	err := r.db.WithContext(ctx).
		Model(&SeedModel{}).
		Order("seed ASC").
		Pluck("seed", &seeds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	return seeds, nil
}

// NextUnusedSeed returns the lowest non-negative integer not yet used as
// a seed
func (r *GormSeedRepository) NextUnusedSeed(ctx context.Context) (int64, error) {
	seeds, err := r.ListSeeds(ctx)
	if err != nil {
		return 0, err
	}
	var next int64
	for _, s := range seeds {
		if s == next {
			next++
			continue
		}
		if s > next {
			break
		}
	}
	return next, nil
}
