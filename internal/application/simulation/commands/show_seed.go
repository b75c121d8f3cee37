package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
)

// ShowSeedQuery asks for the cost matrix persisted under one seed
type ShowSeedQuery struct {
	Seed int64
}

// ShowSeedResponse carries the persisted matrix
type ShowSeedResponse struct {
	Seed   int64
	Matrix [][]float64
}

// ShowSeedHandler serves the matrix lookup
type ShowSeedHandler struct {
	seedRepo graph.SeedRepository
}

// NewShowSeedHandler creates a new show seed handler
func NewShowSeedHandler(seedRepo graph.SeedRepository) *ShowSeedHandler {
	return &ShowSeedHandler{seedRepo: seedRepo}
}

// Handle executes the show seed query
func (h *ShowSeedHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(*ShowSeedQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	matrix, err := h.seedRepo.Load(ctx, q.Seed)
	if err != nil {
		return nil, err
	}
	return &ShowSeedResponse{Seed: q.Seed, Matrix: matrix}, nil
}
