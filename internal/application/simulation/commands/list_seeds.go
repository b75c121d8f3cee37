package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/domain/graph"
)

// ListSeedsQuery asks for the persisted world seeds
type ListSeedsQuery struct{}

// ListSeedsResponse carries the persisted seeds in ascending order
type ListSeedsResponse struct {
	Seeds []int64
}

// ListSeedsHandler serves the seed listing
type ListSeedsHandler struct {
	seedRepo graph.SeedRepository
}

// NewListSeedsHandler creates a new list seeds handler
func NewListSeedsHandler(seedRepo graph.SeedRepository) *ListSeedsHandler {
	return &ListSeedsHandler{seedRepo: seedRepo}
}

// Handle executes the list seeds query
func (h *ListSeedsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListSeedsQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	seeds, err := h.seedRepo.ListSeeds(ctx)
	if err != nil {
		return nil, err
	}
	return &ListSeedsResponse{Seeds: seeds}, nil
}
