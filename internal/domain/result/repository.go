package result

import "context"

// Change is applied inside the per-heat critical section before reranking.
// Exactly one of Upsert or DeleteAllocationID is set; neither means rerank only.
type Change struct {
	// Upsert inserts or updates by AllocationID. An existing result keeps its ID and CreatedAt.
	Upsert             *Result
	DeleteAllocationID string
}

// RerankFunc recomputes positions and points for every result of the heat.
type RerankFunc func(results []Result) []Result

type Repository interface {
	GetByAllocation(ctx context.Context, allocationID string) (Result, bool, error)
	ListByHeat(ctx context.Context, heatID string) ([]Result, error)
	// ApplyAndRerank serializes writers of one heat, applies the change, reranks, persists
	// positions and points, and mirrors points onto the registrations. Deleting a missing
	// result fails with ErrNotFound.
	ApplyAndRerank(ctx context.Context, heatID string, change Change, rerank RerankFunc) ([]Result, error)
}
