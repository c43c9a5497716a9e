package heat

import "context"

type Repository interface {
	Create(ctx context.Context, h Heat) error
	GetByID(ctx context.Context, heatID string) (Heat, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]HeatWithLoad, error)
	// UpdateCapacity fails with ErrCapacityBelowAllocations when seats already taken exceed capacity.
	UpdateCapacity(ctx context.Context, heatID string, capacity int) (Heat, error)

	// Allocate locks the heat and the registration, re-checks eligibility, uniqueness
	// and capacity, then inserts. Every failure maps to a heat sentinel error.
	Allocate(ctx context.Context, a Allocation) error
	// Deallocate fails with ErrResultsExist when a result references the allocation.
	Deallocate(ctx context.Context, heatID, registrationID string) error
	GetAllocation(ctx context.Context, allocationID string) (Allocation, bool, error)
	GetAllocationByRegistration(ctx context.Context, registrationID string) (Allocation, bool, error)
	ListAllocations(ctx context.Context, heatID string) ([]Allocation, error)
}
