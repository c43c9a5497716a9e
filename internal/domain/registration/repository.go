package registration

import "context"

type Repository interface {
	// Create inserts a pending registration while holding the tournament lock,
	// enforcing uniqueness per athlete and the tournament capacity.
	Create(ctx context.Context, reg Registration) error
	GetByID(ctx context.Context, registrationID string) (Registration, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Registration, error)
	// Approve moves to approved. Fails with ErrStatusLocked once points are assigned.
	Approve(ctx context.Context, registrationID string) (Registration, error)
	// Reject moves to rejected and releases a heat allocation in the same unit of work.
	// The returned bool reports whether an allocation was released.
	Reject(ctx context.Context, registrationID string) (Registration, bool, error)
	UpdatePaymentStatus(ctx context.Context, registrationID string, status PaymentStatus) (Registration, error)
	SetFinalPlacements(ctx context.Context, tournamentID string, placements map[string]int) error
}
