package personalrecord

import "context"

type Repository interface {
	Create(ctx context.Context, r Record) error
	ListByMovement(ctx context.Context, movementKey string, scope Scope) ([]Record, error)
	// ListMovementKeys returns every normalized movement with at least one record.
	ListMovementKeys(ctx context.Context) ([]string, error)
}
