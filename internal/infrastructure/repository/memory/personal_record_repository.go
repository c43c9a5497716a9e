package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
)

type PersonalRecordRepository struct {
	db *Database
}

func NewPersonalRecordRepository(db *Database) *PersonalRecordRepository {
	return &PersonalRecordRepository{db: db}
}

func (r *PersonalRecordRepository) Create(_ context.Context, rec personalrecord.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec.OrganizationID = cloneString(rec.OrganizationID)
	r.db.records = append(r.db.records, rec)
	return nil
}

func (r *PersonalRecordRepository) ListByMovement(_ context.Context, movementKey string, scope personalrecord.Scope) ([]personalrecord.Record, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]personalrecord.Record, 0)
	for _, rec := range r.db.records {
		if rec.MovementKey != movementKey {
			continue
		}
		if scope.OrganizationID != nil && !sameString(rec.OrganizationID, scope.OrganizationID) {
			continue
		}
		rec.OrganizationID = cloneString(rec.OrganizationID)
		out = append(out, rec)
	}
	return out, nil
}

func (r *PersonalRecordRepository) ListMovementKeys(_ context.Context) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	keys := make([]string, 0)
	for _, rec := range r.db.records {
		if !slices.Contains(keys, rec.MovementKey) {
			keys = append(keys, rec.MovementKey)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
