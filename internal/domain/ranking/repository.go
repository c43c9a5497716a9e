package ranking

import "context"

// Repository reads the source facts of the tournament views and stores snapshots.
// Snapshots are never read by a write path.
type Repository interface {
	ListLeaderboardRows(ctx context.Context, tournamentID string) ([]LeaderboardRow, error)
	// ListAnnualRows returns registrations with points whose tournament starts in year (UTC).
	ListAnnualRows(ctx context.Context, year int) ([]AnnualRow, error)

	ReplaceSnapshot(ctx context.Context, s Snapshot) error
	GetSnapshot(ctx context.Context, kind ViewKind, subject, period string) (Snapshot, bool, error)
}
