package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultRefreshWorkers = 4
	maxRefreshWorkers     = 32

	// AnnualSnapshotSubject and the *SnapshotPeriod values key the unfiltered views.
	AnnualSnapshotSubject     = "global"
	MovementSnapshotPeriod    = "all"
	LeaderboardSnapshotPeriod = "all"
)

type RefreshInput struct {
	// Year defaults to the current UTC year.
	Year *int
}

type RefreshSummary struct {
	Year         int   `json:"year"`
	Leaderboards int   `json:"leaderboards"`
	Annual       int   `json:"annual"`
	Movements    int   `json:"movements"`
	Failed       int   `json:"failed"`
	WorkerCount  int   `json:"worker_count"`
	DurationMs   int64 `json:"duration_ms"`
}

type leaderboardSnapshotEntry struct {
	Rank           int    `json:"rank"`
	RegistrationID string `json:"registration_id"`
	AthleteID      string `json:"athlete_id"`
	HeatID         string `json:"heat_id"`
	HeatPosition   *int   `json:"heat_position"`
	Points         int    `json:"points"`
}

type annualSnapshotEntry struct {
	Rank          int    `json:"rank"`
	AthleteID     string `json:"athlete_id"`
	WeightedTotal int64  `json:"weighted_total"`
	Tournaments   int    `json:"tournaments"`
}

type movementSnapshotEntry struct {
	Rank       int    `json:"rank"`
	AthleteID  string `json:"athlete_id"`
	RecordID   string `json:"record_id"`
	Load       string `json:"load_kg"`
	AchievedOn string `json:"achieved_on"`
}

// RankingRefreshService recomputes every view from source data and replaces the
// persisted snapshots. It never writes a source table.
type RankingRefreshService struct {
	tournamentRepo tournament.Repository
	recordRepo     personalrecord.Repository
	rankingRepo    ranking.Repository
	rankings       *RankingService
	workers        int
	logger         *logging.Logger
	now            func() time.Time
	running        atomic.Bool
}

func NewRankingRefreshService(
	tournamentRepo tournament.Repository,
	recordRepo personalrecord.Repository,
	rankingRepo ranking.Repository,
	rankingSvc *RankingService,
	workers int,
	logger *logging.Logger,
) *RankingRefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RankingRefreshService{
		tournamentRepo: tournamentRepo,
		recordRepo:     recordRepo,
		rankingRepo:    rankingRepo,
		rankings:       rankingSvc,
		workers:        workers,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *RankingRefreshService) Refresh(ctx context.Context, input RefreshInput) (RefreshSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingRefreshService.Refresh")
	defer span.End()

	started := s.now()
	year := started.UTC().Year()
	if input.Year != nil {
		year = *input.Year
	}
	if year < 1900 || year > 9999 {
		return RefreshSummary{}, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}

	tournaments, err := s.tournamentRepo.List(ctx, tournament.ListFilter{Year: &year})
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("%w: list tournaments: %w", ErrDependencyUnavailable, err)
	}
	movements, err := s.recordRepo.ListMovementKeys(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("%w: list movements: %w", ErrDependencyUnavailable, err)
	}

	summary := RefreshSummary{Year: year, WorkerCount: normalizeRefreshWorkers(s.workers, len(tournaments)+len(movements))}
	var leaderboards, annual, movementCount, failed atomic.Int32

	families := pool.New().WithErrors().WithContext(ctx)
	families.Go(func(ctx context.Context) error {
		return s.fanOut(ctx, summary.WorkerCount, len(tournaments), func(ctx context.Context, i int) error {
			return s.refreshLeaderboard(ctx, tournaments[i].ID, started)
		}, &leaderboards, &failed)
	})
	families.Go(func(ctx context.Context) error {
		if err := s.refreshAnnual(ctx, year, started); err != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "refresh annual ranking failed", "year", year, "error", err)
			return nil
		}
		annual.Add(1)
		return nil
	})
	families.Go(func(ctx context.Context) error {
		return s.fanOut(ctx, summary.WorkerCount, len(movements), func(ctx context.Context, i int) error {
			return s.refreshMovement(ctx, movements[i], started)
		}, &movementCount, &failed)
	})
	if err := families.Wait(); err != nil {
		return RefreshSummary{}, err
	}

	summary.Leaderboards = int(leaderboards.Load())
	summary.Annual = int(annual.Load())
	summary.Movements = int(movementCount.Load())
	summary.Failed = int(failed.Load())
	summary.DurationMs = time.Since(started).Milliseconds()

	s.logger.InfoContext(ctx, "ranking snapshots refreshed",
		"year", year,
		"leaderboards", summary.Leaderboards,
		"movements", summary.Movements,
		"failed", summary.Failed,
		"duration_ms", summary.DurationMs,
	)
	return summary, nil
}

// Run refreshes on every tick until ctx is done. An interval <= 0 disables it.
func (s *RankingRefreshService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				continue
			}
			if _, err := s.Refresh(ctx, RefreshInput{}); err != nil {
				s.logger.WarnContext(ctx, "periodic ranking refresh failed", "error", err)
			}
			s.running.Store(false)
		}
	}
}

// fanOut runs task for 0..n-1 on an ants pool; task failures are counted, not returned.
func (s *RankingRefreshService) fanOut(
	ctx context.Context,
	workers, n int,
	task func(ctx context.Context, i int) error,
	succeeded, failed *atomic.Int32,
) error {
	if n == 0 {
		return nil
	}
	workerPool, err := ants.NewPool(workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		if err := workerPool.Submit(func() {
			defer wg.Done()
			if err := task(ctx, i); err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "refresh ranking snapshot failed", "error", err)
				return
			}
			succeeded.Add(1)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	wg.Wait()
	return nil
}

func (s *RankingRefreshService) refreshLeaderboard(ctx context.Context, tournamentID string, computedAt time.Time) error {
	entries, err := s.rankings.computeLeaderboard(ctx, tournamentID)
	if err != nil {
		return err
	}
	payload := make([]leaderboardSnapshotEntry, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, leaderboardSnapshotEntry{
			Rank:           e.Rank,
			RegistrationID: e.RegistrationID,
			AthleteID:      e.AthleteID,
			HeatID:         e.HeatID,
			HeatPosition:   e.HeatPosition,
			Points:         e.Points,
		})
	}
	return s.replace(ctx, ranking.ViewTournamentLeaderboard, tournamentID, LeaderboardSnapshotPeriod, payload, computedAt)
}

func (s *RankingRefreshService) refreshAnnual(ctx context.Context, year int, computedAt time.Time) error {
	rows, err := s.rankings.loadAnnualRows(ctx, year)
	if err != nil {
		return err
	}
	entries := ranking.BuildAnnualRanking(rows, ranking.AnnualFilter{})
	payload := make([]annualSnapshotEntry, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, annualSnapshotEntry{
			Rank:          e.Rank,
			AthleteID:     e.AthleteID,
			WeightedTotal: e.WeightedTotal,
			Tournaments:   e.Tournaments,
		})
	}
	return s.replace(ctx, ranking.ViewAnnualGlobal, AnnualSnapshotSubject, ranking.AnnualPeriod(year), payload, computedAt)
}

func (s *RankingRefreshService) refreshMovement(ctx context.Context, movementKey string, computedAt time.Time) error {
	entries, err := s.rankings.computeMovement(ctx, movementKey, personalrecord.Scope{})
	if err != nil {
		return err
	}
	payload := make([]movementSnapshotEntry, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, movementSnapshotEntry{
			Rank:       e.Rank,
			AthleteID:  e.AthleteID,
			RecordID:   e.RecordID,
			Load:       e.Load.String(),
			AchievedOn: e.AchievedOn.Format(time.DateOnly),
		})
	}
	return s.replace(ctx, ranking.ViewMovementPR, movementKey, MovementSnapshotPeriod, payload, computedAt)
}

func (s *RankingRefreshService) replace(ctx context.Context, kind ranking.ViewKind, subject, period string, payload any, computedAt time.Time) error {
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}
	err = s.rankingRepo.ReplaceSnapshot(ctx, ranking.Snapshot{
		Kind:       kind,
		Subject:    subject,
		Period:     period,
		Payload:    encoded,
		ComputedAt: computedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("replace %s snapshot subject=%s: %w", kind, subject, err)
	}
	return nil
}

func normalizeRefreshWorkers(requested, tasks int) int {
	workers := requested
	if workers <= 0 {
		workers = defaultRefreshWorkers
	}
	if workers > maxRefreshWorkers {
		workers = maxRefreshWorkers
	}
	if tasks > 0 && workers > tasks {
		workers = tasks
	}
	return max(workers, 1)
}
