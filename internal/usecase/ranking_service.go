package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/platform/cache"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

const (
	leaderboardKeyPrefix = "leaderboard:"
	annualKeyPrefix      = "annual:"
	movementKeyPrefix    = "movement:"
)

type AnnualRankingQuery struct {
	Year       int
	Category   *registration.Category
	AgeBracket *string
}

type MovementRankingQuery struct {
	Movement string
	Scope    personalrecord.Scope
}

// RankingCacheConfig disables caching when TTL is zero or Enabled is false.
type RankingCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// RankingService computes the read views on demand. Results are cached per view key
// and dropped by the write paths through the rankingInvalidator methods.
type RankingService struct {
	tournamentRepo tournament.Repository
	rankingRepo    ranking.Repository
	recordRepo     personalrecord.Repository

	leaderboards *cache.Store[[]ranking.LeaderboardEntry]
	annualRows   *cache.Store[[]ranking.AnnualRow]
	movements    *cache.Store[[]ranking.MovementEntry]
}

func NewRankingService(
	tournamentRepo tournament.Repository,
	rankingRepo ranking.Repository,
	recordRepo personalrecord.Repository,
	cfg RankingCacheConfig,
) *RankingService {
	s := &RankingService{
		tournamentRepo: tournamentRepo,
		rankingRepo:    rankingRepo,
		recordRepo:     recordRepo,
	}
	if cfg.Enabled && cfg.TTL > 0 {
		s.leaderboards = cache.NewStore[[]ranking.LeaderboardEntry](cfg.TTL)
		s.annualRows = cache.NewStore[[]ranking.AnnualRow](cfg.TTL)
		s.movements = cache.NewStore[[]ranking.MovementEntry](cfg.TTL)
	}
	return s
}

func (s *RankingService) TournamentLeaderboard(ctx context.Context, tournamentID string) ([]ranking.LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.TournamentLeaderboard")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, asTransient(err)
	}
	return cachedView(ctx, s.leaderboards, ranking.ViewTournamentLeaderboard, leaderboardKeyPrefix+t.ID, func(ctx context.Context) ([]ranking.LeaderboardEntry, error) {
		return s.computeLeaderboard(ctx, t.ID)
	})
}

func (s *RankingService) AnnualGlobalRanking(ctx context.Context, query AnnualRankingQuery) ([]ranking.AnnualEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.AnnualGlobalRanking")
	defer span.End()

	if query.Year < 1900 || query.Year > 9999 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}
	filter, err := normalizeAnnualFilter(query)
	if err != nil {
		return nil, err
	}

	rows, err := cachedView(ctx, s.annualRows, ranking.ViewAnnualGlobal, annualKeyPrefix+ranking.AnnualPeriod(query.Year), func(ctx context.Context) ([]ranking.AnnualRow, error) {
		return s.loadAnnualRows(ctx, query.Year)
	})
	if err != nil {
		return nil, err
	}
	return ranking.BuildAnnualRanking(rows, filter), nil
}

func (s *RankingService) MovementPRRanking(ctx context.Context, query MovementRankingQuery) ([]ranking.MovementEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.MovementPRRanking")
	defer span.End()

	movementKey := personalrecord.NormalizeMovement(query.Movement)
	if movementKey == "" {
		return nil, fmt.Errorf("%w: movement is required", ErrInvalidInput)
	}
	scope := normalizeScope(query.Scope)

	return cachedView(ctx, s.movements, ranking.ViewMovementPR, movementCacheKey(movementKey, scope), func(ctx context.Context) ([]ranking.MovementEntry, error) {
		return s.computeMovement(ctx, movementKey, scope)
	})
}

// GetSnapshot serves the last persisted copy of a view written by the refresher.
func (s *RankingService) GetSnapshot(ctx context.Context, kind ranking.ViewKind, subject, period string) (ranking.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.GetSnapshot")
	defer span.End()

	if !kind.Valid() {
		return ranking.Snapshot{}, fmt.Errorf("%w: unknown ranking view %q", ErrInvalidInput, kind)
	}
	snap, exists, err := s.rankingRepo.GetSnapshot(ctx, kind, strings.TrimSpace(subject), strings.TrimSpace(period))
	if err != nil {
		return ranking.Snapshot{}, fmt.Errorf("%w: get ranking snapshot: %w", ErrDependencyUnavailable, err)
	}
	if !exists {
		return ranking.Snapshot{}, fmt.Errorf("%w: snapshot %s subject=%q period=%q", ErrNotFound, kind, subject, period)
	}
	return snap, nil
}

func (s *RankingService) InvalidateTournament(ctx context.Context, tournamentID string) {
	if s.leaderboards != nil {
		s.leaderboards.Delete(ctx, leaderboardKeyPrefix+tournamentID)
	}
	s.InvalidateAnnual(ctx)
}

func (s *RankingService) InvalidateAnnual(ctx context.Context) {
	if s.annualRows != nil {
		s.annualRows.DeletePrefix(ctx, annualKeyPrefix)
	}
}

func (s *RankingService) InvalidateMovement(ctx context.Context, movementKey string) {
	if s.movements != nil {
		s.movements.DeletePrefix(ctx, movementKeyPrefix+movementKey+"|")
	}
}

// LiveLeaderboard reads the leaderboard straight from storage. Write paths must use it
// instead of TournamentLeaderboard, whose cache is local to this process.
func (s *RankingService) LiveLeaderboard(ctx context.Context, tournamentID string) ([]ranking.LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.LiveLeaderboard")
	defer span.End()

	return s.computeLeaderboard(ctx, tournamentID)
}

func (s *RankingService) computeLeaderboard(ctx context.Context, tournamentID string) ([]ranking.LeaderboardEntry, error) {
	rows, err := s.rankingRepo.ListLeaderboardRows(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list leaderboard rows: %w", ErrDependencyUnavailable, err)
	}
	return ranking.BuildLeaderboard(rows), nil
}

func (s *RankingService) loadAnnualRows(ctx context.Context, year int) ([]ranking.AnnualRow, error) {
	rows, err := s.rankingRepo.ListAnnualRows(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("%w: list annual rows: %w", ErrDependencyUnavailable, err)
	}
	return rows, nil
}

func (s *RankingService) computeMovement(ctx context.Context, movementKey string, scope personalrecord.Scope) ([]ranking.MovementEntry, error) {
	records, err := s.recordRepo.ListByMovement(ctx, movementKey, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: list personal records: %w", ErrDependencyUnavailable, err)
	}
	return ranking.BuildMovementRanking(records), nil
}

func cachedView[V any](ctx context.Context, store *cache.Store[V], view ranking.ViewKind, key string, load func(context.Context) (V, error)) (V, error) {
	timed := func(ctx context.Context) (V, error) {
		started := time.Now()
		defer func() {
			metrics.RankingComputeDuration.WithLabelValues(string(view)).Observe(time.Since(started).Seconds())
		}()
		return load(ctx)
	}
	if store == nil {
		return timed(ctx)
	}
	if v, ok := store.Get(ctx, key); ok {
		metrics.RankingCacheLookups.WithLabelValues(string(view), metrics.CacheHit).Inc()
		return v, nil
	}
	metrics.RankingCacheLookups.WithLabelValues(string(view), metrics.CacheMiss).Inc()
	return store.GetOrLoad(ctx, key, timed)
}

func normalizeAnnualFilter(query AnnualRankingQuery) (ranking.AnnualFilter, error) {
	var filter ranking.AnnualFilter
	if query.Category != nil {
		category := registration.Category(strings.ToLower(strings.TrimSpace(string(*query.Category))))
		if category != "" {
			if !category.Valid() {
				return ranking.AnnualFilter{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
			}
			filter.Category = &category
		}
	}
	if query.AgeBracket != nil {
		bracket := registration.NormalizeAgeBracket(*query.AgeBracket)
		if bracket != "" {
			filter.AgeBracket = &bracket
		}
	}
	return filter, nil
}

func normalizeScope(scope personalrecord.Scope) personalrecord.Scope {
	if scope.OrganizationID == nil {
		return scope
	}
	org := strings.TrimSpace(*scope.OrganizationID)
	if org == "" {
		return personalrecord.Scope{}
	}
	return personalrecord.Scope{OrganizationID: &org}
}

func movementCacheKey(movementKey string, scope personalrecord.Scope) string {
	org := "*"
	if scope.OrganizationID != nil {
		org = *scope.OrganizationID
	}
	return movementKeyPrefix + movementKey + "|" + org
}

// asTransient keeps business errors and reports storage failures as retry-safe.
func asTransient(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDependencyUnavailable, err)
}
