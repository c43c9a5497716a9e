package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
)

const maxResultNotesLength = 500

type RecordResultInput struct {
	AllocationID string
	TimeSeconds  *int
	Reps         *int
	Notes        string
}

type RescoreSummary struct {
	TournamentID string
	Heats        int
	Results      int
}

type ResultService struct {
	tournamentRepo   tournament.Repository
	registrationRepo registration.Repository
	heatRepo         heat.Repository
	resultRepo       result.Repository
	scoring          *ScoringService
	rankings         *RankingService
	invalidator      rankingInvalidator
	idGen            IDGenerator
	events           *eventEmitter
	logger           *logging.Logger
	now              func() time.Time
}

func NewResultService(
	tournamentRepo tournament.Repository,
	registrationRepo registration.Repository,
	heatRepo heat.Repository,
	resultRepo result.Repository,
	scoringSvc *ScoringService,
	rankingSvc *RankingService,
	idGen IDGenerator,
	publisher event.Publisher,
	logger *logging.Logger,
) *ResultService {
	if logger == nil {
		logger = logging.Default()
	}
	s := &ResultService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		heatRepo:         heatRepo,
		resultRepo:       resultRepo,
		scoring:          scoringSvc,
		rankings:         rankingSvc,
		invalidator:      noopInvalidator{},
		idGen:            idGen,
		events:           newEventEmitter(publisher, idGen, logger),
		logger:           logger,
		now:              time.Now,
	}
	if rankingSvc != nil {
		s.invalidator = rankingSvc
	}
	return s
}

// Record upserts the result of an allocation and reranks its whole heat.
func (s *ResultService) Record(ctx context.Context, actor user.Principal, input RecordResultInput) (result.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.Record")
	defer span.End()

	input.Notes = strings.TrimSpace(input.Notes)
	if len(input.Notes) > maxResultNotesLength {
		return result.Result{}, fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, maxResultNotesLength)
	}

	alloc, h, t, err := s.loadManagedAllocation(ctx, actor, input.AllocationID)
	if err != nil {
		return result.Result{}, err
	}
	measurement := result.Measurement{TimeSeconds: input.TimeSeconds, Reps: input.Reps}
	if err := measurement.Validate(h.Format); err != nil {
		if errors.Is(err, result.ErrInvalidMeasurement) {
			return result.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return result.Result{}, err
	}

	table, err := s.scoring.Table(ctx, t.ID)
	if err != nil {
		return result.Result{}, err
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return result.Result{}, fmt.Errorf("generate result id: %w", err)
	}
	now := s.now().UTC()
	change := result.Change{Upsert: &result.Result{
		ID:             id,
		AllocationID:   alloc.ID,
		HeatID:         h.ID,
		TournamentID:   t.ID,
		RegistrationID: alloc.RegistrationID,
		TimeSeconds:    input.TimeSeconds,
		Reps:           input.Reps,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}}

	ranked, err := s.resultRepo.ApplyAndRerank(ctx, h.ID, change, rerankWith(h.Format, table))
	if err != nil {
		return result.Result{}, fmt.Errorf("record result: %w", err)
	}
	metrics.ResultsRecorded.WithLabelValues(string(h.Format), "upsert").Inc()
	s.invalidator.InvalidateTournament(ctx, t.ID)

	recorded, ok := findByAllocation(ranked, alloc.ID)
	if !ok {
		return result.Result{}, fmt.Errorf("recorded result for allocation %s missing after rerank", alloc.ID)
	}
	s.events.emit(ctx, event.TypeResultRecorded, t.ID, recorded.ID, map[string]any{
		"heat_id":         h.ID,
		"allocation_id":   alloc.ID,
		"registration_id": alloc.RegistrationID,
		"position":        recorded.Position,
		"points":          recorded.Points,
	})
	return recorded, nil
}

func (s *ResultService) Delete(ctx context.Context, actor user.Principal, allocationID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.Delete")
	defer span.End()

	alloc, h, t, err := s.loadManagedAllocation(ctx, actor, allocationID)
	if err != nil {
		return err
	}
	table, err := s.scoring.Table(ctx, t.ID)
	if err != nil {
		return err
	}

	_, err = s.resultRepo.ApplyAndRerank(ctx, h.ID, result.Change{DeleteAllocationID: alloc.ID}, rerankWith(h.Format, table))
	if err != nil {
		if errors.Is(err, result.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("delete result: %w", err)
	}
	metrics.ResultsRecorded.WithLabelValues(string(h.Format), "delete").Inc()
	s.invalidator.InvalidateTournament(ctx, t.ID)
	return nil
}

func (s *ResultService) ListByHeat(ctx context.Context, heatID string) ([]result.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.ListByHeat")
	defer span.End()

	h, err := loadHeat(ctx, s.heatRepo, heatID)
	if err != nil {
		return nil, err
	}
	items, err := s.resultRepo.ListByHeat(ctx, h.ID)
	if err != nil {
		return nil, fmt.Errorf("list heat results: %w", err)
	}
	return items, nil
}

// Rescore re-applies the current scoring table to every heat of the tournament.
func (s *ResultService) Rescore(ctx context.Context, actor user.Principal, tournamentID string) (RescoreSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.Rescore")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return RescoreSummary{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return RescoreSummary{}, err
	}
	table, err := s.scoring.Table(ctx, t.ID)
	if err != nil {
		return RescoreSummary{}, err
	}
	heats, err := s.heatRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return RescoreSummary{}, fmt.Errorf("list heats: %w", err)
	}

	summary := RescoreSummary{TournamentID: t.ID}
	for _, item := range heats {
		ranked, err := s.resultRepo.ApplyAndRerank(ctx, item.Heat.ID, result.Change{}, rerankWith(item.Heat.Format, table))
		if err != nil {
			return summary, fmt.Errorf("rescore heat %s: %w", item.Heat.ID, err)
		}
		summary.Heats++
		summary.Results += len(ranked)
	}
	s.invalidator.InvalidateTournament(ctx, t.ID)

	s.logger.InfoContext(ctx, "tournament rescored",
		"tournament_id", t.ID,
		"actor_id", actor.UserID,
		"heats", summary.Heats,
		"results", summary.Results,
	)
	return summary, nil
}

// FinalizePlacements freezes the leaderboard rank of every scored registration once
// the tournament has ended. It can run only once per tournament.
func (s *ResultService) FinalizePlacements(ctx context.Context, actor user.Principal, tournamentID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultService.FinalizePlacements")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return 0, err
	}
	if err := requireManager(actor, t); err != nil {
		return 0, err
	}
	if !t.Ended(s.now().UTC()) {
		return 0, fmt.Errorf("%w: tournament=%s has not ended", ErrInvalidInput, t.ID)
	}

	regs, err := s.registrationRepo.ListByTournament(ctx, t.ID)
	if err != nil {
		return 0, fmt.Errorf("list registrations: %w", err)
	}
	for _, reg := range regs {
		if reg.FinalPlacement != nil {
			return 0, fmt.Errorf("%w: placements already finalized", ErrTournamentLocked)
		}
	}

	board, err := s.rankings.LiveLeaderboard(ctx, t.ID)
	if err != nil {
		return 0, err
	}
	placements := make(map[string]int, len(board))
	for _, entry := range board {
		placements[entry.RegistrationID] = entry.Rank
	}
	if len(placements) == 0 {
		return 0, nil
	}
	if err := s.registrationRepo.SetFinalPlacements(ctx, t.ID, placements); err != nil {
		return 0, fmt.Errorf("set final placements: %w", err)
	}
	return len(placements), nil
}

func (s *ResultService) loadManagedAllocation(ctx context.Context, actor user.Principal, allocationID string) (heat.Allocation, heat.Heat, tournament.Tournament, error) {
	allocationID = strings.TrimSpace(allocationID)
	if allocationID == "" {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, fmt.Errorf("%w: allocation_id is required", ErrInvalidInput)
	}
	alloc, exists, err := s.heatRepo.GetAllocation(ctx, allocationID)
	if err != nil {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, fmt.Errorf("get allocation: %w", err)
	}
	if !exists {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, fmt.Errorf("%w: allocation=%s", ErrNotFound, allocationID)
	}
	h, err := loadHeat(ctx, s.heatRepo, alloc.HeatID)
	if err != nil {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, err
	}
	t, err := loadTournament(ctx, s.tournamentRepo, h.TournamentID)
	if err != nil {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return heat.Allocation{}, heat.Heat{}, tournament.Tournament{}, err
	}
	return alloc, h, t, nil
}

func rerankWith(format heat.Format, table scoring.Table) result.RerankFunc {
	return func(results []result.Result) []result.Result {
		return result.Rank(format, results, table)
	}
}

func findByAllocation(items []result.Result, allocationID string) (result.Result, bool) {
	for _, item := range items {
		if item.AllocationID == allocationID {
			return item, true
		}
	}
	return result.Result{}, false
}
