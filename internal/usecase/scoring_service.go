package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
)

// ScoringService owns the position to points table of each tournament. Replacing the
// table never touches recorded results; ResultService.Rescore re-applies it explicitly.
type ScoringService struct {
	tournamentRepo tournament.Repository
	scoringRepo    scoring.Repository
	now            func() time.Time
}

func NewScoringService(tournamentRepo tournament.Repository, scoringRepo scoring.Repository) *ScoringService {
	return &ScoringService{
		tournamentRepo: tournamentRepo,
		scoringRepo:    scoringRepo,
		now:            time.Now,
	}
}

func (s *ScoringService) SetRules(ctx context.Context, actor user.Principal, tournamentID string, rules []scoring.Rule) ([]scoring.Rule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.SetRules")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(actor, t); err != nil {
		return nil, err
	}
	if t.Ended(s.now().UTC()) {
		return nil, fmt.Errorf("%w: tournament=%s has ended", ErrTournamentLocked, t.ID)
	}
	if err := scoring.ValidateRules(rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.scoringRepo.ReplaceRules(ctx, t.ID, rules); err != nil {
		return nil, fmt.Errorf("replace scoring rules: %w", err)
	}
	return scoring.NewTable(rules).Rules(), nil
}

func (s *ScoringService) ListRules(ctx context.Context, tournamentID string) ([]scoring.Rule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ListRules")
	defer span.End()

	t, err := loadTournament(ctx, s.tournamentRepo, tournamentID)
	if err != nil {
		return nil, err
	}
	table, err := s.Table(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return table.Rules(), nil
}

// Table loads the current rule set as a lookup table.
func (s *ScoringService) Table(ctx context.Context, tournamentID string) (scoring.Table, error) {
	rules, err := s.scoringRepo.ListRules(ctx, tournamentID)
	if err != nil {
		return scoring.Table{}, fmt.Errorf("list scoring rules: %w", err)
	}
	return scoring.NewTable(rules), nil
}

// PointsFor returns 0 for unconfigured or nil positions.
func (s *ScoringService) PointsFor(ctx context.Context, tournamentID string, position *int) (int, error) {
	table, err := s.Table(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	return table.PointsFor(position), nil
}
