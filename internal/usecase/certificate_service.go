package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
)

// CertificateEligibility is what a certificate renderer needs for one registration.
type CertificateEligibility struct {
	Registration    registration.Registration
	Tournament      tournament.Tournament
	HeatID          string
	HeatPosition    int
	Points          int
	LeaderboardRank int
}

type CertificateService struct {
	tournamentRepo   tournament.Repository
	registrationRepo registration.Repository
	heatRepo         heat.Repository
	resultRepo       result.Repository
	rankings         *RankingService
}

func NewCertificateService(
	tournamentRepo tournament.Repository,
	registrationRepo registration.Repository,
	heatRepo heat.Repository,
	resultRepo result.Repository,
	rankingSvc *RankingService,
) *CertificateService {
	return &CertificateService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		heatRepo:         heatRepo,
		resultRepo:       resultRepo,
		rankings:         rankingSvc,
	}
}

// Eligibility fails with ErrNotYetEligible unless the registration is approved and has
// both points and a heat position.
func (s *CertificateService) Eligibility(ctx context.Context, actor user.Principal, registrationID string) (CertificateEligibility, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CertificateService.Eligibility")
	defer span.End()

	reg, err := loadRegistration(ctx, s.registrationRepo, registrationID)
	if err != nil {
		return CertificateEligibility{}, err
	}
	t, err := loadTournament(ctx, s.tournamentRepo, reg.TournamentID)
	if err != nil {
		return CertificateEligibility{}, err
	}
	if err := requireSelfOrManager(actor, reg.AthleteID, t); err != nil {
		return CertificateEligibility{}, err
	}

	if reg.Status != registration.StatusApproved {
		return CertificateEligibility{}, fmt.Errorf("%w: registration status is %s", ErrNotYetEligible, reg.Status)
	}
	if reg.Points == nil {
		return CertificateEligibility{}, fmt.Errorf("%w: no points assigned", ErrNotYetEligible)
	}

	alloc, exists, err := s.heatRepo.GetAllocationByRegistration(ctx, reg.ID)
	if err != nil {
		return CertificateEligibility{}, fmt.Errorf("get allocation by registration: %w", err)
	}
	if !exists {
		return CertificateEligibility{}, fmt.Errorf("%w: registration has no heat allocation", ErrNotYetEligible)
	}
	res, exists, err := s.resultRepo.GetByAllocation(ctx, alloc.ID)
	if err != nil {
		return CertificateEligibility{}, fmt.Errorf("get result by allocation: %w", err)
	}
	if !exists || res.Position == nil {
		return CertificateEligibility{}, fmt.Errorf("%w: no heat position", ErrNotYetEligible)
	}

	board, err := s.rankings.TournamentLeaderboard(ctx, t.ID)
	if err != nil {
		return CertificateEligibility{}, err
	}
	out := CertificateEligibility{
		Registration: reg,
		Tournament:   t,
		HeatID:       alloc.HeatID,
		HeatPosition: *res.Position,
		Points:       res.Points,
	}
	for _, entry := range board {
		if entry.RegistrationID == reg.ID {
			out.LeaderboardRank = entry.Rank
			break
		}
	}
	return out, nil
}
