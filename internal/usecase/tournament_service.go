package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/domain/user"
)

type CreateTournamentInput struct {
	Name                 string
	Type                 tournament.Type
	OrganizationID       *string
	Venue                string
	StartsAt             time.Time
	EndsAt               time.Time
	RegistrationOpensAt  time.Time
	RegistrationClosesAt time.Time
	Capacity             *int
	EntryFeeMinor        int64
	// RegistrationsOpen defaults to true.
	RegistrationsOpen   *bool
	AnnualRankingWeight *int
}

// UpdateTournamentInput patches the fields that are set.
type UpdateTournamentInput struct {
	TournamentID         string
	Name                 *string
	Venue                *string
	RegistrationOpensAt  *time.Time
	RegistrationClosesAt *time.Time
	RegistrationsOpen    *bool
	Capacity             *int
	ClearCapacity        bool
	EntryFeeMinor        *int64
	AnnualRankingWeight  *int
}

type TournamentService struct {
	repo        tournament.Repository
	idGen       IDGenerator
	invalidator rankingInvalidator
	now         func() time.Time
}

func NewTournamentService(repo tournament.Repository, idGen IDGenerator) *TournamentService {
	return &TournamentService{
		repo:        repo,
		idGen:       idGen,
		invalidator: noopInvalidator{},
		now:         time.Now,
	}
}

func (s *TournamentService) SetRankingInvalidator(invalidator rankingInvalidator) {
	if invalidator != nil {
		s.invalidator = invalidator
	}
}

func (s *TournamentService) Create(ctx context.Context, actor user.Principal, input CreateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Create")
	defer span.End()

	if strings.TrimSpace(actor.UserID) == "" {
		return tournament.Tournament{}, ErrUnauthorized
	}
	if input.OrganizationID != nil {
		org := strings.TrimSpace(*input.OrganizationID)
		if org == "" {
			input.OrganizationID = nil
		} else {
			input.OrganizationID = &org
		}
	}
	if !actor.CanManage(input.OrganizationID) {
		return tournament.Tournament{}, fmt.Errorf("%w: user=%s cannot organize for this organization", ErrPermissionDenied, actor.UserID)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("generate tournament id: %w", err)
	}

	now := s.now().UTC()
	t := tournament.Tournament{
		ID:                   id,
		Name:                 strings.TrimSpace(input.Name),
		Type:                 tournament.Type(strings.ToLower(strings.TrimSpace(string(input.Type)))),
		OrganizationID:       input.OrganizationID,
		Venue:                strings.TrimSpace(input.Venue),
		StartsAt:             input.StartsAt.UTC(),
		EndsAt:               input.EndsAt.UTC(),
		RegistrationOpensAt:  input.RegistrationOpensAt.UTC(),
		RegistrationClosesAt: input.RegistrationClosesAt.UTC(),
		Capacity:             input.Capacity,
		EntryFeeMinor:        input.EntryFeeMinor,
		RegistrationsOpen:    true,
		AnnualRankingWeight:  tournament.DefaultAnnualRankingWeight,
		CreatedBy:            actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if input.RegistrationsOpen != nil {
		t.RegistrationsOpen = *input.RegistrationsOpen
	}
	if input.AnnualRankingWeight != nil {
		t.AnnualRankingWeight = *input.AnnualRankingWeight
	}
	if err := t.Validate(); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return tournament.Tournament{}, fmt.Errorf("create tournament: %w", err)
	}
	return t, nil
}

func (s *TournamentService) Get(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Get")
	defer span.End()

	return loadTournament(ctx, s.repo, tournamentID)
}

func (s *TournamentService) List(ctx context.Context, filter tournament.ListFilter) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.List")
	defer span.End()

	if filter.Year != nil && (*filter.Year < 1900 || *filter.Year > 9999) {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return items, nil
}

func (s *TournamentService) Update(ctx context.Context, actor user.Principal, input UpdateTournamentInput) (tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Update")
	defer span.End()

	t, err := loadTournament(ctx, s.repo, input.TournamentID)
	if err != nil {
		return tournament.Tournament{}, err
	}
	if err := requireManager(actor, t); err != nil {
		return tournament.Tournament{}, err
	}
	now := s.now().UTC()
	if t.Ended(now) {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament=%s has ended", ErrTournamentLocked, t.ID)
	}

	weightBefore := t.AnnualRankingWeight
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Venue != nil {
		t.Venue = strings.TrimSpace(*input.Venue)
	}
	if input.RegistrationOpensAt != nil {
		t.RegistrationOpensAt = input.RegistrationOpensAt.UTC()
	}
	if input.RegistrationClosesAt != nil {
		t.RegistrationClosesAt = input.RegistrationClosesAt.UTC()
	}
	if input.RegistrationsOpen != nil {
		t.RegistrationsOpen = *input.RegistrationsOpen
	}
	switch {
	case input.ClearCapacity:
		t.Capacity = nil
	case input.Capacity != nil:
		capacity := *input.Capacity
		t.Capacity = &capacity
	}
	if input.EntryFeeMinor != nil {
		t.EntryFeeMinor = *input.EntryFeeMinor
	}
	if input.AnnualRankingWeight != nil {
		t.AnnualRankingWeight = *input.AnnualRankingWeight
	}
	if err := t.Validate(); err != nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	t.UpdatedAt = now

	if err := s.repo.Update(ctx, t); err != nil {
		return tournament.Tournament{}, fmt.Errorf("update tournament: %w", err)
	}
	if t.AnnualRankingWeight != weightBefore {
		s.invalidator.InvalidateAnnual(ctx)
	}
	return t, nil
}
