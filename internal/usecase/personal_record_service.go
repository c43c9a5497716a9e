package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/shopspring/decimal"
)

// maxLoadKilograms rejects obvious unit mistakes such as loads entered in grams.
var maxLoadKilograms = decimal.NewFromInt(1000)

type RecordPRInput struct {
	// AthleteID defaults to the actor.
	AthleteID      string
	OrganizationID *string
	Movement       string
	Load           decimal.Decimal
	AchievedOn     time.Time
}

type PersonalRecordService struct {
	repo        personalrecord.Repository
	idGen       IDGenerator
	invalidator rankingInvalidator
	now         func() time.Time
}

func NewPersonalRecordService(repo personalrecord.Repository, idGen IDGenerator) *PersonalRecordService {
	return &PersonalRecordService{
		repo:        repo,
		idGen:       idGen,
		invalidator: noopInvalidator{},
		now:         time.Now,
	}
}

func (s *PersonalRecordService) SetRankingInvalidator(invalidator rankingInvalidator) {
	if invalidator != nil {
		s.invalidator = invalidator
	}
}

// Record appends a lift to the PR stream. Athletes log their own lifts; admins may log for anyone.
func (s *PersonalRecordService) Record(ctx context.Context, actor user.Principal, input RecordPRInput) (personalrecord.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PersonalRecordService.Record")
	defer span.End()

	if strings.TrimSpace(actor.UserID) == "" {
		return personalrecord.Record{}, ErrUnauthorized
	}
	athleteID := strings.TrimSpace(input.AthleteID)
	if athleteID == "" {
		athleteID = actor.UserID
	}
	if athleteID != actor.UserID && !actor.IsAdmin {
		return personalrecord.Record{}, fmt.Errorf("%w: user=%s cannot log records for athlete=%s", ErrPermissionDenied, actor.UserID, athleteID)
	}
	if input.OrganizationID != nil {
		org := strings.TrimSpace(*input.OrganizationID)
		if org == "" {
			input.OrganizationID = nil
		} else {
			input.OrganizationID = &org
		}
	}

	now := s.now().UTC()
	achievedOn := input.AchievedOn.UTC().Truncate(24 * time.Hour)
	if achievedOn.After(now) {
		return personalrecord.Record{}, fmt.Errorf("%w: achieved date is in the future", ErrInvalidInput)
	}
	if input.Load.GreaterThan(maxLoadKilograms) {
		return personalrecord.Record{}, fmt.Errorf("%w: load exceeds %s kg", ErrInvalidInput, maxLoadKilograms)
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return personalrecord.Record{}, fmt.Errorf("generate personal record id: %w", err)
	}
	rec := personalrecord.Record{
		ID:             id,
		AthleteID:      athleteID,
		OrganizationID: input.OrganizationID,
		Movement:       strings.Join(strings.Fields(input.Movement), " "),
		MovementKey:    personalrecord.NormalizeMovement(input.Movement),
		Load:           input.Load.Round(2),
		AchievedOn:     achievedOn,
		CreatedAt:      now,
	}
	if err := rec.Validate(); err != nil {
		return personalrecord.Record{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return personalrecord.Record{}, fmt.Errorf("create personal record: %w", err)
	}
	s.invalidator.InvalidateMovement(ctx, rec.MovementKey)
	return rec, nil
}
