package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/require"
)

func TestHeatService_Allocate_ConcurrentLastSeat(t *testing.T) {
	env := newTestEnv(t)
	tour := env.createTournament(t, nil)
	h := env.createHeat(t, tour.ID, 1, 1, heat.FormatForTime)
	regs := []string{env.eligible(t, tour.ID, "ath-1").ID, env.eligible(t, tour.ID, "ath-2").ID}

	var ok, full atomic.Int32
	var wg conc.WaitGroup
	for _, regID := range regs {
		wg.Go(func() {
			_, err := env.heats.Allocate(context.Background(), organizerActor, AllocateInput{HeatID: h.ID, RegistrationID: regID})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, heat.ErrHeatFull):
				full.Add(1)
			default:
				t.Errorf("unexpected allocate error: %v", err)
			}
		})
	}
	wg.Wait()

	if ok.Load() != 1 || full.Load() != 1 {
		t.Fatalf("expected one success and one HeatFull, got ok=%d full=%d", ok.Load(), full.Load())
	}
	allocations, err := env.heats.ListAllocations(context.Background(), h.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	require.Equal(t, 1, env.publisher.published(event.TypeHeatAllocated))
}

func TestHeatService_Allocate_Rules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tour := env.createTournament(t, nil)
	other := env.createTournament(t, nil)
	first := env.createHeat(t, tour.ID, 1, 4, heat.FormatForTime)
	second := env.createHeat(t, tour.ID, 2, 4, heat.FormatForTime)

	reg := env.eligible(t, tour.ID, "ath-1")
	foreign := env.eligible(t, other.ID, "ath-2")
	lane := 3

	_, err := env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: first.ID, RegistrationID: reg.ID, Lane: &lane})
	require.NoError(t, err)

	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: second.ID, RegistrationID: reg.ID})
	require.ErrorIs(t, err, heat.ErrAlreadyAllocated)

	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: first.ID, RegistrationID: foreign.ID})
	require.ErrorIs(t, err, heat.ErrNotEligible)

	next := env.eligible(t, tour.ID, "ath-3")
	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: first.ID, RegistrationID: next.ID, Lane: &lane})
	require.ErrorIs(t, err, heat.ErrLaneTaken)

	zero := 0
	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: first.ID, RegistrationID: next.ID, Lane: &zero})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.heats.Allocate(ctx, outsiderActor, AllocateInput{HeatID: first.ID, RegistrationID: next.ID})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: "missing", RegistrationID: next.ID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHeatService_Allocate_PendingRegistrationNotEligible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tour := env.createTournament(t, nil)
	h := env.createHeat(t, tour.ID, 1, 4, heat.FormatAMRAP)

	reg, err := env.registrations.Register(ctx, adminActor, RegisterInput{
		TournamentID: tour.ID,
		AthleteID:    "ath-1",
		Category:     "elite",
		AgeBracket:   "open",
	})
	require.NoError(t, err)

	_, err = env.heats.Allocate(ctx, organizerActor, AllocateInput{HeatID: h.ID, RegistrationID: reg.ID})
	require.ErrorIs(t, err, heat.ErrNotEligible)
}

func TestHeatService_CreateHeat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tour := env.createTournament(t, nil)

	h, err := env.heats.CreateHeat(ctx, organizerActor, CreateHeatInput{TournamentID: tour.ID, Sequence: 1, Format: " AMRAP "})
	require.NoError(t, err)
	require.Equal(t, heat.DefaultCapacity, h.Capacity)
	require.Equal(t, heat.FormatAMRAP, h.Format)
	require.Equal(t, "Heat 1", h.Name)
	require.True(t, h.ScheduledAt.Equal(tour.StartsAt))

	_, err = env.heats.CreateHeat(ctx, organizerActor, CreateHeatInput{TournamentID: tour.ID, Sequence: 1, Format: heat.FormatForTime})
	require.ErrorIs(t, err, heat.ErrDuplicateSequence)

	_, err = env.heats.CreateHeat(ctx, organizerActor, CreateHeatInput{TournamentID: tour.ID, Sequence: 2, Format: "emom"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.heats.CreateHeat(ctx, organizerActor, CreateHeatInput{TournamentID: tour.ID, Sequence: 0, Format: heat.FormatForTime})
	require.ErrorIs(t, err, ErrInvalidInput)

	env.advance(tour.StartsAt.Sub(env.clock))
	_, err = env.heats.CreateHeat(ctx, organizerActor, CreateHeatInput{TournamentID: tour.ID, Sequence: 3, Format: heat.FormatForTime})
	require.ErrorIs(t, err, ErrTournamentLocked)
}

func TestHeatService_UpdateCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tour := env.createTournament(t, nil)
	h := env.createHeat(t, tour.ID, 1, 3, heat.FormatForTime)
	env.allocate(t, h.ID, env.eligible(t, tour.ID, "ath-1").ID)
	env.allocate(t, h.ID, env.eligible(t, tour.ID, "ath-2").ID)

	_, err := env.heats.UpdateCapacity(ctx, organizerActor, h.ID, 1)
	require.ErrorIs(t, err, heat.ErrCapacityBelowAllocations)

	updated, err := env.heats.UpdateCapacity(ctx, organizerActor, h.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Capacity)

	_, err = env.heats.UpdateCapacity(ctx, organizerActor, h.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestHeatService_Deallocate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tour := env.createTournament(t, nil)
	h := env.createHeat(t, tour.ID, 1, 3, heat.FormatForTime)
	scored := env.eligible(t, tour.ID, "ath-1")
	free := env.eligible(t, tour.ID, "ath-2")
	alloc := env.allocate(t, h.ID, scored.ID)
	env.allocate(t, h.ID, free.ID)

	_, err := env.results.Record(ctx, organizerActor, RecordResultInput{AllocationID: alloc.ID, TimeSeconds: intPtr(200)})
	require.NoError(t, err)

	err = env.heats.Deallocate(ctx, organizerActor, h.ID, scored.ID)
	require.ErrorIs(t, err, heat.ErrResultsExist)

	require.NoError(t, env.heats.Deallocate(ctx, organizerActor, h.ID, free.ID))

	err = env.heats.Deallocate(ctx, organizerActor, h.ID, free.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
