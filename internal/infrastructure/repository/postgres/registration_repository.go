package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	qb "github.com/riskibarqy/gym-league/internal/platform/querybuilder"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

type RegistrationRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewRegistrationRepository(db *sqlx.DB, lockTimeout time.Duration) *RegistrationRepository {
	return &RegistrationRepository{db: db, lockTimeout: lockTimeout}
}

func (r *RegistrationRepository) Create(ctx context.Context, reg registration.Registration) error {
	bounded := false
	err := runInTx(ctx, r.db, "registration create", r.lockTimeout, func(tx *sqlx.Tx) error {
		peek, err := peekTournamentCapacity(ctx, tx, reg.TournamentID)
		if err != nil {
			return err
		}
		bounded = peek != nil

		capacity, err := lockTournamentCapacity(ctx, tx, reg.TournamentID)
		if err != nil {
			return err
		}

		existsQuery, existsArgs, err := qb.Select("COUNT(*)").
			From("registrations").
			Where(qb.Eq("tournament_public_id", reg.TournamentID), qb.Eq("athlete_id", reg.AthleteID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build existing registration query: %w", err)
		}
		var existing int
		if err := tx.GetContext(ctx, &existing, existsQuery, existsArgs...); err != nil {
			return fmt.Errorf("count existing registrations: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: athlete=%s", registration.ErrAlreadyRegistered, reg.AthleteID)
		}

		if err := checkSeatAvailable(ctx, tx, reg.TournamentID, capacity); err != nil {
			return err
		}

		insertQuery, insertArgs, err := qb.InsertModel("registrations", registrationInsertModel{
			PublicID:      reg.ID,
			TournamentID:  reg.TournamentID,
			AthleteID:     reg.AthleteID,
			Category:      string(reg.Category),
			AgeBracket:    reg.AgeBracket,
			Status:        string(reg.Status),
			PaymentStatus: string(reg.PaymentStatus),
			RegisteredAt:  reg.RegisteredAt.UTC(),
			UpdatedAt:     reg.UpdatedAt.UTC(),
		}, "")
		if err != nil {
			return fmt.Errorf("build insert registration query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			if isUniqueViolation(err, "registrations_tournament_athlete_key") {
				return withCause(registration.ErrAlreadyRegistered, err, "athlete="+reg.AthleteID)
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
	if isLockContention(err) {
		return registrationContention(bounded, err, "tournament="+reg.TournamentID)
	}
	return err
}

func (r *RegistrationRepository) GetByID(ctx context.Context, registrationID string) (registration.Registration, bool, error) {
	query, args, err := qb.Select("*").
		From("registrations").
		Where(qb.Eq("public_id", registrationID)).
		ToSQL()
	if err != nil {
		return registration.Registration{}, false, fmt.Errorf("build get registration query: %w", err)
	}

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, false, nil
		}
		return registration.Registration{}, false, fmt.Errorf("get registration: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *RegistrationRepository) ListByTournament(ctx context.Context, tournamentID string) ([]registration.Registration, error) {
	query, args, err := qb.Select("*").
		From("registrations").
		Where(qb.Eq("tournament_public_id", tournamentID)).
		OrderBy("registered_at ASC", "public_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list registrations query: %w", err)
	}

	var rows []registrationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	out := make([]registration.Registration, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Approve locks the tournament before the registration so a rejected entry can only
// come back while a seat is free.
func (r *RegistrationRepository) Approve(ctx context.Context, registrationID string) (registration.Registration, error) {
	var (
		updated registration.Registration
		bounded bool
	)
	err := runInTx(ctx, r.db, "registration approve", r.lockTimeout, func(tx *sqlx.Tx) error {
		tournamentID, err := registrationTournament(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		peek, err := peekTournamentCapacity(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		bounded = peek != nil

		capacity, err := lockTournamentCapacity(ctx, tx, tournamentID)
		if err != nil {
			return err
		}

		current, err := lockRegistration(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		if current.Status == registration.StatusApproved {
			updated = current
			return nil
		}
		if current.Points != nil {
			return fmt.Errorf("%w: registration=%s", registration.ErrStatusLocked, registrationID)
		}
		if current.Status == registration.StatusRejected {
			if err := checkSeatAvailable(ctx, tx, tournamentID, capacity); err != nil {
				return err
			}
		}
		updated, err = setRegistrationStatus(ctx, tx, registrationID, registration.StatusApproved)
		return err
	})
	if isLockContention(err) {
		return registration.Registration{}, registrationContention(bounded, err, "registration="+registrationID)
	}
	return updated, err
}

// registrationContention reports a busy lock as a full event only when the event can fill.
func registrationContention(bounded bool, cause error, detail string) error {
	if !bounded {
		return withCause(usecase.ErrDependencyUnavailable, cause, "registration lock busy, "+detail)
	}
	return withCause(registration.ErrCapacityReached, cause, detail)
}

// Reject locks the allocated heat before the registration, matching the allocation lock order.
func (r *RegistrationRepository) Reject(ctx context.Context, registrationID string) (registration.Registration, bool, error) {
	var (
		updated  registration.Registration
		released bool
	)
	err := runInTx(ctx, r.db, "registration reject", r.lockTimeout, func(tx *sqlx.Tx) error {
		heatQuery, heatArgs, err := qb.Select("heat_public_id").
			From("heat_allocations").
			Where(qb.Eq("registration_public_id", registrationID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build allocated heats query: %w", err)
		}
		var heatIDs []string
		if err := tx.SelectContext(ctx, &heatIDs, heatQuery, heatArgs...); err != nil {
			return fmt.Errorf("list allocated heats: %w", err)
		}
		for _, heatID := range heatIDs {
			if _, err := lockHeat(ctx, tx, heatID); err != nil {
				return err
			}
		}

		current, err := lockRegistration(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		if current.Points != nil {
			return fmt.Errorf("%w: registration=%s", registration.ErrStatusLocked, registrationID)
		}

		deleteQuery, deleteArgs, err := qb.DeleteFrom("heat_allocations").
			Where(qb.Eq("registration_public_id", registrationID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build release allocation query: %w", err)
		}
		res, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return fmt.Errorf("release heat allocation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			released = true
		}

		updated, err = setRegistrationStatus(ctx, tx, registrationID, registration.StatusRejected)
		return err
	})
	return updated, released, err
}

func (r *RegistrationRepository) UpdatePaymentStatus(ctx context.Context, registrationID string, status registration.PaymentStatus) (registration.Registration, error) {
	query, args, err := qb.Update("registrations").
		Set("payment_status", string(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", registrationID)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build update payment status query: %w", err)
	}

	var row registrationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, fmt.Errorf("%w: registration=%s", registration.ErrNotFound, registrationID)
		}
		return registration.Registration{}, fmt.Errorf("update payment status: %w", err)
	}
	return row.toDomain(), nil
}

func (r *RegistrationRepository) SetFinalPlacements(ctx context.Context, tournamentID string, placements map[string]int) error {
	return runInTx(ctx, r.db, "final placements", r.lockTimeout, func(tx *sqlx.Tx) error {
		for registrationID, placement := range placements {
			query, args, err := qb.Update("registrations").
				Set("final_placement", placement).
				SetExpr("updated_at", "NOW()").
				Where(qb.Eq("public_id", registrationID), qb.Eq("tournament_public_id", tournamentID)).
				ToSQL()
			if err != nil {
				return fmt.Errorf("build final placement query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("set final placement registration=%s: %w", registrationID, err)
			}
		}
		return nil
	})
}

func registrationTournament(ctx context.Context, tx *sqlx.Tx, registrationID string) (string, error) {
	query, args, err := qb.Select("tournament_public_id").
		From("registrations").
		Where(qb.Eq("public_id", registrationID)).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build registration tournament query: %w", err)
	}
	var tournamentID string
	if err := tx.GetContext(ctx, &tournamentID, query, args...); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: registration=%s", registration.ErrNotFound, registrationID)
		}
		return "", fmt.Errorf("get registration tournament: %w", err)
	}
	return tournamentID, nil
}

// lockTournamentCapacity takes the tournament row lock; a nil capacity means unbounded.
func lockTournamentCapacity(ctx context.Context, tx *sqlx.Tx, tournamentID string) (*int, error) {
	return tournamentCapacity(ctx, tx, tournamentID, true)
}

// peekTournamentCapacity reads without locking, so it never waits on the row lock.
func peekTournamentCapacity(ctx context.Context, tx *sqlx.Tx, tournamentID string) (*int, error) {
	return tournamentCapacity(ctx, tx, tournamentID, false)
}

func tournamentCapacity(ctx context.Context, tx *sqlx.Tx, tournamentID string, forUpdate bool) (*int, error) {
	builder := qb.Select("capacity").
		From("tournaments").
		Where(qb.Eq("public_id", tournamentID))
	if forUpdate {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build tournament capacity query: %w", err)
	}
	var capacity *int
	if err := tx.GetContext(ctx, &capacity, query, args...); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("tournament %s not found", tournamentID)
		}
		return nil, fmt.Errorf("read tournament capacity: %w", err)
	}
	return capacity, nil
}

// checkSeatAvailable needs the tournament row lock held.
func checkSeatAvailable(ctx context.Context, tx *sqlx.Tx, tournamentID string, capacity *int) error {
	if capacity == nil {
		return nil
	}
	query, args, err := qb.Select("COUNT(*)").
		From("registrations").
		Where(qb.Eq("tournament_public_id", tournamentID), qb.NotEq("status", string(registration.StatusRejected))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build count registrations query: %w", err)
	}
	var taken int
	if err := tx.GetContext(ctx, &taken, query, args...); err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if taken >= *capacity {
		return fmt.Errorf("%w: capacity=%d", registration.ErrCapacityReached, *capacity)
	}
	return nil
}

func lockRegistration(ctx context.Context, tx *sqlx.Tx, registrationID string) (registration.Registration, error) {
	query, args, err := qb.Select("*").
		From("registrations").
		Where(qb.Eq("public_id", registrationID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build lock registration query: %w", err)
	}
	var row registrationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return registration.Registration{}, fmt.Errorf("%w: registration=%s", registration.ErrNotFound, registrationID)
		}
		return registration.Registration{}, fmt.Errorf("lock registration: %w", err)
	}
	return row.toDomain(), nil
}

func setRegistrationStatus(ctx context.Context, tx *sqlx.Tx, registrationID string, status registration.Status) (registration.Registration, error) {
	query, args, err := qb.Update("registrations").
		Set("status", string(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", registrationID)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return registration.Registration{}, fmt.Errorf("build update registration status query: %w", err)
	}
	var row registrationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return registration.Registration{}, fmt.Errorf("update registration status: %w", err)
	}
	return row.toDomain(), nil
}
