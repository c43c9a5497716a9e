package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/usecase"
	"github.com/shopspring/decimal"
)

type recordPersonalRecordRequest struct {
	AthleteID      string          `json:"athlete_id" validate:"omitempty,max=128"`
	OrganizationID *string         `json:"organization_id" validate:"omitempty,min=1"`
	Movement       string          `json:"movement" validate:"required,max=80"`
	LoadKg         decimal.Decimal `json:"load_kg"`
	AchievedOn     string          `json:"achieved_on" validate:"required"`
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	entries, err := h.rankingService.TournamentLeaderboard(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(entries))
}

func (h *Handler) GetAnnualRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAnnualRanking")
	defer span.End()

	year, err := queryInt(r, "year")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := usecase.AnnualRankingQuery{
		Year:       time.Now().UTC().Year(),
		AgeBracket: queryString(r, "age_bracket"),
	}
	if year != nil {
		query.Year = *year
	}
	if raw := queryString(r, "category"); raw != nil {
		category := registration.Category(*raw)
		query.Category = &category
	}

	entries, err := h.rankingService.AnnualGlobalRanking(ctx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "get annual ranking failed", "year", query.Year, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, annualToDTO(entries))
}

func (h *Handler) GetMovementRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMovementRanking")
	defer span.End()

	movement := strings.TrimSpace(r.URL.Query().Get("movement"))
	entries, err := h.rankingService.MovementPRRanking(ctx, usecase.MovementRankingQuery{
		Movement: movement,
		Scope:    personalrecord.Scope{OrganizationID: queryString(r, "organization_id")},
	})
	if err != nil {
		h.logger.WarnContext(ctx, "get movement ranking failed", "movement", movement, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, movementToDTO(entries))
}

// GetRankingSnapshot serves the last materialized view written by the refresh job.
func (h *Handler) GetRankingSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRankingSnapshot")
	defer span.End()

	kind := ranking.ViewKind(strings.TrimSpace(r.PathValue("kind")))
	if !kind.Valid() {
		writeError(ctx, w, fmt.Errorf("%w: unknown ranking view %q", usecase.ErrInvalidInput, kind))
		return
	}
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))
	period := strings.TrimSpace(r.URL.Query().Get("period"))
	switch kind {
	case ranking.ViewAnnualGlobal:
		if subject == "" {
			subject = usecase.AnnualSnapshotSubject
		}
		if period == "" {
			period = ranking.AnnualPeriod(time.Now().UTC().Year())
		}
	case ranking.ViewMovementPR:
		subject = personalrecord.NormalizeMovement(subject)
		if period == "" {
			period = usecase.MovementSnapshotPeriod
		}
	case ranking.ViewTournamentLeaderboard:
		if period == "" {
			period = usecase.LeaderboardSnapshotPeriod
		}
	}

	snapshot, err := h.rankingService.GetSnapshot(ctx, kind, subject, period)
	if err != nil {
		h.logger.WarnContext(ctx, "get ranking snapshot failed", "kind", kind, "subject", subject, "period", period, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, snapshotDTO{
		Kind:       string(snapshot.Kind),
		Subject:    snapshot.Subject,
		Period:     snapshot.Period,
		ComputedAt: snapshot.ComputedAt,
		Entries:    rawJSON(snapshot.Payload),
	})
}

func (h *Handler) RecordPersonalRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordPersonalRecord")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req recordPersonalRecordRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	achievedOn, err := time.Parse(time.DateOnly, strings.TrimSpace(req.AchievedOn))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: achieved_on must be YYYY-MM-DD", usecase.ErrInvalidInput))
		return
	}

	record, err := h.personalRecordService.Record(ctx, principal, usecase.RecordPRInput{
		AthleteID:      req.AthleteID,
		OrganizationID: req.OrganizationID,
		Movement:       req.Movement,
		Load:           req.LoadKg,
		AchievedOn:     achievedOn,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record personal record failed", "user_id", principal.UserID, "movement", req.Movement, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, personalRecordToDTO(record))
}
