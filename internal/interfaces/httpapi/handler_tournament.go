package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

type createTournamentRequest struct {
	Name                 string  `json:"name" validate:"required,max=200"`
	Type                 string  `json:"type" validate:"required,oneof=internal city regional state national"`
	OrganizationID       *string `json:"organization_id" validate:"omitempty,min=1"`
	Venue                string  `json:"venue" validate:"max=200"`
	StartsAt             string  `json:"starts_at" validate:"required"`
	EndsAt               string  `json:"ends_at" validate:"required"`
	RegistrationOpensAt  string  `json:"registration_opens_at" validate:"required"`
	RegistrationClosesAt string  `json:"registration_closes_at" validate:"required"`
	Capacity             *int    `json:"capacity" validate:"omitempty,gt=0"`
	EntryFeeMinor        int64   `json:"entry_fee_minor" validate:"gte=0"`
	RegistrationsOpen    *bool   `json:"registrations_open"`
	AnnualRankingWeight  *int    `json:"annual_ranking_weight" validate:"omitempty,gt=0"`
}

type updateTournamentRequest struct {
	Name                 *string `json:"name" validate:"omitempty,min=1,max=200"`
	Venue                *string `json:"venue" validate:"omitempty,max=200"`
	RegistrationOpensAt  *string `json:"registration_opens_at"`
	RegistrationClosesAt *string `json:"registration_closes_at"`
	RegistrationsOpen    *bool   `json:"registrations_open"`
	Capacity             *int    `json:"capacity" validate:"omitempty,gt=0"`
	ClearCapacity        bool    `json:"clear_capacity"`
	EntryFeeMinor        *int64  `json:"entry_fee_minor" validate:"omitempty,gte=0"`
	AnnualRankingWeight  *int    `json:"annual_ranking_weight" validate:"omitempty,gt=0"`
}

type setScoringRulesRequest struct {
	Rules []scoringRuleDTO `json:"rules" validate:"required,min=1,dive"`
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	year, err := queryInt(r, "year")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.tournamentService.List(ctx, tournament.ListFilter{
		Year:           year,
		OrganizationID: queryString(r, "organization_id"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]tournamentDTO, 0, len(items))
	for _, item := range items {
		out = append(out, tournamentToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournament")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	item, err := h.tournamentService.Get(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tournament failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(item))
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createTournamentRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.CreateTournamentInput{
		Name:                req.Name,
		Type:                tournament.Type(req.Type),
		OrganizationID:      req.OrganizationID,
		Venue:               req.Venue,
		Capacity:            req.Capacity,
		EntryFeeMinor:       req.EntryFeeMinor,
		RegistrationsOpen:   req.RegistrationsOpen,
		AnnualRankingWeight: req.AnnualRankingWeight,
	}
	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"starts_at", req.StartsAt, &input.StartsAt},
		{"ends_at", req.EndsAt, &input.EndsAt},
		{"registration_opens_at", req.RegistrationOpensAt, &input.RegistrationOpensAt},
		{"registration_closes_at", req.RegistrationClosesAt, &input.RegistrationClosesAt},
	} {
		parsed, err := parseTime(field.name, field.raw)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		*field.dst = parsed
	}

	created, err := h.tournamentService.Create(ctx, principal, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create tournament failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tournamentToDTO(created))
}

func (h *Handler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateTournament")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req updateTournamentRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.ClearCapacity && req.Capacity != nil {
		writeError(ctx, w, fmt.Errorf("%w: capacity and clear_capacity are mutually exclusive", usecase.ErrInvalidInput))
		return
	}

	opensAt, err := parseOptionalTime("registration_opens_at", req.RegistrationOpensAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	closesAt, err := parseOptionalTime("registration_closes_at", req.RegistrationClosesAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.tournamentService.Update(ctx, principal, usecase.UpdateTournamentInput{
		TournamentID:         tournamentID,
		Name:                 req.Name,
		Venue:                req.Venue,
		RegistrationOpensAt:  opensAt,
		RegistrationClosesAt: closesAt,
		RegistrationsOpen:    req.RegistrationsOpen,
		Capacity:             req.Capacity,
		ClearCapacity:        req.ClearCapacity,
		EntryFeeMinor:        req.EntryFeeMinor,
		AnnualRankingWeight:  req.AnnualRankingWeight,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update tournament failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tournamentToDTO(updated))
}

func (h *Handler) ListScoringRules(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScoringRules")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	rules, err := h.scoringService.ListRules(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list scoring rules failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoringRulesToDTO(rules))
}

func (h *Handler) SetScoringRules(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetScoringRules")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req setScoringRulesRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	rules := make([]scoring.Rule, 0, len(req.Rules))
	for _, rule := range req.Rules {
		rules = append(rules, scoring.Rule{Position: rule.Position, Points: rule.Points})
	}

	stored, err := h.scoringService.SetRules(ctx, principal, tournamentID, rules)
	if err != nil {
		h.logger.WarnContext(ctx, "set scoring rules failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoringRulesToDTO(stored))
}

func (h *Handler) RescoreTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RescoreTournament")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	summary, err := h.resultService.Rescore(ctx, principal, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "rescore tournament failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rescoreDTO{
		TournamentID: summary.TournamentID,
		Heats:        summary.Heats,
		Results:      summary.Results,
	})
}

func (h *Handler) FinalizeTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinalizeTournament")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	placed, err := h.resultService.FinalizePlacements(ctx, principal, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "finalize tournament failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"tournament_id": tournamentID,
		"placed":        placed,
	})
}
