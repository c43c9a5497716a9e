package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

type createHeatRequest struct {
	Sequence    int     `json:"sequence" validate:"gt=0"`
	Name        string  `json:"name" validate:"max=120"`
	ScheduledAt *string `json:"scheduled_at"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gt=0"`
	WorkoutID   *string `json:"workout_id" validate:"omitempty,min=1"`
	Format      string  `json:"format" validate:"required,oneof=for_time amrap"`
}

type updateHeatCapacityRequest struct {
	Capacity int `json:"capacity" validate:"gt=0"`
}

type allocateRequest struct {
	RegistrationID string `json:"registration_id" validate:"required"`
	Lane           *int   `json:"lane" validate:"omitempty,gt=0"`
}

func (h *Handler) ListHeats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHeats")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	items, err := h.heatService.ListHeats(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list heats failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]heatDTO, 0, len(items))
	for _, item := range items {
		out = append(out, heatWithLoadToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) CreateHeat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateHeat")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req createHeatRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	scheduledAt, err := parseOptionalTime("scheduled_at", req.ScheduledAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.CreateHeatInput{
		TournamentID: tournamentID,
		Sequence:     req.Sequence,
		Name:         req.Name,
		Capacity:     req.Capacity,
		WorkoutID:    req.WorkoutID,
		Format:       heat.Format(req.Format),
	}
	if scheduledAt != nil {
		input.ScheduledAt = *scheduledAt
	}

	created, err := h.heatService.CreateHeat(ctx, principal, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create heat failed", "tournament_id", tournamentID, "sequence", req.Sequence, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, heatToDTO(created))
}

func (h *Handler) UpdateHeatCapacity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateHeatCapacity")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	heatID := strings.TrimSpace(r.PathValue("heatID"))

	var req updateHeatCapacityRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.heatService.UpdateCapacity(ctx, principal, heatID, req.Capacity)
	if err != nil {
		h.logger.WarnContext(ctx, "update heat capacity failed", "heat_id", heatID, "capacity", req.Capacity, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, heatToDTO(updated))
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAllocations")
	defer span.End()

	heatID := strings.TrimSpace(r.PathValue("heatID"))
	items, err := h.heatService.ListAllocations(ctx, heatID)
	if err != nil {
		h.logger.WarnContext(ctx, "list allocations failed", "heat_id", heatID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]allocationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, allocationToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) AllocateHeat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AllocateHeat")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	heatID := strings.TrimSpace(r.PathValue("heatID"))

	var req allocateRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	allocation, err := h.heatService.Allocate(ctx, principal, usecase.AllocateInput{
		HeatID:         heatID,
		RegistrationID: req.RegistrationID,
		Lane:           req.Lane,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "allocate heat failed", "heat_id", heatID, "registration_id", req.RegistrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, allocationToDTO(allocation))
}

func (h *Handler) DeallocateHeat(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeallocateHeat")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	heatID := strings.TrimSpace(r.PathValue("heatID"))
	registrationID := strings.TrimSpace(r.PathValue("registrationID"))

	if err := h.heatService.Deallocate(ctx, principal, heatID, registrationID); err != nil {
		h.logger.WarnContext(ctx, "deallocate heat failed", "heat_id", heatID, "registration_id", registrationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
