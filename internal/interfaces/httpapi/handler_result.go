package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/gym-league/internal/usecase"
)

type recordResultRequest struct {
	TimeSeconds *int   `json:"time_seconds" validate:"omitempty,gte=0"`
	Reps        *int   `json:"reps" validate:"omitempty,gte=0"`
	Notes       string `json:"notes" validate:"max=500"`
}

func (h *Handler) ListHeatResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListHeatResults")
	defer span.End()

	heatID := strings.TrimSpace(r.PathValue("heatID"))
	items, err := h.resultService.ListByHeat(ctx, heatID)
	if err != nil {
		h.logger.WarnContext(ctx, "list heat results failed", "heat_id", heatID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]resultDTO, 0, len(items))
	for _, item := range items {
		out = append(out, resultToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RecordResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordResult")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	allocationID := strings.TrimSpace(r.PathValue("allocationID"))

	var req recordResultRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	recorded, err := h.resultService.Record(ctx, principal, usecase.RecordResultInput{
		AllocationID: allocationID,
		TimeSeconds:  req.TimeSeconds,
		Reps:         req.Reps,
		Notes:        req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record result failed", "allocation_id", allocationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultToDTO(recorded))
}

func (h *Handler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteResult")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	allocationID := strings.TrimSpace(r.PathValue("allocationID"))

	if err := h.resultService.Delete(ctx, principal, allocationID); err != nil {
		h.logger.WarnContext(ctx, "delete result failed", "allocation_id", allocationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
