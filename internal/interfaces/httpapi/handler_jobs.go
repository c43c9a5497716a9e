package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/gym-league/internal/usecase"
)

type refreshRankingsRequest struct {
	Year *int `json:"year" validate:"omitempty,gte=2000,lte=2100"`
}

// RunRankingRefreshJob recomputes every stored ranking snapshot once. The body is optional.
func (h *Handler) RunRankingRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRankingRefreshJob")
	defer span.End()

	if h.refreshService == nil {
		writeError(ctx, w, fmt.Errorf("%w: ranking refresher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req refreshRankingsRequest
	if err := h.decodeJSON(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.refreshService.Refresh(ctx, usecase.RefreshInput{Year: req.Year})
	if err != nil {
		h.logger.WarnContext(ctx, "run ranking refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "ranking refresh job completed",
		"year", summary.Year,
		"leaderboards", summary.Leaderboards,
		"movements", summary.Movements,
		"failed", summary.Failed,
		"duration_ms", summary.DurationMs,
	)
	writeSuccess(ctx, w, http.StatusOK, summary)
}
