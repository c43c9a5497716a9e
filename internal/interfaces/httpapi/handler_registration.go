package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

type registerRequest struct {
	AthleteID  string `json:"athlete_id" validate:"omitempty,max=128"`
	Category   string `json:"category" validate:"required,oneof=beginner intermediate advanced elite"`
	AgeBracket string `json:"age_bracket" validate:"required,max=32"`
}

type settlePaymentRequest struct {
	RegistrationID string `json:"registration_id" validate:"required"`
	Status         string `json:"status" validate:"required,oneof=pending paid refunded"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Register")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	var req registerRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	reg, err := h.registrationService.Register(ctx, principal, usecase.RegisterInput{
		TournamentID: tournamentID,
		AthleteID:    req.AthleteID,
		Category:     registration.Category(req.Category),
		AgeBracket:   req.AgeBracket,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, registrationToDTO(reg))
}

func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRegistrations")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))

	items, err := h.registrationService.ListByTournament(ctx, principal, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list registrations failed", "tournament_id", tournamentID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]registrationDTO, 0, len(items))
	for _, item := range items {
		out = append(out, registrationToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	h.reviewRegistration(w, r, "httpapi.Handler.ApproveRegistration", h.registrationService.Approve)
}

func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	h.reviewRegistration(w, r, "httpapi.Handler.RejectRegistration", h.registrationService.Reject)
}

type reviewFunc func(ctx context.Context, actor user.Principal, registrationID string) (registration.Registration, error)

func (h *Handler) reviewRegistration(w http.ResponseWriter, r *http.Request, spanName string, review reviewFunc) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	registrationID := strings.TrimSpace(r.PathValue("registrationID"))

	reg, err := review(ctx, principal, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "review registration failed", "registration_id", registrationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(reg))
}

func (h *Handler) GetCertificateEligibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCertificateEligibility")
	defer span.End()

	principal, err := requireCaller(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	registrationID := strings.TrimSpace(r.PathValue("registrationID"))

	eligibility, err := h.certificateService.Eligibility(ctx, principal, registrationID)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate eligibility failed", "registration_id", registrationID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, certificateToDTO(eligibility))
}

// SettlePayment is called by the payment collector, never by athletes.
func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SettlePayment")
	defer span.End()

	var req settlePaymentRequest
	if err := h.decodeJSON(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	reg, err := h.registrationService.SettlePayment(ctx, usecase.SettlePaymentInput{
		RegistrationID: req.RegistrationID,
		Status:         registration.PaymentStatus(req.Status),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "settle payment failed", "registration_id", req.RegistrationID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, registrationToDTO(reg))
}
