package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "gym-league"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	if mapped.HTTPStatus == http.StatusInternalServerError {
		writeInternalError(ctx, w)
		return
	}
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  "internalError",
					Message: msg,
				},
			},
		},
	})
}

type errorRule struct {
	targets []error
	mapped  mappedError
}

func conflict(reason string, targets ...error) errorRule {
	return errorRule{targets: targets, mapped: mappedError{HTTPStatus: http.StatusConflict, Reason: reason, Status: "FAILED_PRECONDITION"}}
}

// errorRules is ordered: domain sentinels come before the generic use case kinds
// because use cases wrap some of them in ErrInvalidInput.
var errorRules = []errorRule{
	conflict("registrationClosed", registration.ErrRegistrationClosed),
	conflict("capacityReached", registration.ErrCapacityReached),
	conflict("alreadyRegistered", registration.ErrAlreadyRegistered),
	conflict("statusLocked", registration.ErrStatusLocked),
	conflict("notEligible", heat.ErrNotEligible),
	conflict("alreadyAllocated", heat.ErrAlreadyAllocated),
	conflict("heatFull", heat.ErrHeatFull),
	conflict("resultsExist", heat.ErrResultsExist),
	conflict("capacityBelowAllocations", heat.ErrCapacityBelowAllocations),
	conflict("laneTaken", heat.ErrLaneTaken),
	conflict("duplicateSequence", heat.ErrDuplicateSequence),
	conflict("tournamentLocked", usecase.ErrTournamentLocked),
	conflict("notYetEligible", usecase.ErrNotYetEligible),
	{
		targets: []error{result.ErrFormatMismatch},
		mapped:  mappedError{HTTPStatus: http.StatusBadRequest, Reason: "formatMismatch", Status: "INVALID_ARGUMENT"},
	},
	{
		targets: []error{usecase.ErrNotFound, heat.ErrAllocationNotFound, registration.ErrNotFound, result.ErrNotFound},
		mapped:  mappedError{HTTPStatus: http.StatusNotFound, Reason: "notFound", Status: "NOT_FOUND"},
	},
	{
		targets: []error{usecase.ErrInvalidInput, scoring.ErrInvalidRule, result.ErrInvalidMeasurement},
		mapped:  mappedError{HTTPStatus: http.StatusBadRequest, Reason: "invalidInput", Status: "INVALID_ARGUMENT"},
	},
	{
		targets: []error{usecase.ErrUnauthorized},
		mapped:  mappedError{HTTPStatus: http.StatusUnauthorized, Reason: "unauthorized", Status: "UNAUTHENTICATED"},
	},
	{
		targets: []error{usecase.ErrPermissionDenied},
		mapped:  mappedError{HTTPStatus: http.StatusForbidden, Reason: "permissionDenied", Status: "PERMISSION_DENIED"},
	},
	{
		targets: []error{usecase.ErrDependencyUnavailable},
		mapped:  mappedError{HTTPStatus: http.StatusServiceUnavailable, Reason: "dependencyUnavailable", Status: "UNAVAILABLE"},
	},
}

func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.mapped
			}
		}
	}
	return mappedError{
		HTTPStatus: http.StatusInternalServerError,
		Reason:     "internalError",
		Status:     "INTERNAL",
	}
}
