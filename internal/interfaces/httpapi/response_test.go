package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_ConflictReason(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("register: %w", registration.ErrCapacityReached))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}

	var body struct {
		Error googleErrorBody `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error.Status != "FAILED_PRECONDITION" {
		t.Fatalf("expected FAILED_PRECONDITION, got %q", body.Error.Status)
	}
	if len(body.Error.Errors) != 1 || body.Error.Errors[0].Reason != "capacityReached" {
		t.Fatalf("unexpected error items: %+v", body.Error.Errors)
	}
	if body.Error.Errors[0].Domain != errorDomain {
		t.Fatalf("unexpected domain %q", body.Error.Errors[0].Domain)
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, errors.New("pq: password authentication failed for user gym"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("internal error text leaked: %s", rec.Body.String())
	}
}

func TestMapError_Reasons(t *testing.T) {
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{registration.ErrRegistrationClosed, http.StatusConflict, "registrationClosed"},
		{registration.ErrAlreadyRegistered, http.StatusConflict, "alreadyRegistered"},
		{registration.ErrStatusLocked, http.StatusConflict, "statusLocked"},
		{heat.ErrNotEligible, http.StatusConflict, "notEligible"},
		{heat.ErrAlreadyAllocated, http.StatusConflict, "alreadyAllocated"},
		{heat.ErrHeatFull, http.StatusConflict, "heatFull"},
		{heat.ErrResultsExist, http.StatusConflict, "resultsExist"},
		{heat.ErrCapacityBelowAllocations, http.StatusConflict, "capacityBelowAllocations"},
		{heat.ErrLaneTaken, http.StatusConflict, "laneTaken"},
		{heat.ErrDuplicateSequence, http.StatusConflict, "duplicateSequence"},
		{usecase.ErrTournamentLocked, http.StatusConflict, "tournamentLocked"},
		{usecase.ErrNotYetEligible, http.StatusConflict, "notYetEligible"},
		{fmt.Errorf("%w: %w", usecase.ErrInvalidInput, result.ErrFormatMismatch), http.StatusBadRequest, "formatMismatch"},
		{heat.ErrAllocationNotFound, http.StatusNotFound, "notFound"},
		{registration.ErrNotFound, http.StatusNotFound, "notFound"},
		{result.ErrNotFound, http.StatusNotFound, "notFound"},
		{usecase.ErrNotFound, http.StatusNotFound, "notFound"},
		{scoring.ErrInvalidRule, http.StatusBadRequest, "invalidInput"},
		{result.ErrInvalidMeasurement, http.StatusBadRequest, "invalidInput"},
		{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{usecase.ErrPermissionDenied, http.StatusForbidden, "permissionDenied"},
		{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.reason+"/"+tc.err.Error(), func(t *testing.T) {
			got := mapError(context.Background(), fmt.Errorf("wrapped: %w", tc.err))
			if got.HTTPStatus != tc.status || got.Reason != tc.reason {
				t.Fatalf("mapError(%v) = %d %s, want %d %s", tc.err, got.HTTPStatus, got.Reason, tc.status, tc.reason)
			}
		})
	}
}
