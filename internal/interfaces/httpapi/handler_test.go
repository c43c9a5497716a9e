package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/gym-league/internal/domain/user"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/usecase"
	"github.com/stretchr/testify/require"
)

const testJobToken = "job-secret"

type stubVerifier map[string]user.Principal

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	p, ok := s[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return p, nil
}

type counterIDs struct{ n atomic.Int64 }

func (c *counterIDs) NewID() (string, error) {
	return fmt.Sprintf("id-%03d", c.n.Add(1)), nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db := memory.NewDatabase()
	tournamentRepo := memory.NewTournamentRepository(db)
	registrationRepo := memory.NewRegistrationRepository(db)
	heatRepo := memory.NewHeatRepository(db)
	resultRepo := memory.NewResultRepository(db)
	rankingRepo := memory.NewRankingRepository(db)
	recordRepo := memory.NewPersonalRecordRepository(db)
	logger := logging.NewNop()
	ids := &counterIDs{}

	rankings := usecase.NewRankingService(tournamentRepo, rankingRepo, recordRepo, usecase.RankingCacheConfig{})
	tournaments := usecase.NewTournamentService(tournamentRepo, ids)
	tournaments.SetRankingInvalidator(rankings)
	scoringSvc := usecase.NewScoringService(tournamentRepo, memory.NewScoringRepository(db))
	records := usecase.NewPersonalRecordService(recordRepo, ids)
	records.SetRankingInvalidator(rankings)

	handler := NewHandler(Services{
		Tournaments:     tournaments,
		Registrations:   usecase.NewRegistrationService(tournamentRepo, registrationRepo, ids, nil, logger),
		Scoring:         scoringSvc,
		Heats:           usecase.NewHeatService(tournamentRepo, registrationRepo, heatRepo, ids, nil, logger),
		Results:         usecase.NewResultService(tournamentRepo, registrationRepo, heatRepo, resultRepo, scoringSvc, rankings, ids, nil, logger),
		Rankings:        rankings,
		Refresher:       usecase.NewRankingRefreshService(tournamentRepo, recordRepo, rankingRepo, rankings, 2, logger),
		PersonalRecords: records,
		Certificates:    usecase.NewCertificateService(tournamentRepo, registrationRepo, heatRepo, resultRepo, rankings),
	}, logger)

	verifier := stubVerifier{
		"organizer": {UserID: "staff-1", OrganizationIDs: []string{"gym-1"}},
		"athlete-1": {UserID: "athlete-1"},
		"athlete-2": {UserID: "athlete-2"},
	}
	return NewRouter(handler, verifier, logger, RouterConfig{InternalJobToken: testJobToken})
}

type apiResponse struct {
	Data  json.RawMessage  `json:"data"`
	Error *googleErrorBody `json:"error"`
}

func call(t *testing.T, router http.Handler, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func errorReason(resp apiResponse) string {
	if resp.Error == nil || len(resp.Error.Errors) == 0 {
		return ""
	}
	return resp.Error.Errors[0].Reason
}

func createTestTournament(t *testing.T, router http.Handler, capacity int) string {
	t.Helper()

	now := time.Now().UTC()
	status, resp := call(t, router, http.MethodPost, "/v1/tournaments", "organizer", map[string]any{
		"name":                   "Spring Throwdown",
		"type":                   "city",
		"organization_id":        "gym-1",
		"venue":                  "Main Box",
		"starts_at":              now.Add(48 * time.Hour).Format(time.RFC3339),
		"ends_at":                now.Add(72 * time.Hour).Format(time.RFC3339),
		"registration_opens_at":  now.Add(-time.Hour).Format(time.RFC3339),
		"registration_closes_at": now.Add(24 * time.Hour).Format(time.RFC3339),
		"capacity":               capacity,
	})
	require.Equal(t, http.StatusCreated, status, "create tournament: %+v", resp.Error)

	var created tournamentDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestRouter_RegistrationLifecycle(t *testing.T) {
	router := newTestRouter(t)
	tournamentID := createTestTournament(t, router, 1)
	base := "/v1/tournaments/" + tournamentID

	status, resp := call(t, router, http.MethodPost, base+"/registrations", "athlete-1", map[string]any{
		"category":    "advanced",
		"age_bracket": "18-29",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var reg registrationDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &reg))
	require.Equal(t, "pending", reg.Status)
	require.Equal(t, "paid", reg.PaymentStatus)

	status, resp = call(t, router, http.MethodPost, base+"/registrations", "athlete-2", map[string]any{
		"category":    "advanced",
		"age_bracket": "18-29",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "capacityReached", errorReason(resp))

	status, resp = call(t, router, http.MethodPost, base+"/registrations", "athlete-1", map[string]any{
		"category":    "advanced",
		"age_bracket": "18-29",
	})
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "alreadyRegistered", errorReason(resp))

	status, resp = call(t, router, http.MethodPost, "/v1/registrations/"+reg.ID+"/approve", "athlete-1", nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "permissionDenied", errorReason(resp))

	status, resp = call(t, router, http.MethodPost, "/v1/registrations/"+reg.ID+"/approve", "organizer", nil)
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)

	status, resp = call(t, router, http.MethodPost, base+"/heats", "organizer", map[string]any{
		"sequence": 1,
		"capacity": 4,
		"format":   "for_time",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var created heatDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &created))

	status, resp = call(t, router, http.MethodPost, "/v1/heats/"+created.ID+"/allocations", "organizer", map[string]any{
		"registration_id": reg.ID,
		"lane":            1,
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var allocation allocationDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &allocation))

	status, resp = call(t, router, http.MethodPut, "/v1/allocations/"+allocation.ID+"/result", "organizer", map[string]any{
		"reps": 80,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "formatMismatch", errorReason(resp))

	status, resp = call(t, router, http.MethodPut, "/v1/allocations/"+allocation.ID+"/result", "organizer", map[string]any{
		"time_seconds": 512,
	})
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
	var recorded resultDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &recorded))
	require.NotNil(t, recorded.Position)
	require.Equal(t, 1, *recorded.Position)

	status, resp = call(t, router, http.MethodDelete, "/v1/heats/"+created.ID+"/allocations/"+reg.ID, "organizer", nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "resultsExist", errorReason(resp))

	status, resp = call(t, router, http.MethodGet, base+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, status)
	var board []leaderboardEntryDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &board))
	require.Len(t, board, 1)
	require.Equal(t, 1, board[0].Rank)
	require.Equal(t, "athlete-1", board[0].AthleteID)
}

func TestRouter_EmptyListsAreArrays(t *testing.T) {
	router := newTestRouter(t)
	tournamentID := createTestTournament(t, router, 10)

	for _, path := range []string{
		"/v1/tournaments/" + tournamentID + "/heats",
		"/v1/tournaments/" + tournamentID + "/leaderboard",
		"/v1/rankings/annual?year=2019",
	} {
		status, resp := call(t, router, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status, path)
		require.Equal(t, "[]", string(resp.Data), path)
	}
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	router := newTestRouter(t)

	status, resp := call(t, router, http.MethodPost, "/v1/tournaments", "", map[string]any{"name": "x"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthorized", errorReason(resp))

	status, _ = call(t, router, http.MethodPost, "/v1/tournaments", "forged", map[string]any{"name": "x"})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_RejectsUnknownFields(t *testing.T) {
	router := newTestRouter(t)
	tournamentID := createTestTournament(t, router, 10)

	status, resp := call(t, router, http.MethodPost, "/v1/tournaments/"+tournamentID+"/registrations", "athlete-1", map[string]any{
		"category":    "advanced",
		"age_bracket": "18-29",
		"points":      100,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalidInput", errorReason(resp))
}

func TestRouter_InternalJobToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-rankings", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-rankings", strings.NewReader(`{"year":2026}`))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data usecase.RefreshSummary `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2026, body.Data.Year)
	require.Equal(t, 1, body.Data.Annual)

	status, resp := call(t, router, http.MethodGet, "/v1/rankings/snapshots/annual-global?period=2026", "", nil)
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
	var snap snapshotDTO
	require.NoError(t, sonic.Unmarshal(resp.Data, &snap))
	require.Equal(t, "global", snap.Subject)
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	call(t, router, http.MethodGet, "/healthz", "", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `gym_league_http_requests_total{method="GET",route="/healthz",status="2xx"}`)
}

func TestRouteLabel(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/heats/h1", nil)
	require.Equal(t, "unmatched", routeLabel(req))

	req.Pattern = "GET /v1/heats/{heatID}"
	require.Equal(t, "/v1/heats/{heatID}", routeLabel(req))
}
