package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/gym-league/internal/config"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:                config.EnvDev,
		HTTPAddr:              ":0",
		ReadTimeout:           time.Second,
		WriteTimeout:          time.Second,
		StorageDriver:         config.StorageMemory,
		CacheEnabled:          true,
		CacheTTL:              time.Minute,
		CORSAllowedOrigins:    []string{"*"},
		AuthJWTSecret:         "test-secret",
		AuthJWTIssuer:         "gym-league",
		InternalJobToken:      "job-secret",
		RankingRefreshWorkers: 2,
	}
}

func TestNew_MemoryStorageServesSeededTournament(t *testing.T) {
	application, err := New(context.Background(), testConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/v1/tournaments/"+memory.SeedTournamentID, nil)
	rec := httptest.NewRecorder()
	application.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), memory.SeedTournamentID)
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := testConfig()
	cfg.HTTPAddr = ""

	_, err := New(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNew_QStashRequiresTarget(t *testing.T) {
	cfg := testConfig()
	cfg.QStashEnabled = true

	_, err := New(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "qstash"), err.Error())
}

func TestRunBackground_DisabledIntervalReturns(t *testing.T) {
	application, err := New(context.Background(), testConfig(), logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.RunBackground(ctx)

	require.NoError(t, application.Shutdown(context.Background()))
}
