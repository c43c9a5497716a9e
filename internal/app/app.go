package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/gym-league/internal/config"
	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/gym-league/internal/infrastructure/events"
	"github.com/riskibarqy/gym-league/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/gym-league/internal/platform/id"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/resilience"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

// App owns the HTTP server and the background ranking refresher.
type App struct {
	Server *http.Server

	cfg       config.Config
	refresher *usecase.RankingRefreshService
	logger    *logging.Logger
	closeRepo func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repos, err := newRepositories(ctx, cfg, logger.Named("storage"))
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg, logger.Named("events"))
	if err != nil {
		_ = repos.close()
		return nil, err
	}

	verifier, err := jwtauth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)
	if err != nil {
		_ = repos.close()
		return nil, fmt.Errorf("build jwt verifier: %w", err)
	}

	services := newServices(cfg, repos, publisher, logger.Named("usecase"))
	handler := httpapi.NewHandler(services, logger)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg:       cfg,
		refresher: services.Refresher,
		logger:    logger,
		closeRepo: repos.close,
	}, nil
}

func newServices(cfg config.Config, repos repositories, publisher event.Publisher, logger *logging.Logger) httpapi.Services {
	ids := idgen.NewUUIDGenerator()

	rankings := usecase.NewRankingService(repos.tournaments, repos.rankings, repos.personalRecords, usecase.RankingCacheConfig{
		Enabled: cfg.CacheEnabled,
		TTL:     cfg.CacheTTL,
	})
	tournaments := usecase.NewTournamentService(repos.tournaments, ids)
	tournaments.SetRankingInvalidator(rankings)
	records := usecase.NewPersonalRecordService(repos.personalRecords, ids)
	records.SetRankingInvalidator(rankings)

	scoring := usecase.NewScoringService(repos.tournaments, repos.scoring)

	return httpapi.Services{
		Tournaments:   tournaments,
		Registrations: usecase.NewRegistrationService(repos.tournaments, repos.registrations, ids, publisher, logger),
		Scoring:       scoring,
		Heats:         usecase.NewHeatService(repos.tournaments, repos.registrations, repos.heats, ids, publisher, logger),
		Results: usecase.NewResultService(
			repos.tournaments,
			repos.registrations,
			repos.heats,
			repos.results,
			scoring,
			rankings,
			ids,
			publisher,
			logger,
		),
		Rankings: rankings,
		Refresher: usecase.NewRankingRefreshService(
			repos.tournaments,
			repos.personalRecords,
			repos.rankings,
			rankings,
			cfg.RankingRefreshWorkers,
			logger.Named("ranking_refresh"),
		),
		PersonalRecords: records,
		Certificates:    usecase.NewCertificateService(repos.tournaments, repos.registrations, repos.heats, repos.results, rankings),
	}
}

func newPublisher(cfg config.Config, logger *logging.Logger) (event.Publisher, error) {
	if !cfg.QStashEnabled {
		return events.NewLogPublisher(logger), nil
	}

	publisher, err := events.NewQStashPublisher(events.QStashPublisherConfig{
		BaseURL:       cfg.QStashBaseURL,
		Token:         cfg.QStashToken,
		TargetBaseURL: cfg.QStashTargetBaseURL,
		Retries:       cfg.QStashRetries,
		ForwardToken:  cfg.InternalJobToken,
		Timeout:       cfg.QStashTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build qstash publisher: %w", err)
	}
	return publisher, nil
}

// RunBackground starts the periodic ranking refresh. It stops when ctx is done.
func (a *App) RunBackground(ctx context.Context) {
	interval := a.cfg.RankingRefreshInterval
	if interval <= 0 {
		a.logger.Info("periodic ranking refresh disabled")
		return
	}
	a.logger.Info("periodic ranking refresh started", "interval", interval.String(), "workers", a.cfg.RankingRefreshWorkers)
	go a.refresher.Run(ctx, interval)
}

// Shutdown drains the HTTP server, then releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	serverErr := a.Server.Shutdown(ctx)
	if errors.Is(serverErr, http.ErrServerClosed) {
		serverErr = nil
	}
	var closeErr error
	if a.closeRepo != nil {
		closeErr = a.closeRepo()
	}
	return errors.Join(serverErr, closeErr)
}
