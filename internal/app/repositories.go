package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/gym-league/internal/config"
	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/gym-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

type repositories struct {
	tournaments     tournament.Repository
	registrations   registration.Repository
	scoring         scoring.Repository
	heats           heat.Repository
	results         result.Repository
	rankings        ranking.Repository
	personalRecords personalrecord.Repository

	close func() error
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var (
		repos repositories
		err   error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		repos, err = newPostgresRepositories(ctx, cfg, logger)
		if err != nil {
			return repositories{}, err
		}
	default:
		repos = newMemoryRepositories(cfg, logger)
	}

	if cfg.CacheEnabled {
		repos.tournaments = cache.NewTournamentRepository(repos.tournaments, cfg.CacheTTL)
		repos.scoring = cache.NewScoringRepository(repos.scoring, cfg.CacheTTL)
	}
	return repos, nil
}

func newMemoryRepositories(cfg config.Config, logger *logging.Logger) repositories {
	db := memory.NewDatabase()
	if cfg.AppEnv == config.EnvDev {
		memory.SeedDemo(db, time.Now())
		logger.Info("memory storage seeded", "tournament_id", memory.SeedTournamentID)
	}

	return repositories{
		tournaments:     memory.NewTournamentRepository(db),
		registrations:   memory.NewRegistrationRepository(db),
		scoring:         memory.NewScoringRepository(db),
		heats:           memory.NewHeatRepository(db),
		results:         memory.NewResultRepository(db),
		rankings:        memory.NewRankingRepository(db),
		personalRecords: memory.NewPersonalRecordRepository(db),
		close:           func() error { return nil },
	}
}

func newPostgresRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}

	if cfg.AppEnv == config.EnvDev {
		if err := postgres.BootstrapSeed(ctx, db, time.Now()); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}
	logger.Info("postgres storage ready",
		"db_name", dbNameFromURL(cfg.DBURL),
		"max_open_conns", cfg.DBMaxOpenConns,
		"lock_timeout", cfg.DBLockTimeout.String(),
	)

	lockTimeout := cfg.DBLockTimeout
	return repositories{
		tournaments:     postgres.NewTournamentRepository(db),
		registrations:   postgres.NewRegistrationRepository(db, lockTimeout),
		scoring:         postgres.NewScoringRepository(db, lockTimeout),
		heats:           postgres.NewHeatRepository(db, lockTimeout),
		results:         postgres.NewResultRepository(db, lockTimeout),
		rankings:        postgres.NewRankingRepository(db),
		personalRecords: postgres.NewPersonalRecordRepository(db),
		close:           db.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", DatabaseURL(cfg),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(max(cfg.DBMaxOpenConns/2, 1))
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
