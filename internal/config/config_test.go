package config

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/gym-league/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Fatalf("expected memory storage by default, got %q", cfg.StorageDriver)
	}
	if cfg.DBLockTimeout != 3*time.Second {
		t.Fatalf("unexpected DBLockTimeout: %s", cfg.DBLockTimeout)
	}
	if cfg.RankingRefreshInterval != 10*time.Minute || cfg.RankingRefreshWorkers != 4 {
		t.Fatalf("unexpected ranking refresh defaults: %s/%d", cfg.RankingRefreshInterval, cfg.RankingRefreshWorkers)
	}
	if !cfg.SwaggerEnabled {
		t.Fatalf("expected swagger enabled in dev")
	}
	if cfg.AuthJWTSecret == "" {
		t.Fatalf("expected a dev signing secret")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_ProdRequiresJWTSecret(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "AUTH_JWT_SECRET") {
		t.Fatalf("expected AUTH_JWT_SECRET error, got %v", err)
	}
}

func TestLoad_ProdDisablesSwaggerByDefault(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SWAGGER_ENABLED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SwaggerEnabled {
		t.Fatalf("expected SwaggerEnabled=false in prod by default")
	}
}

func TestLoad_StorageDriver(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("postgres", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "Postgres")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StoragePostgres {
			t.Fatalf("unexpected driver %q", cfg.StorageDriver)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{"DB_LOCK_TIMEOUT", "0s", "DB_LOCK_TIMEOUT must be > 0"},
		{"DB_LOCK_TIMEOUT", "soon", "parse DB_LOCK_TIMEOUT"},
		{"DB_MAX_OPEN_CONNS", "-1", "DB_MAX_OPEN_CONNS must be > 0"},
		{"CACHE_TTL", "-5s", "CACHE_TTL must be > 0"},
		{"CACHE_ENABLED", "maybe", "parse CACHE_ENABLED"},
		{"RANKING_REFRESH_WORKERS", "0", "RANKING_REFRESH_WORKERS must be > 0"},
		{"RANKING_REFRESH_INTERVAL", "-1m", "RANKING_REFRESH_INTERVAL must be >= 0"},
		{"QSTASH_RETRIES", "-2", "QSTASH_RETRIES must be >= 0"},
		{"QSTASH_CIRCUIT_FAILURE_COUNT", "0", "QSTASH_CIRCUIT_FAILURE_COUNT must be > 0"},
		{"APP_WRITE_TIMEOUT", "x", "parse APP_WRITE_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_RefreshIntervalZeroDisablesTicker(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RANKING_REFRESH_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RankingRefreshInterval != 0 {
		t.Fatalf("expected zero interval, got %s", cfg.RankingRefreshInterval)
	}
}

func TestLoad_QStashRequirements(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("EVENTS_QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "token")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://api.gym-league.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "INTERNAL_JOB_TOKEN") {
		t.Fatalf("expected INTERNAL_JOB_TOKEN error, got %v", err)
	}

	t.Setenv("INTERNAL_JOB_TOKEN", "job")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.QStashEnabled || cfg.QStashRetries != 3 || cfg.QStashTimeout != 5*time.Second {
		t.Fatalf("unexpected qstash config: %+v", cfg)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	got := parseUptraceDSNFromOTLPHeaders(`authorization=x, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)
	if got != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if parseUptraceDSNFromOTLPHeaders("") != "" {
		t.Fatalf("expected empty dsn")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" https://a.example.com, ,https://b.example.com ")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected split: %v", got)
	}
}

func TestLoadMigration_SkipsAuthSettings(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("DB_URL", "postgres://u:p@db:5432/gym_league")
	t.Setenv("MIGRATIONS_DIR", "")
	t.Setenv("MIGRATIONS_PATH", "/srv/migrations")

	cfg, err := LoadMigration()
	if err != nil {
		t.Fatalf("load migration config: %v", err)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/gym_league" {
		t.Fatalf("unexpected DBURL: %q", cfg.DBURL)
	}
	if cfg.MigrationsDir != "/srv/migrations" {
		t.Fatalf("expected MIGRATIONS_PATH fallback, got %q", cfg.MigrationsDir)
	}
	if cfg.ServiceName != "gym-league-migration" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
}
