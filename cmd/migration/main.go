package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/gym-league/internal/app"
	"github.com/riskibarqy/gym-league/internal/config"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
)

// schemaVersion is the numeric prefix of db/migrations/000001_tournament_operations.
const schemaVersion = 1

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadMigration()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"env", cfg.AppEnv,
	)
	defer func() { _ = logger.Sync() }()

	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	sourceURL := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(sourceURL, app.DatabaseURL(cfg))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer closeMigrator(m, logger)

	return cmd.apply(m, logger.With("source", sourceURL, "command", cmd.name))
}

type command struct {
	name    string
	steps   int
	version int
	target  uint
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errUsage
	}

	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]

	var err error
	switch cmd.name {
	case "up", "version":
	case "down":
		cmd.steps, err = parseSteps(rest)
	case "force":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("force requires a version argument, e.g. force %d", schemaVersion)
		}
		cmd.version, err = parseVersion(rest[0])
	case "goto", "migrate":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("goto requires a target version argument, e.g. goto %d", schemaVersion)
		}
		cmd.name = "goto"
		cmd.target, err = parseTarget(rest[0])
	default:
		return command{}, fmt.Errorf("%w: unknown command %q", errUsage, cmd.name)
	}
	if err != nil {
		return command{}, err
	}
	return cmd, nil
}

func (c command) apply(m *migrate.Migrate, logger *logging.Logger) error {
	switch c.name {
	case "up":
		if err := ignoreNoChange(m.Up(), logger); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("schema migrations applied")
	case "down":
		if err := ignoreNoChange(m.Steps(-c.steps), logger); err != nil {
			return fmt.Errorf("roll back %d migration(s): %w", c.steps, err)
		}
		logger.Info("schema migrations rolled back", "steps", c.steps)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			fmt.Println("dirty: false")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d\n", version)
		fmt.Printf("dirty: %t\n", dirty)
	case "force":
		if err := m.Force(c.version); err != nil {
			return fmt.Errorf("force version %d: %w", c.version, err)
		}
		logger.Warn("schema version forced", "version", c.version)
	case "goto":
		if err := ignoreNoChange(m.Migrate(c.target), logger); err != nil {
			return fmt.Errorf("migrate to version %d: %w", c.target, err)
		}
		logger.Info("schema migrated", "version", c.target)
	}
	return nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	if value > int64(^uint(0)>>1) {
		return 0, fmt.Errorf("version is too large for this platform")
	}
	return int(value), nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current")
		return nil
	}
	return err
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source failed", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db failed", "error", dbErr)
	}
}

// resolveMigrationsDir prefers MIGRATIONS_DIR, then the repo and container layouts.
func resolveMigrationsDir(configured string) (string, error) {
	candidates := append([]string{configured}, defaultMigrationDirs...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, %s)", strings.Join(defaultMigrationDirs, ", "))
}

func printUsage(w io.Writer) {
	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <up|down|version|force|goto> [args]\n", bin)
	fmt.Fprintln(w, "applies db/migrations/000001_tournament_operations.{up,down}.sql to DB_URL")
	fmt.Fprintln(w, "examples:")
	fmt.Fprintf(w, "  %s up\n", bin)
	fmt.Fprintf(w, "  %s down 1\n", bin)
	fmt.Fprintf(w, "  %s version\n", bin)
	fmt.Fprintf(w, "  %s force %d\n", bin, schemaVersion)
	fmt.Fprintf(w, "  %s goto %d\n", bin, schemaVersion)
}
