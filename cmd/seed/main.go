// seed loads fixture data into a DevTrack database. Without -f it loads the
// built-in demo data set.
//
//	seed --driver sqlite --dsn devtrack.db
//	seed -f fixtures.yaml --migrate
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sumire/devtrack/internal/config"
	"github.com/sumire/devtrack/internal/database"
	"github.com/sumire/devtrack/internal/repository"
	"github.com/sumire/devtrack/internal/seed"
	"github.com/sumire/devtrack/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		file      string
		driver    string
		dsn       string
		migrate   bool
		logFormat string
	)

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVarP(&file, "file", "f", "", "fixture YAML file (default: built-in demo data)")
	flagSet.StringVar(&driver, "driver", envOr("DATABASE_DRIVER", database.DriverPostgres), "database driver: pgx or sqlite")
	flagSet.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "database connection string")
	flagSet.BoolVar(&migrate, "migrate", false, "apply the schema before seeding")
	flagSet.StringVar(&logFormat, "log-format", "text", "log format: text or json")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if dsn == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}

	logger := config.NewLogger(config.Config{LogLevel: "info", LogFormat: logFormat}, os.Stderr)
	slog.SetDefault(logger)

	fixture, err := loadFixture(file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	seeder := seed.New(service.Stores{
		Users:    repository.NewUserRepository(db),
		Projects: repository.NewProjectRepository(db),
		Issues:   repository.NewIssueRepository(db),
		WorkLogs: repository.NewWorkLogRepository(db),
	}, 0, logger)

	sum, err := seeder.Apply(ctx, fixture)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	logger.Info("seed complete",
		"users", sum.Users,
		"projects", sum.Projects,
		"issues", sum.Issues,
		"work_logs", sum.WorkLogs,
	)
	return nil
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.DefaultFixture()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return seed.ReadFixture(f)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
