// Package main is the database migration CLI for LitXplore.
//
// Usage:
//
//	migrate [-path dir] up            apply all pending migrations
//	migrate [-path dir] down          roll back everything
//	migrate [-path dir] steps <n>     apply n steps (negative rolls back)
//	migrate [-path dir] version       print the current version
//	migrate [-path dir] force <v>     set the version after a failed run
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/config"
	"github.com/litxplore/litxplore/internal/database"
	"github.com/litxplore/litxplore/internal/observability"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	pathOverride := flags.String("path", "", "override the migrations directory")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("missing command: expected up, down, steps, version or force")
	}
	command := flags.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}).With().Str("component", "migrate").Logger()

	migrationsDir := cfg.Database.MigrationPath
	if *pathOverride != "" {
		migrationsDir = *pathOverride
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationsDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	switch command {
	case "up":
		logger.Info().Str("dir", migrationsDir).Msg("applying pending migrations")
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		logger.Warn().Msg("rolling back all migrations")
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "steps":
		n, err := intArg(flags, 1, "steps")
		if err != nil {
			return err
		}
		logger.Info().Int("steps", n).Msg("applying migration steps")
		if err := migrator.Steps(n); err != nil {
			return fmt.Errorf("migrate steps: %w", err)
		}
	case "version":
		// Nothing to run, the version report below covers it.
	case "force":
		v, err := intArg(flags, 1, "force")
		if err != nil {
			return err
		}
		logger.Warn().Int("version", v).Msg("forcing migration version")
		if err := migrator.Force(v); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q: expected up, down, steps, version or force", command)
	}

	reportVersion(migrator, logger)
	return nil
}

// intArg parses the integer argument at position pos.
func intArg(flags *flag.FlagSet, pos int, command string) (int, error) {
	if flags.NArg() <= pos {
		return 0, fmt.Errorf("%s requires an integer argument", command)
	}
	n, err := strconv.Atoi(flags.Arg(pos))
	if err != nil {
		return 0, fmt.Errorf("%s argument must be an integer: %w", command, err)
	}
	return n, nil
}

func reportVersion(migrator *database.Migrator, logger zerolog.Logger) {
	v, dirty, err := migrator.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine migration version")
		return
	}
	logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("current migration version")
}
