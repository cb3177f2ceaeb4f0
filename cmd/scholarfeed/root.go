package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/scholarfeed/internal/app"
	"github.com/lueurxax/scholarfeed/internal/platform/config"
	db "github.com/lueurxax/scholarfeed/internal/storage"
)

const dateLayout = "2006-01-02"

var rootCmd = &cobra.Command{
	Use:           "scholarfeed",
	Short:         "Tech article and academic paper collector",
	Long:          "scholarfeed collects same-day articles from tech news sites and resolves academic papers, stores them in PostgreSQL and annotates them with an LLM.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(workerCmd)
}

// env is what every command needs after startup.
type env struct {
	cfg      *config.Config
	logger   zerolog.Logger
	database *db.DB
	app      *app.App
}

func (e *env) Close() {
	if e.database != nil {
		e.database.Close()
	}
}

// setup loads configuration, connects to the database and applies migrations.
// Failures are reported on the logger and returned; the command exits non-zero.
func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return nil, err
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	database, err := db.NewWithOptions(ctx, cfg.Database.PostgresDSN, db.PoolOptions{
		MaxConns:          cfg.Database.MaxConnections,
		MinConns:          cfg.Database.MinConnections,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	}, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, err
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		logger.Error().Err(err).Msg("failed to run migrations")

		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, database: database}
	e.app = app.New(cfg, database, &e.logger)

	return e, nil
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger
	if appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}

// stopped reports whether err only carries a shutdown signal.
func stopped(err error) bool {
	return errors.Is(err, context.Canceled)
}

// parseDay reads a YYYY-MM-DD flag in loc. Empty means now.
func parseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().In(loc), nil
	}

	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", raw, err)
	}

	return t, nil
}
