// Package app wires configuration, storage and the processing packages
// into the operational modes exposed by the command line:
//
//   - Articles run: one pass over every enabled source for a reference day
//   - Paper ingest: resolve, enrich and store one paper by title
//   - Worker mode: the articles run on an interval plus the health server
//
// Each mode builds only the dependencies it needs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	"github.com/lueurxax/scholarfeed/internal/core/fetch"
	"github.com/lueurxax/scholarfeed/internal/core/llm"
	"github.com/lueurxax/scholarfeed/internal/notify"
	"github.com/lueurxax/scholarfeed/internal/platform/config"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
	"github.com/lueurxax/scholarfeed/internal/platform/worker"
	"github.com/lueurxax/scholarfeed/internal/process/enrichment"
	"github.com/lueurxax/scholarfeed/internal/process/papers"
	"github.com/lueurxax/scholarfeed/internal/process/pipeline"
	"github.com/lueurxax/scholarfeed/internal/scholar"
	"github.com/lueurxax/scholarfeed/internal/sources"
	db "github.com/lueurxax/scholarfeed/internal/storage"
)

const workerNameArticles = "articles"

type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer serves /healthz, /readyz and /metrics until ctx is done.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunArticles performs one article run for the calendar day of reference.
func (a *App) RunArticles(ctx context.Context, reference time.Time) (pipeline.RunReport, error) {
	p, err := a.newPipeline()
	if err != nil {
		return pipeline.RunReport{}, err
	}

	report, err := p.Run(ctx, reference)
	if err != nil {
		return report, fmt.Errorf("articles run: %w", err)
	}

	return report, nil
}

// RunWorker repeats the article run every RUN_INTERVAL until ctx is done.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	p, err := a.newPipeline()
	if err != nil {
		return err
	}

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:       workerNameArticles,
		Interval:   a.cfg.Run.Interval,
		RunOnStart: a.cfg.Run.RunOnStart,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) error {
			_, err := p.Run(ctx, time.Now())
			return err
		},
	})
}

// IngestPaper resolves title against the bibliographic services and stores it.
func (a *App) IngestPaper(ctx context.Context, title string) (papers.Result, error) {
	svc, err := a.newPaperService()
	if err != nil {
		return papers.Result{}, err
	}

	return svc.Ingest(ctx, title)
}

// AddPaperNote attaches a dated note to a stored paper. Zero date means today.
func (a *App) AddPaperNote(ctx context.Context, paperID int64, note string, date time.Time) (domain.PaperNote, error) {
	svc := papers.NewService(nil, nil, a.database, a.logger)

	return svc.AddNote(ctx, paperID, note, date)
}

// SourceNames lists the enabled sources after applying SOURCES_FILE overrides.
func (a *App) SourceNames() ([]string, error) {
	reg, err := a.newRegistry()
	if err != nil {
		return nil, err
	}

	return reg.Names(), nil
}

func (a *App) newPipeline() (*pipeline.Pipeline, error) {
	loc, err := a.cfg.Run.Location()
	if err != nil {
		return nil, err
	}

	reg, err := a.newRegistry()
	if err != nil {
		return nil, err
	}

	enricher, err := a.newEnricher()
	if err != nil {
		return nil, err
	}

	p := pipeline.New(reg.Sources(), a.database, enricher, pipeline.Config{
		Location:          loc,
		SourceConcurrency: a.cfg.Run.SourceConcurrency,
	}, a.logger)

	if a.cfg.Telegram.BotToken == "" {
		return p, nil
	}

	notifier, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.logger)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}

	return p.WithNotifier(notifier), nil
}

func (a *App) newPaperService() (*papers.Service, error) {
	fetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}

	enricher, err := a.newEnricher()
	if err != nil {
		return nil, err
	}

	var pdf scholar.TextExtractor
	if a.cfg.Scholar.PDFExtractorURL != "" {
		pdf = scholar.NewPDFExtractorClient(fetcher, a.cfg.Scholar.PDFExtractorURL)
	}

	resolver := scholar.NewResolver(
		scholar.NewSemanticScholarClient(fetcher, a.cfg.Scholar.SemanticScholarURL, a.cfg.Scholar.SemanticScholarAPIKey),
		scholar.NewArxivClient(fetcher, a.cfg.Scholar.ArxivAPIURL, a.cfg.Scholar.ArxivMaxResults),
		pdf,
		a.logger,
	)

	return papers.NewService(resolver, enricher, a.database, a.logger), nil
}

func (a *App) newRegistry() (*sources.Registry, error) {
	loc, err := a.cfg.Run.Location()
	if err != nil {
		return nil, err
	}

	fetcher, err := a.newFetcher()
	if err != nil {
		return nil, err
	}

	overrides, err := sources.LoadOverrides(a.cfg.SourcesFile)
	if err != nil {
		return nil, err
	}

	defs, err := sources.ApplyOverrides(sources.Catalogue(), overrides)
	if err != nil {
		return nil, err
	}

	return sources.NewRegistry(sources.Deps{
		Fetcher:  fetcher,
		Logger:   a.logger,
		Location: loc,
	}, defs...)
}

func (a *App) newEnricher() (*enrichment.Enricher, error) {
	if err := a.cfg.RequireLLM(); err != nil {
		return nil, err
	}

	tokenizer, err := llm.NewTokenizer(a.cfg.LLM.Model)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	return enrichment.New(llm.NewOpenAI(a.cfg.LLM, a.logger), tokenizer, enrichment.Config{
		Model:          a.cfg.LLM.Model,
		Temperature:    a.cfg.LLM.Temperature,
		MaxTokens:      a.cfg.LLM.MaxTokens,
		MaxAttempts:    a.cfg.LLM.MaxAttempts,
		RetryDelay:     a.cfg.LLM.RetryDelay,
		TargetLanguage: a.cfg.LLM.TargetLanguage,
	}, a.logger), nil
}

func (a *App) newFetcher() (*fetch.Fetcher, error) {
	f, err := fetch.New(fetch.Options{
		UserAgent:      a.cfg.Fetch.UserAgent,
		Timeout:        a.cfg.Fetch.Timeout,
		RequestsPerSec: a.cfg.Fetch.RequestsPerSec,
		PerHostRPS:     a.cfg.Fetch.PerHostRPS,
		MaxBodyBytes:   a.cfg.Fetch.MaxBodyBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("fetcher: %w", err)
	}

	return f, nil
}
