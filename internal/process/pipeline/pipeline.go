// Package pipeline runs the periodic web article ingestion: every source is
// listed, fresh items are fetched, enriched, gated on relevance and stored.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
	"github.com/lueurxax/scholarfeed/internal/notify"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
	"github.com/lueurxax/scholarfeed/internal/process/enrichment"
	"github.com/lueurxax/scholarfeed/internal/process/filters"
	"github.com/lueurxax/scholarfeed/internal/sources"
)

// Enricher summarizes and classifies one article.
type Enricher interface {
	EnrichArticle(ctx context.Context, title, text, lang string) (enrichment.ArticleResult, error)
}

var _ Enricher = (*enrichment.Enricher)(nil)

// Notifier announces newly stored articles. Failures never affect storage.
type Notifier interface {
	NotifyArticle(ctx context.Context, site domain.WebSite, article domain.WebArticle) error
}

var _ Notifier = (*notify.TelegramNotifier)(nil)

// Config tunes a run.
type Config struct {
	// Location defines the calendar day used by the freshness filter.
	Location *time.Location
	// SourceConcurrency bounds how many sources are processed at once.
	SourceConcurrency int
}

type Pipeline struct {
	sources  []sources.Source
	repo     ports.ArticleRepository
	enricher Enricher
	notifier Notifier
	cfg      Config
	logger   *zerolog.Logger
}

func New(srcs []sources.Source, repo ports.ArticleRepository, enricher Enricher, cfg Config, logger *zerolog.Logger) *Pipeline {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	if cfg.SourceConcurrency <= 0 {
		cfg.SourceConcurrency = defaultSourceConcurrency
	}

	l := logger.With().Str("component", "article_pipeline").Logger()

	return &Pipeline{
		sources:  srcs,
		repo:     repo,
		enricher: enricher,
		cfg:      cfg,
		logger:   &l,
	}
}

// WithNotifier sets the optional announcement channel for saved articles.
func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	p.notifier = n
	return p
}

// Run visits every source once. reference selects the calendar day whose
// items are fresh. A failing source is logged and skipped; cancellation is
// honoured between sources and between items and returns the partial report.
func (p *Pipeline) Run(ctx context.Context, reference time.Time) (RunReport, error) {
	start := time.Now()
	report := RunReport{RunID: uuid.New().String()}
	logger := p.logger.With().Str(LogFieldRunID, report.RunID).Logger()

	logger.Info().
		Int("sources", len(p.sources)).
		Str("reference_day", reference.In(p.cfg.Location).Format(time.DateOnly)).
		Msg("article run started")

	reports, err := p.visitSources(ctx, &logger, reference)
	for _, r := range reports {
		report.add(r)
	}

	observability.RunDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.RunsTotal.WithLabelValues(runStatusCancelled).Inc()
		logger.Warn().Err(err).Object("report", report).Msg("article run interrupted")

		return report, err
	}

	observability.RunsTotal.WithLabelValues(runStatusOK).Inc()
	logger.Info().Object("report", report).Dur("took", time.Since(start)).Msg("article run finished")

	return report, nil
}

// visitSources returns one report per source in registry order.
func (p *Pipeline) visitSources(ctx context.Context, logger *zerolog.Logger, reference time.Time) ([]RunReport, error) {
	reports := make([]RunReport, len(p.sources))

	if p.cfg.SourceConcurrency == 1 || len(p.sources) <= 1 {
		for i, src := range p.sources {
			if err := ctx.Err(); err != nil {
				markSkipped(reports[i:])
				return reports, fmt.Errorf("run cancelled: %w", err)
			}

			reports[i] = p.runSource(ctx, logger, src, reference)
		}

		return reports, nil
	}

	pool, err := ants.NewPool(p.cfg.SourceConcurrency, ants.WithPanicHandler(func(v any) {
		logger.Error().Interface("panic", v).Msg("source worker panicked")
	}))
	if err != nil {
		return reports, fmt.Errorf("create source pool: %w", err)
	}

	defer func() {
		if err := pool.ReleaseTimeout(poolReleaseTimeout); err != nil {
			logger.Warn().Err(err).Msg("source pool release timed out")
		}
	}()

	var wg sync.WaitGroup

	for i, src := range p.sources {
		if ctx.Err() != nil {
			reports[i].Skipped = 1
			continue
		}

		wg.Add(1)

		task := func() {
			defer wg.Done()

			if ctx.Err() != nil {
				reports[i].Skipped = 1
				return
			}

			reports[i] = p.runSource(ctx, logger, src, reference)
		}

		if err := pool.Submit(task); err != nil {
			wg.Done()
			logger.Error().Err(err).Str("source", src.Identity().Name).Msg("failed to schedule source")

			reports[i] = RunReport{Sources: 1, FailedSources: 1}
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return reports, fmt.Errorf("run cancelled: %w", err)
	}

	return reports, nil
}

func markSkipped(reports []RunReport) {
	for i := range reports {
		reports[i].Skipped = 1
	}
}

// runSource lists one source and processes its fresh items in listing order.
func (p *Pipeline) runSource(ctx context.Context, parent *zerolog.Logger, src sources.Source, reference time.Time) RunReport {
	id := src.Identity()
	logger := parent.With().Str("source", id.Name).Logger()
	report := RunReport{Sources: 1}

	if r, ok := src.(sources.Resetter); ok {
		defer r.Reset()
	}

	items, err := src.ListRecent(ctx)
	if err != nil {
		observability.SourceListings.WithLabelValues(id.Name, listingStatusFailed).Inc()
		logger.Error().Err(err).Msg("listing failed, skipping source")

		report.FailedSources = 1

		return report
	}

	observability.SourceListings.WithLabelValues(id.Name, listingStatusOK).Inc()

	report.Listed = len(items)
	observability.ArticleItems.WithLabelValues(id.Name, observability.StageListed).Add(float64(len(items)))

	fresh := filters.FilterFresh(items, reference, p.cfg.Location)
	report.Fresh = len(fresh)
	observability.ArticleItems.WithLabelValues(id.Name, observability.StageFresh).Add(float64(len(fresh)))

	if stale := len(items) - len(fresh); stale > 0 {
		observability.DropsTotal.WithLabelValues(filters.ReasonStale).Add(float64(stale))
	}

	logger.Info().Int("listed", len(items)).Int("fresh", len(fresh)).Msg("source listed")

	for _, item := range fresh {
		if ctx.Err() != nil {
			logger.Info().Msg("run cancelled, leaving source")
			break
		}

		p.processItem(ctx, &logger, src, item, &report)
	}

	return report
}

func (p *Pipeline) processItem(ctx context.Context, logger *zerolog.Logger, src sources.Source, item domain.RawItem, report *RunReport) {
	id := src.Identity()
	itemLogger := logger.With().Str("url", item.URL).Logger()

	if strings.TrimSpace(item.URL) == "" || strings.TrimSpace(item.Title) == "" {
		p.drop(&itemLogger, id.Name, report, filters.ReasonInvalid, nil)
		return
	}

	exists, err := p.repo.ArticleExistsByURL(ctx, item.URL)
	if err != nil {
		p.drop(&itemLogger, id.Name, report, filters.ReasonSave, err)
		return
	}

	if exists {
		report.Duplicates++
		observability.ArticleItems.WithLabelValues(id.Name, observability.StageDuplicate).Inc()
		itemLogger.Debug().Msg("article already stored")

		return
	}

	content, err := src.FetchContent(ctx, item.URL)
	if err == nil && content.Empty() {
		err = fmt.Errorf("empty body for %s", item.URL)
	}

	if err != nil {
		p.drop(&itemLogger, id.Name, report, filters.ReasonNoContent, err)
		return
	}

	report.WithContent++
	observability.ArticleItems.WithLabelValues(id.Name, observability.StageWithContent).Inc()

	dropReason := filters.ReasonIrrelevant

	result, err := p.enricher.EnrichArticle(ctx, item.Title, content.Text, id.Language)
	if err != nil {
		itemLogger.Warn().Err(err).Msg("enrichment failed, classifying as irrelevant")

		result = enrichment.ArticleResult{}
		dropReason = filters.ReasonEnrichment
	}

	if !filters.IsRelevant(result.Relevance) {
		p.drop(&itemLogger, id.Name, report, dropReason, nil)
		return
	}

	report.Relevant++
	observability.ArticleItems.WithLabelValues(id.Name, observability.StageRelevant).Inc()

	article := domain.WebArticle{
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		RawText:     content.Text,
		RawHTML:     content.HTML,
		PublishedAt: item.PublishedAt,
		Summary:     result.Summary,
		Relevance:   result.Relevance,
	}

	site := id.Site()

	created, err := p.repo.SaveArticle(ctx, site, &article)
	if err != nil {
		p.drop(&itemLogger, id.Name, report, filters.ReasonSave, err)
		return
	}

	if !created {
		report.Duplicates++
		observability.ArticleItems.WithLabelValues(id.Name, observability.StageDuplicate).Inc()
		itemLogger.Debug().Int64("article_id", article.ID).Msg("article stored concurrently")

		return
	}

	report.Saved++
	observability.ArticleItems.WithLabelValues(id.Name, observability.StageSaved).Inc()
	itemLogger.Info().Int64("article_id", article.ID).Msg("article saved")

	p.notify(ctx, &itemLogger, site, article)
}

func (p *Pipeline) drop(logger *zerolog.Logger, source string, report *RunReport, reason string, err error) {
	report.Dropped++
	observability.ArticleItems.WithLabelValues(source, observability.StageDropped).Inc()
	observability.DropsTotal.WithLabelValues(reason).Inc()

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}

	event.Str("reason", reason).Msg("item dropped")
}

func (p *Pipeline) notify(ctx context.Context, logger *zerolog.Logger, site domain.WebSite, article domain.WebArticle) {
	if p.notifier == nil {
		return
	}

	if err := p.notifier.NotifyArticle(ctx, site, article); err != nil {
		observability.NotificationsSent.WithLabelValues("error").Inc()
		logger.Warn().Err(err).Msg("notification failed")

		return
	}

	observability.NotificationsSent.WithLabelValues("ok").Inc()
}
