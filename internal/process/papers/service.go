// Package papers ingests academic papers by title: metadata resolution,
// duplicate detection, enrichment and the transactional graph write.
package papers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
	"github.com/lueurxax/scholarfeed/internal/process/dedup"
	"github.com/lueurxax/scholarfeed/internal/process/enrichment"
)

// Ingestion outcomes recorded in metrics.
const (
	statusCreated          = "created"
	statusDuplicate        = "duplicate"
	statusNotFound         = "not_found"
	statusEnrichmentFailed = "enrichment_failed"
	statusError            = "error"
)

// Resolver turns a title into a paper draft with external metadata.
type Resolver interface {
	Resolve(ctx context.Context, title string) (domain.AcademicPaper, error)
}

// Enricher produces the structured analysis of a paper.
type Enricher interface {
	EnrichPaper(ctx context.Context, in enrichment.PaperInput) (enrichment.PaperResult, error)
}

var _ Enricher = (*enrichment.Enricher)(nil)

// Result is the outcome of Ingest.
type Result struct {
	Paper   domain.AcademicPaper
	Created bool
	// MatchKind tells how a duplicate was detected; empty when Created.
	MatchKind string
}

type Service struct {
	resolver Resolver
	enricher Enricher
	repo     ports.PaperRepository
	matcher  *dedup.PaperMatcher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewService(resolver Resolver, enricher Enricher, repo ports.PaperRepository, logger *zerolog.Logger) *Service {
	l := logger.With().Str("component", "papers").Logger()

	return &Service{
		resolver: resolver,
		enricher: enricher,
		repo:     repo,
		matcher:  dedup.NewPaperMatcher(repo, &l),
		now:      time.Now,
		logger:   &l,
	}
}

// Ingest resolves title and stores it once. An already stored paper is
// returned unchanged with Created false.
func (s *Service) Ingest(ctx context.Context, title string) (Result, error) {
	draft, err := s.resolver.Resolve(ctx, title)
	if err != nil {
		recordResolveFailure(err)
		return Result{}, fmt.Errorf("resolve paper %q: %w", title, err)
	}

	match, err := s.matcher.FindExisting(ctx, draft.IDs(), draft.Title)
	if err != nil {
		observability.PapersIngested.WithLabelValues(statusError).Inc()
		return Result{}, fmt.Errorf("dedup paper %q: %w", draft.Title, err)
	}

	if match.Found() {
		observability.PapersIngested.WithLabelValues(statusDuplicate).Inc()
		s.logger.Info().
			Int64("paper_id", match.Paper.ID).
			Str("match", match.Kind).
			Int("distance", match.Distance).
			Str("title", draft.Title).
			Msg("paper already stored")

		existing, err := s.repo.GetPaper(ctx, match.Paper.ID)
		if err != nil {
			return Result{}, fmt.Errorf("load existing paper %d: %w", match.Paper.ID, err)
		}

		return Result{Paper: existing, MatchKind: match.Kind}, nil
	}

	analysis, err := s.enricher.EnrichPaper(ctx, enrichment.PaperInput{
		Title:    draft.Title,
		Abstract: draft.Abstract,
		FullText: draft.FullText,
	})
	if err != nil {
		observability.PapersIngested.WithLabelValues(statusEnrichmentFailed).Inc()
		return Result{}, fmt.Errorf("enrich paper %q: %w", draft.Title, err)
	}

	applyAnalysis(&draft, analysis)
	draft.Authors = uniqueAuthors(draft.Authors)
	draft.Citation = Citation(draft)

	id, err := s.persist(ctx, &draft)
	if err != nil {
		observability.PapersIngested.WithLabelValues(statusError).Inc()
		return Result{}, fmt.Errorf("store paper %q: %w", draft.Title, err)
	}

	stored, err := s.repo.GetPaper(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("load stored paper %d: %w", id, err)
	}

	observability.PapersIngested.WithLabelValues(statusCreated).Inc()
	s.logger.Info().
		Int64("paper_id", id).
		Int("authors", len(stored.Authors)).
		Int("tasks", len(stored.Tasks)).
		Bool("truncated", analysis.Truncated).
		Msg("paper stored")

	return Result{Paper: stored, Created: true}, nil
}

// persist writes the whole graph in one transaction: authors, journal,
// tasks, the paper with status "new", then the relations.
func (s *Service) persist(ctx context.Context, paper *domain.AcademicPaper) (int64, error) {
	var paperID int64

	err := s.repo.RunPaperTx(ctx, func(w ports.PaperGraphWriter) error {
		authorIDs := make([]int64, 0, len(paper.Authors))

		for _, a := range paper.Authors {
			id, err := w.ResolveAuthor(ctx, a)
			if err != nil {
				return fmt.Errorf("resolve author %q: %w", a.Name, err)
			}

			authorIDs = append(authorIDs, id)
		}

		paper.JournalID = 0
		if paper.Journal != "" {
			id, err := w.ResolveJournal(ctx, paper.Journal)
			if err != nil {
				return fmt.Errorf("resolve journal %q: %w", paper.Journal, err)
			}

			paper.JournalID = id
		}

		taskIDs := make([]int64, 0, len(paper.Tasks))

		for _, t := range paper.Tasks {
			id, err := w.ResolveTask(ctx, t.Name)
			if err != nil {
				return fmt.Errorf("resolve task %q: %w", t.Name, err)
			}

			taskIDs = append(taskIDs, id)
		}

		statusID, err := w.StatusID(ctx, domain.StatusNew)
		if err != nil {
			return err
		}

		id, err := w.InsertPaper(ctx, paper, statusID)
		if err != nil {
			return fmt.Errorf("insert paper: %w", err)
		}

		for _, authorID := range authorIDs {
			if err := w.LinkAuthor(ctx, id, authorID); err != nil {
				return fmt.Errorf("link author %d: %w", authorID, err)
			}
		}

		for _, taskID := range taskIDs {
			if err := w.LinkTask(ctx, id, taskID); err != nil {
				return fmt.Errorf("link task %d: %w", taskID, err)
			}
		}

		paperID = id

		return nil
	})
	if err != nil {
		return 0, err
	}

	return paperID, nil
}

// AddNote attaches a dated note to a stored paper. A zero date means today.
func (s *Service) AddNote(ctx context.Context, paperID int64, note string, date time.Time) (domain.PaperNote, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return domain.PaperNote{}, fmt.Errorf("%w: empty note", coreerrors.ErrInvalidInput)
	}

	if paperID <= 0 {
		return domain.PaperNote{}, fmt.Errorf("%w: paper id %d", coreerrors.ErrInvalidID, paperID)
	}

	if date.IsZero() {
		date = s.now()
	}

	y, m, d := date.Date()
	n := domain.PaperNote{PaperID: paperID, Note: note, NoteDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}

	id, err := s.repo.AddPaperNote(ctx, n)
	if err != nil {
		return domain.PaperNote{}, fmt.Errorf("add note to paper %d: %w", paperID, err)
	}

	n.ID = id

	return n, nil
}

func recordResolveFailure(err error) {
	if errors.Is(err, coreerrors.ErrNotFound) {
		observability.PapersIngested.WithLabelValues(statusNotFound).Inc()
		return
	}

	observability.PapersIngested.WithLabelValues(statusError).Inc()
}

func applyAnalysis(p *domain.AcademicPaper, r enrichment.PaperResult) {
	p.TranslatedAbstract = r.TranslatedAbstract
	p.Summary = r.Summary
	p.Background = r.Background
	p.Method = r.Method
	p.Dataset = r.Dataset
	p.Results = r.Results
	p.Limitations = r.Limitations
	p.Tasks = uniqueTasks(r.Tasks)
}

// uniqueTasks trims names and drops case-insensitive repeats, keeping order.
func uniqueTasks(names []string) []domain.Task {
	seen := make(map[string]struct{}, len(names))
	tasks := make([]domain.Task, 0, len(names))

	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)

		if _, dup := seen[key]; dup || n == "" {
			continue
		}

		seen[key] = struct{}{}
		tasks = append(tasks, domain.Task{Name: n})
	}

	return tasks
}

// uniqueAuthors drops nameless authors and repeats of the same identity.
func uniqueAuthors(authors []domain.Author) []domain.Author {
	seen := make(map[string]struct{}, len(authors))
	out := make([]domain.Author, 0, len(authors))

	for _, a := range authors {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			continue
		}

		key := "id:" + a.ExternalID
		if a.ExternalID == "" {
			key = "name:" + a.Name
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, a)
	}

	return out
}
