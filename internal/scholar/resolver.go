package scholar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/process/dedup"
)

const minArxivDistanceBudget = dedup.SameTitleThreshold

// BibSearcher finds the bibliographic record of a title.
type BibSearcher interface {
	SearchByTitle(ctx context.Context, title string) (BibRecord, error)
}

// ArxivSearcher lists arXiv candidates for a title.
type ArxivSearcher interface {
	SearchByTitle(ctx context.Context, title string) ([]ArxivEntry, error)
}

// TextExtractor turns a PDF into sections.
type TextExtractor interface {
	Extract(ctx context.Context, pdfURL string) ([]Section, error)
}

var (
	_ BibSearcher   = (*SemanticScholarClient)(nil)
	_ ArxivSearcher = (*ArxivClient)(nil)
	_ TextExtractor = (*PDFExtractorClient)(nil)
)

// Resolver merges bibliographic and arXiv metadata into a paper draft.
type Resolver struct {
	bib    BibSearcher
	arxiv  ArxivSearcher
	pdf    TextExtractor
	logger *zerolog.Logger
}

// NewResolver wires the metadata services. pdf may be nil to skip full text.
func NewResolver(bib BibSearcher, arxiv ArxivSearcher, pdf TextExtractor, logger *zerolog.Logger) *Resolver {
	l := logger.With().Str("component", "scholar_resolver").Logger()

	return &Resolver{bib: bib, arxiv: arxiv, pdf: pdf, logger: &l}
}

// Resolve looks title up in both services concurrently. A miss in one
// service is tolerated; a miss in both is ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, title string) (domain.AcademicPaper, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.AcademicPaper{}, fmt.Errorf("%w: empty title", coreerrors.ErrInvalidInput)
	}

	var (
		bib              *BibRecord
		entry            *ArxivEntry
		bibErr, arxivErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := r.bib.SearchByTitle(gctx, title)
		if err != nil {
			bibErr = err
			return nil
		}

		bib = &rec

		return nil
	})

	g.Go(func() error {
		candidates, err := r.arxiv.SearchByTitle(gctx, title)
		if err != nil {
			arxivErr = err
			return nil
		}

		entry = bestArxivEntry(title, candidates)

		return nil
	})

	_ = g.Wait() //nolint:errcheck // goroutines record their own errors

	if err := ctx.Err(); err != nil {
		return domain.AcademicPaper{}, fmt.Errorf("resolve %q: %w", title, err)
	}

	r.logLookupError("bibliographic", title, bibErr)
	r.logLookupError("arxiv", title, arxivErr)

	if bib == nil && entry == nil {
		if err := errors.Join(ignoreNotFound(bibErr), ignoreNotFound(arxivErr)); err != nil {
			return domain.AcademicPaper{}, fmt.Errorf("resolve %q: %w", title, err)
		}

		return domain.AcademicPaper{}, fmt.Errorf("resolve %q: %w", title, coreerrors.ErrNotFound)
	}

	paper := merge(title, bib, entry)

	if entry != nil && entry.PDFURL != "" && r.pdf != nil {
		paper.FullText = r.fullText(ctx, entry.PDFURL)
	}

	return paper, nil
}

func (r *Resolver) fullText(ctx context.Context, pdfURL string) string {
	sections, err := r.pdf.Extract(ctx, pdfURL)
	if err != nil {
		r.logger.Warn().Err(err).Str("pdf_url", pdfURL).Msg("pdf extraction failed, continuing without full text")
		return ""
	}

	return JoinSections(sections)
}

func (r *Resolver) logLookupError(service, title string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, coreerrors.ErrNotFound):
		r.logger.Info().Str("service", service).Str("title", title).Msg("no match")
	default:
		r.logger.Warn().Err(err).Str("service", service).Str("title", title).Msg("lookup failed")
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, coreerrors.ErrNotFound) {
		return nil
	}

	return err
}

// bestArxivEntry picks the candidate closest to title. Candidates whose
// distance exceeds a fifth of the title length are rejected as unrelated.
func bestArxivEntry(title string, candidates []ArxivEntry) *ArxivEntry {
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Title
	}

	idx, distance, ok := dedup.BestTitleMatch(title, titles)
	if !ok {
		return nil
	}

	budget := len([]rune(dedup.NormalizeTitle(title))) / 5
	if budget < minArxivDistanceBudget {
		budget = minArxivDistanceBudget
	}

	if distance > budget {
		return nil
	}

	entry := candidates[idx]

	return &entry
}

// merge prefers bibliographic fields and fills gaps from arXiv.
func merge(query string, bib *BibRecord, entry *ArxivEntry) domain.AcademicPaper {
	var paper domain.AcademicPaper

	if bib != nil {
		paper = domain.AcademicPaper{
			SemanticScholarID:        bib.PaperID,
			ArxivID:                  bib.ArxivID,
			DOI:                      bib.DOI,
			Journal:                  bib.Journal,
			Title:                    bib.Title,
			Abstract:                 bib.Abstract,
			URL:                      bib.URL,
			PublishedAt:              bib.PublishedAt,
			CitationCount:            bib.CitationCount,
			ReferenceCount:           bib.ReferenceCount,
			InfluentialCitationCount: bib.InfluentialCitationCount,
		}

		for _, a := range bib.Authors {
			paper.Authors = append(paper.Authors, domain.Author{ExternalID: a.ID, Name: a.Name, HIndex: a.HIndex})
		}
	}

	if entry != nil {
		if id := BareArxivID(entry.ID); id != "" {
			paper.ArxivID = id
		}

		paper.PrimaryCategory = entry.PrimaryCategory
		paper.Title = coalesce(paper.Title, entry.Title)
		paper.Abstract = coalesce(paper.Abstract, entry.Summary)
		paper.DOI = coalesce(paper.DOI, entry.DOI)
		paper.URL = coalesce(paper.URL, entry.AbsURL)

		if paper.PublishedAt.IsZero() {
			paper.PublishedAt = entry.PublishedAt
		}

		if len(paper.Authors) == 0 {
			for _, name := range entry.Authors {
				paper.Authors = append(paper.Authors, domain.Author{Name: name})
			}
		}
	}

	paper.Title = coalesce(paper.Title, query)

	return paper
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
