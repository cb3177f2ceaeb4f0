// Package ports provides domain-centric interfaces for external dependencies.
// Business logic depends on these interfaces; internal/storage implements them.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

// ArticleRepository persists web articles with select-or-create semantics.
type ArticleRepository interface {
	// ArticleExistsByURL reports whether an article with this exact URL is stored.
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
	// SaveArticle resolves site by name and stores article with status "todo".
	// When the URL is already stored the existing row is loaded into article and
	// created is false.
	SaveArticle(ctx context.Context, site domain.WebSite, article *domain.WebArticle) (created bool, err error)
}

// ArticleReader is the read and admin surface over stored articles.
type ArticleReader interface {
	GetArticle(ctx context.Context, id int64) (domain.WebArticle, error)
	ListArticles(ctx context.Context, limit, offset uint64) ([]domain.WebArticle, error)
	SearchArticles(ctx context.Context, keyword string, limit, offset uint64) ([]domain.WebArticle, error)
	FilterArticles(ctx context.Context, filter ArticleFilter) ([]domain.WebArticle, error)
	UpdateArticleStatus(ctx context.Context, id int64, status string) error
	ReclassifyArticle(ctx context.Context, id int64, relevance domain.Relevance, summary string) error
	DeleteArticle(ctx context.Context, id int64) error
}

// ArticleFilter narrows FilterArticles. Zero values mean no restriction.
type ArticleFilter struct {
	Keyword string
	Status  string
	Since   time.Time
	Limit   uint64
	Offset  uint64
}

// PaperFilter narrows FilterPapers. Zero values mean no restriction.
type PaperFilter struct {
	Keyword string
	Status  string
	Limit   uint64
	Offset  uint64
}

// PaperGraphWriter writes one paper graph inside a single transaction.
// Every method runs on the same transaction; an error from any of them
// makes the surrounding RunPaperTx roll back.
type PaperGraphWriter interface {
	ResolveAuthor(ctx context.Context, author domain.Author) (int64, error)
	ResolveJournal(ctx context.Context, name string) (int64, error)
	ResolveTask(ctx context.Context, name string) (int64, error)
	StatusID(ctx context.Context, name string) (int64, error)
	InsertPaper(ctx context.Context, paper *domain.AcademicPaper, statusID int64) (int64, error)
	LinkAuthor(ctx context.Context, paperID, authorID int64) error
	LinkTask(ctx context.Context, paperID, taskID int64) error
}

// MaxTitleCandidates bounds FindPaperTitleCandidates.
const MaxTitleCandidates = 20

// PaperRepository persists and reads academic papers.
type PaperRepository interface {
	// FindPaperByExternalIDs returns ErrNotFound when no identifier matches.
	FindPaperByExternalIDs(ctx context.Context, ids domain.ExternalIDs) (domain.AcademicPaper, error)
	// FindPaperTitleCandidates returns at most MaxTitleCandidates papers whose
	// title contains title or is contained in it, closest titles first.
	FindPaperTitleCandidates(ctx context.Context, title string) ([]domain.AcademicPaper, error)
	// RunPaperTx runs fn in one transaction and commits only when fn returns nil.
	RunPaperTx(ctx context.Context, fn func(w PaperGraphWriter) error) error
	// GetPaper loads a paper with its journal, authors and tasks. Returns ErrNotFound.
	GetPaper(ctx context.Context, id int64) (domain.AcademicPaper, error)
	// AddPaperNote stores a note after checking the paper exists.
	AddPaperNote(ctx context.Context, note domain.PaperNote) (int64, error)
}

// PaperReader lists stored papers and their notes.
type PaperReader interface {
	ListPapers(ctx context.Context, limit, offset uint64) ([]domain.AcademicPaper, error)
	SearchPapers(ctx context.Context, keyword string, limit, offset uint64) ([]domain.AcademicPaper, error)
	FilterPapers(ctx context.Context, filter PaperFilter) ([]domain.AcademicPaper, error)
	ListPaperNotes(ctx context.Context, paperID int64) ([]domain.PaperNote, error)
}
