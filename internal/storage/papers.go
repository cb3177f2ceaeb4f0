package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
)

var (
	_ ports.PaperRepository = (*DB)(nil)
	_ ports.PaperReader     = (*DB)(nil)
)

var paperColumns = []string{
	"p.id", "p.semantic_scholar_id", "p.arxiv_id", "p.doi", "p.journal_id", "j.name",
	"p.title", "p.abstract", "p.translated_abstract", "p.full_text", "p.url", "p.published_at",
	"p.citation_count", "p.reference_count", "p.influential_citation_count",
	"p.primary_category", "p.citation",
	"p.summary", "p.background", "p.method", "p.dataset", "p.results", "p.limitations",
	"st.name", "p.created_at",
}

func paperSelect() sq.SelectBuilder {
	return psql.Select(paperColumns...).
		From("academic_paper p").
		LeftJoin("journal j ON j.id = p.journal_id").
		Join("status st ON st.id = p.status_id")
}

func scanPaper(row rowScanner) (domain.AcademicPaper, error) {
	var (
		p         domain.AcademicPaper
		journalID pgtype.Int8
		journal   pgtype.Text
		published pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID, &p.SemanticScholarID, &p.ArxivID, &p.DOI, &journalID, &journal,
		&p.Title, &p.Abstract, &p.TranslatedAbstract, &p.FullText, &p.URL, &published,
		&p.CitationCount, &p.ReferenceCount, &p.InfluentialCitationCount,
		&p.PrimaryCategory, &p.Citation,
		&p.Summary, &p.Background, &p.Method, &p.Dataset, &p.Results, &p.Limitations,
		&p.Status, &p.CreatedAt,
	)
	if err != nil {
		return domain.AcademicPaper{}, err
	}

	p.JournalID = fromInt8(journalID)
	p.Journal = fromText(journal)
	p.PublishedAt = fromTimestamptz(published)

	return p, nil
}

func (db *DB) queryPapers(ctx context.Context, q sq.SelectBuilder) ([]domain.AcademicPaper, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper query: %w", err)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}
	defer rows.Close()

	var out []domain.AcademicPaper

	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}

		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}

	return out, nil
}

// FindPaperByExternalIDs returns the oldest paper sharing any known identifier.
func (db *DB) FindPaperByExternalIDs(ctx context.Context, ids domain.ExternalIDs) (domain.AcademicPaper, error) {
	pred := externalIDPredicate(ids)
	if pred == nil {
		return domain.AcademicPaper{}, coreerrors.ErrNotFound
	}

	papers, err := db.queryPapers(ctx, paperSelect().Where(pred).OrderBy("p.id").Limit(1))
	if err != nil {
		return domain.AcademicPaper{}, err
	}

	if len(papers) == 0 {
		return domain.AcademicPaper{}, coreerrors.ErrNotFound
	}

	return papers[0], nil
}

func externalIDPredicate(ids domain.ExternalIDs) sq.Sqlizer {
	var or sq.Or

	if ids.ArxivID != "" {
		or = append(or, sq.Eq{"p.arxiv_id": ids.ArxivID})
	}

	if ids.SemanticScholarID != "" {
		or = append(or, sq.Eq{"p.semantic_scholar_id": ids.SemanticScholarID})
	}

	if ids.DOI != "" {
		or = append(or, sq.Expr("LOWER(p.doi) = LOWER(?)", ids.DOI))
	}

	if len(or) == 0 {
		return nil
	}

	return or
}

// FindPaperTitleCandidates returns papers whose title contains title
// (case-insensitive) or is contained in it. An exact title comes first,
// then titles closest in length, so the best match survives the limit.
func (db *DB) FindPaperTitleCandidates(ctx context.Context, title string) ([]domain.AcademicPaper, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	return db.queryPapers(ctx, titleCandidatesQuery(title))
}

func titleCandidatesQuery(title string) sq.SelectBuilder {
	return paperSelect().
		Where(sq.Or{
			sq.ILike{"p.title": containsPattern(title)},
			sq.Expr("POSITION(LOWER(p.title) IN LOWER(?)) > 0", title),
		}).
		OrderByClause("(LOWER(p.title) = LOWER(?)) DESC, ABS(LENGTH(p.title) - LENGTH(?)), p.id", title, title).
		Limit(ports.MaxTitleCandidates)
}

// GetPaper loads a paper with its journal, authors and tasks.
func (db *DB) GetPaper(ctx context.Context, id int64) (domain.AcademicPaper, error) {
	papers, err := db.queryPapers(ctx, paperSelect().Where(sq.Eq{"p.id": id}))
	if err != nil {
		return domain.AcademicPaper{}, err
	}

	if len(papers) == 0 {
		return domain.AcademicPaper{}, fmt.Errorf("paper %d: %w", id, coreerrors.ErrNotFound)
	}

	p := papers[0]

	if p.Authors, err = db.paperAuthors(ctx, id); err != nil {
		return domain.AcademicPaper{}, err
	}

	if p.Tasks, err = db.paperTasks(ctx, id); err != nil {
		return domain.AcademicPaper{}, err
	}

	return p, nil
}

func (db *DB) paperAuthors(ctx context.Context, paperID int64) ([]domain.Author, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT a.id, a.external_id, a.name, a.h_index
		FROM author a
		JOIN author_paper_relation r ON r.author_id = a.id
		WHERE r.paper_id = $1
		ORDER BY a.id
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("get paper authors: %w", err)
	}

	authors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Author, error) {
		var a domain.Author
		err := row.Scan(&a.ID, &a.ExternalID, &a.Name, &a.HIndex)

		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan paper authors: %w", err)
	}

	return authors, nil
}

func (db *DB) paperTasks(ctx context.Context, paperID int64) ([]domain.Task, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT t.id, t.name
		FROM task t
		JOIN task_paper_relation r ON r.task_id = t.id
		WHERE r.paper_id = $1
		ORDER BY t.id
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("get paper tasks: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		var t domain.Task
		err := row.Scan(&t.ID, &t.Name)

		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan paper tasks: %w", err)
	}

	return tasks, nil
}

// ListPapers returns the newest papers first.
func (db *DB) ListPapers(ctx context.Context, limit, offset uint64) ([]domain.AcademicPaper, error) {
	return db.FilterPapers(ctx, ports.PaperFilter{Limit: limit, Offset: offset})
}

// SearchPapers matches keyword against title, abstract and summary.
func (db *DB) SearchPapers(ctx context.Context, keyword string, limit, offset uint64) ([]domain.AcademicPaper, error) {
	return db.FilterPapers(ctx, ports.PaperFilter{Keyword: keyword, Limit: limit, Offset: offset})
}

// FilterPapers runs a dynamic paper query.
func (db *DB) FilterPapers(ctx context.Context, filter ports.PaperFilter) ([]domain.AcademicPaper, error) {
	return db.queryPapers(ctx, paperListQuery(filter))
}

func paperListQuery(filter ports.PaperFilter) sq.SelectBuilder {
	q := paperSelect()

	if filter.Keyword != "" {
		pattern := containsPattern(filter.Keyword)
		q = q.Where(sq.Or{
			sq.ILike{"p.title": pattern},
			sq.ILike{"p.abstract": pattern},
			sq.ILike{"p.summary": pattern},
		})
	}

	if filter.Status != "" {
		q = q.Where(sq.Eq{"st.name": filter.Status})
	}

	return q.OrderBy("p.created_at DESC", "p.id DESC").
		Limit(pageLimit(filter.Limit)).
		Offset(filter.Offset)
}

// RunPaperTx runs fn inside one transaction. Any error rolls back every write fn made.
func (db *DB) RunPaperTx(ctx context.Context, fn func(w ports.PaperGraphWriter) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin paper transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if err := fn(&paperTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit paper transaction: %w", err)
	}

	return nil
}

// paperTx implements ports.PaperGraphWriter on an open transaction.
type paperTx struct {
	tx pgx.Tx
}

var _ ports.PaperGraphWriter = (*paperTx)(nil)

// ResolveAuthor selects an author by external id, or by name when the id is
// unknown, and creates it when absent.
func (t *paperTx) ResolveAuthor(ctx context.Context, author domain.Author) (int64, error) {
	var (
		id  int64
		err error
	)

	if author.ExternalID != "" {
		err = t.tx.QueryRow(ctx, `SELECT id FROM author WHERE external_id = $1`, author.ExternalID).Scan(&id)
	} else {
		err = t.tx.QueryRow(ctx, `
			SELECT id FROM author WHERE external_id = '' AND name = $1 ORDER BY id LIMIT 1
		`, author.Name).Scan(&id)
	}

	if err == nil {
		return id, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("get author %s: %w", author.Name, err)
	}

	err = t.tx.QueryRow(ctx, `
		INSERT INTO author (external_id, name, h_index) VALUES ($1, $2, $3) RETURNING id
	`, author.ExternalID, sanitizeText(author.Name), author.HIndex).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create author %s: %w", author.Name, err)
	}

	return id, nil
}

func (t *paperTx) ResolveJournal(ctx context.Context, name string) (int64, error) {
	return resolveByName(ctx, t.tx, "journal", name)
}

func (t *paperTx) ResolveTask(ctx context.Context, name string) (int64, error) {
	return resolveByName(ctx, t.tx, "task", name)
}

// resolveByName is select-or-create on a table with a unique name column.
// table is always a package constant, never caller input.
func resolveByName(ctx context.Context, q querier, table, name string) (int64, error) {
	name = sanitizeText(strings.TrimSpace(name))

	var id int64

	err := q.QueryRow(ctx, `SELECT id FROM `+table+` WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("get %s %s: %w", table, name, err)
	}

	err = q.QueryRow(ctx, `
		INSERT INTO `+table+` (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create %s %s: %w", table, name, err)
	}

	return id, nil
}

func (t *paperTx) StatusID(ctx context.Context, name string) (int64, error) {
	return statusID(ctx, t.tx, name)
}

func (t *paperTx) InsertPaper(ctx context.Context, p *domain.AcademicPaper, statusID int64) (int64, error) {
	var id int64

	err := t.tx.QueryRow(ctx, `
		INSERT INTO academic_paper (
			semantic_scholar_id, arxiv_id, doi, journal_id, title, abstract, translated_abstract,
			full_text, url, published_at, citation_count, reference_count, influential_citation_count,
			primary_category, citation, summary, background, method, dataset, results, limitations,
			status_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			$20, $21, $22
		)
		RETURNING id, created_at
	`, p.SemanticScholarID, p.ArxivID, p.DOI, toInt8(p.JournalID), sanitizeText(p.Title),
		sanitizeText(p.Abstract), sanitizeText(p.TranslatedAbstract), sanitizeText(p.FullText),
		p.URL, toTimestamptz(p.PublishedAt), p.CitationCount, p.ReferenceCount, p.InfluentialCitationCount,
		p.PrimaryCategory, sanitizeText(p.Citation), sanitizeText(p.Summary), sanitizeText(p.Background),
		sanitizeText(p.Method), sanitizeText(p.Dataset), sanitizeText(p.Results), sanitizeText(p.Limitations),
		statusID,
	).Scan(&id, &p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert paper: %w", err)
	}

	p.ID = id

	return id, nil
}

// LinkAuthor inserts the relation only when it does not exist yet.
func (t *paperTx) LinkAuthor(ctx context.Context, paperID, authorID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO author_paper_relation (author_id, paper_id)
		SELECT $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM author_paper_relation WHERE author_id = $1 AND paper_id = $2
		)
	`, authorID, paperID)
	if err != nil {
		return fmt.Errorf("link author %d to paper %d: %w", authorID, paperID, err)
	}

	return nil
}

// LinkTask inserts the relation only when it does not exist yet.
func (t *paperTx) LinkTask(ctx context.Context, paperID, taskID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO task_paper_relation (task_id, paper_id)
		SELECT $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM task_paper_relation WHERE task_id = $1 AND paper_id = $2
		)
	`, taskID, paperID)
	if err != nil {
		return fmt.Errorf("link task %d to paper %d: %w", taskID, paperID, err)
	}

	return nil
}
