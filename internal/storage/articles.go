package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
)

var (
	_ ports.ArticleRepository = (*DB)(nil)
	_ ports.ArticleReader     = (*DB)(nil)
)

var articleColumns = []string{
	"a.id", "a.site_id", "s.name", "a.title", "a.description", "a.url",
	"a.raw_text", "a.raw_html", "a.published_at", "a.summary",
	"a.is_new_technology", "a.is_new_product", "a.is_new_academic_paper",
	"a.is_ai_related", "a.is_security_related", "a.is_it_related",
	"st.name", "a.created_at",
}

func articleSelect() sq.SelectBuilder {
	return psql.Select(articleColumns...).
		From("web_article a").
		Join("web_site s ON s.id = a.site_id").
		Join("status st ON st.id = a.status_id")
}

func scanArticle(row rowScanner) (domain.WebArticle, error) {
	var (
		a         domain.WebArticle
		published pgtype.Timestamptz
	)

	err := row.Scan(
		&a.ID, &a.SiteID, &a.SiteName, &a.Title, &a.Description, &a.URL,
		&a.RawText, &a.RawHTML, &published, &a.Summary,
		&a.Relevance.NewTechnology, &a.Relevance.NewProduct, &a.Relevance.NewAcademicPaper,
		&a.Relevance.AIRelated, &a.Relevance.SecurityRelated, &a.Relevance.ITRelated,
		&a.Status, &a.CreatedAt,
	)
	if err != nil {
		return domain.WebArticle{}, err
	}

	a.PublishedAt = fromTimestamptz(published)

	return a, nil
}

// ArticleExistsByURL reports whether an article with this exact URL is stored.
func (db *DB) ArticleExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM web_article WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article url: %w", err)
	}

	return exists, nil
}

// SaveArticle selects the article by URL or creates it with status "todo".
// An existing row is returned unchanged and created is false.
func (db *DB) SaveArticle(ctx context.Context, site domain.WebSite, article *domain.WebArticle) (bool, error) {
	existing, err := db.getArticleByURL(ctx, article.URL)
	if err == nil {
		*article = existing

		return false, nil
	}

	if !errors.Is(err, coreerrors.ErrNotFound) {
		return false, err
	}

	siteID, err := db.GetOrCreateSite(ctx, site)
	if err != nil {
		return false, err
	}

	todoID, err := statusID(ctx, db.Pool, domain.StatusTodo)
	if err != nil {
		return false, err
	}

	r := article.Relevance

	var id int64

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO web_article (
			site_id, title, description, url, raw_text, raw_html, published_at, summary,
			is_new_technology, is_new_product, is_new_academic_paper,
			is_ai_related, is_security_related, is_it_related, status_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`, siteID, sanitizeText(article.Title), sanitizeText(article.Description), article.URL,
		sanitizeText(article.RawText), sanitizeText(article.RawHTML), toTimestamptz(article.PublishedAt),
		sanitizeText(article.Summary),
		r.NewTechnology, r.NewProduct, r.NewAcademicPaper, r.AIRelated, r.SecurityRelated, r.ITRelated,
		todoID,
	).Scan(&id)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("insert article: %w", err)
		}

		// Lost a race with another writer of the same URL.
		existing, err := db.getArticleByURL(ctx, article.URL)
		if err != nil {
			return false, err
		}

		*article = existing

		return false, nil
	}

	stored, err := db.GetArticle(ctx, id)
	if err != nil {
		return false, err
	}

	*article = stored

	return true, nil
}

// GetArticle returns a stored article or ErrNotFound.
func (db *DB) GetArticle(ctx context.Context, id int64) (domain.WebArticle, error) {
	return db.getArticleWhere(ctx, sq.Eq{"a.id": id}, fmt.Sprintf("article %d", id))
}

func (db *DB) getArticleByURL(ctx context.Context, url string) (domain.WebArticle, error) {
	return db.getArticleWhere(ctx, sq.Eq{"a.url": url}, "article "+url)
}

func (db *DB) getArticleWhere(ctx context.Context, pred sq.Sqlizer, what string) (domain.WebArticle, error) {
	query, args, err := articleSelect().Where(pred).ToSql()
	if err != nil {
		return domain.WebArticle{}, fmt.Errorf("build article query: %w", err)
	}

	a, err := scanArticle(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WebArticle{}, fmt.Errorf("%s: %w", what, coreerrors.ErrNotFound)
		}

		return domain.WebArticle{}, fmt.Errorf("get %s: %w", what, err)
	}

	return a, nil
}

// ListArticles returns the newest articles first.
func (db *DB) ListArticles(ctx context.Context, limit, offset uint64) ([]domain.WebArticle, error) {
	return db.FilterArticles(ctx, ports.ArticleFilter{Limit: limit, Offset: offset})
}

// SearchArticles matches keyword against title, description and summary.
func (db *DB) SearchArticles(ctx context.Context, keyword string, limit, offset uint64) ([]domain.WebArticle, error) {
	return db.FilterArticles(ctx, ports.ArticleFilter{Keyword: keyword, Limit: limit, Offset: offset})
}

// FilterArticles runs a dynamic article query.
func (db *DB) FilterArticles(ctx context.Context, filter ports.ArticleFilter) ([]domain.WebArticle, error) {
	query, args, err := buildArticleListQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []domain.WebArticle

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}

	return out, nil
}

func buildArticleListQuery(filter ports.ArticleFilter) (string, []any, error) {
	q := articleSelect()

	if filter.Keyword != "" {
		pattern := containsPattern(filter.Keyword)
		q = q.Where(sq.Or{
			sq.ILike{"a.title": pattern},
			sq.ILike{"a.description": pattern},
			sq.ILike{"a.summary": pattern},
		})
	}

	if filter.Status != "" {
		q = q.Where(sq.Eq{"st.name": filter.Status})
	}

	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"a.published_at": filter.Since})
	}

	q = q.OrderBy("a.published_at DESC NULLS LAST", "a.id DESC").
		Limit(pageLimit(filter.Limit)).
		Offset(filter.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build article list query: %w", err)
	}

	return query, args, nil
}

// UpdateArticleStatus moves an article to another workflow status.
func (db *DB) UpdateArticleStatus(ctx context.Context, id int64, status string) error {
	sid, err := statusID(ctx, db.Pool, status)
	if err != nil {
		return err
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE web_article SET status_id = $2, updated_at = NOW() WHERE id = $1
	`, id, sid)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d: %w", id, coreerrors.ErrNotFound)
	}

	return nil
}

// ReclassifyArticle replaces the relevance tags and summary of an article.
func (db *DB) ReclassifyArticle(ctx context.Context, id int64, r domain.Relevance, summary string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE web_article
		SET is_new_technology = $2,
			is_new_product = $3,
			is_new_academic_paper = $4,
			is_ai_related = $5,
			is_security_related = $6,
			is_it_related = $7,
			summary = $8,
			updated_at = NOW()
		WHERE id = $1
	`, id, r.NewTechnology, r.NewProduct, r.NewAcademicPaper, r.AIRelated, r.SecurityRelated, r.ITRelated,
		sanitizeText(summary))
	if err != nil {
		return fmt.Errorf("reclassify article: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d: %w", id, coreerrors.ErrNotFound)
	}

	return nil
}

// DeleteArticle removes an article. Administrative use only.
func (db *DB) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM web_article WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d: %w", id, coreerrors.ErrNotFound)
	}

	return nil
}
