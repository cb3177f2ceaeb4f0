package db

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
)

func TestBuildArticleListQuery(t *testing.T) {
	tests := []struct {
		name         string
		filter       ports.ArticleFilter
		wantContains []string
		wantMissing  []string
		wantArgs     []any
	}{
		{
			name:         "plain list uses default limit",
			filter:       ports.ArticleFilter{},
			wantContains: []string{"FROM web_article a", "JOIN web_site s", "ORDER BY a.published_at DESC NULLS LAST", "LIMIT 50"},
			wantMissing:  []string{"WHERE", "ILIKE"},
		},
		{
			name:         "keyword search is escaped",
			filter:       ports.ArticleFilter{Keyword: "50%_off", Limit: 10, Offset: 20},
			wantContains: []string{"a.title ILIKE $1", "a.description ILIKE $2", "a.summary ILIKE $3", "LIMIT 10", "OFFSET 20"},
			wantArgs:     []any{`%50\%\_off%`, `%50\%\_off%`, `%50\%\_off%`},
		},
		{
			name:         "status and since",
			filter:       ports.ArticleFilter{Status: domain.StatusTodo, Since: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			wantContains: []string{"st.name = $1", "a.published_at >= $2"},
			wantArgs:     []any{domain.StatusTodo, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:         "limit is clamped",
			filter:       ports.ArticleFilter{Limit: 100000},
			wantContains: []string{"LIMIT 500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildArticleListQuery(tt.filter)
			require.NoError(t, err)

			for _, s := range tt.wantContains {
				assert.Contains(t, query, s)
			}

			for _, s := range tt.wantMissing {
				assert.NotContains(t, query, s)
			}

			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestExternalIDPredicate(t *testing.T) {
	assert.Nil(t, externalIDPredicate(domain.ExternalIDs{}))

	query, args, err := paperSelect().
		Where(externalIDPredicate(domain.ExternalIDs{ArxivID: "2401.1", DOI: "10.1/ABC"})).
		ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "(p.arxiv_id = $1 OR LOWER(p.doi) = LOWER($2))")
	assert.Equal(t, []any{"2401.1", "10.1/ABC"}, args)
}

func TestTitleCandidatesQuery(t *testing.T) {
	query, args, err := titleCandidatesQuery("Attention Is All You Need").ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "p.title ILIKE $1")
	assert.Contains(t, query, "POSITION(LOWER(p.title) IN LOWER($2)) > 0")
	assert.Contains(t, query, "LEFT JOIN journal j")
	assert.Contains(t, query, "ORDER BY (LOWER(p.title) = LOWER($3)) DESC, ABS(LENGTH(p.title) - LENGTH($4)), p.id")
	assert.Contains(t, query, "LIMIT 20")
	assert.Equal(t, []any{
		"%Attention Is All You Need%",
		"Attention Is All You Need",
		"Attention Is All You Need",
		"Attention Is All You Need",
	}, args)
}

func TestPaperListQuery(t *testing.T) {
	query, args, err := paperListQuery(ports.PaperFilter{Keyword: "diffusion", Status: domain.StatusNew}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.Contains(query, "p.abstract ILIKE $2"))
	assert.Contains(t, query, "st.name = $4")
	assert.Len(t, args, 4)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "%x%", containsPattern("  x "))
}

func TestPageLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, pageLimit(0))
	assert.Equal(t, uint64(7), pageLimit(7))
	assert.Equal(t, MaxListLimit, pageLimit(MaxListLimit+1))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "ab", sanitizeText("a\x00b"))
	assert.Equal(t, "ok", sanitizeText("o\xffk"))
}
