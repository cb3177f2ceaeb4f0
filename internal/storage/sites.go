package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

// GetOrCreateSite returns the id of the site named site.Name, creating it when absent.
// The lookup and insert are not atomic; two concurrent callers may both insert.
func (db *DB) GetOrCreateSite(ctx context.Context, site domain.WebSite) (int64, error) {
	var id int64

	err := db.Pool.QueryRow(ctx, `
		SELECT id FROM web_site WHERE name = $1 ORDER BY id LIMIT 1
	`, site.Name).Scan(&id)
	if err == nil {
		return id, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("get site %s: %w", site.Name, err)
	}

	err = db.Pool.QueryRow(ctx, `
		INSERT INTO web_site (name, url) VALUES ($1, $2) RETURNING id
	`, sanitizeText(site.Name), sanitizeText(site.URL)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create site %s: %w", site.Name, err)
	}

	db.Logger.Info().Str("site", site.Name).Int64("site_id", id).Msg("created web site")

	return id, nil
}
