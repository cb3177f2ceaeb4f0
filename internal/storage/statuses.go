package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

// statusID looks a workflow status up by name. Statuses are seeded by migrations.
func statusID(ctx context.Context, q querier, name string) (int64, error) {
	var id int64

	err := q.QueryRow(ctx, `SELECT id FROM status WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", coreerrors.ErrStatusNotFound, name)
		}

		return 0, fmt.Errorf("get status %s: %w", name, err)
	}

	return id, nil
}
