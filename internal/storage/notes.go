package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

// AddPaperNote stores a note in its own transaction after checking the paper exists.
func (db *DB) AddPaperNote(ctx context.Context, note domain.PaperNote) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin note transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // best-effort rollback
	}()

	var one int

	err = tx.QueryRow(ctx, `SELECT 1 FROM academic_paper WHERE id = $1 FOR SHARE`, note.PaperID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("paper %d: %w", note.PaperID, coreerrors.ErrNotFound)
		}

		return 0, fmt.Errorf("check paper %d: %w", note.PaperID, err)
	}

	var id int64

	err = tx.QueryRow(ctx, `
		INSERT INTO paper_note (paper_id, note, note_date) VALUES ($1, $2, $3) RETURNING id
	`, note.PaperID, sanitizeText(note.Note), note.NoteDate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert paper note: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit note transaction: %w", err)
	}

	return id, nil
}

// ListPaperNotes returns the notes of a paper in date order.
func (db *DB) ListPaperNotes(ctx context.Context, paperID int64) ([]domain.PaperNote, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, paper_id, note, note_date
		FROM paper_note
		WHERE paper_id = $1
		ORDER BY note_date, id
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list paper notes: %w", err)
	}

	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PaperNote, error) {
		var n domain.PaperNote
		err := row.Scan(&n.ID, &n.PaperID, &n.Note, &n.NoteDate)

		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan paper notes: %w", err)
	}

	return notes, nil
}
