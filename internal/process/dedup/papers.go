package dedup

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

// Match kinds reported by FindExisting.
const (
	MatchNone       = ""
	MatchExternalID = "external_id"
	MatchTitle      = "title"
)

// PaperLookup is the read side of the paper store used for identity resolution.
type PaperLookup interface {
	// FindPaperByExternalIDs returns ErrNotFound when no identifier matches.
	FindPaperByExternalIDs(ctx context.Context, ids domain.ExternalIDs) (domain.AcademicPaper, error)
	// FindPaperTitleCandidates returns papers whose title contains title or is contained in it.
	FindPaperTitleCandidates(ctx context.Context, title string) ([]domain.AcademicPaper, error)
}

// PaperMatcher decides whether an incoming paper is already stored.
type PaperMatcher struct {
	repo   PaperLookup
	logger *zerolog.Logger
}

func NewPaperMatcher(repo PaperLookup, logger *zerolog.Logger) *PaperMatcher {
	return &PaperMatcher{repo: repo, logger: logger}
}

// Match is the outcome of FindExisting.
type Match struct {
	Paper    domain.AcademicPaper
	Kind     string
	Distance int
}

// Found reports whether an existing paper was matched.
func (m Match) Found() bool {
	return m.Kind != MatchNone
}

// FindExisting checks external identifiers first and falls back to the
// fuzzy title comparison among ILIKE candidates.
func (m *PaperMatcher) FindExisting(ctx context.Context, ids domain.ExternalIDs, title string) (Match, error) {
	if !ids.Empty() {
		paper, err := m.repo.FindPaperByExternalIDs(ctx, ids)
		switch {
		case err == nil:
			m.logger.Debug().Int64("paper_id", paper.ID).Msg("paper matched by external id")

			return Match{Paper: paper, Kind: MatchExternalID}, nil
		case !errors.Is(err, coreerrors.ErrNotFound):
			return Match{}, fmt.Errorf("find paper by external ids: %w", err)
		}
	}

	candidates, err := m.repo.FindPaperTitleCandidates(ctx, title)
	if err != nil {
		return Match{}, fmt.Errorf("find paper title candidates: %w", err)
	}

	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Title
	}

	idx, distance, ok := BestTitleMatch(title, titles)
	if !ok || distance >= SameTitleThreshold {
		return Match{}, nil
	}

	m.logger.Debug().
		Int64("paper_id", candidates[idx].ID).
		Int("distance", distance).
		Msg("paper matched by title")

	return Match{Paper: candidates[idx], Kind: MatchTitle, Distance: distance}, nil
}
