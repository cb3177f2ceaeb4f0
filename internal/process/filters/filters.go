// Package filters holds the pure gates of the article pipeline:
// the freshness check applied before any network work and the relevance
// gate applied after enrichment.
package filters

import (
	"time"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

// Drop reasons reported in metrics and logs.
const (
	ReasonStale      = "stale"
	ReasonNoContent  = "no_content"
	ReasonIrrelevant = "irrelevant"
	ReasonEnrichment = "enrichment_failed"
	ReasonSave       = "save_failed"
	ReasonInvalid    = "invalid_item"
)

// IsRelevant reports whether at least one relevance tag is set.
func IsRelevant(r domain.Relevance) bool {
	return r.Any()
}

// IsFresh reports whether published falls on the same calendar day as
// reference when both are viewed in loc. A zero published time is never fresh.
func IsFresh(published, reference time.Time, loc *time.Location) bool {
	if published.IsZero() {
		return false
	}

	if loc == nil {
		loc = time.UTC
	}

	py, pm, pd := published.In(loc).Date()
	ry, rm, rd := reference.In(loc).Date()

	return py == ry && pm == rm && pd == rd
}

// FilterFresh keeps the items published on the reference day, preserving order.
func FilterFresh(items []domain.RawItem, reference time.Time, loc *time.Location) []domain.RawItem {
	fresh := make([]domain.RawItem, 0, len(items))

	for _, item := range items {
		if IsFresh(item.PublishedAt, reference, loc) {
			fresh = append(fresh, item)
		}
	}

	return fresh
}
