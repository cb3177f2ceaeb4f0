// Package dedup resolves the identity of incoming papers against stored ones.
// Titles are compared after normalization by Levenshtein distance counted
// in characters.
package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// SameTitleThreshold is the exclusive distance bound under which two
// normalized titles denote the same paper.
const SameTitleThreshold = 2

var folder = cases.Fold()

// NormalizeTitle case-folds a title, collapses whitespace and drops a trailing period.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	title = strings.TrimSuffix(title, ".")

	return folder.String(title)
}

// TitleDistance is the Levenshtein distance of the normalized titles.
// One edit is one rune, so an accented letter or an ellipsis costs 1.
func TitleDistance(a, b string) int {
	return levenshtein.ComputeDistance(NormalizeTitle(a), NormalizeTitle(b))
}

// IsSameTitle reports whether a and b are within SameTitleThreshold.
func IsSameTitle(a, b string) bool {
	return TitleDistance(a, b) < SameTitleThreshold
}

// BestTitleMatch returns the index and distance of the candidate closest to
// query. The first candidate wins ties. ok is false for an empty list.
func BestTitleMatch(query string, candidates []string) (index, distance int, ok bool) {
	index = -1

	for i, candidate := range candidates {
		d := TitleDistance(query, candidate)
		if index == -1 || d < distance {
			index, distance = i, d
		}
	}

	return index, distance, index >= 0
}
