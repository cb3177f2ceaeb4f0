package papers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

func TestCitation(t *testing.T) {
	tests := []struct {
		name  string
		paper domain.AcademicPaper
		want  string
	}{
		{
			name: "full",
			paper: domain.AcademicPaper{
				Authors:     []domain.Author{{Name: "A. Author"}, {Name: "B. Author"}},
				PublishedAt: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
				Title:       "A Study",
				Journal:     "Journal of Things",
				DOI:         "10.1/x",
				ArxivID:     "2001.00001",
			},
			want: "A. Author, B. Author (2020). A Study. Journal of Things. doi:10.1/x",
		},
		{
			name:  "arxiv only",
			paper: domain.AcademicPaper{Title: "Why Not?", ArxivID: "2001.00001"},
			want:  "(n.d.). Why Not? arXiv:2001.00001",
		},
		{
			name:  "bare",
			paper: domain.AcademicPaper{Authors: []domain.Author{{Name: " "}}, Title: "Untitled draft."},
			want:  "(n.d.). Untitled draft.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Citation(tt.paper))
		})
	}
}
