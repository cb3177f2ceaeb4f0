package papers

import (
	"strconv"
	"strings"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

const unknownYear = "n.d."

// Citation renders "Authors (Year). Title. Journal. doi/arXiv", omitting
// the parts that are unknown.
func Citation(p domain.AcademicPaper) string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}

	year := unknownYear
	if !p.PublishedAt.IsZero() {
		year = strconv.Itoa(p.PublishedAt.Year())
	}

	var b strings.Builder

	if len(names) > 0 {
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" ")
	}

	b.WriteString("(" + year + ").")
	b.WriteString(" " + sentence(p.Title))

	if j := strings.TrimSpace(p.Journal); j != "" {
		b.WriteString(" " + sentence(j))
	}

	switch {
	case p.DOI != "":
		b.WriteString(" doi:" + p.DOI)
	case p.ArxivID != "":
		b.WriteString(" arXiv:" + p.ArxivID)
	}

	return b.String()
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}

	return s + "."
}
