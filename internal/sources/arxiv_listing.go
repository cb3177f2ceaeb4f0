package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/htmlutils"
)

const (
	arxivAbsSelector      = `a[href*="/abs/"]`
	arxivAbstractSelector = "blockquote.abstract"
	arxivReplacedHeading  = "replacement"
)

var listingDateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3,9} \d{4}`)

// ArxivListingSource reads an arXiv "list/<category>/new" page. Every entry
// is stamped with the announcement date shown in the page heading.
type ArxivListingSource struct {
	base
}

// NewArxivListingSource builds an adapter for an arXiv category listing.
func NewArxivListingSource(def Definition, deps Deps) *ArxivListingSource {
	return &ArxivListingSource{base: newBase(def, deps)}
}

func (s *ArxivListingSource) ListRecent(ctx context.Context) ([]domain.RawItem, error) {
	doc, err := s.document(ctx)
	if err != nil {
		return nil, s.listingError(err)
	}

	announced, err := s.announcementDate(doc)
	if err != nil {
		return nil, s.listingError(err)
	}

	var (
		items []domain.RawItem
		seen  = map[string]struct{}{}
	)

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		heading := strings.ToLower(dl.PrevFiltered("h3").Text())
		if strings.Contains(heading, arxivReplacedHeading) {
			return
		}

		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			item, ok := s.parseEntry(dt, dt.Next(), announced)
			if !ok {
				return
			}

			if _, dup := seen[item.URL]; dup {
				return
			}

			seen[item.URL] = struct{}{}
			items = append(items, item)
		})
	})

	if len(items) == 0 && doc.Find("dl > dt").Length() == 0 {
		return nil, s.listingError(fmt.Errorf("%w: %q", coreerrors.ErrSelectorNotFound, "dl > dt"))
	}

	return items, nil
}

func (s *ArxivListingSource) FetchContent(ctx context.Context, itemURL string) (Content, error) {
	doc, err := s.fetchDocument(ctx, itemURL)
	if err != nil {
		return Content{}, err
	}

	sel := doc.Find(arxivAbstractSelector).First()
	sel.Find(".descriptor").Remove()

	return selectionContent(sel, arxivAbstractSelector, itemURL)
}

func (s *ArxivListingSource) document(ctx context.Context) (*goquery.Document, error) {
	return s.fetchDocument(ctx, s.listingURL)
}

func (s *ArxivListingSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// announcementDate finds the listing day in the page headings, falling back
// to the per-entry date line of older layouts.
func (s *ArxivListingSource) announcementDate(doc *goquery.Document) (time.Time, error) {
	var raw string

	doc.Find("h3, .list-dateline, .list-date").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw = listingDateExpr.FindString(sel.Text())
		return raw == ""
	})

	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: listing date", coreerrors.ErrSelectorNotFound)
	}

	for _, layout := range []string{"2 January 2006", "2 Jan 2006"} {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", coreerrors.ErrUnparseableDate, raw)
}

func (s *ArxivListingSource) parseEntry(dt, dd *goquery.Selection, announced time.Time) (domain.RawItem, bool) {
	href, _ := dt.Find(arxivAbsSelector).First().Attr("href")

	link := resolveURL(s.listingURL, href)
	if link == "" {
		s.logger.Debug().Str("entry", htmlutils.SingleLine(dt.Text())).Msg("skipping entry without abstract link")
		return domain.RawItem{}, false
	}

	title := dd.Find(".list-title").First()
	title.Find(".descriptor").Remove()

	name := htmlutils.SingleLine(strings.TrimPrefix(strings.TrimSpace(title.Text()), "Title:"))
	if name == "" {
		s.logger.Debug().Str("url", link).Msg("skipping entry without title")
		return domain.RawItem{}, false
	}

	abstract := strings.TrimSpace(dd.Find("p.mathjax").First().Text())

	return domain.RawItem{
		Title:       name,
		URL:         link,
		Description: htmlutils.SingleLine(strings.TrimPrefix(abstract, "Abstract:")),
		PublishedAt: announced,
	}, true
}
