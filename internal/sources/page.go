package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/htmlutils"
)

// Selectors locate listing entries and article bodies on an HTML site.
// Title, Link, Description and Date are relative to Item.
type Selectors struct {
	Item        string
	Title       string
	Link        string
	Description string
	Date        string
	// DateAttr reads the date from an attribute (e.g. "datetime") instead of the text.
	DateAttr string
	// Body is evaluated on the article page; empty falls back to reader-mode extraction.
	Body string
}

// PageSource scrapes an HTML listing page with CSS selectors.
type PageSource struct {
	base
	selectors Selectors
}

// NewPageSource builds a selector-driven adapter for def.
func NewPageSource(def Definition, deps Deps) *PageSource {
	return &PageSource{base: newBase(def, deps), selectors: def.Selectors}
}

func (s *PageSource) ListRecent(ctx context.Context) ([]domain.RawItem, error) {
	doc, err := s.document(ctx, s.listingURL)
	if err != nil {
		return nil, s.listingError(err)
	}

	entries := doc.Find(s.selectors.Item)
	if entries.Length() == 0 {
		return nil, s.listingError(fmt.Errorf("%w: %q", coreerrors.ErrSelectorNotFound, s.selectors.Item))
	}

	items := make([]domain.RawItem, 0, entries.Length())

	entries.Each(func(_ int, entry *goquery.Selection) {
		item, err := s.parseEntry(entry)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping listing entry")
			return
		}

		items = append(items, item)
	})

	return items, nil
}

func (s *PageSource) FetchContent(ctx context.Context, itemURL string) (Content, error) {
	body, err := s.get(ctx, itemURL)
	if err != nil {
		return Content{}, err
	}

	if s.selectors.Body == "" {
		return readableContent(body, itemURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Content{}, fmt.Errorf("%w: parse %s: %w", coreerrors.ErrNoContent, itemURL, err)
	}

	return selectionContent(doc.Find(s.selectors.Body).First(), s.selectors.Body, itemURL)
}

func (s *PageSource) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
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

func (s *PageSource) parseEntry(entry *goquery.Selection) (domain.RawItem, error) {
	title := htmlutils.SingleLine(pick(entry, s.selectors.Title).Text())
	if title == "" {
		return domain.RawItem{}, fmt.Errorf("%w: title %q", coreerrors.ErrSelectorNotFound, s.selectors.Title)
	}

	href, _ := pick(entry, s.selectors.Link).Attr("href")

	link := resolveURL(s.listingURL, href)
	if link == "" {
		return domain.RawItem{}, fmt.Errorf("%w: link %q in %q", coreerrors.ErrSelectorNotFound, s.selectors.Link, title)
	}

	published, err := s.entryTime(entry)
	if err != nil {
		return domain.RawItem{}, fmt.Errorf("entry %q: %w", title, err)
	}

	var desc string
	if s.selectors.Description != "" {
		desc = htmlutils.SingleLine(entry.Find(s.selectors.Description).First().Text())
	}

	return domain.RawItem{Title: title, URL: link, Description: desc, PublishedAt: published}, nil
}

func (s *PageSource) entryTime(entry *goquery.Selection) (time.Time, error) {
	sel := pick(entry, s.selectors.Date)

	raw := strings.TrimSpace(sel.Text())
	if s.selectors.DateAttr != "" {
		raw, _ = sel.Attr(s.selectors.DateAttr)
		raw = strings.TrimSpace(raw)
	}

	return parseDate(raw, s.loc)
}

// pick selects the first match under entry, or entry itself for an empty selector.
func pick(entry *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return entry
	}

	return entry.Find(selector).First()
}

// parseDate parses raw leniently; values without a zone are read in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing", coreerrors.ErrUnparseableDate)
	}

	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", coreerrors.ErrUnparseableDate, raw, err)
	}

	return t, nil
}

func selectionContent(sel *goquery.Selection, selector, pageURL string) (Content, error) {
	if sel.Length() == 0 {
		return Content{}, fmt.Errorf("%w: body %q on %s", coreerrors.ErrSelectorNotFound, selector, pageURL)
	}

	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return Content{}, fmt.Errorf("%w: render %s: %w", coreerrors.ErrNoContent, pageURL, err)
	}

	content := Content{
		HTML: strings.TrimSpace(html),
		Text: htmlutils.CollapseWhitespace(sel.Text()),
	}

	if content.Empty() {
		return Content{}, fmt.Errorf("%w: %s", coreerrors.ErrNoContent, pageURL)
	}

	return content, nil
}
