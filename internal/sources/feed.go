package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/htmlutils"
)

const maxDescriptionRunes = 500

// FeedSource lists an RSS or Atom feed and extracts article bodies with
// the reader-mode algorithm.
type FeedSource struct {
	base
	parser *gofeed.Parser
}

// NewFeedSource builds a feed adapter for def.
func NewFeedSource(def Definition, deps Deps) *FeedSource {
	return &FeedSource{base: newBase(def, deps), parser: gofeed.NewParser()}
}

func (s *FeedSource) ListRecent(ctx context.Context) ([]domain.RawItem, error) {
	body, err := s.get(ctx, s.listingURL)
	if err != nil {
		return nil, s.listingError(err)
	}

	feed, err := s.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, s.listingError(fmt.Errorf("parse feed: %w", err))
	}

	items := make([]domain.RawItem, 0, len(feed.Items))

	for _, item := range feed.Items {
		link := resolveURL(s.listingURL, item.Link)
		if link == "" || strings.TrimSpace(item.Title) == "" {
			s.logger.Debug().Str("title", item.Title).Msg("skipping feed item without link or title")
			continue
		}

		published, err := feedItemTime(item, s.loc)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", link).Str("raw_date", item.Published).Msg("skipping feed item with bad date")
			continue
		}

		items = append(items, domain.RawItem{
			Title:       htmlutils.SingleLine(item.Title),
			URL:         link,
			Description: feedDescription(item),
			PublishedAt: published,
		})
	}

	return items, nil
}

func (s *FeedSource) FetchContent(ctx context.Context, itemURL string) (Content, error) {
	body, err := s.get(ctx, itemURL)
	if err != nil {
		return Content{}, err
	}

	return readableContent(body, itemURL)
}

// feedItemTime prefers the parsed published date, then the updated date,
// then a lenient parse of the raw value.
func feedItemTime(item *gofeed.Item, loc *time.Location) (time.Time, error) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, nil
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, nil
	}

	raw := strings.TrimSpace(item.Published)
	if raw == "" {
		raw = strings.TrimSpace(item.Updated)
	}

	return parseDate(raw, loc)
}

func feedDescription(item *gofeed.Item) string {
	desc := item.Description
	if desc == "" {
		desc = item.Content
	}

	desc = htmlutils.SingleLine(htmlutils.StripHTMLTags(desc))

	runes := []rune(desc)
	if len(runes) > maxDescriptionRunes {
		return string(runes[:maxDescriptionRunes])
	}

	return desc
}

// readableContent runs reader-mode extraction over a fetched page.
func readableContent(body []byte, pageURL string) (Content, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Content{}, fmt.Errorf("%w: parse url %q: %w", coreerrors.ErrInvalidInput, pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Content{}, fmt.Errorf("%w: readability on %s: %w", coreerrors.ErrNoContent, pageURL, err)
	}

	content := Content{
		HTML: strings.TrimSpace(article.Content),
		Text: strings.TrimSpace(article.TextContent),
	}

	if content.Empty() {
		return Content{}, fmt.Errorf("%w: %s", coreerrors.ErrNoContent, pageURL)
	}

	return content, nil
}
