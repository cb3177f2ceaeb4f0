package scholar

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/lueurxax/scholarfeed/internal/platform/htmlutils"
)

const (
	arxivNamespace  = "arxiv"
	arxivPDFBaseURL = "https://arxiv.org/pdf/"
)

var (
	arxivIDExpr     = regexp.MustCompile(`arxiv\.org/abs/(.+)$`)
	arxivVersionExp = regexp.MustCompile(`v\d+$`)
	querySanitizer  = regexp.MustCompile(`[^\pL\pN\s-]+`)
)

// Getter fetches a URL body through the shared fetcher.
type Getter interface {
	Get(ctx context.Context, rawURL, cookie string) ([]byte, error)
}

// ArxivEntry is one candidate returned by the arXiv API.
type ArxivEntry struct {
	ID              string
	Title           string
	Summary         string
	Authors         []string
	PublishedAt     time.Time
	PrimaryCategory string
	DOI             string
	AbsURL          string
	PDFURL          string
}

// ArxivClient searches the arXiv Atom API by title.
type ArxivClient struct {
	getter     Getter
	apiURL     string
	maxResults int
	parser     *gofeed.Parser
}

func NewArxivClient(getter Getter, apiURL string, maxResults int) *ArxivClient {
	if maxResults <= 0 {
		maxResults = 5
	}

	return &ArxivClient{getter: getter, apiURL: apiURL, maxResults: maxResults, parser: gofeed.NewParser()}
}

// SearchByTitle returns candidates in the API's relevance order.
func (c *ArxivClient) SearchByTitle(ctx context.Context, title string) ([]ArxivEntry, error) {
	terms := strings.Join(strings.Fields(querySanitizer.ReplaceAllString(title, " ")), " ")
	if terms == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("search_query", fmt.Sprintf("ti:%q", terms))
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(c.maxResults))

	body, err := c.getter.Get(ctx, c.apiURL+"?"+q.Encode(), "")
	if err != nil {
		return nil, fmt.Errorf("arxiv search: %w", err)
	}

	feed, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	entries := make([]ArxivEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, arxivEntry(item))
	}

	return entries, nil
}

func arxivEntry(item *gofeed.Item) ArxivEntry {
	id := arxivID(item.GUID)
	if id == "" {
		id = arxivID(item.Link)
	}

	entry := ArxivEntry{
		ID:              id,
		Title:           htmlutils.SingleLine(item.Title),
		Summary:         htmlutils.SingleLine(item.Description),
		PrimaryCategory: extensionAttr(item.Extensions, "primary_category", "term"),
		DOI:             extensionValue(item.Extensions, "doi"),
		AbsURL:          item.Link,
	}

	if id != "" {
		entry.PDFURL = arxivPDFBaseURL + id
	}

	if entry.Summary == "" {
		entry.Summary = htmlutils.SingleLine(item.Content)
	}

	if item.PublishedParsed != nil {
		entry.PublishedAt = *item.PublishedParsed
	}

	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			entry.Authors = append(entry.Authors, a.Name)
		}
	}

	return entry
}

// arxivID extracts "2510.00001v2" from an abs URL.
func arxivID(raw string) string {
	m := arxivIDExpr.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}

	return m[1]
}

// BareArxivID strips the version suffix from an arXiv id.
func BareArxivID(id string) string {
	return arxivVersionExp.ReplaceAllString(id, "")
}

func extensionValue(exts ext.Extensions, name string) string {
	if e := firstExtension(exts, name); e != nil {
		return strings.TrimSpace(e.Value)
	}

	return ""
}

func extensionAttr(exts ext.Extensions, name, attr string) string {
	if e := firstExtension(exts, name); e != nil {
		return strings.TrimSpace(e.Attrs[attr])
	}

	return ""
}

func firstExtension(exts ext.Extensions, name string) *ext.Extension {
	values := exts[arxivNamespace][name]
	if len(values) == 0 {
		return nil
	}

	return &values[0]
}
