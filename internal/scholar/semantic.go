// Package scholar resolves paper titles against the bibliographic service,
// the arXiv API and the PDF text extractor.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/fetch"
)

const (
	semanticMatchPath = "/paper/search/match"
	semanticFields    = "paperId,title,abstract,url,year,publicationDate,venue,journal," +
		"citationCount,referenceCount,influentialCitationCount,externalIds," +
		"authors.authorId,authors.name,authors.hIndex"
	apiKeyHeader = "x-api-key"
)

// Doer issues a raw request through the shared fetcher.
type Doer interface {
	Do(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

var _ Doer = (*fetch.Fetcher)(nil)

// BibAuthor is an author as reported by the bibliographic service.
type BibAuthor struct {
	ID     string
	Name   string
	HIndex int
}

// BibRecord is the bibliographic metadata of one paper.
type BibRecord struct {
	PaperID                  string
	Title                    string
	Abstract                 string
	Authors                  []BibAuthor
	URL                      string
	PublishedAt              time.Time
	Journal                  string
	CitationCount            int
	ReferenceCount           int
	InfluentialCitationCount int
	DOI                      string
	ArxivID                  string
}

// SemanticScholarClient queries the Semantic Scholar graph API.
type SemanticScholarClient struct {
	doer    Doer
	baseURL string
	apiKey  string
}

func NewSemanticScholarClient(doer Doer, baseURL, apiKey string) *SemanticScholarClient {
	return &SemanticScholarClient{doer: doer, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type semanticAuthor struct {
	AuthorID *string `json:"authorId"`
	Name     string  `json:"name"`
	HIndex   *int    `json:"hIndex"`
}

type semanticJournal struct {
	Name string `json:"name"`
}

type semanticPaper struct {
	PaperID                  string           `json:"paperId"`
	Title                    string           `json:"title"`
	Abstract                 *string          `json:"abstract"`
	URL                      string           `json:"url"`
	Year                     *int             `json:"year"`
	PublicationDate          *string          `json:"publicationDate"`
	Venue                    string           `json:"venue"`
	Journal                  *semanticJournal `json:"journal"`
	CitationCount            int              `json:"citationCount"`
	ReferenceCount           int              `json:"referenceCount"`
	InfluentialCitationCount int              `json:"influentialCitationCount"`
	ExternalIDs              map[string]any   `json:"externalIds"`
	Authors                  []semanticAuthor `json:"authors"`
}

type semanticMatchResponse struct {
	Data []semanticPaper `json:"data"`
}

// SearchByTitle returns the service's best title match, or ErrNotFound.
func (c *SemanticScholarClient) SearchByTitle(ctx context.Context, title string) (BibRecord, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("fields", semanticFields)

	header := http.Header{}
	if c.apiKey != "" {
		header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.doer.Do(ctx, fetch.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + semanticMatchPath + "?" + q.Encode(),
		Header: header,
	})
	if err != nil {
		return BibRecord{}, fmt.Errorf("semantic scholar search: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return BibRecord{}, fmt.Errorf("semantic scholar %q: %w", title, coreerrors.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return BibRecord{}, fmt.Errorf("%w: semantic scholar returned %d", coreerrors.ErrUnexpectedStatus, resp.StatusCode)
	}

	var body semanticMatchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return BibRecord{}, fmt.Errorf("decode semantic scholar response: %w", err)
	}

	if len(body.Data) == 0 {
		return BibRecord{}, fmt.Errorf("semantic scholar %q: %w", title, coreerrors.ErrNotFound)
	}

	return body.Data[0].record(), nil
}

func (p semanticPaper) record() BibRecord {
	rec := BibRecord{
		PaperID:                  p.PaperID,
		Title:                    strings.TrimSpace(p.Title),
		URL:                      p.URL,
		PublishedAt:              p.published(),
		Journal:                  p.journal(),
		CitationCount:            p.CitationCount,
		ReferenceCount:           p.ReferenceCount,
		InfluentialCitationCount: p.InfluentialCitationCount,
		DOI:                      externalID(p.ExternalIDs, "DOI"),
		ArxivID:                  externalID(p.ExternalIDs, "ArXiv"),
	}

	if p.Abstract != nil {
		rec.Abstract = strings.TrimSpace(*p.Abstract)
	}

	for _, a := range p.Authors {
		author := BibAuthor{Name: strings.TrimSpace(a.Name)}
		if a.AuthorID != nil {
			author.ID = *a.AuthorID
		}

		if a.HIndex != nil {
			author.HIndex = *a.HIndex
		}

		rec.Authors = append(rec.Authors, author)
	}

	return rec
}

func (p semanticPaper) published() time.Time {
	if p.PublicationDate != nil {
		if t, err := time.Parse(time.DateOnly, *p.PublicationDate); err == nil {
			return t
		}
	}

	if p.Year != nil && *p.Year > 0 {
		return time.Date(*p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	return time.Time{}
}

func (p semanticPaper) journal() string {
	if p.Journal != nil && strings.TrimSpace(p.Journal.Name) != "" {
		return strings.TrimSpace(p.Journal.Name)
	}

	return strings.TrimSpace(p.Venue)
}

// externalID reads a string id; the service mixes string and numeric values.
func externalID(ids map[string]any, key string) string {
	switch v := ids[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
