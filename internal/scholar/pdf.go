package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// JSONGetter decodes a JSON response through the shared fetcher.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error
}

// Section is one titled block of extracted PDF text.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// PDFExtractorClient calls the PDF-to-sections extraction service.
type PDFExtractorClient struct {
	getter  JSONGetter
	baseURL string
}

func NewPDFExtractorClient(getter JSONGetter, baseURL string) *PDFExtractorClient {
	return &PDFExtractorClient{getter: getter, baseURL: baseURL}
}

type extractResponse struct {
	Sections []Section `json:"sections"`
}

// Extract returns the sections of the PDF at pdfURL in document order.
func (c *PDFExtractorClient) Extract(ctx context.Context, pdfURL string) ([]Section, error) {
	q := url.Values{}
	q.Set("url", pdfURL)

	var resp extractResponse
	if err := c.getter.GetJSON(ctx, c.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("extract pdf %s: %w", pdfURL, err)
	}

	return resp.Sections, nil
}

// JoinSections concatenates section bodies with blank lines, skipping
// reference lists and empty sections.
func JoinSections(sections []Section) string {
	parts := make([]string, 0, len(sections))

	for _, s := range sections {
		text := strings.TrimSpace(s.Text)
		if text == "" || strings.Contains(strings.ToLower(s.Title), "reference") {
			continue
		}

		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n")
}
