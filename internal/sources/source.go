// Package sources contains the compiled-in source adapters that list recent
// items of a site and fetch their content.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/fetch"
)

// Identity names a source and the site its articles belong to.
// Domain is the canonical site URL used as the web site record URL.
type Identity struct {
	Name     string
	Domain   string
	Language string
}

// Site returns the web site record owning articles of the source.
func (i Identity) Site() domain.WebSite {
	return domain.WebSite{Name: i.Name, URL: i.Domain}
}

// Content is the fetched body of a single item.
type Content struct {
	HTML string
	Text string
}

// Empty reports whether the content carries no usable body.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.HTML) == "" || strings.TrimSpace(c.Text) == ""
}

// Source is a pluggable adapter for one external site.
type Source interface {
	Identity() Identity
	Authenticate(ctx context.Context) (string, error)
	ListRecent(ctx context.Context) ([]domain.RawItem, error)
	FetchContent(ctx context.Context, itemURL string) (Content, error)
}

// Resetter is implemented by sources holding per-run session state.
type Resetter interface {
	Reset()
}

// Fetcher is the HTTP surface adapters rely on.
type Fetcher interface {
	Get(ctx context.Context, rawURL, cookie string) ([]byte, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) (*fetch.Response, error)
	Cookies(rawURL string) string
}

var _ Fetcher = (*fetch.Fetcher)(nil)

// Deps are the shared collaborators handed to every adapter.
type Deps struct {
	Fetcher Fetcher
	Logger  *zerolog.Logger
	// Location reads listing dates that carry no zone.
	Location *time.Location
}

// base carries the state shared by every adapter family.
type base struct {
	identity   Identity
	listingURL string
	fetcher    Fetcher
	auth       Authenticator
	loc        *time.Location
	logger     *zerolog.Logger
}

func newBase(def Definition, deps Deps) base {
	l := deps.Logger.With().Str("component", "source").Str("source", def.Name).Logger()

	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}

	return base{
		identity:   Identity{Name: def.Name, Domain: def.Domain, Language: def.Language},
		listingURL: def.ListingURL,
		fetcher:    deps.Fetcher,
		auth:       newAuthenticator(def, deps.Fetcher),
		loc:        loc,
		logger:     &l,
	}
}

func (b *base) Identity() Identity {
	return b.identity
}

// Authenticate returns the session cookie string, or "" for anonymous sources.
func (b *base) Authenticate(ctx context.Context) (string, error) {
	if b.auth == nil {
		return "", nil
	}

	return b.auth.Authenticate(ctx)
}

// Reset drops the cached session so the next run logs in again.
func (b *base) Reset() {
	if b.auth != nil {
		b.auth.Reset()
	}
}

func (b *base) get(ctx context.Context, rawURL string) ([]byte, error) {
	cookie, err := b.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return b.fetcher.Get(ctx, rawURL, cookie)
}

func (b *base) listingError(err error) error {
	return fmt.Errorf("%w: %s: %w", coreerrors.ErrListingFailed, b.identity.Name, err)
}

// resolveURL makes href absolute against the listing page.
func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return ref.String()
	}

	return b.ResolveReference(ref).String()
}
