package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/fetch"
)

const articlePage = `<html><head><title>Kernel scheduler rework</title></head><body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Kernel scheduler rework</h1>
<p>The scheduler maintainers have merged a substantial rework of the way tasks are placed on cores, aiming to reduce latency for interactive workloads.</p>
<p>Benchmarks published alongside the series show improvements of up to twenty percent on mixed desktop workloads while throughput on servers stays flat.</p>
<p>Further changes are expected in the next merge window, including better handling of heterogeneous cores on laptops and phones.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func testDeps(t *testing.T) Deps {
	t.Helper()

	f, err := fetch.New(fetch.Options{UserAgent: "scholarfeed-test/1.0", Timeout: 5 * time.Second})
	require.NoError(t, err)

	logger := zerolog.Nop()

	return Deps{Fetcher: f, Logger: &logger, Location: time.UTC}
}

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestFeedSource_ListRecent(t *testing.T) {
	const rss = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>News</title>
<item><title>First  story</title><link>/news/1</link><description>&lt;p&gt;Short &lt;b&gt;intro&lt;/b&gt;&lt;/p&gt;</description><pubDate>Mon, 13 Oct 2025 08:00:00 GMT</pubDate></item>
<item><title>Undated story</title><link>/news/2</link><pubDate>someday</pubDate></item>
<item><title></title><link>/news/3</link><pubDate>Mon, 13 Oct 2025 09:00:00 GMT</pubDate></item>
<item><title>Second story</title><link>https://other.example/4</link><pubDate>Sun, 12 Oct 2025 23:00:00 GMT</pubDate></item>
</channel></rss>`

	srv := serve(t, map[string]string{"/feed": rss})
	src := NewFeedSource(Definition{Name: "news", Domain: srv.URL, ListingURL: srv.URL + "/feed"}, testDeps(t))

	items, err := src.ListRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First story", items[0].Title)
	assert.Equal(t, srv.URL+"/news/1", items[0].URL)
	assert.Equal(t, "Short intro", items[0].Description)
	assert.Equal(t, time.Date(2025, 10, 13, 8, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())
	assert.Equal(t, "https://other.example/4", items[1].URL)
}

func TestFeedSource_ListingFailure(t *testing.T) {
	srv := serve(t, map[string]string{"/broken": "this is not a feed"})
	deps := testDeps(t)

	missing := NewFeedSource(Definition{Name: "news", ListingURL: srv.URL + "/missing"}, deps)
	_, err := missing.ListRecent(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrListingFailed)
	assert.ErrorIs(t, err, coreerrors.ErrNetwork)

	broken := NewFeedSource(Definition{Name: "news", ListingURL: srv.URL + "/broken"}, deps)
	_, err = broken.ListRecent(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, coreerrors.ErrListingFailed)
}

func TestFeedSource_FetchContent(t *testing.T) {
	srv := serve(t, map[string]string{
		"/article": articlePage,
		"/empty":   `<html><body></body></html>`,
	})
	src := NewFeedSource(Definition{Name: "news", ListingURL: srv.URL + "/feed"}, testDeps(t))

	content, err := src.FetchContent(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Contains(t, content.Text, "scheduler maintainers")
	assert.Contains(t, content.HTML, "<p>")
	assert.NotContains(t, content.Text, "Copyright")

	_, err = src.FetchContent(context.Background(), srv.URL+"/empty")
	assert.ErrorIs(t, err, coreerrors.ErrNoContent)
}

func TestPageSource_ListRecent(t *testing.T) {
	const listing = `<html><body>
<div class="post"><h2><a href="/p/1">Rust in the kernel</a></h2><span class="lead">Progress report</span><time datetime="2025-10-13T10:00:00Z">Oct 13</time></div>
<div class="post"><h2><a href="/p/2">No date here</a></h2></div>
<div class="post"><h2></h2><time datetime="2025-10-13T11:00:00Z">Oct 13</time></div>
<div class="post"><h2><a href="/p/3">Zero trust at scale</a></h2><time datetime="2025-10-12">Oct 12</time></div>
</body></html>`

	srv := serve(t, map[string]string{"/blog": listing})
	def := Definition{
		Name:       "blog",
		ListingURL: srv.URL + "/blog",
		Selectors: Selectors{
			Item:        "div.post",
			Title:       "h2",
			Link:        "h2 a",
			Description: ".lead",
			Date:        "time",
			DateAttr:    "datetime",
		},
	}

	items, err := NewPageSource(def, testDeps(t)).ListRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Rust in the kernel", items[0].Title)
	assert.Equal(t, srv.URL+"/p/1", items[0].URL)
	assert.Equal(t, "Progress report", items[0].Description)
	assert.Equal(t, time.Date(2025, 10, 13, 10, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())
	assert.Equal(t, time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC), items[1].PublishedAt.UTC())
}

func TestPageSource_SelectorNotFound(t *testing.T) {
	srv := serve(t, map[string]string{
		"/blog": `<html><body><p>redesigned</p></body></html>`,
		"/p/1":  `<html><body><div class="other">text</div></body></html>`,
	})
	def := Definition{
		Name:       "blog",
		ListingURL: srv.URL + "/blog",
		Selectors:  Selectors{Item: "div.post", Title: "h2", Link: "a", Body: "div.entry"},
	}
	src := NewPageSource(def, testDeps(t))

	_, err := src.ListRecent(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrListingFailed)
	assert.ErrorIs(t, err, coreerrors.ErrSelectorNotFound)

	_, err = src.FetchContent(context.Background(), srv.URL+"/p/1")
	assert.ErrorIs(t, err, coreerrors.ErrSelectorNotFound)
}

func TestPageSource_FetchContentWithBodySelector(t *testing.T) {
	srv := serve(t, map[string]string{
		"/p/1": `<html><body><div class="entry"><p>Body   text</p></div></body></html>`,
		"/p/2": `<html><body><div class="entry">   </div></body></html>`,
	})
	def := Definition{Name: "blog", ListingURL: srv.URL, Selectors: Selectors{Item: "div", Body: "div.entry"}}
	src := NewPageSource(def, testDeps(t))

	content, err := src.FetchContent(context.Background(), srv.URL+"/p/1")
	require.NoError(t, err)
	assert.Equal(t, "Body text", content.Text)
	assert.Equal(t, `<div class="entry"><p>Body   text</p></div>`, content.HTML)

	_, err = src.FetchContent(context.Background(), srv.URL+"/p/2")
	assert.ErrorIs(t, err, coreerrors.ErrNoContent)
}

func TestArxivListingSource(t *testing.T) {
	const listing = `<html><body>
<h3>Showing new listings for Tuesday, 14 October 2025</h3>
<h3>New submissions (showing 2 of 2 entries)</h3>
<dl id="articles">
<dt><a href="/abs/2510.00001" title="Abstract">arXiv:2510.00001</a></dt>
<dd><div class="list-title mathjax"><span class="descriptor">Title:</span> Sparse   Attention for Long Contexts</div>
<p class="mathjax">We propose a sparse attention scheme.</p></dd>
<dt><a href="/abs/2510.00002" title="Abstract">arXiv:2510.00002</a></dt>
<dd><div class="list-title mathjax"><span class="descriptor">Title:</span> Prompt Injection Benchmarks</div></dd>
</dl>
<h3>Replacement submissions (showing 1 of 1 entries)</h3>
<dl id="articles">
<dt><a href="/abs/2401.09999" title="Abstract">arXiv:2401.09999</a></dt>
<dd><div class="list-title mathjax"><span class="descriptor">Title:</span> Old Paper v3</div></dd>
</dl>
</body></html>`

	const abs = `<html><body><blockquote class="abstract mathjax"><span class="descriptor">Abstract:</span> We propose a sparse attention scheme that scales.</blockquote></body></html>`

	srv := serve(t, map[string]string{"/list/cs.AI/new": listing, "/abs/2510.00001": abs})
	src := NewArxivListingSource(Definition{Name: "arxiv", ListingURL: srv.URL + "/list/cs.AI/new"}, testDeps(t))

	items, err := src.ListRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	day := time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sparse Attention for Long Contexts", items[0].Title)
	assert.Equal(t, srv.URL+"/abs/2510.00001", items[0].URL)
	assert.Equal(t, "We propose a sparse attention scheme.", items[0].Description)
	assert.True(t, items[0].PublishedAt.Equal(day))
	assert.Equal(t, "Prompt Injection Benchmarks", items[1].Title)

	content, err := src.FetchContent(context.Background(), items[0].URL)
	require.NoError(t, err)
	assert.Equal(t, "We propose a sparse attention scheme that scales.", content.Text)
	assert.NotContains(t, content.HTML, "descriptor")
}

func TestArxivListingSource_MissingDate(t *testing.T) {
	srv := serve(t, map[string]string{"/list": `<html><body><dl><dt></dt></dl></body></html>`})
	src := NewArxivListingSource(Definition{Name: "arxiv", ListingURL: srv.URL + "/list"}, testDeps(t))

	_, err := src.ListRecent(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrListingFailed)
	assert.ErrorIs(t, err, coreerrors.ErrSelectorNotFound)
}

func TestFormLogin_CachesCookieUntilReset(t *testing.T) {
	var logins, listings atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			logins.Add(1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostForm.Get("user"))
			assert.Equal(t, "secret", r.PostForm.Get("pass"))
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s3ss10n", Path: "/"})
		case "/feed":
			listings.Add(1)
			assert.Contains(t, r.Header.Get("Cookie"), "sid=s3ss10n")
			_, _ = w.Write([]byte(`<rss version="2.0"><channel><title>x</title></channel></rss>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	def := Definition{
		Name:       "members",
		ListingURL: srv.URL + "/feed",
		Login: &LoginForm{
			URL:           srv.URL + "/login",
			UsernameField: "user",
			PasswordField: "pass",
			Username:      "alice",
			Password:      "secret",
		},
	}
	src := NewFeedSource(def, testDeps(t))

	for range 2 {
		_, err := src.ListRecent(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), logins.Load())
	assert.Equal(t, int32(2), listings.Load())

	src.Reset()

	cookie, err := src.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sid=s3ss10n", cookie)
	assert.Equal(t, int32(2), logins.Load())
}

func TestFormLogin_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/denied" {
			http.Error(w, "bad credentials", http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	deps := testDeps(t)
	form := LoginForm{UsernameField: "u", PasswordField: "p", Username: "a", Password: "b"}

	form.URL = srv.URL + "/denied"
	_, err := NewFormLogin(form, deps.Fetcher).Authenticate(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrAuthFailed)

	form.URL = srv.URL + "/nocookie"
	_, err = NewFormLogin(form, deps.Fetcher).Authenticate(context.Background())
	assert.ErrorIs(t, err, coreerrors.ErrAuthFailed)
}

func TestAnonymousAndStaticCookie(t *testing.T) {
	deps := testDeps(t)

	anon := NewFeedSource(Definition{Name: "a", ListingURL: "http://example.invalid"}, deps)
	cookie, err := anon.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cookie)

	static := NewFeedSource(Definition{Name: "b", ListingURL: "http://example.invalid", Cookie: "token=1"}, deps)
	cookie, err = static.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token=1", cookie)

	loginWithoutCredentials := NewFeedSource(Definition{
		Name:       "c",
		ListingURL: "http://example.invalid",
		Login:      &LoginForm{URL: "http://example.invalid/login"},
	}, deps)
	cookie, err = loginWithoutCredentials.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cookie)
}

func TestContentEmpty(t *testing.T) {
	assert.True(t, Content{}.Empty())
	assert.True(t, Content{HTML: "<p></p>", Text: "  "}.Empty())
	assert.False(t, Content{HTML: "<p>x</p>", Text: "x"}.Empty())
	assert.True(t, strings.HasPrefix(Identity{Name: "n", Domain: "https://n.example"}.Site().URL, "https://"))
}
