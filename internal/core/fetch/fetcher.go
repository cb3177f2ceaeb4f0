// Package fetch is the shared outbound HTTP client used by source adapters
// and metadata clients. It applies a fixed User-Agent, a cookie jar,
// a request timeout and global plus per-host rate limits.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

const (
	defaultTimeout      = 60 * time.Second
	defaultUserAgent    = "Mozilla/5.0 (compatible; scholarfeed/1.0)"
	defaultMaxBodyBytes = 20 * 1024 * 1024
	maxRedirects        = 10
	globalLimiterBurst  = 5
	hostLimiterBurst    = 2
	errorBodyPreview    = 256

	headerUserAgent   = "User-Agent"
	headerCookie      = "Cookie"
	headerContentType = "Content-Type"
	formContentType   = "application/x-www-form-urlencoded"
)

// Options configures a Fetcher. Zero values fall back to defaults;
// zero rates disable the matching limiter.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64
	PerHostRPS     float64
	MaxBodyBytes   int64
	Jar            http.CookieJar
	Transport      http.RoundTripper
}

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	// Cookie is a raw "k=v; k2=v2" string sent verbatim.
	Cookie string
	Header http.Header
	Form   url.Values
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   *url.URL
}

type Fetcher struct {
	client        *http.Client
	userAgent     string
	maxBodyBytes  int64
	globalLimiter *rate.Limiter
	hostRPS       float64
	hostLimiters  map[string]*rate.Limiter
	mu            sync.RWMutex
}

// New builds a Fetcher. When opts.Jar is nil a public-suffix aware jar is created.
func New(opts Options) (*Fetcher, error) {
	jar := opts.Jar
	if jar == nil {
		j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}

		jar = j
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: opts.Transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
		userAgent:    userAgent,
		maxBodyBytes: maxBody,
		hostRPS:      opts.PerHostRPS,
		hostLimiters: make(map[string]*rate.Limiter),
	}

	if opts.RequestsPerSec > 0 {
		f.globalLimiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), globalLimiterBurst)
	}

	return f, nil
}

// Get fetches rawURL and returns the body of a 2xx response.
func (f *Fetcher) Get(ctx context.Context, rawURL, cookie string) ([]byte, error) {
	resp, err := f.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Cookie: cookie})
	if err != nil {
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// GetJSON fetches rawURL and decodes a 2xx JSON body into v.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, header http.Header, v any) error {
	resp, err := f.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Header: header})
	if err != nil {
		return err
	}

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode json from %s: %w", rawURL, err)
	}

	return nil
}

// PostForm submits an urlencoded form. Non-2xx responses are returned, not failed,
// so that login flows can inspect redirects and cookies.
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	return f.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Form: form})
}

// Cookies returns the jar cookies for rawURL as a raw cookie string.
func (f *Fetcher) Cookies(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || f.client.Jar == nil {
		return ""
	}

	cookies := f.client.Jar.Cookies(u)
	parts := make([]string, 0, len(cookies))

	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}

	return strings.Join(parts, "; ")
}

// Do executes req after waiting on the rate limiters. Transport failures wrap ErrNetwork.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	host := extractHost(req.URL)

	if err := f.wait(ctx, host); err != nil {
		return nil, err
	}

	httpReq, err := f.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		observability.FetchRequests.WithLabelValues(host, "error").Inc()

		return nil, fmt.Errorf("%w: %s %s: %w", coreerrors.ErrNetwork, httpReq.Method, req.URL, err)
	}
	defer resp.Body.Close()

	observability.FetchRequests.WithLabelValues(host, statusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", coreerrors.ErrNetwork, req.URL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   resp.Request.URL,
	}, nil
}

func (f *Fetcher) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpReq.Header.Set(headerUserAgent, f.userAgent)

	if req.Form != nil {
		httpReq.Header.Set(headerContentType, formContentType)
	}

	if req.Cookie != "" {
		httpReq.Header.Set(headerCookie, req.Cookie)
	}

	return httpReq, nil
}

func (f *Fetcher) wait(ctx context.Context, host string) error {
	if f.globalLimiter != nil {
		if err := f.globalLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("global rate limiter wait: %w", err)
		}
	}

	if limiter := f.hostLimiter(host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("host rate limiter wait: %w", err)
		}
	}

	return nil
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	if f.hostRPS <= 0 || host == "" {
		return nil
	}

	f.mu.RLock()
	limiter, exists := f.hostLimiters[host]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.hostLimiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(f.hostRPS), hostLimiterBurst)
	f.hostLimiters[host] = limiter

	return limiter
}

func checkStatus(resp *Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	preview := string(resp.Body)
	if len(preview) > errorBodyPreview {
		preview = preview[:errorBodyPreview]
	}

	return fmt.Errorf("%w: %w: %d %s", coreerrors.ErrNetwork, coreerrors.ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(preview))
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
