package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

// Authenticator yields the cookie string sent with every request of a source.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
	Reset()
}

// LoginForm describes a credential form posted once per run.
type LoginForm struct {
	URL           string
	UsernameField string
	PasswordField string
	Username      string
	Password      string
	// CookieURL selects the jar cookies to send; defaults to URL.
	CookieURL string
	Extra     map[string]string
}

// HasCredentials reports whether both username and password are set.
func (f LoginForm) HasCredentials() bool {
	return f.Username != "" && f.Password != ""
}

// StaticCookie is a preconfigured session cookie string.
type StaticCookie string

func (c StaticCookie) Authenticate(context.Context) (string, error) {
	return string(c), nil
}

func (StaticCookie) Reset() {}

// FormLogin posts credentials on first use and caches the session cookie
// until Reset.
type FormLogin struct {
	form    LoginForm
	fetcher Fetcher

	mu     sync.Mutex
	cookie string
}

// NewFormLogin builds a form authenticator on top of the shared fetcher jar.
func NewFormLogin(form LoginForm, fetcher Fetcher) *FormLogin {
	return &FormLogin{form: form, fetcher: fetcher}
}

func (l *FormLogin) Authenticate(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cookie != "" {
		return l.cookie, nil
	}

	values := url.Values{}
	values.Set(l.form.UsernameField, l.form.Username)
	values.Set(l.form.PasswordField, l.form.Password)

	for k, v := range l.form.Extra {
		values.Set(k, v)
	}

	resp, err := l.fetcher.PostForm(ctx, l.form.URL, values)
	if err != nil {
		return "", fmt.Errorf("%w: post %s: %w", coreerrors.ErrAuthFailed, l.form.URL, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: %s returned %d", coreerrors.ErrAuthFailed, l.form.URL, resp.StatusCode)
	}

	cookieURL := l.form.CookieURL
	if cookieURL == "" {
		cookieURL = l.form.URL
	}

	cookie := l.fetcher.Cookies(cookieURL)
	if cookie == "" {
		return "", fmt.Errorf("%w: no session cookie for %s", coreerrors.ErrAuthFailed, cookieURL)
	}

	l.cookie = cookie

	return cookie, nil
}

func (l *FormLogin) Reset() {
	l.mu.Lock()
	l.cookie = ""
	l.mu.Unlock()
}

func newAuthenticator(def Definition, fetcher Fetcher) Authenticator {
	switch {
	case def.Login != nil && def.Login.HasCredentials():
		return NewFormLogin(*def.Login, fetcher)
	case def.Cookie != "":
		return StaticCookie(def.Cookie)
	default:
		return nil
	}
}
