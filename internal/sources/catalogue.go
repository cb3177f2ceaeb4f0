package sources

// Kind selects the adapter family of a definition.
type Kind string

const (
	KindFeed  Kind = "feed"
	KindPage  Kind = "page"
	KindArxiv Kind = "arxiv"
)

// Definition is the static description of one compiled-in source.
type Definition struct {
	Name       string
	Domain     string
	Language   string
	Kind       Kind
	ListingURL string
	Selectors  Selectors
	Cookie     string
	Login      *LoginForm
	Disabled   bool
}

// Catalogue returns the compiled-in sources in visiting order.
func Catalogue() []Definition {
	return []Definition{
		{
			Name:       "ars-technica",
			Domain:     "https://arstechnica.com",
			Language:   "en",
			Kind:       KindFeed,
			ListingURL: "https://feeds.arstechnica.com/arstechnica/technology-lab",
		},
		{
			Name:       "the-register",
			Domain:     "https://www.theregister.com",
			Language:   "en",
			Kind:       KindFeed,
			ListingURL: "https://www.theregister.com/headlines.atom",
		},
		{
			Name:       "lwn",
			Domain:     "https://lwn.net",
			Language:   "en",
			Kind:       KindFeed,
			ListingURL: "https://lwn.net/headlines/rss",
			Login: &LoginForm{
				URL:           "https://lwn.net/Login/",
				UsernameField: "uname",
				PasswordField: "pword",
				CookieURL:     "https://lwn.net/",
			},
		},
		{
			Name:       "gigazine",
			Domain:     "https://gigazine.net",
			Language:   "ja",
			Kind:       KindFeed,
			ListingURL: "https://gigazine.net/news/rss_2.0/",
		},
		{
			Name:       "github-blog",
			Domain:     "https://github.blog",
			Language:   "en",
			Kind:       KindPage,
			ListingURL: "https://github.blog/latest/",
			Selectors: Selectors{
				Item:        "article",
				Title:       "h3",
				Link:        "a[href]",
				Description: "p",
				Date:        "time",
				DateAttr:    "datetime",
				Body:        "section.post-content, article .entry-content",
			},
		},
		{
			Name:       "arxiv-cs-ai",
			Domain:     "https://arxiv.org",
			Language:   "en",
			Kind:       KindArxiv,
			ListingURL: "https://arxiv.org/list/cs.AI/new",
		},
		{
			Name:       "arxiv-cs-cr",
			Domain:     "https://arxiv.org",
			Language:   "en",
			Kind:       KindArxiv,
			ListingURL: "https://arxiv.org/list/cs.CR/new",
		},
	}
}
