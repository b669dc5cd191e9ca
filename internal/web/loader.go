package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrSchemeNotSupported = errors.New("only HTTP and HTTPS URLs are supported")
	ErrNoContent          = errors.New("unable to extract meaningful content from the webpage")
)

// Pages with less visible text than this are link farms or error pages,
// not something worth indexing.
const minPageLength = 100

var whitespaceRe = regexp.MustCompile(`\s+`)

// Page is the scraped result of one URL.
type Page struct {
	URL     string
	Domain  string
	Title   string
	Content string
}

// Loader fetches a webpage and strips it down to readable text.
type Loader struct {
	client *http.Client
}

func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: 30 * time.Second}}
}

// NewLoaderWithClient lets tests inject a client.
func NewLoaderWithClient(client *http.Client) *Loader {
	return &Loader{client: client}
}

// Load fetches the page, drops non-content markup and collapses whitespace.
// The title falls back to the hostname when the page has none.
func (l *Loader) Load(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, ErrSchemeNotSupported
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "docnest/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer, iframe").Remove()

	content := whitespaceRe.ReplaceAllString(doc.Find("body").Text(), " ")
	content = strings.TrimSpace(content)
	if len(content) < minPageLength {
		return nil, ErrNoContent
	}

	domain := strings.TrimPrefix(parsed.Hostname(), "www.")
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = domain
	}

	return &Page{
		URL:     rawURL,
		Domain:  domain,
		Title:   title,
		Content: content,
	}, nil
}
