package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func servePage(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	body := strings.Repeat("Useful article text about interesting things. ", 10)

	t.Run("Extracts title and text", func(t *testing.T) {
		ts := servePage(t, `<html><head><title>My Article</title></head><body><p>`+body+`</p></body></html>`)

		page, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "My Article", page.Title)
		assert.Contains(t, page.Content, "Useful article text")
		assert.Equal(t, ts.URL, page.URL)
	})

	t.Run("Strips scripts, styles and chrome", func(t *testing.T) {
		ts := servePage(t, `<html><body>
			<nav>Home | About | Contact</nav>
			<script>var tracking = "evil";</script>
			<style>.hidden { display: none; }</style>
			<article>`+body+`</article>
			<footer>Copyright 2026</footer>
		</body></html>`)

		page, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		require.NoError(t, err)
		assert.NotContains(t, page.Content, "tracking")
		assert.NotContains(t, page.Content, "display: none")
		assert.NotContains(t, page.Content, "Home | About")
		assert.NotContains(t, page.Content, "Copyright 2026")
	})

	t.Run("Collapses whitespace", func(t *testing.T) {
		ts := servePage(t, `<html><body><p>`+body+`</p>

			<p>Second    paragraph		with   gaps.</p></body></html>`)

		page, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		require.NoError(t, err)
		assert.Contains(t, page.Content, "Second paragraph with gaps.")
		assert.NotContains(t, page.Content, "  ")
	})

	t.Run("Missing title falls back to domain", func(t *testing.T) {
		ts := servePage(t, `<html><body><p>`+body+`</p></body></html>`)

		page, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, page.Domain, page.Title)
		assert.NotEmpty(t, page.Domain)
	})

	t.Run("Thin page rejected", func(t *testing.T) {
		ts := servePage(t, `<html><body><p>Almost nothing.</p></body></html>`)

		_, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("Non-200 status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer ts.Close()

		_, err := NewLoaderWithClient(ts.Client()).Load(ctx, ts.URL)
		assert.ErrorContains(t, err, "404")
	})

	t.Run("Rejects non-http schemes", func(t *testing.T) {
		l := NewLoader()
		_, err := l.Load(ctx, "ftp://example.com/file")
		assert.ErrorIs(t, err, ErrSchemeNotSupported)

		_, err = l.Load(ctx, "file:///etc/passwd")
		assert.ErrorIs(t, err, ErrSchemeNotSupported)
	})
}
