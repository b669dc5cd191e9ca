package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docnest/internal/config"
	"docnest/internal/embedding"
	"docnest/internal/retrieval"
)

type stubStore struct{}

func (s *stubStore) EnsureCollection(ctx context.Context, collection string) error { return nil }
func (s *stubStore) UpsertObjects(ctx context.Context, collection string, objects []embedding.Object) error {
	return nil
}
func (s *stubStore) DeleteCollection(ctx context.Context, collection string) error { return nil }
func (s *stubStore) SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]retrieval.Result, error) {
	return nil, nil
}
func (s *stubStore) CountChunks(ctx context.Context, collection string) (int, error) { return 0, nil }

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

type stubLLM struct{}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "answer", nil
}

type stubPublisher struct{}

func (s *stubPublisher) Publish(topic string, body []byte) error { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ChunkSize:            1000,
		ChunkOverlap:         200,
		CharsPerToken:        4,
		TokensPerCredit:      1000,
		MaxDataSources:       20,
		SearchLimitPerSource: 5,
		SearchGlobalLimit:    5,
		ServerPort:           8081,
		QueryLogPath:         t.TempDir() + "/query.log",
		UploadDir:            t.TempDir(),
		MaxUploadSizeMB:      50,
	}

	a, err := New(cfg, db, &stubStore{}, &stubEmbedder{}, &stubLLM{}, &stubPublisher{})
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	a := newTestApp(t)
	assert.NotNil(t, a.Handler)
	assert.NotNil(t, a.ContentService)
	assert.NotNil(t, a.LifecycleConsumer)
}

func TestHealthRoute(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutesRequireIdentity(t *testing.T) {
	a := newTestApp(t)

	for _, route := range []string{"/contents?notebook_id=nb1", "/account", "/stats", "/notebooks"} {
		req := httptest.NewRequest("GET", route, nil)
		w := httptest.NewRecorder()
		a.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "route %s should demand a user id", route)
	}
}
