package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "docnest/internal/adapter/weaviate"
	"docnest/internal/embedding"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func TestStore_EnsureCollection_CreatesWhenMissing(t *testing.T) {
	created := false
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/meta":
			w.Write([]byte(`{"version": "1.19.0"}`))
		case r.URL.Path == "/v1/schema/Content_src1" && r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1/schema" && r.Method == http.MethodPost:
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "Content_src1", body["class"])
			assert.Equal(t, "none", body["vectorizer"])
			created = true
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(body)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.EnsureCollection(context.Background(), "Content_src1")
	assert.NoError(t, err)
	assert.True(t, created)
}

func TestStore_EnsureCollection_SkipsWhenPresent(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/meta":
			w.Write([]byte(`{"version": "1.19.0"}`))
		case r.URL.Path == "/v1/schema/Content_src1" && r.Method == http.MethodGet:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"class": "Content_src1"}`))
		case r.URL.Path == "/v1/schema" && r.Method == http.MethodPost:
			t.Error("should not create an existing class")
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	assert.NoError(t, store.EnsureCollection(context.Background(), "Content_src1"))
}

func TestStore_UpsertObjects(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		objects := body["objects"].([]interface{})
		assert.Len(t, objects, 2)

		first := objects[0].(map[string]interface{})
		assert.Equal(t, "Content_src1", first["class"])
		props := first["properties"].(map[string]interface{})
		assert.Equal(t, "chunk one", props["content"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"result": {}}, {"result": {}}]`))
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.UpsertObjects(context.Background(), "Content_src1", []embedding.Object{
		{Vector: []float32{0.1}, Properties: map[string]interface{}{"content": "chunk one", "chunkIndex": 0}},
		{Vector: []float32{0.2}, Properties: map[string]interface{}{"content": "chunk two", "chunkIndex": 1}},
	})
	assert.NoError(t, err)
}

func TestStore_UpsertObjects_ReportsPerObjectError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"result": {"errors": {"error": [{"message": "invalid vector length"}]}}}]`))
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	err := store.UpsertObjects(context.Background(), "Content_src1", []embedding.Object{
		{Vector: []float32{0.1}, Properties: map[string]interface{}{"content": "chunk"}},
	})
	assert.ErrorContains(t, err, "invalid vector length")
}

func TestStore_DeleteCollection(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/schema/Content_src1", r.URL.Path)
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	assert.NoError(t, store.DeleteCollection(context.Background(), "Content_src1"))
}

func TestStore_SimilaritySearch(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"Content_src1": []interface{}{
						map[string]interface{}{
							"content":    "the answer lives here",
							"sourceId":   "src1",
							"chunkIndex": 3.0,
							"title":      "Handbook",
							"sourceKind": "file",
							"_additional": map[string]interface{}{
								"certainty": 0.91,
							},
						},
						map[string]interface{}{
							"content":    "a weaker match",
							"sourceId":   "src1",
							"chunkIndex": 0.0,
							"title":      "Handbook",
							"sourceKind": "file",
							"_additional": map[string]interface{}{
								"certainty": "0.62",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.SimilaritySearch(context.Background(), "Content_src1", []float32{0.1, 0.2}, 5)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "the answer lives here", results[0].Content)
	assert.Equal(t, 3, results[0].ChunkIndex)
	assert.Equal(t, float32(0.91), results[0].Score)
	assert.Equal(t, "file", results[0].SourceKind)
	// String-encoded certainty still parses.
	assert.Equal(t, float32(0.62), results[1].Score)
}

func TestStore_SimilaritySearch_GraphQLError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		resp := map[string]interface{}{
			"errors": []interface{}{
				map[string]interface{}{"message": "class Content_missing not found"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	_, err := store.SimilaritySearch(context.Background(), "Content_missing", []float32{0.1}, 5)
	assert.ErrorContains(t, err, "not found")
}

func TestStore_CountChunks(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Aggregate": map[string]interface{}{
					"Content_src1": []interface{}{
						map[string]interface{}{
							"meta": map[string]interface{}{"count": 42.0},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	count, err := store.CountChunks(context.Background(), "Content_src1")
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestStore_SimilaritySearch_EmptyCollection(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"Content_src1": []interface{}{},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.SimilaritySearch(context.Background(), "Content_src1", []float32{0.1}, 5)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
