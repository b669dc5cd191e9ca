package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/google/generative-ai-go/genai"

	"docnest/internal/adapter/gemini"
)

func mockGenAI(t *testing.T, handler http.HandlerFunc) *genai.Client {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := genai.NewClient(context.Background(),
		option.WithAPIKey("test-key"),
		option.WithEndpoint(ts.URL),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestEmbedder_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := mockGenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"embedding": map[string]interface{}{
					"values": []float32{0.1, 0.2, 0.3},
				},
			})
		})

		e := gemini.NewEmbedder(client, "gemini-embedding-001")
		vec, err := e.Embed(ctx, "hello world")
		assert.NoError(t, err)
		if assert.Len(t, vec, 3) {
			assert.Equal(t, float32(0.1), vec[0])
		}
	})

	t.Run("Empty embedding rejected", func(t *testing.T) {
		client := mockGenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{})
		})

		e := gemini.NewEmbedder(client, "gemini-embedding-001")
		_, err := e.Embed(ctx, "hello")
		assert.ErrorContains(t, err, "empty embedding")
	})
}

func TestLLM_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Concatenates candidate parts", func(t *testing.T) {
		client := mockGenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"candidates": []interface{}{
					map[string]interface{}{
						"content": map[string]interface{}{
							"parts": []interface{}{
								map[string]interface{}{"text": "The capital "},
								map[string]interface{}{"text": "is Paris."},
							},
							"role": "model",
						},
					},
				},
			})
		})

		l := gemini.NewLLM(client, "gemini-1.5-flash")
		out, err := l.Complete(ctx, "What is the capital of France?")
		assert.NoError(t, err)
		assert.Equal(t, "The capital is Paris.", out)
	})

	t.Run("No candidates is an error", func(t *testing.T) {
		client := mockGenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
		})

		l := gemini.NewLLM(client, "gemini-1.5-flash")
		_, err := l.Complete(ctx, "anything")
		assert.ErrorContains(t, err, "no candidates")
	})
}
