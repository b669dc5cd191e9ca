package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"docnest/internal/embedding"
	"docnest/internal/retrieval"
)

// Store adapts the Weaviate client to the embedding and retrieval ports.
// Each content source lives in its own class, all sharing the same property
// set; vectors are supplied by the caller so the vectorizer stays off.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

var chunkProperties = []*models.Property{
	{Name: "content", DataType: []string{"text"}},
	{Name: "sourceId", DataType: []string{"string"}},
	{Name: "chunkIndex", DataType: []string{"int"}},
	{Name: "title", DataType: []string{"text"}},
	{Name: "sourceKind", DataType: []string{"string"}},
	{Name: "filename", DataType: []string{"string"}},
	{Name: "url", DataType: []string{"string"}},
	{Name: "domain", DataType: []string{"string"}},
	{Name: "videoId", DataType: []string{"string"}},
	{Name: "author", DataType: []string{"text"}},
}

func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(collection).
		Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:       collection,
		Description: "Chunks of one content source",
		Vectorizer:  "none",
		Properties:  chunkProperties,
	}
	return s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *Store) UpsertObjects(ctx context.Context, collection string, objects []embedding.Object) error {
	batch := make([]*models.Object, len(objects))
	for i, obj := range objects {
		batch[i] = &models.Object{
			Class:      collection,
			Properties: obj.Properties,
			Vector:     obj.Vector,
		}
	}

	res, err := s.client.Batch().ObjectsBatcher().
		WithObjects(batch...).
		Do(ctx)
	if err != nil {
		return err
	}

	// The batcher reports per-object errors in the response, not err.
	for _, r := range res {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch insert into %s: %s", collection, r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	return s.client.Schema().ClassDeleter().
		WithClassName(collection).
		Do(ctx)
}

// SimilaritySearch runs a pure vector search against one collection and
// returns the hits with their certainty scores, best first.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]retrieval.Result, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "sourceId"},
		{Name: "chunkIndex"},
		{Name: "title"},
		{Name: "sourceKind"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(collection).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	var results []retrieval.Result
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	hits, ok := data[collection].([]interface{})
	if !ok {
		return results, nil
	}

	for _, h := range hits {
		props, ok := h.(map[string]interface{})
		if !ok {
			continue
		}

		var r retrieval.Result
		if content, ok := props["content"].(string); ok {
			r.Content = content
		}
		if sourceID, ok := props["sourceId"].(string); ok {
			r.SourceID = sourceID
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			r.ChunkIndex = int(idx)
		}
		if title, ok := props["title"].(string); ok {
			r.Title = title
		}
		if kind, ok := props["sourceKind"].(string); ok {
			r.SourceKind = kind
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			r.Score = parseScore(additional["certainty"])
		}

		results = append(results, r)
	}

	return results, nil
}

// CountChunks reports how many objects a collection currently holds.
func (s *Store) CountChunks(ctx context.Context, collection string) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(collection).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	if data, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if agg, ok := data[collection].([]interface{}); ok && len(agg) > 0 {
			if entry, ok := agg[0].(map[string]interface{}); ok {
				if meta, ok := entry["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}

// parseScore tolerates both numeric and string encodings; the client has
// returned either depending on version.
func parseScore(v interface{}) float32 {
	switch s := v.(type) {
	case float64:
		return float32(s)
	case string:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0
		}
		return float32(f)
	}
	return 0
}
