package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"docnest/internal/vector"
)

// Embedder produces a vector for one piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Object is one chunk ready for the vector store: its embedding plus the
// properties persisted alongside it.
type Object struct {
	Vector     []float32
	Properties map[string]interface{}
}

// VectorStore is the slice of the vector database the gateway needs.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string) error
	UpsertObjects(ctx context.Context, collection string, objects []Object) error
	DeleteCollection(ctx context.Context, collection string) error
}

// IndexResult reports where the chunks landed.
type IndexResult struct {
	Collection string
	ChunkCount int
}

// Gateway embeds chunks and writes them into a per-source collection.
type Gateway struct {
	embedder Embedder
	store    VectorStore
}

func NewGateway(e Embedder, s VectorStore) *Gateway {
	return &Gateway{embedder: e, store: s}
}

// Index creates the source's collection, embeds every chunk and batch-writes
// them. Any failure aborts the whole operation; chunkIndex reflects the
// chunk's position in the input so retrieval order can be reconstructed.
func (g *Gateway) Index(ctx context.Context, sourceID string, chunks []string, meta Meta) (*IndexResult, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index for source %s", sourceID)
	}

	collection := vector.CollectionFor(sourceID)
	if err := g.store.EnsureCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
	}

	objects := make([]Object, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := g.embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d of %d: %w", i, len(chunks), err)
		}
		objects = append(objects, Object{
			Vector:     vec,
			Properties: buildProperties(sourceID, i, chunk, meta),
		})
	}

	if err := g.store.UpsertObjects(ctx, collection, objects); err != nil {
		return nil, fmt.Errorf("upsert %d objects into %s: %w", len(objects), collection, err)
	}

	slog.InfoContext(ctx, "chunks indexed",
		"collection", collection,
		"source_id", sourceID,
		"chunks", len(objects))

	return &IndexResult{Collection: collection, ChunkCount: len(objects)}, nil
}

// DeleteCollection removes the source's collection. Deletion is best-effort:
// failures are logged and reported via the return value, never as an error,
// so callers can proceed with the rest of their cleanup.
func (g *Gateway) DeleteCollection(ctx context.Context, sourceID string) bool {
	collection := vector.CollectionFor(sourceID)
	if err := g.store.DeleteCollection(ctx, collection); err != nil {
		slog.WarnContext(ctx, "collection cleanup failed",
			"collection", collection,
			"source_id", sourceID,
			"error", err)
		return false
	}
	return true
}

// buildProperties flattens the metadata variant into the stored property
// set. Every object carries the common fields; kind-specific fields are
// added per variant.
func buildProperties(sourceID string, chunkIndex int, content string, meta Meta) map[string]interface{} {
	common := meta.Common()
	props := map[string]interface{}{
		"content":    content,
		"sourceId":   sourceID,
		"chunkIndex": chunkIndex,
		"title":      common.Title,
		"sourceKind": common.SourceKind,
	}

	switch m := meta.(type) {
	case FileMeta:
		props["filename"] = m.Filename
	case TextMeta:
		// No extra fields.
	case URLMeta:
		props["url"] = m.URL
		props["domain"] = m.Domain
	case VideoMeta:
		props["videoId"] = m.VideoID
		props["url"] = m.VideoURL
		props["author"] = m.Author
	}

	return props
}
