package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"docnest/internal/middleware"
	"docnest/internal/vector"
)

// Result is one retrieved chunk with its provenance.
type Result struct {
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	SourceID   string  `json:"sourceId"`
	ChunkIndex int     `json:"chunkIndex"`
	Title      string  `json:"title,omitempty"`
	SourceKind string  `json:"sourceKind,omitempty"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs a vector search against one collection.
type Searcher interface {
	SimilaritySearch(ctx context.Context, collection string, vector []float32, limit int) ([]Result, error)
}

type Service struct {
	embedder Embedder
	searcher Searcher
	logger   *QueryLogger
}

func NewService(e Embedder, s Searcher, l *QueryLogger) *Service {
	return &Service{embedder: e, searcher: s, logger: l}
}

// Search embeds the query once and fans out to every source's collection
// concurrently. Per-source failures are logged and skipped so one missing
// collection never sinks the whole query. The merged hits are sorted by
// score descending, with ties kept in input-source order, then truncated
// to globalLimit.
func (s *Service) Search(ctx context.Context, sourceIDs []string, query string, perSource, globalLimit int) ([]Result, error) {
	start := time.Now()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	// Each goroutine writes only its own slot, so the flattened order is
	// deterministic regardless of completion order.
	slots := make([][]Result, len(sourceIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sourceID := range sourceIDs {
		g.Go(func() error {
			collection := vector.CollectionFor(sourceID)
			hits, err := s.searcher.SimilaritySearch(gctx, collection, vec, perSource)
			if err != nil {
				slog.WarnContext(gctx, "source search failed, skipping",
					"source_id", sourceID,
					"collection", collection,
					"error", err)
				return nil
			}
			slots[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Result
	for _, hits := range slots {
		merged = append(merged, hits...)
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Score > merged[b].Score
	})
	if globalLimit > 0 && len(merged) > globalLimit {
		merged = merged[:globalLimit]
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumSources:    len(sourceIDs),
			NumResults:    len(merged),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return merged, nil
}
