package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docnest/internal/credits"
	"docnest/internal/retrieval"
)

var (
	ErrEmptyQuery = errors.New("query is required")
	ErrNoSources  = errors.New("at least one content source must be selected")
)

// QueryError wraps failures inside the answer pipeline so handlers can
// distinguish them from validation errors.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("error processing query: %v", e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// NoRelevantContentResponse is returned verbatim when retrieval finds
// nothing; no model call is made and no tokens are counted.
const NoRelevantContentResponse = "I couldn't find any relevant information in your selected documents to answer this question. Try rephrasing your question or selecting different documents."

const promptTemplate = `
You are a helpful AI assistant that answers questions based on the provided context.

Context from documents:
%s

Question: %s

Instructions:
1. Answer the question based ONLY on the provided context
2. If the context doesn't contain enough information, say "I don't have enough information in the provided documents to answer this question"
3. Be specific and cite relevant parts of the context
4. Keep your answer clear and concise
5. If you mention specific information, indicate which document or source it came from

Answer:
`

const citationPreviewLength = 200

type Citation struct {
	SourceID       string  `json:"contentId"`
	ChunkIndex     int     `json:"chunkIndex"`
	Title          string  `json:"title"`
	SourceKind     string  `json:"sourceType"`
	Content        string  `json:"content"`
	RelevanceScore float32 `json:"relevanceScore"`
}

type TokensUsed struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type Outcome struct {
	Response   string     `json:"response"`
	Citations  []Citation `json:"citations"`
	TokensUsed TokensUsed `json:"tokensUsed"`
}

type Retriever interface {
	Search(ctx context.Context, sourceIDs []string, query string, perSource, globalLimit int) ([]retrieval.Result, error)
}

type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Composer turns a question plus a set of sources into a grounded answer
// with citations.
type Composer struct {
	retriever   Retriever
	llm         LLM
	estimator   credits.Estimator
	perSource   int
	globalLimit int
}

func NewComposer(r Retriever, llm LLM, est credits.Estimator, perSource, globalLimit int) *Composer {
	return &Composer{
		retriever:   r,
		llm:         llm,
		estimator:   est,
		perSource:   perSource,
		globalLimit: globalLimit,
	}
}

// Answer validates the inputs, retrieves the best-matching chunks, and asks
// the model to answer from them alone. Citations mirror the retrieval
// ranking one-to-one.
func (c *Composer) Answer(ctx context.Context, query string, sourceIDs []string) (*Outcome, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if len(sourceIDs) == 0 {
		return nil, ErrNoSources
	}

	results, err := c.retriever.Search(ctx, sourceIDs, query, c.perSource, c.globalLimit)
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	if len(results) == 0 {
		slog.InfoContext(ctx, "no relevant chunks found", "sources", len(sourceIDs))
		return &Outcome{
			Response:  NoRelevantContentResponse,
			Citations: []Citation{},
		}, nil
	}

	prompt := buildPrompt(query, results)
	inputTokens := c.estimator.EstimateTokens(prompt)

	response, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	outputTokens := c.estimator.EstimateTokens(response)

	return &Outcome{
		Response:  response,
		Citations: buildCitations(results),
		TokensUsed: TokensUsed{
			Input:  inputTokens,
			Output: outputTokens,
			Total:  inputTokens + outputTokens,
		},
	}, nil
}

func buildPrompt(query string, results []retrieval.Result) string {
	var parts []string
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("Document %d (Score: %.2f):\n%s\n\n---", i+1, r.Score, r.Content))
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n"), query)
}

func buildCitations(results []retrieval.Result) []Citation {
	citations := make([]Citation, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		kind := r.SourceKind
		if kind == "" {
			kind = "unknown"
		}

		// Truncate on a rune boundary so multi-byte text is never split.
		preview := r.Content
		if runes := []rune(preview); len(runes) > citationPreviewLength {
			preview = string(runes[:citationPreviewLength]) + "..."
		}

		citations[i] = Citation{
			SourceID:       r.SourceID,
			ChunkIndex:     r.ChunkIndex,
			Title:          title,
			SourceKind:     kind,
			Content:        preview,
			RelevanceScore: r.Score,
		}
	}
	return citations
}
