package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

type LLM struct {
	client *genai.Client
	model  string
}

func NewLLM(client *genai.Client, model string) *LLM {
	return &LLM{client: client, model: model}
}

// Complete sends one prompt and returns the concatenated text parts of the
// first candidate.
func (l *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating completion", "model", l.model, "prompt_length", len(prompt))

	m := l.client.GenerativeModel(l.model)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model %s returned no candidates", l.model)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
