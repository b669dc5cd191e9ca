package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docnest/features/content"
	"docnest/internal/chat"
	"docnest/internal/credits"
)

var (
	ErrNotebookNotFound = errors.New("notebook not found")
	ErrInvalidSelection = errors.New("some selected contents are invalid or not processed")
)

// queryOverheadTokens pads the pre-flight estimate to cover the prompt
// scaffolding and retrieved context, which are unknown before retrieval runs.
const queryOverheadTokens = 1000

type Composer interface {
	Answer(ctx context.Context, query string, sourceIDs []string) (*chat.Outcome, error)
}

type ContentRepo interface {
	CompletedByIDs(ctx context.Context, ids []string, userID, notebookID string) ([]content.Content, error)
}

type NotebookChecker interface {
	BelongsToUser(ctx context.Context, notebookID, userID string) (bool, error)
}

type Ledger interface {
	Authorize(ctx context.Context, userID string, estimatedCredits float64) error
	Settle(ctx context.Context, userID string, actualCredits float64) (float64, error)
}

// Result is one answered query with its billing receipt.
type Result struct {
	Response         string          `json:"response"`
	Citations        []chat.Citation `json:"citations"`
	TokensUsed       chat.TokensUsed `json:"tokensUsed"`
	CreditsDeducted  float64         `json:"creditsDeducted"`
	CreditsRemaining float64         `json:"creditsRemaining"`
}

type Service struct {
	composer  Composer
	contents  ContentRepo
	notebooks NotebookChecker
	ledger    Ledger
	estimator credits.Estimator
}

func NewService(composer Composer, contents ContentRepo, notebooks NotebookChecker, ledger Ledger, estimator credits.Estimator) *Service {
	return &Service{
		composer:  composer,
		contents:  contents,
		notebooks: notebooks,
		ledger:    ledger,
		estimator: estimator,
	}
}

// Ask answers a question against the selected contents of one notebook.
// Every selected content must be owned, in the notebook, and completed;
// a partial match rejects the whole request rather than silently narrowing
// the search.
func (s *Service) Ask(ctx context.Context, userID, notebookID, query string, contentIDs []string) (*Result, error) {
	owned, err := s.notebooks.BelongsToUser(ctx, notebookID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNotebookNotFound
	}

	selected, err := s.contents.CompletedByIDs(ctx, contentIDs, userID, notebookID)
	if err != nil {
		return nil, err
	}
	if len(selected) != len(contentIDs) {
		return nil, ErrInvalidSelection
	}

	// The real cost is unknowable before the model responds, so the
	// pre-flight uses a padded guess: the query counted twice (prompt and
	// echo in context) plus a flat overhead.
	estimatedTokens := s.estimator.EstimateTokens(query)*2 + queryOverheadTokens
	estimatedCredits := s.estimator.CalculateCredits(estimatedTokens)
	if err := s.ledger.Authorize(ctx, userID, estimatedCredits); err != nil {
		return nil, err
	}

	sourceIDs := make([]string, len(selected))
	for i, c := range selected {
		sourceIDs[i] = c.ID
	}

	outcome, err := s.composer.Answer(ctx, query, sourceIDs)
	if err != nil {
		return nil, err
	}

	// A canned no-results answer costs zero tokens; the deduction of zero
	// still runs so the caller gets a current balance back. A receipt is
	// never reported for a deduction that did not land.
	actualCredits := s.estimator.CalculateCredits(outcome.TokensUsed.Total)
	balance, err := s.ledger.Settle(ctx, userID, actualCredits)
	if err != nil {
		return nil, fmt.Errorf("credit settlement: %w", err)
	}

	slog.InfoContext(ctx, "query answered",
		"notebook_id", notebookID,
		"sources", len(sourceIDs),
		"citations", len(outcome.Citations),
		"tokens", outcome.TokensUsed.Total,
		"credits", actualCredits)

	return &Result{
		Response:         outcome.Response,
		Citations:        outcome.Citations,
		TokensUsed:       outcome.TokensUsed,
		CreditsDeducted:  actualCredits,
		CreditsRemaining: balance,
	}, nil
}
