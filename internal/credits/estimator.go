package credits

const (
	DefaultCharsPerToken   = 4
	DefaultTokensPerCredit = 1000
)

// Estimator maps text length to approximate token counts and credit cost.
// The estimates are deliberately rough (~4 chars per token for English);
// the error is accepted cost-accounting noise, not something to correct.
type Estimator struct {
	CharsPerToken   int
	TokensPerCredit int
}

func NewEstimator(charsPerToken, tokensPerCredit int) Estimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	if tokensPerCredit <= 0 {
		tokensPerCredit = DefaultTokensPerCredit
	}
	return Estimator{CharsPerToken: charsPerToken, TokensPerCredit: tokensPerCredit}
}

func (e Estimator) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + e.CharsPerToken - 1) / e.CharsPerToken
}

// CalculateCredits returns fractional credits; callers accumulate them
// precisely and never round.
func (e Estimator) CalculateCredits(tokens int) float64 {
	return float64(tokens) / float64(e.TokensPerCredit)
}
