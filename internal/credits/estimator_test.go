package credits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	e := NewEstimator(4, 1000)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"Empty", "", 0},
		{"Exact multiple", strings.Repeat("a", 400), 100},
		{"Rounds up", strings.Repeat("a", 401), 101},
		{"Single char", "a", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.EstimateTokens(tt.text))
		})
	}
}

func TestCalculateCredits(t *testing.T) {
	e := NewEstimator(4, 1000)

	assert.Equal(t, 1.0, e.CalculateCredits(1000))
	assert.Equal(t, 0.5, e.CalculateCredits(500))
	// Fractional credits are valid and not rounded.
	assert.InDelta(t, 0.001, e.CalculateCredits(1), 1e-9)
}

func TestEstimator_Pure(t *testing.T) {
	e := NewEstimator(4, 1000)
	text := strings.Repeat("The quick brown fox. ", 37)

	first := e.CalculateCredits(e.EstimateTokens(text))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.CalculateCredits(e.EstimateTokens(text)))
	}
}

func TestNewEstimator_Defaults(t *testing.T) {
	e := NewEstimator(0, 0)
	assert.Equal(t, DefaultCharsPerToken, e.CharsPerToken)
	assert.Equal(t, DefaultTokensPerCredit, e.TokensPerCredit)

	e = NewEstimator(-1, -5)
	assert.Equal(t, DefaultCharsPerToken, e.CharsPerToken)
	assert.Equal(t, DefaultTokensPerCredit, e.TokensPerCredit)
}
