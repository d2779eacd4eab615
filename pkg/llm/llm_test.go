package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000}

	cost := u.EstimateCost("claude-sonnet-4-5-20250929")
	assert.InDelta(t, 3.00+1.50, cost, 0.001)

	assert.Zero(t, u.EstimateCost("gpt-oss:20b"))
	assert.Zero(t, TokenUsage{}.EstimateCost("claude-sonnet-4-5-20250929"))
}
