package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acaihq/acai/llm"
)

func TestAccumulatorAdd(t *testing.T) {
	var acc Accumulator
	acc.Add(llm.Usage{InputTokens: 100, CachedInputTokens: 30, OutputTokens: 40, ReasoningOutputTokens: 5, TotalTokens: 140})
	acc.Add(llm.Usage{InputTokens: 200, OutputTokens: 60, TotalTokens: 260})

	stats := acc.Snapshot()
	assert.Equal(t, 300, stats.InputTokens)
	assert.Equal(t, 30, stats.InputTokensDetails.CachedTokens)
	assert.Equal(t, 100, stats.OutputTokens)
	assert.Equal(t, 5, stats.OutputTokensDetails.ReasoningTokens)
	assert.Equal(t, 400, stats.TotalTokens)
	assert.Equal(t, stats.InputTokens+stats.OutputTokens, stats.TotalTokens)
}

func TestAccumulatorZero(t *testing.T) {
	var acc Accumulator
	assert.Equal(t, UsageStats{}, acc.Snapshot())
}

func TestAccumulatorSnapshotIsCopy(t *testing.T) {
	var acc Accumulator
	acc.Add(llm.Usage{InputTokens: 10, TotalTokens: 10})

	snap := acc.Snapshot()
	snap.InputTokens = 999
	assert.Equal(t, 10, acc.Snapshot().InputTokens)
}
