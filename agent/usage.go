package agent

import "github.com/acaihq/acai/llm"

// InputTokensDetails breaks down the input token count.
type InputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// OutputTokensDetails breaks down the output token count.
type OutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// UsageStats is the session-total token usage reported in the terminal
// result record. The detail counts are subsets of their parents, not
// additive terms: TotalTokens == InputTokens + OutputTokens.
type UsageStats struct {
	InputTokens         int                 `json:"input_tokens"`
	InputTokensDetails  InputTokensDetails  `json:"input_tokens_details"`
	OutputTokens        int                 `json:"output_tokens"`
	OutputTokensDetails OutputTokensDetails `json:"output_tokens_details"`
	TotalTokens         int                 `json:"total_tokens"`
}

// Accumulator sums per-turn usage into a session total. Counters only grow;
// the accumulator never resets mid-session. It is owned by the Session and
// updated only at turn boundaries, so no locking is needed.
type Accumulator struct {
	stats UsageStats
}

// Add merges one turn's usage into the running total.
func (a *Accumulator) Add(u llm.Usage) {
	a.stats.InputTokens += u.InputTokens
	a.stats.InputTokensDetails.CachedTokens += u.CachedInputTokens
	a.stats.OutputTokens += u.OutputTokens
	a.stats.OutputTokensDetails.ReasoningTokens += u.ReasoningOutputTokens
	a.stats.TotalTokens += u.TotalTokens
}

// Snapshot returns a copy of the accumulated totals.
func (a *Accumulator) Snapshot() UsageStats {
	return a.stats
}
