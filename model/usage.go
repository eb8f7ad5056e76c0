package model

import "sync"

// UsageTracker accumulates token usage across a model handle's lifetime.
// Embed it in Model implementations and call Add after each provider call.
type UsageTracker struct {
	mu               sync.Mutex
	inputTokens      int
	completionTokens int
}

// Add records token counts from one provider response.
func (t *UsageTracker) Add(inputTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTokens += inputTokens
	t.completionTokens += completionTokens
}

// Usage returns the cumulative counts.
func (t *UsageTracker) Usage() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Usage{InputTokens: t.inputTokens, CompletionTokens: t.completionTokens}
}
