package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/heyfun-ai/funmax/core"
)

// MockModelOptions configures a MockModel.
type MockModelOptions struct {
	// Script is the ordered sequence of responses returned by AskTool. When
	// exhausted, the mock keeps returning the last entry (or a default plain
	// answer if empty).
	Script []*Response
	// AskReply is returned by every Ask call.
	AskReply string
	// TokensPerCall is added to the cumulative usage on each Ask/AskTool.
	TokensPerCall Usage
	// Err, when set, is returned by every Ask/AskTool call.
	Err error
}

// MockModel is a scripted in-memory Model for tests and examples.
type MockModel struct {
	UsageTracker
	mu       sync.Mutex
	script   []*Response
	cursor   int
	askReply string
	perCall  Usage
	err      error
	calls    int
}

// NewMockModel constructs a MockModel with optional scripting.
func NewMockModel(optFns ...func(o *MockModelOptions)) *MockModel {
	opts := MockModelOptions{
		AskReply:      "mock reply",
		TokensPerCall: Usage{InputTokens: 10, CompletionTokens: 5},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MockModel{
		script:   opts.Script,
		askReply: opts.AskReply,
		perCall:  opts.TokensPerCall,
		err:      opts.Err,
	}
}

// Ask implements Model.
func (m *MockModel) Ask(_ context.Context, messages []core.Message, _ []core.Message) (string, error) {
	m.mu.Lock()
	err := m.err
	reply := m.askReply
	m.calls++
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	m.Add(m.perCall.InputTokens, m.perCall.CompletionTokens)
	return reply, nil
}

// AskTool implements Model, returning the next scripted response.
func (m *MockModel) AskTool(_ context.Context, _ []core.Message, _ []ToolDefinition, _ ToolChoice) (*Response, error) {
	m.mu.Lock()
	err := m.err
	var resp *Response
	switch {
	case len(m.script) == 0:
		resp = &Response{Content: "mock decision"}
	case m.cursor < len(m.script):
		resp = m.script[m.cursor]
		m.cursor++
	default:
		resp = m.script[len(m.script)-1]
	}
	m.calls++
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.Add(m.perCall.InputTokens, m.perCall.CompletionTokens)
	return resp, nil
}

// Calls returns how many Ask/AskTool requests have been issued.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}
