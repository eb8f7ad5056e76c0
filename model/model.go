// Package model defines the reasoning-service boundary: a provider-agnostic
// interface for issuing chat requests (with or without callable tool
// descriptors) and for reading cumulative token usage off the service handle.
package model

import (
	"context"

	"github.com/heyfun-ai/funmax/core"
)

// ToolChoice controls how the reasoning service may use the supplied tools.
type ToolChoice string

// Supported tool choice modes.
const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceRequired ToolChoice = "required"
)

// FunctionDefinition describes an individual tool exposed to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// Response is one assistant decision: optional plain text plus an ordered
// list of requested tool calls.
type Response struct {
	Content   string          `json:"content"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
}

// Usage captures cumulative token counts for a model handle. Counters grow
// monotonically across the whole run; per-step deltas are derived by the
// step machine via baseline-and-diff.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the interface required by agents to drive reasoning.
//
// Implementations accumulate token usage internally: Usage reads the running
// totals since construction. A Model handle is owned by one agent instance.
type Model interface {
	// Ask issues a plain completion request: ordered conversation messages
	// plus optional system messages, returning the assistant's text.
	Ask(ctx context.Context, messages []core.Message, systemMsgs []core.Message) (string, error)

	// AskTool issues a completion request with callable tool descriptors,
	// returning the assistant decision (text and/or tool calls).
	AskTool(ctx context.Context, messages []core.Message, tools []ToolDefinition, choice ToolChoice) (*Response, error)

	// Usage returns cumulative input/completion token counts.
	Usage() Usage

	// Info returns information about the model implementation.
	Info() Info
}
