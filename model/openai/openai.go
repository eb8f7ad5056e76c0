// Package openai implements model.Model on top of the OpenAI Chat
// Completions API (including function/tool calling). It adapts the runtime's
// message log into the SDK's message format and back, and accumulates the
// API-reported token usage onto the handle.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/model"
)

// Options configure the OpenAI model adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64

	// Logger receives per-call latency and token diagnostics. Defaults to
	// a no-op logger.
	Logger logging.Logger
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	model.UsageTracker
	client *openai.Client
	opts   Options
	logger logging.Logger
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Ask implements model.Model for plain completions.
func (m *Model) Ask(ctx context.Context, messages []core.Message, systemMsgs []core.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(systemMsgs)+len(messages))
	for _, s := range systemMsgs {
		msgs = append(msgs, openai.SystemMessage(s.Content))
	}
	msgs = append(msgs, buildMessages(messages)...)

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(msgs))
	if err != nil {
		logging.LogModelCall(m.logger, m.opts.Model, 0, 0, time.Since(start), err)
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	m.Add(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
	logging.LogModelCall(m.logger, m.opts.Model, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), time.Since(start), nil)
	return resp.Choices[0].Message.Content, nil
}

// AskTool implements model.Model for tool-enabled completions.
func (m *Model) AskTool(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, choice model.ToolChoice) (*model.Response, error) {
	params := m.buildParams(buildMessages(messages))
	if len(tools) > 0 && choice != model.ToolChoiceNone {
		toolParams := make([]openai.ChatCompletionToolParam, len(tools))
		for i, tdef := range tools {
			toolParams[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Function.Name,
					Description: openai.String(tdef.Function.Description),
					Parameters:  tdef.Function.Parameters,
				},
			}
		}
		params.Tools = toolParams
		if choice == model.ToolChoiceRequired {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("required"),
			}
		}
	}

	start := time.Now()
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logging.LogModelCall(m.logger, m.opts.Model, 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	m.Add(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
	logging.LogModelCall(m.logger, m.opts.Model, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), time.Since(start), nil)

	msg := resp.Choices[0].Message
	out := &model.Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: core.Function{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out, nil
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai", SupportsTools: true}
}

func (m *Model) buildParams(msgs []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
}

// buildMessages converts memory entries into OpenAI chat messages preserving
// order, including assistant tool calls and their linked tool results.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case core.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case core.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				calls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: calls,
				},
			})
		case core.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if msg.Content != "" {
				out = append(out, openai.UserMessage(msg.Content))
			}
		}
	}
	return out
}
