// Package anthropic implements model.Model on top of the Anthropic Messages
// API (including tool use). Token usage reported by the API is accumulated
// onto the handle.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// Logger receives per-call latency and token diagnostics. Defaults to
	// a no-op logger.
	Logger logging.Logger
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	model.UsageTracker
	client *anthropic.Client
	opts   Options
	logger logging.Logger
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Ask implements model.Model for plain completions.
func (m *Model) Ask(ctx context.Context, messages []core.Message, systemMsgs []core.Message) (string, error) {
	params := m.buildParams(messages, systemMsgs)

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		logging.LogModelCall(m.logger, string(m.opts.Model), 0, 0, time.Since(start), err)
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	m.Add(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	logging.LogModelCall(m.logger, string(m.opts.Model), int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), time.Since(start), nil)

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	return text, nil
}

// AskTool implements model.Model for tool-enabled completions.
func (m *Model) AskTool(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, choice model.ToolChoice) (*model.Response, error) {
	params := m.buildParams(messages, nil)
	if len(tools) > 0 && choice != model.ToolChoiceNone {
		params.Tools = buildTools(tools)
		if choice == model.ToolChoiceRequired {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAny: &anthropic.ToolChoiceAnyParam{},
			}
		}
	}

	start := time.Now()
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		logging.LogModelCall(m.logger, string(m.opts.Model), 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}
	m.Add(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	logging.LogModelCall(m.logger, string(m.opts.Model), int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), time.Since(start), nil)

	out := &model.Response{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:   toolBlock.ID,
				Type: "function",
				Function: core.Function{
					Name:      toolBlock.Name,
					Arguments: args,
				},
			})
		}
	}
	return out, nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic", SupportsTools: true}
}

func (m *Model) buildParams(messages []core.Message, systemMsgs []core.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	var systemBlocks []anthropic.TextBlockParam
	for _, s := range systemMsgs {
		if s.Content != "" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: s.Content})
		}
	}
	// System entries inside the message log are hoisted too; Anthropic has no
	// in-band system role.
	for _, msg := range messages {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	return params
}

// buildMessages converts memory entries into Anthropic messages. Tool results
// become tool_result blocks inside user turns, as the API requires.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			continue // hoisted into params.System
		case core.RoleUser:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
						input = tc.Function.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Function.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		}
	}
	return out
}

func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if params := tdef.Function.Parameters; params != nil {
			if properties, ok := params["properties"]; ok {
				inputSchema.Properties = properties
			}
			if required, ok := params["required"]; ok {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []any:
					for _, r := range req {
						if s, ok := r.(string); ok {
							inputSchema.Required = append(inputSchema.Required, s)
						}
					}
				}
			}
		}
		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tdef.Function.Name)
	}
	return anthropicTools
}
