package tool

import (
	"context"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/model"
)

// NameCreateChatCompletion is the name of the builtin chat completion tool.
const NameCreateChatCompletion = "create_chat_completion"

const createChatCompletionDescription = `Creates a structured completion for a given prompt. Use this to produce a focused piece of text, such as a summary, translation or formatted answer, without invoking any other capability.`

// CreateChatCompletion lets the agent delegate a focused text generation to
// its own model without going through the tool-calling loop.
type CreateChatCompletion struct {
	llm model.Model
}

// NewCreateChatCompletion creates the chat completion tool. A model must be
// injected before the first execution.
func NewCreateChatCompletion() *CreateChatCompletion {
	return &CreateChatCompletion{}
}

// SetModel implements ModelDependent.
func (c *CreateChatCompletion) SetModel(m model.Model) { c.llm = m }

// Name implements Tool.
func (c *CreateChatCompletion) Name() string { return NameCreateChatCompletion }

// Description implements Tool.
func (c *CreateChatCompletion) Description() string { return createChatCompletionDescription }

// Parameters implements Tool.
func (c *CreateChatCompletion) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "The prompt to complete.",
			},
			"system": map[string]any{
				"type":        "string",
				"description": "Optional system instruction guiding the completion.",
			},
		},
		"required": []any{"prompt"},
	}
}

// Execute implements Tool.
func (c *CreateChatCompletion) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if c.llm == nil {
		return nil, NewToolError(NameCreateChatCompletion, "no model attached", "not_ready")
	}

	prompt, err := requireString(args, "prompt")
	if err != nil {
		return nil, err
	}

	system, err := stringArg(args, "system")
	if err != nil {
		return nil, err
	}

	var systemMsgs []core.Message
	if system != "" {
		systemMsgs = append(systemMsgs, core.NewSystemMessage(system))
	}

	reply, err := c.llm.Ask(ctx, []core.Message{core.NewUserMessage(prompt)}, systemMsgs)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	return &Result{Output: reply}, nil
}
