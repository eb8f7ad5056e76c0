package tool

import (
	"context"
	"fmt"
)

// NameTerminate is the name of the builtin terminate tool.
const NameTerminate = "terminate"

const terminateDescription = `Terminate the interaction when the request is met OR if the assistant cannot proceed further with the task.
When you have finished all the tasks, call this tool to end the work.`

// Terminate signals that the task is complete. The agent watches for this
// tool by name and moves to the finished state after a successful call.
type Terminate struct{}

// NewTerminate creates the terminate tool.
func NewTerminate() *Terminate {
	return &Terminate{}
}

// Name implements Tool.
func (t *Terminate) Name() string { return NameTerminate }

// Description implements Tool.
func (t *Terminate) Description() string { return terminateDescription }

// Parameters implements Tool.
func (t *Terminate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "The finish status of the interaction.",
				"enum":        []any{"success", "failure"},
			},
		},
		"required": []any{"status"},
	}
}

// Execute implements Tool.
func (t *Terminate) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	status, err := requireString(args, "status")
	if err != nil {
		return nil, err
	}

	return &Result{
		Output: fmt.Sprintf("The interaction has been completed with status: %s", status),
	}, nil
}
