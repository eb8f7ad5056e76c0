// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (shell commands, file edits, browser
// automation, chat completions) with schema validated arguments and
// consistent error handling.
//
// Tools are registered in a Registry which preserves registration order for
// deterministic prompt assembly and cleanup. Builtin tools are constructed by
// name through NewBuiltin; remote tools are attached through the mcp
// subpackage.
package tool

import (
	"context"

	"github.com/heyfun-ai/funmax/model"
	"github.com/heyfun-ai/funmax/sandbox"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// The description is provided to the LLM to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Execute runs the tool with arguments parsed from the model's JSON payload.
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// ModelDependent is implemented by tools that call a language model
// themselves. The agent injects its own model handle before the first step.
type ModelDependent interface {
	SetModel(m model.Model)
}

// SandboxDependent is implemented by tools that run commands or touch files
// inside the task sandbox. The agent injects the sandbox before the first step.
type SandboxDependent interface {
	SetSandbox(sb *sandbox.Sandbox)
}

// Cleaner is implemented by tools that hold external resources (browser
// processes, network sessions). Cleanup is invoked exactly once when the
// owning agent shuts down.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// StatefulBrowser is implemented by browser tools that can report their
// current page state. The agent uses it to enrich the next-step prompt with
// the live page context and a fresh screenshot.
type StatefulBrowser interface {
	GetCurrentState(ctx context.Context) (*Result, error)
}

// Delegator is implemented by tools whose execution is carried out by a
// remote party. The executor records the delegate identifier alongside the
// call result.
type Delegator interface {
	DelegateID() string
}

// Definition converts a tool into the wire-level definition sent to the model.
func Definition(t Tool) model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}
