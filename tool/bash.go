package tool

import (
	"context"
	"time"

	"github.com/heyfun-ai/funmax/sandbox"
)

// NameBash is the name of the builtin bash tool.
const NameBash = "bash"

const bashDescription = `Execute a bash command in the terminal.
* Long running commands: For commands that may run indefinitely, run them in the background and redirect the output to a file, e.g. command = ` + "`python3 app.py > server.log 2>&1 &`" + `.
* Timeout: If a command execution result says that it timed out, retry running the command in the background.`

// Bash executes shell commands inside the task sandbox.
type Bash struct {
	sb *sandbox.Sandbox
}

// NewBash creates the bash tool. A sandbox must be injected before the first
// execution.
func NewBash() *Bash {
	return &Bash{}
}

// SetSandbox implements SandboxDependent.
func (b *Bash) SetSandbox(sb *sandbox.Sandbox) { b.sb = sb }

// Name implements Tool.
func (b *Bash) Name() string { return NameBash }

// Description implements Tool.
func (b *Bash) Description() string { return bashDescription }

// Parameters implements Tool.
func (b *Bash) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The bash command to execute.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in seconds for the command execution. Defaults to 300 seconds.",
			},
		},
		"required": []any{"command"},
	}
}

// Execute implements Tool.
func (b *Bash) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if b.sb == nil {
		return nil, NewToolError(NameBash, "no sandbox attached", "not_ready")
	}

	command, err := requireString(args, "command")
	if err != nil {
		return nil, err
	}

	timeoutSec, err := intArg(args, "timeout", 0)
	if err != nil {
		return nil, err
	}

	output, runErr := b.sb.RunCommand(ctx, command, time.Duration(timeoutSec)*time.Second)
	if runErr != nil {
		return &Result{Output: output, Error: runErr.Error()}, nil
	}

	return &Result{Output: output}, nil
}
