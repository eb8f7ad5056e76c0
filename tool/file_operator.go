package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/heyfun-ai/funmax/sandbox"
)

// NameFileOperator is the name of the builtin file operator tool.
const NameFileOperator = "file_operator"

const fileOperatorDescription = `A tool for performing file operations.
Provides functionality for reading, writing, and checking file properties.`

// FileOperator performs basic file operations inside the task sandbox.
type FileOperator struct {
	sb *sandbox.Sandbox
}

// NewFileOperator creates the file operator tool. A sandbox must be injected
// before the first execution.
func NewFileOperator() *FileOperator {
	return &FileOperator{}
}

// SetSandbox implements SandboxDependent.
func (f *FileOperator) SetSandbox(sb *sandbox.Sandbox) { f.sb = sb }

// Name implements Tool.
func (f *FileOperator) Name() string { return NameFileOperator }

// Description implements Tool.
func (f *FileOperator) Description() string { return fileOperatorDescription }

// Parameters implements Tool.
func (f *FileOperator) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The file operation command to execute.",
				"enum":        []any{"read", "write", "is_directory", "exists", "run_command"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "The path to the file or directory to operate on.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The content to write to the file. Required for 'write' command.",
			},
			"cmd": map[string]any{
				"type":        "string",
				"description": "The command to run. Required for 'run_command' command.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in seconds for command execution. Optional for 'run_command' command.",
			},
		},
		"required": []any{"command", "path"},
	}
}

// Execute implements Tool.
func (f *FileOperator) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if f.sb == nil {
		return nil, NewToolError(NameFileOperator, "no sandbox attached", "not_ready")
	}

	command, err := requireString(args, "command")
	if err != nil {
		return nil, err
	}

	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}

	switch command {
	case "read":
		content, err := f.sb.ReadFile(path)
		if err != nil {
			return &Result{Error: fmt.Sprintf("Failed to read %s: %s", path, err)}, nil
		}

		return &Result{Output: content}, nil
	case "write":
		content, err := stringArg(args, "content")
		if err != nil {
			return nil, err
		}

		if content == "" {
			if _, present := args["content"]; !present {
				return &Result{Error: "Parameter 'content' is required for 'write' command"}, nil
			}
		}

		if err := f.sb.WriteFile(path, content); err != nil {
			return &Result{Error: fmt.Sprintf("Failed to write to %s: %s", path, err)}, nil
		}

		return &Result{Output: fmt.Sprintf("Successfully wrote to %s", path)}, nil
	case "is_directory":
		isDir, err := f.sb.IsDirectory(path)
		if err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: fmt.Sprintf("%t", isDir)}, nil
	case "exists":
		exists, err := f.sb.Exists(path)
		if err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: fmt.Sprintf("%t", exists)}, nil
	case "run_command":
		cmd, err := requireString(args, "cmd")
		if err != nil {
			return &Result{Error: "Parameter 'cmd' is required for 'run_command' command"}, nil
		}

		timeoutSec, err := intArg(args, "timeout", 0)
		if err != nil {
			return nil, err
		}

		output, runErr := f.sb.RunCommand(ctx, cmd, time.Duration(timeoutSec)*time.Second)
		if runErr != nil {
			return &Result{Output: output, Error: fmt.Sprintf("Error executing command: %s", runErr)}, nil
		}

		return &Result{Output: output}, nil
	default:
		return &Result{Error: fmt.Sprintf("Unrecognized command: %s", command)}, nil
	}
}
