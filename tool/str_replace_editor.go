package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heyfun-ai/funmax/sandbox"
)

// NameStrReplaceEditor is the name of the builtin file editor tool.
const NameStrReplaceEditor = "str_replace_editor"

const strReplaceEditorDescription = `Custom editing tool for viewing, creating and editing files.
* The ` + "`create`" + ` command cannot be used if the specified path already exists as a file.
* The ` + "`str_replace`" + ` command replaces a unique occurrence of old_str in the file with new_str.
* The ` + "`undo_edit`" + ` command reverts the last edit made to the file at path.`

const maxViewLines = 400

// StrReplaceEditor edits workspace files through exact string replacement.
// It keeps an undo history per path for the lifetime of the tool.
type StrReplaceEditor struct {
	sb      *sandbox.Sandbox
	history map[string][]string
}

// NewStrReplaceEditor creates the editor tool. A sandbox must be injected
// before the first execution.
func NewStrReplaceEditor() *StrReplaceEditor {
	return &StrReplaceEditor{history: make(map[string][]string)}
}

// SetSandbox implements SandboxDependent.
func (e *StrReplaceEditor) SetSandbox(sb *sandbox.Sandbox) { e.sb = sb }

// Name implements Tool.
func (e *StrReplaceEditor) Name() string { return NameStrReplaceEditor }

// Description implements Tool.
func (e *StrReplaceEditor) Description() string { return strReplaceEditorDescription }

// Parameters implements Tool.
func (e *StrReplaceEditor) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The editor command to run.",
				"enum":        []any{"view", "create", "str_replace", "insert", "undo_edit"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file or directory.",
			},
			"file_text": map[string]any{
				"type":        "string",
				"description": "Content of the file to create. Required for 'create' command.",
			},
			"old_str": map[string]any{
				"type":        "string",
				"description": "String to replace. Required for 'str_replace' command.",
			},
			"new_str": map[string]any{
				"type":        "string",
				"description": "Replacement string for 'str_replace', or the string to insert for 'insert'.",
			},
			"insert_line": map[string]any{
				"type":        "integer",
				"description": "Line after which new_str is inserted. Required for 'insert' command.",
			},
		},
		"required": []any{"command", "path"},
	}
}

// Execute implements Tool.
func (e *StrReplaceEditor) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	if e.sb == nil {
		return nil, NewToolError(NameStrReplaceEditor, "no sandbox attached", "not_ready")
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
	case "view":
		return e.view(ctx, path)
	case "create":
		fileText, _ := stringArg(args, "file_text")
		return e.create(path, fileText)
	case "str_replace":
		oldStr, err := requireString(args, "old_str")
		if err != nil {
			return &Result{Error: "Parameter 'old_str' is required for 'str_replace' command"}, nil
		}

		newStr, _ := stringArg(args, "new_str")

		return e.strReplace(path, oldStr, newStr)
	case "insert":
		line, err := intArg(args, "insert_line", -1)
		if err != nil {
			return nil, err
		}

		if line < 0 {
			return &Result{Error: "Parameter 'insert_line' is required for 'insert' command"}, nil
		}

		newStr, _ := stringArg(args, "new_str")

		return e.insert(path, line, newStr)
	case "undo_edit":
		return e.undoEdit(path)
	default:
		return &Result{Error: fmt.Sprintf("Unrecognized command: %s", command)}, nil
	}
}

func (e *StrReplaceEditor) view(ctx context.Context, path string) (*Result, error) {
	isDir, err := e.sb.IsDirectory(path)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	if isDir {
		output, err := e.sb.RunCommand(ctx, fmt.Sprintf("find %q -maxdepth 2 -not -path '*/.*'", path), 10*time.Second)
		if err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: output}, nil
	}

	content, err := e.sb.ReadFile(path)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	return &Result{Output: numberLines(content)}, nil
}

func (e *StrReplaceEditor) create(path, fileText string) (*Result, error) {
	exists, err := e.sb.Exists(path)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	if exists {
		return &Result{Error: fmt.Sprintf("File already exists at: %s. Cannot overwrite files using command 'create'.", path)}, nil
	}

	if err := e.sb.WriteFile(path, fileText); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	return &Result{Output: fmt.Sprintf("File created successfully at: %s", path)}, nil
}

func (e *StrReplaceEditor) strReplace(path, oldStr, newStr string) (*Result, error) {
	content, err := e.sb.ReadFile(path)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	occurrences := strings.Count(content, oldStr)
	switch {
	case occurrences == 0:
		return &Result{Error: fmt.Sprintf("No replacement was performed, old_str did not appear verbatim in %s.", path)}, nil
	case occurrences > 1:
		return &Result{Error: fmt.Sprintf("No replacement was performed. Multiple occurrences of old_str in %s. Please ensure it is unique.", path)}, nil
	}

	updated := strings.Replace(content, oldStr, newStr, 1)
	if err := e.sb.WriteFile(path, updated); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	e.history[path] = append(e.history[path], content)

	return &Result{Output: fmt.Sprintf("The file %s has been edited.", path)}, nil
}

func (e *StrReplaceEditor) insert(path string, insertLine int, newStr string) (*Result, error) {
	content, err := e.sb.ReadFile(path)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	lines := strings.Split(content, "\n")
	if insertLine > len(lines) {
		return &Result{Error: fmt.Sprintf("Invalid insert_line %d. It should be within the range of lines of the file: [0, %d].", insertLine, len(lines))}, nil
	}

	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:insertLine]...)
	updated = append(updated, newStr)
	updated = append(updated, lines[insertLine:]...)

	if err := e.sb.WriteFile(path, strings.Join(updated, "\n")); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	e.history[path] = append(e.history[path], content)

	return &Result{Output: fmt.Sprintf("The file %s has been edited.", path)}, nil
}

func (e *StrReplaceEditor) undoEdit(path string) (*Result, error) {
	versions := e.history[path]
	if len(versions) == 0 {
		return &Result{Error: fmt.Sprintf("No edit history found for %s.", path)}, nil
	}

	last := versions[len(versions)-1]
	e.history[path] = versions[:len(versions)-1]

	if err := e.sb.WriteFile(path, last); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	return &Result{Output: fmt.Sprintf("Last edit to %s undone successfully.", path)}, nil
}

func numberLines(content string) string {
	lines := strings.Split(content, "\n")

	truncated := false
	if len(lines) > maxViewLines {
		lines = lines[:maxViewLines]
		truncated = true
	}

	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%6d\t%s\n", i+1, line)
	}

	if truncated {
		sb.WriteString("... (output truncated)\n")
	}

	return sb.String()
}
