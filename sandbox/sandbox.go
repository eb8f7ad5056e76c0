// Package sandbox provides per-task execution environments. A Sandbox couples
// an isolated workspace directory with controlled command execution; the
// Manager tracks sandboxes by organization and task so concurrent tasks never
// share state.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/workspace"
)

// DefaultCommandTimeout bounds command execution when the caller does not
// supply a timeout.
const DefaultCommandTimeout = 300 * time.Second

// Options configures a Sandbox.
type Options struct {
	// WorkDir is the host directory backing the sandbox workspace. When
	// empty, an ephemeral directory is created and removed on Cleanup.
	WorkDir string

	// DefaultTimeout bounds RunCommand when no per-call timeout is given.
	DefaultTimeout time.Duration

	// Logger receives command diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Sandbox executes commands and file operations inside a dedicated
// workspace directory.
type Sandbox struct {
	id             string
	ws             *workspace.Workspace
	ephemeral      bool
	defaultTimeout time.Duration
	logger         logging.Logger
}

// New creates a sandbox identified by id.
func New(id string, optFns ...func(o *Options)) (*Sandbox, error) {
	opts := Options{
		DefaultTimeout: DefaultCommandTimeout,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	ephemeral := false

	workDir := opts.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", id+"-")
		if err != nil {
			return nil, fmt.Errorf("create sandbox dir: %w", err)
		}

		workDir = dir
		ephemeral = true
	}

	ws, err := workspace.New(workDir)
	if err != nil {
		return nil, err
	}

	return &Sandbox{
		id:             id,
		ws:             ws,
		ephemeral:      ephemeral,
		defaultTimeout: opts.DefaultTimeout,
		logger:         logging.OrNoOp(opts.Logger),
	}, nil
}

// ID returns the sandbox identifier.
func (s *Sandbox) ID() string { return s.id }

// Workspace returns the workspace backing the sandbox.
func (s *Sandbox) Workspace() *workspace.Workspace { return s.ws }

// WorkDir returns the host directory commands run in.
func (s *Sandbox) WorkDir() string { return s.ws.Root() }

// RunCommand executes a shell command in the sandbox workspace and returns
// its combined output. A non-positive timeout falls back to the sandbox
// default. Timed out commands are killed and reported as an error carrying
// any partial output.
func (s *Sandbox) RunCommand(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "/bin/sh", "-c", command)
	cmd.Dir = s.ws.Root()

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	output := buf.String()

	switch {
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		s.logger.Warn("sandbox command timed out", "sandbox", s.id, "timeout", timeout)
		return output, fmt.Errorf("command timed out after %s", timeout)
	case err != nil:
		s.logger.Debug("sandbox command failed", "sandbox", s.id, "duration", dur, "error", err)
		return output, err
	}

	s.logger.Debug("sandbox command completed", "sandbox", s.id, "duration", dur)

	return output, nil
}

// ReadFile reads a file from the sandbox workspace.
func (s *Sandbox) ReadFile(path string) (string, error) {
	return s.ws.ReadFile(path)
}

// WriteFile writes a file into the sandbox workspace.
func (s *Sandbox) WriteFile(path, content string) error {
	return s.ws.WriteFile(path, content)
}

// Exists reports whether a workspace path exists.
func (s *Sandbox) Exists(path string) (bool, error) {
	info, err := s.ws.Stat(path)
	if err != nil {
		return false, err
	}

	return info != nil, nil
}

// IsDirectory reports whether a workspace path is a directory.
func (s *Sandbox) IsDirectory(path string) (bool, error) {
	info, err := s.ws.Stat(path)
	if err != nil {
		return false, err
	}

	return info != nil && info.IsDir(), nil
}

// Cleanup releases sandbox resources. Ephemeral workspaces are removed from
// disk; caller-provided directories are left in place.
func (s *Sandbox) Cleanup() error {
	if !s.ephemeral {
		return nil
	}

	return os.RemoveAll(s.ws.Root())
}
