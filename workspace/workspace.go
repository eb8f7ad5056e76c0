// Package workspace maps the virtual workspace root that agents and tools
// operate on to a directory on the host filesystem, and persists artifacts
// such as browser screenshots under it.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// VirtualRoot is the path prefix under which tools address workspace files.
// Model-facing prompts and tool arguments use this prefix regardless of
// where the backing directory lives on the host.
const VirtualRoot = "/workspace"

// ErrOutsideWorkspace is wrapped into resolution errors for paths that would
// escape the workspace root.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("workspace path %q: %s", e.Path, e.Reason)
}

// Workspace is a sandboxed directory tree rooted on the host filesystem.
type Workspace struct {
	root string
}

// New creates the backing directory if needed and returns a workspace
// rooted at it.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	return &Workspace{root: abs}, nil
}

// Root returns the host directory backing the workspace.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a virtual or relative path to a host path inside the
// workspace. Paths under VirtualRoot are remapped onto the root; relative
// paths are joined to it. Anything that would escape the root is rejected.
func (w *Workspace) Resolve(path string) (string, error) {
	p := path
	if p == "" {
		p = "."
	}

	switch {
	case p == VirtualRoot:
		p = "."
	case strings.HasPrefix(p, VirtualRoot+"/"):
		p = strings.TrimPrefix(p, VirtualRoot+"/")
	case filepath.IsAbs(p):
		// Absolute host paths are only accepted when already inside the root.
		rel, err := filepath.Rel(w.root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", &PathError{Path: path, Reason: "outside the workspace root"}
		}
		p = rel
	}

	resolved := filepath.Join(w.root, p)

	rel, err := filepath.Rel(w.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Path: path, Reason: "outside the workspace root"}
	}

	return resolved, nil
}

// Virtual maps a host path inside the workspace back to its virtual form.
func (w *Workspace) Virtual(hostPath string) string {
	rel, err := filepath.Rel(w.root, hostPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return hostPath
	}

	if rel == "." {
		return VirtualRoot
	}

	return VirtualRoot + "/" + filepath.ToSlash(rel)
}

// ReadFile reads a workspace file addressed by virtual or relative path.
func (w *Workspace) ReadFile(path string) (string, error) {
	resolved, err := w.Resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// WriteFile writes a workspace file, creating parent directories as needed.
func (w *Workspace) WriteFile(path, content string) error {
	resolved, err := w.Resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}

	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// Stat returns file info for a workspace path, or nil when it does not exist.
func (w *Workspace) Stat(path string) (os.FileInfo, error) {
	resolved, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return nil, nil
	}

	return info, err
}

// SaveScreenshot persists a captured screenshot under screenshots/ and
// returns its virtual path.
func (w *Workspace) SaveScreenshot(step int, data []byte) (string, error) {
	name := fmt.Sprintf("step_%d_%d.png", step, time.Now().UnixMilli())
	rel := filepath.Join("screenshots", name)

	resolved, err := w.Resolve(rel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	return w.Virtual(resolved), nil
}
