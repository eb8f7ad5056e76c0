package sandbox

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/heyfun-ai/funmax/logging"
)

// Key derives the canonical sandbox identifier for a task. Every task of an
// organization gets its own sandbox so concurrent runs never share files.
func Key(organizationID, taskID string) string {
	return fmt.Sprintf("heyfun-sandbox-%s-%s", organizationID, taskID)
}

// NotFoundError is returned when a sandbox key is not tracked by the manager.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sandbox %q not found", e.Key)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// BaseDir is the parent directory for sandbox workspaces. When empty,
	// each sandbox gets an ephemeral temporary directory.
	BaseDir string

	// DefaultTimeout is applied to sandboxes created by the manager.
	DefaultTimeout int

	// Logger receives lifecycle diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Manager creates and tracks sandboxes keyed by organization and task.
type Manager struct {
	mu        sync.Mutex
	sandboxes map[string]*Sandbox
	baseDir   string
	logger    logging.Logger
}

// NewManager creates an empty sandbox manager.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		sandboxes: make(map[string]*Sandbox),
		baseDir:   opts.BaseDir,
		logger:    logging.OrNoOp(opts.Logger),
	}
}

// Acquire returns the sandbox for the given organization and task, creating
// it on first use.
func (m *Manager) Acquire(organizationID, taskID string) (*Sandbox, error) {
	key := Key(organizationID, taskID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if sb, exists := m.sandboxes[key]; exists {
		return sb, nil
	}

	sb, err := New(key, func(o *Options) {
		if m.baseDir != "" {
			o.WorkDir = filepath.Join(m.baseDir, key)
		}

		o.Logger = m.logger
	})
	if err != nil {
		return nil, err
	}

	m.sandboxes[key] = sb
	m.logger.Info("sandbox created", "key", key)

	return sb, nil
}

// Get returns an existing sandbox by key.
func (m *Manager) Get(key string) (*Sandbox, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sb, exists := m.sandboxes[key]
	if !exists {
		return nil, &NotFoundError{Key: key}
	}

	return sb, nil
}

// Release cleans up and forgets the sandbox with the given key. Releasing an
// unknown key is a no-op.
func (m *Manager) Release(key string) error {
	m.mu.Lock()
	sb, exists := m.sandboxes[key]
	delete(m.sandboxes, key)
	m.mu.Unlock()

	if !exists {
		return nil
	}

	m.logger.Info("sandbox released", "key", key)

	return sb.Cleanup()
}

// Cleanup releases every tracked sandbox. The first error is returned after
// all sandboxes have been attempted.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	sandboxes := make([]*Sandbox, 0, len(m.sandboxes))
	for _, sb := range m.sandboxes {
		sandboxes = append(sandboxes, sb)
	}
	m.sandboxes = make(map[string]*Sandbox)
	m.mu.Unlock()

	var firstErr error
	for _, sb := range sandboxes {
		if err := sb.Cleanup(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
