package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/model"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives cleanup diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Registry holds the tools available to an agent. Registration order is
// preserved: tool definitions are presented to the model, and cleanup hooks
// are invoked, in the order tools were registered.
type Registry struct {
	mu      sync.Mutex
	tools   map[string]Tool
	order   []string
	cleaned bool
	logger  logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		tools:  make(map[string]Tool),
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Register adds a tool to the registry. Registering a name twice returns a
// DuplicateToolError and leaves the registry unchanged.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}

	r.tools[name] = t
	r.order = append(r.order, name)

	return nil
}

// RegisterAll registers tools in the given order, stopping at the first
// duplicate. Tools registered before the failure remain registered.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}

	return nil
}

// Resolve returns the tool registered under name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tools[name]
	if !exists {
		return nil, &UnknownToolError{Name: name}
	}

	return t, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.tools[name]

	return exists
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}

	return tools
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.order)
}

// Definitions returns the wire-level tool definitions in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	tools := r.Tools()

	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, Definition(t))
	}

	return defs
}

// Execute resolves name and runs the tool with the given arguments. Arguments
// are validated against the tool's schema before execution. Execution errors
// are folded into the returned result so a failing tool never aborts the
// surrounding batch.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	if err := ValidateParameters(args, t.Parameters()); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	start := time.Now()

	result, err := t.Execute(ctx, args)
	if err != nil {
		logging.LogToolCall(r.logger, name, time.Since(start), false, err)
		return &Result{Error: err.Error()}, nil
	}

	if result == nil {
		result = &Result{}
	}

	logging.LogToolCall(r.logger, name, time.Since(start), !result.Failed(), nil)

	return result, nil
}

// Cleanup invokes the Cleanup hook of every registered tool that implements
// Cleaner, in registration order. Failures are logged and do not prevent the
// remaining hooks from running. Subsequent calls are no-ops, so the owning
// agent can call Cleanup from multiple shutdown paths safely.
func (r *Registry) Cleanup(ctx context.Context) {
	r.mu.Lock()
	if r.cleaned {
		r.mu.Unlock()
		return
	}

	r.cleaned = true

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	r.mu.Unlock()

	for _, t := range tools {
		cleaner, ok := t.(Cleaner)
		if !ok {
			continue
		}

		if err := cleaner.Cleanup(ctx); err != nil {
			r.logger.Warn(fmt.Sprintf("cleanup of tool %s failed", t.Name()), "error", err)
		}
	}
}
