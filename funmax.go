// Package funmax provides a high-level façade over the agent runtime, the
// tool registry and the sandbox layer for running autonomous coding tasks.
// Most applications interact with this package by:
//  1. Creating a Runner via New() with a task id, a request and a model
//  2. Optionally selecting builtin tools, MCP servers and prompt templates
//  3. Calling Run() and reading progress from the event stream via On()
//
// The façade delegates the ReAct loop to agent.FunMax while keeping setup
// ergonomics concise. Defaults are safe for local use: an ephemeral sandbox
// per task, a no-op logger and an in-process event emitter.
package funmax

import (
	"context"

	"github.com/heyfun-ai/funmax/agent"
	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/model"
)

// Options configures the Runner.
type Options struct {
	// Agent options applied to the underlying agent.FunMax.
	AgentOptions []func(o *agent.Options)
}

// Runner is the high-level façade aggregating the agent and its event stream.
type Runner struct {
	agent *agent.FunMax
}

// New creates a Runner for a single task. The task id carries the sandbox
// identity and must have the form "organization/task".
func New(taskID, taskRequest string, llm model.Model, optFns ...func(o *Options)) (*Runner, error) {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	a, err := agent.New(taskID, taskRequest, llm, opts.AgentOptions...)
	if err != nil {
		return nil, err
	}

	return &Runner{agent: a}, nil
}

// Run executes the task to completion and returns the joined step results.
func (r *Runner) Run(ctx context.Context) (string, error) {
	return r.agent.Run(ctx)
}

// On subscribes a handler to lifecycle events matching the regex pattern.
func (r *Runner) On(pattern string, handler event.Handler) error {
	return r.agent.On(pattern, handler)
}

// State returns the agent's current lifecycle state.
func (r *Runner) State() core.AgentState { return r.agent.State() }

// Agent exposes the underlying agent for advanced use.
func (r *Runner) Agent() *agent.FunMax { return r.agent }

// Terminate requests a graceful stop after the current step.
func (r *Runner) Terminate() { r.agent.Terminate() }

// Cleanup releases the sandbox, browser and remote tool sessions.
func (r *Runner) Cleanup(ctx context.Context) { r.agent.Cleanup(ctx) }
