// Package agent implements the step-wise execution core: a ReAct state
// machine that alternates model reasoning with tool execution, plus the
// FunMax task driver that supplies prompt policy, tool curation and browser
// awareness on top of it.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/model"
	"github.com/heyfun-ai/funmax/prompt"
)

// defaultDuplicateThreshold is the number of identical assistant replies
// that counts as being stuck.
const defaultDuplicateThreshold = 2

const noStepsResult = "No steps executed"

// Driver supplies the policy hooks layered on the generic run loop. The
// base agent owns state transitions, step accounting and event bracketing;
// the driver owns prompts, tools and the actual think/act behavior.
type Driver interface {
	// Prepare readies the run: seed memory, build the tool set, open
	// helper contexts.
	Prepare(ctx context.Context) error

	// Plan issues the initial planning call before the first step.
	Plan(ctx context.Context) (string, error)

	// Think consults memory and the model, appends the decision to memory
	// and reports whether an action should follow.
	Think(ctx context.Context) (bool, error)

	// Act executes the decided tool calls and returns the joined result.
	Act(ctx context.Context) (string, error)
}

// BaseAgent manages run state, memory, step accounting and lifecycle events
// for one task. It is not safe for concurrent runs; each task gets its own
// instance.
type BaseAgent struct {
	name        string
	description string
	taskID      string

	llm     model.Model
	memory  *core.Memory
	emitter *event.Emitter
	logger  logging.Logger

	state           core.AgentState
	shouldPlan      bool
	shouldTerminate bool

	maxSteps    int
	currentStep int

	preStepInputTokens      int
	preStepCompletionTokens int

	duplicateThreshold int

	systemPrompt   string
	nextStepPrompt string
}

// Name returns the agent name.
func (a *BaseAgent) Name() string { return a.name }

// TaskID returns the composite task identifier.
func (a *BaseAgent) TaskID() string { return a.taskID }

// State returns the current run state.
func (a *BaseAgent) State() core.AgentState { return a.state }

// Memory returns the agent's conversational memory.
func (a *BaseAgent) Memory() *core.Memory { return a.memory }

// Model returns the reasoning model handle.
func (a *BaseAgent) Model() model.Model { return a.llm }

// CurrentStep returns the 1-based index of the step in flight, or the last
// completed step between steps.
func (a *BaseAgent) CurrentStep() int { return a.currentStep }

// MaxSteps returns the step budget.
func (a *BaseAgent) MaxSteps() int { return a.maxSteps }

// On subscribes a handler to events whose name matches the regex pattern.
func (a *BaseAgent) On(pattern string, handler event.Handler) error {
	return a.emitter.On(pattern, handler)
}

// Emit publishes an event stamped with the current step.
func (a *BaseAgent) Emit(name string, content map[string]any) {
	a.emitter.Emit(name, a.currentStep, content)
}

// Emitter returns the underlying event emitter.
func (a *BaseAgent) Emitter() *event.Emitter { return a.emitter }

// setState transitions the run state and publishes the change.
func (a *BaseAgent) setState(next core.AgentState) {
	if a.state == next {
		return
	}

	prev := a.state
	a.state = next

	a.Emit(event.StateChange, map[string]any{
		"old_state": prev.String(),
		"new_state": next.String(),
	})
}

// UpdateMemory appends a message to memory and publishes a memory event.
func (a *BaseAgent) UpdateMemory(msg core.Message) {
	a.memory.Add(msg)

	a.Emit(event.MemoryAdded, map[string]any{
		"role":    string(msg.Role),
		"content": msg.Content,
	})
}

// Terminate requests that the run stop after the current step.
func (a *BaseAgent) Terminate() {
	a.logger.Info("terminating task", "task_id", a.taskID)
	a.shouldTerminate = true
	a.Emit(event.LifecycleTerminating, nil)
}

// Finish moves the run to the finished state. Invoked when the termination
// tool completes successfully.
func (a *BaseAgent) Finish() {
	a.setState(core.StateFinished)
}

// run executes the main loop with the given driver. The request, when
// non-empty, is appended to memory before the first step.
func (a *BaseAgent) run(ctx context.Context, d Driver, request string) (string, error) {
	if a.state != core.StateIdle {
		return "", fmt.Errorf("cannot run agent from state %s", a.state)
	}

	a.Emit(event.LifecycleStart, map[string]any{"request": request})

	a.Emit(event.LifecyclePrepareStart, nil)

	if err := d.Prepare(ctx); err != nil {
		a.setState(core.StateErrored)
		return "", fmt.Errorf("prepare: %w", err)
	}

	a.Emit(event.LifecyclePrepareComplete, nil)

	a.setState(core.StateRunning)

	if request != "" {
		a.UpdateMemory(core.NewUserMessage(request))

		if a.shouldPlan {
			if _, err := d.Plan(ctx); err != nil {
				a.setState(core.StateErrored)
				return "", fmt.Errorf("plan: %w", err)
			}
		}
	}

	var (
		results []string
		runErr  error
	)

	for a.currentStep < a.maxSteps && a.state == core.StateRunning {
		a.currentStep++
		a.logger.Info("executing step", "step", a.currentStep, "max_steps", a.maxSteps)

		stepResult, err := a.step(ctx, d)
		if err != nil {
			runErr = err
			a.setState(core.StateErrored)

			break
		}

		if a.isStuck() {
			a.Emit(event.StateStuckDetected, nil)
			a.handleStuck()
		}

		results = append(results, fmt.Sprintf("Step %d: %s", a.currentStep, stepResult))

		if a.shouldTerminate {
			a.setState(core.StateFinished)
		}
	}

	if a.state == core.StateRunning && a.currentStep >= a.maxSteps {
		a.setState(core.StateTerminated)
		a.Emit(event.StepMaxReached, map[string]any{"max_steps": a.maxSteps})
		results = append(results, fmt.Sprintf("Terminated: Reached max steps (%d)", a.maxSteps))
	}

	usage := a.llm.Usage()
	tokenTotals := map[string]any{
		"total_input_tokens":      usage.InputTokens,
		"total_completion_tokens": usage.CompletionTokens,
	}

	switch {
	case runErr != nil:
		// step-error and state change events already describe the failure
	case a.shouldTerminate:
		a.Emit(event.LifecycleTerminated, tokenTotals)
	default:
		content := map[string]any{"results": results}
		for k, v := range tokenTotals {
			content[k] = v
		}

		a.Emit(event.LifecycleComplete, content)
	}

	output := noStepsResult
	if len(results) > 0 {
		output = strings.Join(results, "\n")
	}

	return output, runErr
}

// isStuck reports whether the latest assistant content has repeated beyond
// the duplicate threshold.
func (a *BaseAgent) isStuck() bool {
	messages := a.memory.Messages()
	if len(messages) < 2 {
		return false
	}

	last := messages[len(messages)-1]
	if last.Content == "" {
		return false
	}

	duplicates := 0
	for i := len(messages) - 2; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == core.RoleAssistant && msg.Content == last.Content {
			duplicates++
		}
	}

	return duplicates >= a.duplicateThreshold
}

// handleStuck prepends a strategy-change instruction to the next-step prompt.
func (a *BaseAgent) handleStuck() {
	a.nextStepPrompt = prompt.StuckPrompt + "\n" + a.nextStepPrompt
	a.logger.Warn("agent detected stuck state, adjusting prompt")

	a.Emit(event.StateStuckHandled, map[string]any{"new_prompt": a.nextStepPrompt})
}
