package agent

import (
	"context"

	"github.com/heyfun-ai/funmax/event"
)

// thinkOnlyResult is returned when the model produced a plain answer with no
// tool calls attached, so there is nothing to act on.
const thinkOnlyResult = "Thinking complete - no action needed"

// step runs one think-then-maybe-act cycle. Start and completion events
// bracket the body; a failure inside the body produces a step error event
// before the error propagates to the loop controller.
func (a *BaseAgent) step(ctx context.Context, d Driver) (string, error) {
	a.Emit(event.StepStart, nil)

	result, err := a.runStep(ctx, d)
	if err != nil {
		a.Emit(event.StepError, map[string]any{"error": err.Error()})
		return "", err
	}

	a.Emit(event.StepComplete, map[string]any{"result": result})

	return result, nil
}

func (a *BaseAgent) runStep(ctx context.Context, d Driver) (string, error) {
	a.Emit(event.ThinkStart, nil)

	shouldAct, err := d.Think(ctx)
	if err != nil {
		return "", err
	}

	a.emitTokenDelta(event.ThinkTokenCount)
	a.Emit(event.ThinkComplete, nil)

	if !shouldAct && !a.shouldTerminate {
		return thinkOnlyResult, nil
	}

	a.Emit(event.ActStart, nil)

	result, err := d.Act(ctx)
	if err != nil {
		return "", err
	}

	a.emitTokenDelta(event.ActTokenCount)
	a.Emit(event.ActComplete, nil)

	return result, nil
}

// emitTokenDelta publishes the step-local token consumption since the last
// baseline. The model's counters are cumulative across the whole run, so the
// delta is derived by differencing two reads and the new totals become the
// baseline for the next phase.
func (a *BaseAgent) emitTokenDelta(name string) {
	usage := a.llm.Usage()

	a.Emit(name, map[string]any{
		"input":            usage.InputTokens - a.preStepInputTokens,
		"completion":       usage.CompletionTokens - a.preStepCompletionTokens,
		"total_input":      usage.InputTokens,
		"total_completion": usage.CompletionTokens,
	})

	a.preStepInputTokens = usage.InputTokens
	a.preStepCompletionTokens = usage.CompletionTokens
}
