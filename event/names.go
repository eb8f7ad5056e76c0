package event

// Event names form a colon-separated hierarchy so consumers can subscribe to
// whole subtrees with a single regex pattern (e.g. `agent:lifecycle:step:.*`).
const (
	lifecyclePrefix = "agent:lifecycle"

	// Run lifecycle.
	LifecycleStart           = lifecyclePrefix + ":start"
	LifecycleSummary         = lifecyclePrefix + ":summary"
	LifecyclePrepareStart    = lifecyclePrefix + ":prepare:start"
	LifecyclePrepareComplete = lifecyclePrefix + ":prepare:complete"
	LifecyclePlanStart       = lifecyclePrefix + ":plan:start"
	LifecyclePlanComplete    = lifecyclePrefix + ":plan:complete"
	LifecycleComplete        = lifecyclePrefix + ":complete"
	LifecycleTerminating     = lifecyclePrefix + ":terminating"
	LifecycleTerminated      = lifecyclePrefix + ":terminated"

	// Run state.
	StateChange        = lifecyclePrefix + ":state:change"
	StateStuckDetected = lifecyclePrefix + ":state:stuck_detected"
	StateStuckHandled  = lifecyclePrefix + ":state:stuck_handled"

	// Step budget.
	StepMaxReached = lifecyclePrefix + ":step_max_reached"

	// Memory.
	MemoryAdded = lifecyclePrefix + ":memory:added"

	// Step lifecycle.
	StepStart    = lifecyclePrefix + ":step:start"
	StepComplete = lifecyclePrefix + ":step:complete"
	StepError    = lifecyclePrefix + ":step:error"

	// Think sub-phase.
	ThinkStart      = lifecyclePrefix + ":step:think:start"
	ThinkComplete   = lifecyclePrefix + ":step:think:complete"
	ThinkError      = lifecyclePrefix + ":step:think:error"
	ThinkTokenCount = lifecyclePrefix + ":step:think:token:count"

	// Act sub-phase.
	ActStart      = lifecyclePrefix + ":step:act:start"
	ActComplete   = lifecyclePrefix + ":step:act:complete"
	ActError      = lifecyclePrefix + ":step:act:error"
	ActTokenCount = lifecyclePrefix + ":step:act:token:count"

	// Tool selection (think side) and execution (act side).
	ToolSelected        = lifecyclePrefix + ":step:think:tool:selected"
	ToolStart           = lifecyclePrefix + ":step:act:tool:start"
	ToolComplete        = lifecyclePrefix + ":step:act:tool:complete"
	ToolError           = lifecyclePrefix + ":step:act:tool:error"
	ToolExecuteStart    = lifecyclePrefix + ":step:act:tool:execute:start"
	ToolExecuteComplete = lifecyclePrefix + ":step:act:tool:execute:complete"

	// Browser helper.
	BrowserUseStart    = lifecyclePrefix + ":step:think:browser:browse:start"
	BrowserUseComplete = lifecyclePrefix + ":step:think:browser:browse:complete"
	BrowserUseError    = lifecyclePrefix + ":step:think:browser:browse:error"
)
