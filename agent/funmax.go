package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/model"
	"github.com/heyfun-ai/funmax/prompt"
	"github.com/heyfun-ai/funmax/sandbox"
	"github.com/heyfun-ai/funmax/tool"
	"github.com/heyfun-ai/funmax/tool/mcp"
)

const (
	defaultName        = "FunMax"
	defaultDescription = "A versatile agent that can solve various tasks using multiple tools"
	defaultLanguage    = "English"
	defaultMaxSteps    = 10
)

// Template keys accepted in Options.CustomTemplates.
const (
	TemplateSystemPrompt   = "system_prompt"
	TemplateNextStepPrompt = "next_step_prompt"
	TemplatePlanPrompt     = "plan_prompt"
)

// HistoryEntry is one prior conversation turn replayed into memory at
// prepare time.
type HistoryEntry struct {
	Role    core.Role `json:"role"`
	Message string    `json:"message"`
}

// Options configures a FunMax agent.
type Options struct {
	// Name and Description identify the agent in prompts and logs.
	Name        string
	Description string

	// Language is the preferred answer language. Defaults to English.
	Language string

	// MaxSteps is the step budget. A run that exhausts it without finishing
	// ends in the terminated state.
	MaxSteps int

	// ShouldPlan enables the initial planning call before the first step.
	ShouldPlan bool

	// BuiltinTools names builtin tools to register, resolved against the
	// static constructor table. Unknown names fail construction.
	BuiltinTools []string

	// RemoteTools describes remote tool servers to connect during prepare.
	RemoteTools []mcp.ClientConfig

	// History is replayed into memory after the system prompt, in order.
	History []HistoryEntry

	// BrowserRecencyWindow is how many recent memory entries are scanned
	// for browser usage before switching to the browser prompt. Defaults
	// to 3.
	BrowserRecencyWindow int

	// MaxObserve caps the length of tool observations written to memory.
	MaxObserve int

	// CustomTemplates overrides the default prompt templates by key.
	CustomTemplates map[string]string

	// SandboxManager provides the per-task sandbox. A private manager is
	// created when nil.
	SandboxManager *sandbox.Manager

	// Emitter receives lifecycle events. A private emitter is created
	// when nil.
	Emitter *event.Emitter

	// Renderer expands prompt templates. A default renderer is created
	// when nil.
	Renderer *prompt.Renderer

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// FunMax is a versatile general-purpose agent. It layers prompt policy,
// tool curation and browser awareness on the generic step state machine.
type FunMax struct {
	BaseAgent

	organizationID string
	taskKey        string
	taskRequest    string
	language       string

	builtinTools []string
	remoteTools  []mcp.ClientConfig
	history      []HistoryEntry

	systemTemplate   string
	nextStepTemplate string
	planTemplate     string

	renderer     *prompt.Renderer
	manager      *sandbox.Manager
	ownedMgr     bool
	ownedEmitter bool

	tools   *ToolCallContext
	browser *BrowserContext

	browserWindow int
	maxObserve    int

	sb *sandbox.Sandbox
}

// New creates a FunMax agent for one task. The task identifier is composite,
// "organization/task", and determines the sandbox and workspace identity.
func New(taskID, taskRequest string, llm model.Model, optFns ...func(o *Options)) (*FunMax, error) {
	opts := Options{
		Name:        defaultName,
		Description: defaultDescription,
		Language:    defaultLanguage,
		MaxSteps:    defaultMaxSteps,
		ShouldPlan:  true,
		MaxObserve:  defaultMaxObserve,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	organizationID, taskKey, ok := strings.Cut(taskID, "/")
	if !ok || organizationID == "" || taskKey == "" {
		return nil, fmt.Errorf("task id %q must have the form organization/task", taskID)
	}

	if llm == nil {
		return nil, fmt.Errorf("a model is required")
	}

	for _, name := range opts.BuiltinTools {
		if !tool.IsBuiltin(name) {
			return nil, &tool.UnknownToolError{Name: name}
		}
	}

	for _, cfg := range opts.RemoteTools {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.OrNoOp(opts.Logger)

	emitter := opts.Emitter
	ownedEmitter := emitter == nil
	if ownedEmitter {
		emitter = event.NewEmitter(func(o *event.EmitterOptions) { o.Logger = logger })
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = prompt.NewRenderer(func(o *prompt.RendererOptions) { o.Logger = logger })
	}

	manager := opts.SandboxManager
	ownedMgr := manager == nil
	if ownedMgr {
		manager = sandbox.NewManager(func(o *sandbox.ManagerOptions) { o.Logger = logger })
	}

	f := &FunMax{
		BaseAgent: BaseAgent{
			name:               opts.Name,
			description:        opts.Description,
			taskID:             taskID,
			llm:                llm,
			memory:             core.NewMemory(),
			emitter:            emitter,
			logger:             logger,
			state:              core.StateIdle,
			shouldPlan:         opts.ShouldPlan,
			maxSteps:           opts.MaxSteps,
			duplicateThreshold: defaultDuplicateThreshold,
		},
		organizationID: organizationID,
		taskKey:        taskKey,
		taskRequest:    taskRequest,
		language:       opts.Language,
		builtinTools:   opts.BuiltinTools,
		remoteTools:    opts.RemoteTools,
		history:        opts.History,
		renderer:       renderer,
		manager:        manager,
		ownedMgr:       ownedMgr,
		ownedEmitter:   ownedEmitter,
		browserWindow:  opts.BrowserRecencyWindow,
		maxObserve:     opts.MaxObserve,
	}

	f.systemTemplate = templateOr(opts.CustomTemplates, TemplateSystemPrompt, prompt.SystemPrompt)
	f.nextStepTemplate = templateOr(opts.CustomTemplates, TemplateNextStepPrompt, prompt.NextStepPrompt)
	f.planTemplate = templateOr(opts.CustomTemplates, TemplatePlanPrompt, prompt.PlanPrompt)

	f.systemPrompt = renderer.RenderSafe(f.systemTemplate, map[string]any{
		"Name":        f.name,
		"TaskID":      f.taskKey,
		"Language":    f.language,
		"MaxSteps":    f.maxSteps,
		"CurrentTime": time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	})
	f.nextStepPrompt = f.renderNextStepPrompt()

	return f, nil
}

func templateOr(templates map[string]string, key, def string) string {
	if t, ok := templates[key]; ok && t != "" {
		return t
	}

	return def
}

// Run executes the task to completion and returns the joined step results.
// The returned state is one of finished, terminated or errored.
func (f *FunMax) Run(ctx context.Context) (string, error) {
	return f.BaseAgent.run(ctx, f, f.taskRequest)
}

// Tools exposes the tool-call context after Prepare has run.
func (f *FunMax) Tools() *ToolCallContext { return f.tools }

// Prepare implements Driver. It acquires the task sandbox, seeds memory with
// the system prompt and history, builds the tool set and obtains a short
// task summary for observability.
func (f *FunMax) Prepare(ctx context.Context) error {
	sb, err := f.manager.Acquire(f.organizationID, f.taskKey)
	if err != nil {
		return fmt.Errorf("acquire sandbox: %w", err)
	}

	f.sb = sb

	f.UpdateMemory(core.NewSystemMessage(f.systemPrompt))

	for _, entry := range f.history {
		msg, err := historyMessage(entry)
		if err != nil {
			return err
		}

		f.UpdateMemory(msg)
	}

	f.tools = newToolCallContext(&f.BaseAgent)
	f.tools.maxObserve = f.maxObserve
	f.browser = newBrowserContext(&f.BaseAgent, f.tools, f.renderer, sb.Workspace(), f.language, f.browserWindow)

	if err := f.tools.AddTool(tool.NewTerminate()); err != nil {
		return err
	}

	for _, name := range f.builtinTools {
		t, err := tool.NewBuiltin(name)
		if err != nil {
			return err
		}

		f.wireCapabilities(t)

		if err := f.tools.AddTool(t); err != nil {
			return err
		}
	}

	for _, cfg := range f.remoteTools {
		if err := f.tools.AddRemote(ctx, cfg); err != nil {
			return err
		}
	}

	f.emitSummary(ctx)

	f.logger.Info("prepare complete", "tools", strings.Join(f.tools.registry.Names(), ", "))

	return nil
}

// wireCapabilities injects the optional dependencies a tool declares through
// its capability interfaces.
func (f *FunMax) wireCapabilities(t tool.Tool) {
	if dep, ok := t.(tool.ModelDependent); ok {
		dep.SetModel(f.llm)
	}

	if dep, ok := t.(tool.SandboxDependent); ok {
		dep.SetSandbox(f.sb)
	}
}

// emitSummary asks the model for a short task title. The run proceeds
// regardless of the outcome.
func (f *FunMax) emitSummary(ctx context.Context) {
	summary, err := f.llm.Ask(ctx,
		[]core.Message{core.NewUserMessage(f.taskRequest)},
		[]core.Message{core.NewSystemMessage(prompt.SummaryInstruction)},
	)
	if err != nil {
		f.logger.Warn("task summary request failed", "error", err)
		return
	}

	f.Emit(event.LifecycleSummary, map[string]any{"summary": summary})
}

// Plan implements Driver. It asks the model for an initial plan given the
// task request and the available tool descriptions, and appends the plan to
// memory.
func (f *FunMax) Plan(ctx context.Context) (string, error) {
	f.Emit(event.LifecyclePlanStart, nil)

	var toolLines []string
	for _, t := range f.tools.registry.Tools() {
		toolLines = append(toolLines, fmt.Sprintf("- %s: %s", t.Name(), t.Description()))
	}

	planPrompt := f.renderer.RenderSafe(f.planTemplate, map[string]any{
		"Language":       f.language,
		"MaxSteps":       f.maxSteps,
		"AvailableTools": strings.Join(toolLines, "\n"),
	})

	plan, err := f.llm.Ask(ctx,
		[]core.Message{
			core.NewSystemMessage(planPrompt),
			core.NewUserMessage(f.taskRequest),
		},
		[]core.Message{core.NewSystemMessage(f.systemPrompt)},
	)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}

	f.UpdateMemory(core.NewUserMessage(plan))
	f.Emit(event.LifecyclePlanComplete, map[string]any{"plan": plan})

	return plan, nil
}

// Think implements Driver. The next-step prompt is re-rendered with fresh
// step-budget figures for every call; while the browser is in recent use the
// browser-aware prompt is substituted for this call only and restored on all
// exit paths.
func (f *FunMax) Think(ctx context.Context) (bool, error) {
	original := f.nextStepPrompt
	defer func() { f.nextStepPrompt = original }()

	f.nextStepPrompt = f.renderNextStepPrompt()

	if f.browser.RecentlyUsed() {
		f.nextStepPrompt = f.browser.FormatNextStepPrompt(ctx)
	}

	return f.tools.Ask(ctx)
}

// Act implements Driver. Per-call results are joined with a blank line in
// call order.
func (f *FunMax) Act(ctx context.Context) (string, error) {
	results, err := f.tools.Execute(ctx)
	if err != nil {
		return "", err
	}

	return strings.Join(results, "\n\n"), nil
}

func (f *FunMax) renderNextStepPrompt() string {
	return f.renderer.RenderSafe(f.nextStepTemplate, map[string]any{
		"MaxSteps":       f.maxSteps,
		"CurrentStep":    f.currentStep,
		"RemainingSteps": f.maxSteps - f.currentStep,
	})
}

// Cleanup releases the run's resources: browser session first, then the
// tool registry and remote sessions, then the sandbox. Each failure is
// logged and does not prevent the next teardown.
func (f *FunMax) Cleanup(ctx context.Context) {
	f.logger.Info("cleaning up agent resources", "agent", f.name)

	if f.browser != nil {
		f.browser.Cleanup(ctx)
	}

	if f.tools != nil {
		f.tools.Cleanup(ctx)
	}

	if f.sb != nil {
		if err := f.manager.Release(f.sb.ID()); err != nil {
			f.logger.Warn("sandbox release failed", "error", err)
		}

		f.sb = nil
	}

	if f.ownedMgr {
		if err := f.manager.Cleanup(); err != nil {
			f.logger.Warn("sandbox manager cleanup failed", "error", err)
		}
	}

	// A caller-supplied emitter may outlive this agent; a private one must
	// not leave its dispatch goroutine behind.
	if f.ownedEmitter {
		f.emitter.Close()
	} else {
		f.emitter.Wait()
	}

	f.logger.Info("cleanup complete", "agent", f.name)
}

func historyMessage(entry HistoryEntry) (core.Message, error) {
	switch entry.Role {
	case core.RoleSystem:
		return core.NewSystemMessage(entry.Message), nil
	case core.RoleUser:
		return core.NewUserMessage(entry.Message), nil
	case core.RoleAssistant:
		return core.NewAssistantMessage(entry.Message), nil
	default:
		return core.Message{}, fmt.Errorf("unsupported history role %q", entry.Role)
	}
}
