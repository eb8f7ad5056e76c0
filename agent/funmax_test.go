package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/model"
	"github.com/heyfun-ai/funmax/sandbox"
	"github.com/heyfun-ai/funmax/tool"
)

// eventCollector records emitted event names for assertions.
type eventCollector struct {
	mu    sync.Mutex
	items []event.Item
}

func (c *eventCollector) handler(item event.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)

	return nil
}

func (c *eventCollector) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		if item.Name == name {
			n++
		}
	}

	return n
}

func chatToolCall(id string) core.ToolCall {
	return core.ToolCall{
		ID:   id,
		Type: "function",
		Function: core.Function{
			Name:      tool.NameCreateChatCompletion,
			Arguments: `{"prompt": "keep going"}`,
		},
	}
}

func newTestAgent(t *testing.T, llm model.Model, optFns ...func(o *Options)) *FunMax {
	t.Helper()

	manager := sandbox.NewManager(func(o *sandbox.ManagerOptions) {
		o.BaseDir = t.TempDir()
	})

	fns := append([]func(o *Options){func(o *Options) {
		o.ShouldPlan = false
		o.SandboxManager = manager
	}}, optFns...)

	f, err := New("acme/task-1", "do the thing", llm, fns...)
	require.NoError(t, err)

	return f
}

func TestNewValidation(t *testing.T) {
	llm := model.NewMockModel()

	t.Run("requires composite task id", func(t *testing.T) {
		_, err := New("task-without-org", "request", llm)
		assert.Error(t, err)
	})

	t.Run("rejects unknown builtin tool names at construction", func(t *testing.T) {
		_, err := New("acme/task-1", "request", llm, func(o *Options) {
			o.BuiltinTools = []string{"no_such_tool"}
		})

		var unknown *tool.UnknownToolError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "no_such_tool", unknown.Name)
	})

	t.Run("requires a model", func(t *testing.T) {
		_, err := New("acme/task-1", "request", nil)
		assert.Error(t, err)
	})
}

func TestRunExhaustsStepBudget(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{
			{Content: "working", ToolCalls: []core.ToolCall{chatToolCall("call-1")}},
		}
	})

	f := newTestAgent(t, llm, func(o *Options) {
		o.MaxSteps = 3
		o.BuiltinTools = []string{tool.NameCreateChatCompletion}
	})

	collector := &eventCollector{}
	require.NoError(t, f.On("agent:lifecycle:step:(start|complete|error)$", collector.handler))

	out, err := f.Run(context.Background())
	require.NoError(t, err)

	f.Cleanup(context.Background())

	assert.Equal(t, core.StateTerminated, f.State())
	assert.Equal(t, 3, f.CurrentStep())
	assert.Contains(t, out, "Terminated: Reached max steps (3)")

	assert.Equal(t, 3, collector.count(event.StepStart))
	assert.Equal(t, 3, collector.count(event.StepComplete))
	assert.Equal(t, 0, collector.count(event.StepError))
}

func TestRunFinishesOnTerminateTool(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{
			{Content: "done", ToolCalls: []core.ToolCall{{
				ID:   "call-1",
				Type: "function",
				Function: core.Function{
					Name:      tool.NameTerminate,
					Arguments: `{"status": "success"}`,
				},
			}}},
		}
	})

	f := newTestAgent(t, llm, func(o *Options) { o.MaxSteps = 5 })

	out, err := f.Run(context.Background())
	require.NoError(t, err)

	f.Cleanup(context.Background())

	assert.Equal(t, core.StateFinished, f.State())
	assert.Equal(t, 1, f.CurrentStep())
	assert.Contains(t, out, "The interaction has been completed with status: success")
}

func TestRunShortCircuitsWithoutToolCalls(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{{Content: ""}}
	})

	f := newTestAgent(t, llm, func(o *Options) { o.MaxSteps = 1 })

	collector := &eventCollector{}
	require.NoError(t, f.On("agent:lifecycle:step:act:start$", collector.handler))

	out, err := f.Run(context.Background())
	require.NoError(t, err)

	f.Cleanup(context.Background())

	assert.Contains(t, out, thinkOnlyResult)
	assert.Equal(t, 0, collector.count(event.ActStart), "act must not run when there is nothing to execute")
}

func TestHistoryReplayOrder(t *testing.T) {
	llm := model.NewMockModel()

	f := newTestAgent(t, llm, func(o *Options) {
		o.History = []HistoryEntry{
			{Role: core.RoleUser, Message: "hello"},
			{Role: core.RoleAssistant, Message: "hi, how can I help?"},
		}
	})

	require.NoError(t, f.Prepare(context.Background()))

	defer f.Cleanup(context.Background())

	messages := f.Memory().Messages()
	require.GreaterOrEqual(t, len(messages), 3)

	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Equal(t, core.RoleUser, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
	assert.Equal(t, core.RoleAssistant, messages[2].Role)
	assert.Equal(t, "hi, how can I help?", messages[2].Content)
}

func TestTokenDeltasSumToCumulativeTotals(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{
			{Content: "working", ToolCalls: []core.ToolCall{chatToolCall("call-1")}},
		}
	})

	f := newTestAgent(t, llm, func(o *Options) {
		o.MaxSteps = 3
		o.BuiltinTools = []string{tool.NameCreateChatCompletion}
	})

	collector := &eventCollector{}
	require.NoError(t, f.On("agent:lifecycle:step:(think|act):token:count$", collector.handler))

	_, err := f.Run(context.Background())
	require.NoError(t, err)

	f.Cleanup(context.Background())

	var sumInput, sumCompletion int

	collector.mu.Lock()
	for _, item := range collector.items {
		sumInput += item.Content["input"].(int)
		sumCompletion += item.Content["completion"].(int)
	}
	collector.mu.Unlock()

	usage := llm.Usage()
	assert.Equal(t, usage.InputTokens, sumInput)
	assert.Equal(t, usage.CompletionTokens, sumCompletion)
}

func TestActBatchOrderAndFailureIsolation(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{
			{Content: "batch", ToolCalls: []core.ToolCall{
				chatToolCall("call-1"),
				{
					ID:       "call-2",
					Type:     "function",
					Function: core.Function{Name: "missing_tool", Arguments: "{}"},
				},
				chatToolCall("call-3"),
			}},
		}
	})

	f := newTestAgent(t, llm, func(o *Options) {
		o.MaxSteps = 1
		o.BuiltinTools = []string{tool.NameCreateChatCompletion}
	})

	require.NoError(t, f.Prepare(context.Background()))

	defer f.Cleanup(context.Background())

	shouldAct, err := f.Think(context.Background())
	require.NoError(t, err)
	require.True(t, shouldAct)

	_, err = f.Act(context.Background())
	require.NoError(t, err)

	records := f.Tools().Records()
	require.Len(t, records, 3)

	assert.Equal(t, []string{"call-1", "call-2", "call-3"}, []string{records[0].CallID, records[1].CallID, records[2].CallID})
	assert.True(t, records[0].Success)
	assert.False(t, records[1].Success)
	assert.True(t, records[2].Success)
	assert.Contains(t, records[1].Content, "Unknown tool")
}

func TestObservationTruncation(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.AskReply = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		o.Script = []*model.Response{
			{Content: "long", ToolCalls: []core.ToolCall{chatToolCall("call-1")}},
		}
	})

	f := newTestAgent(t, llm, func(o *Options) {
		o.MaxSteps = 1
		o.MaxObserve = 20
		o.BuiltinTools = []string{tool.NameCreateChatCompletion}
	})

	require.NoError(t, f.Prepare(context.Background()))

	defer f.Cleanup(context.Background())

	_, err := f.Think(context.Background())
	require.NoError(t, err)

	_, err = f.Act(context.Background())
	require.NoError(t, err)

	records := f.Tools().Records()
	require.Len(t, records, 1)
	assert.LessOrEqual(t, len(records[0].Content), 20)
}

func TestCleanupClosesOwnedEmitter(t *testing.T) {
	llm := model.NewMockModel(func(o *model.MockModelOptions) {
		o.Script = []*model.Response{{Content: "done"}}
	})

	t.Run("private emitter stops accepting events", func(t *testing.T) {
		f := newTestAgent(t, llm, func(o *Options) { o.MaxSteps = 1 })

		collector := &eventCollector{}
		require.NoError(t, f.On("agent:lifecycle:start$", collector.handler))

		_, err := f.Run(context.Background())
		require.NoError(t, err)

		f.Cleanup(context.Background())
		before := collector.count(event.LifecycleStart)

		f.Emit(event.LifecycleStart, nil)
		f.Emitter().Wait()

		assert.Equal(t, before, collector.count(event.LifecycleStart), "closed emitter must drop events")
	})

	t.Run("caller-supplied emitter stays open", func(t *testing.T) {
		emitter := event.NewEmitter()
		defer emitter.Close()

		f := newTestAgent(t, llm, func(o *Options) {
			o.MaxSteps = 1
			o.Emitter = emitter
		})

		collector := &eventCollector{}
		require.NoError(t, emitter.On("agent:lifecycle:start$", collector.handler))

		_, err := f.Run(context.Background())
		require.NoError(t, err)

		f.Cleanup(context.Background())
		before := collector.count(event.LifecycleStart)

		emitter.Emit(event.LifecycleStart, 0, nil)
		emitter.Wait()

		assert.Equal(t, before+1, collector.count(event.LifecycleStart))
	})
}

func TestTruncateObservation(t *testing.T) {
	t.Run("short content passes through", func(t *testing.T) {
		assert.Equal(t, "ok", truncateObservation("ok", 10))
	})

	t.Run("zero max disables truncation", func(t *testing.T) {
		assert.Equal(t, "anything", truncateObservation("anything", 0))
	})

	t.Run("never splits a multibyte sequence", func(t *testing.T) {
		content := strings.Repeat("é", 10)

		got := truncateObservation(content, 5)

		assert.True(t, utf8.ValidString(got))
		assert.LessOrEqual(t, len(got), 5)
		assert.Equal(t, "éé", got)
	})
}
