package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/model"
	"github.com/heyfun-ai/funmax/tool"
	"github.com/heyfun-ai/funmax/tool/mcp"
)

// errToolCallRequired is raised when the model is forced to call a tool but
// returns none.
var errToolCallRequired = errors.New("tool calls required but none provided")

// defaultMaxObserve caps the length of a tool observation written back to
// memory so one verbose tool cannot drown the context window.
const defaultMaxObserve = 10000

// ToolCallContext holds the live tool registry for one run and carries the
// pending tool calls between the think and act phases.
type ToolCallContext struct {
	agent    *BaseAgent
	registry *tool.Registry
	host     *mcp.Host

	toolChoice   model.ToolChoice
	specialTools map[string]struct{}
	maxObserve   int

	pendingCalls []core.ToolCall
	lastRecords  []tool.CallRecord
}

func newToolCallContext(a *BaseAgent) *ToolCallContext {
	return &ToolCallContext{
		agent:        a,
		registry:     tool.NewRegistry(func(o *tool.RegistryOptions) { o.Logger = a.logger }),
		host:         mcp.NewHost(func(o *mcp.HostOptions) { o.Logger = a.logger }),
		toolChoice:   model.ToolChoiceAuto,
		specialTools: map[string]struct{}{tool.NameTerminate: {}},
		maxObserve:   defaultMaxObserve,
	}
}

// Registry exposes the underlying tool registry.
func (c *ToolCallContext) Registry() *tool.Registry { return c.registry }

// Records returns the call records of the most recent act batch.
func (c *ToolCallContext) Records() []tool.CallRecord {
	records := make([]tool.CallRecord, len(c.lastRecords))
	copy(records, c.lastRecords)

	return records
}

// AddTool registers a local tool.
func (c *ToolCallContext) AddTool(t tool.Tool) error {
	return c.registry.Register(t)
}

// AddRemote connects to a remote tool server and registers every tool it
// advertises.
func (c *ToolCallContext) AddRemote(ctx context.Context, cfg mcp.ClientConfig) error {
	tools, err := c.host.Connect(ctx, cfg)
	if err != nil {
		return err
	}

	return c.registry.RegisterAll(tools...)
}

// Ask issues the reasoning request with the current memory and tool set,
// appends the resulting assistant message to memory and reports whether an
// act phase should follow.
func (c *ToolCallContext) Ask(ctx context.Context) (bool, error) {
	if c.agent.nextStepPrompt != "" {
		c.agent.UpdateMemory(core.NewUserMessage(c.agent.nextStepPrompt))
	}

	response, err := c.agent.llm.AskTool(ctx, c.agent.memory.Messages(), c.registry.Definitions(), c.toolChoice)
	if err != nil {
		return false, fmt.Errorf("ask tool: %w", err)
	}

	if response == nil {
		return false, errors.New("no response received from the model")
	}

	c.pendingCalls = response.ToolCalls
	content := response.Content

	c.agent.logger.Info("model decision", "thoughts", content, "tool_calls", len(c.pendingCalls))

	c.agent.Emit(event.ToolSelected, map[string]any{
		"thoughts":   content,
		"tool_calls": describeCalls(c.pendingCalls),
	})

	// When tools are disabled, a plain reply is the only acceptable outcome.
	if c.toolChoice == model.ToolChoiceNone {
		if len(c.pendingCalls) > 0 {
			c.agent.logger.Warn("model requested tools while tool use is disabled")
			c.pendingCalls = nil
		}

		if content != "" {
			c.agent.UpdateMemory(core.NewAssistantMessage(content))
			return true, nil
		}

		return false, nil
	}

	if len(c.pendingCalls) > 0 {
		c.agent.UpdateMemory(core.NewToolCallsMessage(content, c.pendingCalls))
	} else {
		c.agent.UpdateMemory(core.NewAssistantMessage(content))
	}

	if c.toolChoice == model.ToolChoiceRequired {
		// A missing call is surfaced in the act phase.
		return true, nil
	}

	if len(c.pendingCalls) == 0 {
		return content != "", nil
	}

	return true, nil
}

// Execute runs the pending tool calls strictly in the order the model
// requested them. Failures are isolated per call; every call produces a
// record and a memory entry.
func (c *ToolCallContext) Execute(ctx context.Context) ([]string, error) {
	c.agent.Emit(event.ToolStart, map[string]any{"tool_calls": describeCalls(c.pendingCalls)})

	if len(c.pendingCalls) == 0 {
		if c.toolChoice == model.ToolChoiceRequired {
			return nil, errToolCallRequired
		}

		messages := c.agent.memory.Messages()
		if len(messages) == 0 || messages[len(messages)-1].Content == "" {
			return []string{"No content or commands to execute"}, nil
		}

		return []string{messages[len(messages)-1].Content}, nil
	}

	var (
		results []string
		records []tool.CallRecord
	)

	for _, call := range c.pendingCalls {
		record := c.executeCall(ctx, call)

		content := truncateObservation(record.Content, c.maxObserve)
		record.Content = content

		c.agent.logger.Info("tool completed", "tool", record.Name, "success", record.Success)

		c.agent.UpdateMemory(core.NewToolMessage(content, call.ID, call.Function.Name, record.Base64Image))

		results = append(results, content)
		records = append(records, record)
	}

	c.lastRecords = records
	c.agent.Emit(event.ToolComplete, map[string]any{"results": results})

	return results, nil
}

// truncateObservation caps content at max bytes without splitting a
// multibyte sequence; providers reject invalid UTF-8 in message content.
func truncateObservation(content string, max int) string {
	if max <= 0 || len(content) <= max {
		return content
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}

	return content[:cut]
}

// executeCall runs one tool call with full failure isolation.
func (c *ToolCallContext) executeCall(ctx context.Context, call core.ToolCall) tool.CallRecord {
	record := tool.CallRecord{CallID: call.ID, Name: call.Function.Name}

	if call.Function.Name == "" {
		record.Content = "Error: Invalid command format"
		return record
	}

	name := call.Function.Name

	if !c.registry.Has(name) {
		record.Content = fmt.Sprintf("Error: Unknown tool '%s'", name)
		return record
	}

	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			errMsg := fmt.Sprintf("Error parsing arguments for %s: Invalid JSON format", name)
			c.agent.logger.Error("invalid tool arguments", "tool", name, "arguments", call.Function.Arguments)
			c.agent.Emit(event.ToolExecuteComplete, map[string]any{
				"id": call.ID, "name": name, "error": errMsg,
			})

			record.Content = "Error: " + errMsg

			return record
		}
	}

	c.agent.Emit(event.ToolExecuteStart, map[string]any{"id": call.ID, "name": name, "args": args})

	resolved, _ := c.registry.Resolve(name)
	if delegator, ok := resolved.(tool.Delegator); ok {
		record.AgentID = delegator.DelegateID()
	}

	result, err := c.registry.Execute(ctx, name, args)
	if err != nil {
		errMsg := fmt.Sprintf("Tool '%s' encountered a problem: %s", name, err)
		c.agent.logger.Error("tool execution failed", "tool", name, "error", err)
		c.agent.Emit(event.ToolExecuteComplete, map[string]any{
			"id": call.ID, "name": name, "args": args, "error": errMsg,
		})

		record.Content = "Error: " + errMsg

		return record
	}

	c.agent.Emit(event.ToolExecuteComplete, map[string]any{
		"id": call.ID, "name": name, "args": args,
		"result": result.String(), "error": result.Error,
	})

	if _, special := c.specialTools[strings.ToLower(name)]; special && !result.Failed() {
		c.agent.logger.Info("termination tool completed the task", "tool", name)
		c.agent.Finish()
	}

	record.Success = !result.Failed()
	record.Base64Image = result.Base64Image

	observation := fmt.Sprintf("Cmd `%s` completed with no output", name)
	if result.String() != "" {
		observation = fmt.Sprintf("Observed output of cmd `%s` executed:\n%s", name, result.String())
	}

	record.Content = observation

	return record
}

// Cleanup tears down the registry's tools and the remote sessions. Safe to
// call more than once.
func (c *ToolCallContext) Cleanup(ctx context.Context) {
	c.registry.Cleanup(ctx)

	if err := c.host.Close(); err != nil {
		c.agent.logger.Warn("mcp host close failed", "error", err)
	}
}

func describeCalls(calls []core.ToolCall) []map[string]any {
	described := make([]map[string]any, 0, len(calls))

	for _, call := range calls {
		described = append(described, map[string]any{
			"id":   call.ID,
			"type": call.Type,
			"function": map[string]any{
				"name":      call.Function.Name,
				"arguments": call.Function.Arguments,
			},
		})
	}

	return described
}
