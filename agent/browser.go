package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/heyfun-ai/funmax/core"
	"github.com/heyfun-ai/funmax/event"
	"github.com/heyfun-ai/funmax/prompt"
	"github.com/heyfun-ai/funmax/tool"
	"github.com/heyfun-ai/funmax/workspace"
)

// defaultBrowserRecencyWindow is how many recent memory entries are scanned
// for browser tool usage before switching to the browser prompt.
const defaultBrowserRecencyWindow = 3

// BrowserContext tracks live browser usage for one run. While the browser is
// in recent use it replaces the generic next-step prompt with one built from
// the current page state, and it persists non-duplicate screenshots into the
// task workspace.
type BrowserContext struct {
	agent    *BaseAgent
	tools    *ToolCallContext
	renderer *prompt.Renderer
	ws       *workspace.Workspace
	language string
	window   int

	preImage string
	prePath  string
}

func newBrowserContext(a *BaseAgent, tools *ToolCallContext, renderer *prompt.Renderer, ws *workspace.Workspace, language string, window int) *BrowserContext {
	if window <= 0 {
		window = defaultBrowserRecencyWindow
	}

	return &BrowserContext{
		agent:    a,
		tools:    tools,
		renderer: renderer,
		ws:       ws,
		language: language,
		window:   window,
	}
}

// RecentlyUsed reports whether any of the last few memory entries carried a
// browser tool call.
func (b *BrowserContext) RecentlyUsed() bool {
	recent := b.agent.memory.Last(b.window)

	for _, msg := range recent {
		for _, call := range msg.ToolCalls {
			if call.Function.Name == tool.NameBrowserUse {
				return true
			}
		}
	}

	return false
}

// browserTool resolves the registered browser tool when it exposes live
// state.
func (b *BrowserContext) browserTool() tool.StatefulBrowser {
	t, err := b.tools.registry.Resolve(tool.NameBrowserUse)
	if err != nil {
		return nil
	}

	stateful, ok := t.(tool.StatefulBrowser)
	if !ok {
		return nil
	}

	return stateful
}

// FormatNextStepPrompt builds the browser-aware next-step prompt from the
// current page state. A fresh, non-duplicate screenshot is persisted into
// the workspace and attached to memory as a user image message.
func (b *BrowserContext) FormatNextStepPrompt(ctx context.Context) string {
	data := map[string]any{
		"Language":                b.language,
		"URLPlaceholder":          "",
		"TabsPlaceholder":         "",
		"ContentAbovePlaceholder": "",
		"ContentBelowPlaceholder": "",
		"ResultsPlaceholder":      "",
	}

	state, screenshot := b.currentState(ctx)
	if state == nil {
		b.agent.Emit(event.BrowserUseError, map[string]any{"error": "browser state unavailable"})
		return b.renderer.RenderSafe(prompt.BrowserNextStepPrompt, data)
	}

	urlInfo := "\n   URL: " + stringOr(state["url"], "N/A") + "\n   Title: " + stringOr(state["title"], "N/A")
	data["URLPlaceholder"] = urlInfo

	contentAbove, contentBelow := "", ""
	if above := intValue(state["pixels_above"]); above > 0 {
		contentAbove = pixelInfo(above)
		data["ContentAbovePlaceholder"] = contentAbove
	}

	if below := intValue(state["pixels_below"]); below > 0 {
		contentBelow = pixelInfo(below)
		data["ContentBelowPlaceholder"] = contentBelow
	}

	screenshotPath := b.persistScreenshot(screenshot)

	if screenshot != "" {
		b.agent.UpdateMemory(core.NewUserImageMessage("Current browser screenshot:", screenshot))
	}

	b.agent.Emit(event.BrowserUseComplete, map[string]any{
		"url":           stringOr(state["url"], "N/A"),
		"title":         stringOr(state["title"], "N/A"),
		"content_above": contentAbove,
		"content_below": contentBelow,
		"screenshot":    screenshotPath,
	})

	return b.renderer.RenderSafe(prompt.BrowserNextStepPrompt, data)
}

// currentState fetches the live page document and screenshot from the
// browser tool. Failures degrade to a nil state.
func (b *BrowserContext) currentState(ctx context.Context) (map[string]any, string) {
	stateful := b.browserTool()
	if stateful == nil {
		b.agent.logger.Warn("browser tool not registered or stateless")
		return nil, ""
	}

	result, err := stateful.GetCurrentState(ctx)
	if err != nil || result == nil || result.Failed() {
		b.agent.logger.Debug("failed to get browser state")
		return nil, ""
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(result.Output), &state); err != nil {
		b.agent.logger.Debug("invalid browser state document", "error", err)
		return nil, ""
	}

	return state, result.Base64Image
}

// persistScreenshot writes the screenshot into the workspace unless it is
// identical to the previous one, in which case the previous path is reused.
func (b *BrowserContext) persistScreenshot(screenshot string) string {
	if screenshot == "" || b.ws == nil {
		return ""
	}

	if screenshot == b.preImage && b.prePath != "" {
		return b.prePath
	}

	path := ""

	if data, err := base64.StdEncoding.DecodeString(screenshot); err == nil {
		saved, err := b.ws.SaveScreenshot(b.agent.currentStep, data)
		if err != nil {
			b.agent.logger.Warn("screenshot persistence failed", "error", err)
		} else {
			path = saved
		}
	}

	b.preImage = screenshot
	b.prePath = path

	return path
}

// Cleanup closes the browser session when one was opened.
func (b *BrowserContext) Cleanup(ctx context.Context) {
	t, err := b.tools.registry.Resolve(tool.NameBrowserUse)
	if err != nil {
		return
	}

	cleaner, ok := t.(tool.Cleaner)
	if !ok {
		return
	}

	if err := cleaner.Cleanup(ctx); err != nil {
		b.agent.logger.Warn("browser cleanup failed", "error", err)
	}
}

func stringOr(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}

	return s
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func pixelInfo(pixels int) string {
	return " (" + strconv.Itoa(pixels) + " pixels)"
}
