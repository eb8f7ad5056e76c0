package tool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// NameBrowserUse is the name of the builtin browser tool.
const NameBrowserUse = "browser_use"

const browserUseDescription = `Interact with a web browser to perform navigation, clicking, text input, scrolling and content extraction.
Each call performs one action; call get_current_state through the agent to observe the page between actions.`

const browserActionTimeout = 30 * time.Second

// BrowserUseOptions configures the browser tool.
type BrowserUseOptions struct {
	// RemoteDebugURL attaches to an already running browser via the DevTools
	// protocol. When empty a headless browser process is launched on demand.
	RemoteDebugURL string

	// Headless controls the launched browser when RemoteDebugURL is empty.
	Headless bool
}

// BrowserUse drives a Chrome instance through the DevTools protocol. The
// browser is started lazily on the first action and torn down by Cleanup.
type BrowserUse struct {
	opts BrowserUseOptions

	mu          sync.Mutex
	browserCtx  context.Context
	cancelFns   []context.CancelFunc
	initialized bool
}

// NewBrowserUse creates the browser tool.
func NewBrowserUse(optFns ...func(o *BrowserUseOptions)) *BrowserUse {
	opts := BrowserUseOptions{
		Headless: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &BrowserUse{opts: opts}
}

// Name implements Tool.
func (b *BrowserUse) Name() string { return NameBrowserUse }

// Description implements Tool.
func (b *BrowserUse) Description() string { return browserUseDescription }

// Parameters implements Tool.
func (b *BrowserUse) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "The browser action to perform.",
				"enum": []any{
					"go_to_url", "click_element", "input_text",
					"scroll_down", "scroll_up", "extract_content", "screenshot",
				},
			},
			"url": map[string]any{
				"type":        "string",
				"description": "URL to navigate to. Required for 'go_to_url'.",
			},
			"selector": map[string]any{
				"type":        "string",
				"description": "CSS selector of the target element. Required for 'click_element' and 'input_text'.",
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Text to type into the element. Required for 'input_text'.",
			},
			"scroll_amount": map[string]any{
				"type":        "integer",
				"description": "Pixels to scroll. Defaults to one viewport height.",
			},
		},
		"required": []any{"action"},
	}
}

// Execute implements Tool.
func (b *BrowserUse) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	action, err := requireString(args, "action")
	if err != nil {
		return nil, err
	}

	tabCtx, err := b.ensureBrowser()
	if err != nil {
		return &Result{Error: fmt.Sprintf("browser unavailable: %s", err)}, nil
	}

	runCtx, cancel := context.WithTimeout(tabCtx, browserActionTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	switch action {
	case "go_to_url":
		u, err := requireString(args, "url")
		if err != nil {
			return nil, err
		}

		if err := chromedp.Run(runCtx, chromedp.Navigate(u), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: fmt.Sprintf("Navigated to %s", u)}, nil
	case "click_element":
		selector, err := requireString(args, "selector")
		if err != nil {
			return nil, err
		}

		if err := chromedp.Run(runCtx,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.Click(selector, chromedp.ByQuery),
		); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: fmt.Sprintf("Clicked element %q", selector)}, nil
	case "input_text":
		selector, err := requireString(args, "selector")
		if err != nil {
			return nil, err
		}

		text, err := requireString(args, "text")
		if err != nil {
			return nil, err
		}

		if err := chromedp.Run(runCtx,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.SendKeys(selector, text, chromedp.ByQuery),
		); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: fmt.Sprintf("Typed %q into %q", text, selector)}, nil
	case "scroll_down", "scroll_up":
		amount, err := intArg(args, "scroll_amount", 0)
		if err != nil {
			return nil, err
		}

		script := "window.scrollBy(0, window.innerHeight);"
		if amount > 0 {
			script = fmt.Sprintf("window.scrollBy(0, %d);", amount)
		}

		if action == "scroll_up" {
			script = "window.scrollBy(0, -window.innerHeight);"
			if amount > 0 {
				script = fmt.Sprintf("window.scrollBy(0, -%d);", amount)
			}
		}

		if err := chromedp.Run(runCtx, chromedp.Evaluate(script, nil)); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: "Scrolled the page"}, nil
	case "extract_content":
		var text string
		if err := chromedp.Run(runCtx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{Output: text}, nil
	case "screenshot":
		var buf []byte
		if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
			return &Result{Error: err.Error()}, nil
		}

		return &Result{
			Output:      "Screenshot captured",
			Base64Image: base64.StdEncoding.EncodeToString(buf),
		}, nil
	default:
		return &Result{Error: fmt.Sprintf("Unrecognized action: %s", action)}, nil
	}
}

// browserState mirrors the JSON document handed to the model as the live
// page context.
type browserState struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	PixelsAbove int64  `json:"pixels_above"`
	PixelsBelow int64  `json:"pixels_below"`
}

// GetCurrentState implements StatefulBrowser. It reports the current page
// URL, title and scroll position together with a fresh screenshot.
func (b *BrowserUse) GetCurrentState(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	initialized := b.initialized
	tabCtx := b.browserCtx
	b.mu.Unlock()

	if !initialized {
		return &Result{Error: "browser is not started"}, nil
	}

	runCtx, cancel := context.WithTimeout(tabCtx, browserActionTimeout)
	defer cancel()

	var (
		state  browserState
		scroll []float64
		buf    []byte
	)

	if err := chromedp.Run(runCtx,
		chromedp.Location(&state.URL),
		chromedp.Title(&state.Title),
		chromedp.Evaluate(
			"[window.scrollY, document.body.scrollHeight - window.scrollY - window.innerHeight]",
			&scroll,
		),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().Do(ctx)
			return err
		}),
	); err != nil {
		return &Result{Error: err.Error()}, nil
	}

	if len(scroll) == 2 {
		state.PixelsAbove = int64(scroll[0])
		if scroll[1] > 0 {
			state.PixelsBelow = int64(scroll[1])
		}
	}

	doc, err := json.Marshal(state)
	if err != nil {
		return &Result{Error: err.Error()}, nil
	}

	return &Result{
		Output:      string(doc),
		Base64Image: base64.StdEncoding.EncodeToString(buf),
	}, nil
}

// Cleanup implements Cleaner. It shuts down the browser contexts in reverse
// creation order.
func (b *BrowserUse) Cleanup(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil
	}

	for i := len(b.cancelFns) - 1; i >= 0; i-- {
		b.cancelFns[i]()
	}

	b.cancelFns = nil
	b.browserCtx = nil
	b.initialized = false

	return nil
}

func (b *BrowserUse) ensureBrowser() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return b.browserCtx, nil
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)

	if b.opts.RemoteDebugURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), b.opts.RemoteDebugURL)
	} else {
		execOpts := chromedp.DefaultExecAllocatorOptions[:]
		if !b.opts.Headless {
			execOpts = append(execOpts, chromedp.Flag("headless", false))
		}

		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Start the browser process now so a broken environment fails the first
	// action instead of hanging later calls.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, err
	}

	b.browserCtx = tabCtx
	b.cancelFns = []context.CancelFunc{allocCancel, tabCancel}
	b.initialized = true

	return tabCtx, nil
}
