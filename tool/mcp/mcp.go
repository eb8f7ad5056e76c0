// Package mcp attaches tools hosted by remote Model Context Protocol servers.
// A Host manages one session per configured client and exposes every remote
// tool as a regular tool.Tool, so agents treat remote capabilities exactly
// like builtin ones.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/heyfun-ai/funmax/logging"
	"github.com/heyfun-ai/funmax/tool"
)

// ClientConfig describes one remote tool server. Exactly one transport must
// be set: URL (with optional Headers) for SSE servers, or Command (with
// optional Args and Env) for stdio servers.
type ClientConfig struct {
	ClientID string            `json:"client_id"`
	URL      string            `json:"url,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Command  string            `json:"command,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
}

// Validate checks that the descriptor selects exactly one transport.
func (c ClientConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("mcp client: client_id is required")
	}

	hasURL := c.URL != ""
	hasCommand := c.Command != ""

	if hasURL == hasCommand {
		return fmt.Errorf("mcp client %s: exactly one of url or command must be set", c.ClientID)
	}

	return nil
}

// HostOptions configures a Host.
type HostOptions struct {
	// Logger receives connection diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Host manages connections to remote tool servers.
type Host struct {
	mu       sync.Mutex
	sessions map[string]*mcpsdk.ClientSession
	logger   logging.Logger
}

// NewHost creates an empty host.
func NewHost(optFns ...func(o *HostOptions)) *Host {
	opts := HostOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Host{
		sessions: make(map[string]*mcpsdk.ClientSession),
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Connect establishes a session with the configured server and returns its
// tools, one tool.Tool per remote tool. Connecting an already connected
// client id is an error.
func (h *Host) Connect(ctx context.Context, cfg ClientConfig) ([]tool.Tool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	if _, exists := h.sessions[cfg.ClientID]; exists {
		h.mu.Unlock()
		return nil, fmt.Errorf("mcp client %s: already connected", cfg.ClientID)
	}
	h.mu.Unlock()

	transport, err := buildTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "funmax", Version: "dev"}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp client %s: connect: %w", cfg.ClientID, err)
	}

	tools, err := h.listTools(ctx, cfg.ClientID, session)
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	h.mu.Lock()
	h.sessions[cfg.ClientID] = session
	h.mu.Unlock()

	h.logger.Info("mcp client connected", "client_id", cfg.ClientID, "tools", len(tools))

	return tools, nil
}

func (h *Host) listTools(ctx context.Context, clientID string, session *mcpsdk.ClientSession) ([]tool.Tool, error) {
	var tools []tool.Tool

	for t, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcp client %s: list tools: %w", clientID, err)
		}

		tools = append(tools, &remoteTool{
			clientID:    clientID,
			name:        t.Name,
			description: t.Description,
			parameters:  toParameterSchema(t.InputSchema),
			session:     session,
		})
	}

	return tools, nil
}

// Close shuts down every session. The first error is returned after all
// sessions have been attempted.
func (h *Host) Close() error {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*mcpsdk.ClientSession)
	h.mu.Unlock()

	var firstErr error
	for id, session := range sessions {
		if err := session.Close(); err != nil {
			h.logger.Warn("mcp session close failed", "client_id", id, "error", err)

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func buildTransport(ctx context.Context, cfg ClientConfig) (mcpsdk.Transport, error) {
	if cfg.URL != "" {
		httpClient := http.DefaultClient
		if len(cfg.Headers) > 0 {
			httpClient = &http.Client{
				Transport: &headerRoundTripper{headers: cfg.Headers, base: http.DefaultTransport},
			}
		}

		return &mcpsdk.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}, nil
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	return &mcpsdk.CommandTransport{Command: cmd}, nil
}

// headerRoundTripper injects static headers into every request of a session.
type headerRoundTripper struct {
	headers map[string]string
	base    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range rt.headers {
		clone.Header.Set(k, v)
	}

	return rt.base.RoundTrip(clone)
}

// toParameterSchema normalizes the server supplied input schema into the
// map form used by local tools.
func toParameterSchema(schema any) map[string]any {
	if schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil || params == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return params
}

// remoteTool proxies a single remote tool through its session.
type remoteTool struct {
	clientID    string
	name        string
	description string
	parameters  map[string]any
	session     *mcpsdk.ClientSession
}

// Name implements tool.Tool.
func (t *remoteTool) Name() string { return t.name }

// Description implements tool.Tool.
func (t *remoteTool) Description() string { return t.description }

// Parameters implements tool.Tool.
func (t *remoteTool) Parameters() map[string]any { return t.parameters }

// DelegateID implements tool.Delegator.
func (t *remoteTool) DelegateID() string { return t.clientID }

// Execute implements tool.Tool. Server side failures are folded into the
// result so a broken remote does not abort the surrounding batch.
func (t *remoteTool) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	result, err := t.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: t.name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp tool %s: %w", t.name, err)
	}

	content := flattenContent(result.Content)
	if result.IsError {
		return &tool.Result{Error: content}, nil
	}

	return &tool.Result{Output: content}, nil
}

func flattenContent(blocks []mcpsdk.Content) string {
	var parts []string

	for _, block := range blocks {
		switch b := block.(type) {
		case *mcpsdk.TextContent:
			parts = append(parts, b.Text)
		default:
			if raw, err := json.Marshal(block); err == nil {
				parts = append(parts, string(raw))
			}
		}
	}

	return strings.Join(parts, "\n")
}
