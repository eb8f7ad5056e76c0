package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigValidate(t *testing.T) {
	t.Run("sse", func(t *testing.T) {
		cfg := ClientConfig{ClientID: "remote", URL: "https://tools.example.com/sse"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("stdio", func(t *testing.T) {
		cfg := ClientConfig{ClientID: "local", Command: "mcp-server", Args: []string{"--stdio"}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing client id", func(t *testing.T) {
		cfg := ClientConfig{URL: "https://tools.example.com/sse"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("no transport", func(t *testing.T) {
		cfg := ClientConfig{ClientID: "remote"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("both transports", func(t *testing.T) {
		cfg := ClientConfig{ClientID: "remote", URL: "https://tools.example.com/sse", Command: "mcp-server"}
		assert.Error(t, cfg.Validate())
	})
}

func TestToParameterSchema(t *testing.T) {
	params := toParameterSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	})

	require.Equal(t, "object", params["type"])

	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text")

	empty := toParameterSchema(nil)
	assert.Equal(t, "object", empty["type"])
}
