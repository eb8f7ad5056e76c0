package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererRender(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("Step {{ .CurrentStep }}/{{ .MaxSteps }}", map[string]any{
		"CurrentStep": 2,
		"MaxSteps":    10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Step 2/10", out)
}

func TestRendererRenderSafe(t *testing.T) {
	r := NewRenderer()

	t.Run("valid template renders normally", func(t *testing.T) {
		out := r.RenderSafe("Hello {{ .Name }}", map[string]any{"Name": "FunMax"})
		assert.Equal(t, "Hello FunMax", out)
	})

	t.Run("broken template falls back to substitution", func(t *testing.T) {
		out := r.RenderSafe("Hello {{ .Name }} {{ unclosed", map[string]any{"Name": "FunMax"})
		assert.Contains(t, out, "Hello FunMax")
		assert.Contains(t, out, "{{ unclosed")
	})

	t.Run("nothing to substitute returns raw template", func(t *testing.T) {
		raw := "{{ bad syntax"
		out := r.RenderSafe(raw, map[string]any{})
		assert.Equal(t, raw, out)
	})
}

func TestDefaultTemplates(t *testing.T) {
	r := NewRenderer()

	system := r.RenderSafe(SystemPrompt, map[string]any{
		"Name":        "FunMax",
		"TaskID":      "task-1",
		"Language":    "English",
		"MaxSteps":    10,
		"CurrentTime": "2026-01-01 00:00:00 UTC",
	})
	assert.Contains(t, system, "You are FunMax")
	assert.Contains(t, system, "/workspace/task-1")
	assert.False(t, strings.Contains(system, "{{"))

	next := r.RenderSafe(NextStepPrompt, map[string]any{
		"CurrentStep":    3,
		"MaxSteps":       10,
		"RemainingSteps": 7,
	})
	assert.Contains(t, next, "Step 3/10")
	assert.Contains(t, next, "Remaining: 7 steps")
}
