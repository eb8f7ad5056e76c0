// Package prompt holds the default prompt templates and the renderer that
// expands them. Rendering degrades gracefully: a template that fails to parse
// or execute falls back to simple placeholder substitution, and finally to
// the raw template string, so a malformed custom template never aborts a run.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/heyfun-ai/funmax/logging"
)

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// Logger receives fallback diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// Renderer expands prompt templates with task data.
type Renderer struct {
	logger logging.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(optFns ...func(o *RendererOptions)) *Renderer {
	opts := RendererOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Renderer{logger: logging.OrNoOp(opts.Logger)}
}

// Render expands tmpl with data using text/template semantics.
func (r *Renderer) Render(tmpl string, data map[string]any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return sb.String(), nil
}

// RenderSafe expands tmpl with data and never fails. When template rendering
// errors, placeholders are substituted textually; when that changes nothing,
// the raw template is returned.
func (r *Renderer) RenderSafe(tmpl string, data map[string]any) string {
	rendered, err := r.Render(tmpl, data)
	if err == nil {
		return rendered
	}

	r.logger.Debug("template rendering failed, falling back to substitution", "error", err)

	return substitute(tmpl, data)
}

// substitute replaces {{ .Key }} style placeholders with their values without
// interpreting any template syntax.
func substitute(tmpl string, data map[string]any) string {
	out := tmpl

	for key, value := range data {
		v := fmt.Sprint(value)

		for _, placeholder := range []string{
			"{{ ." + key + " }}",
			"{{." + key + "}}",
			"{{ " + key + " }}",
			"{{" + key + "}}",
		} {
			out = strings.ReplaceAll(out, placeholder, v)
		}
	}

	return out
}
