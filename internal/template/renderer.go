// Package template implements the Template Renderer external collaborator
// of spec.md §4.7/§9: variable substitution and if/elif/else control flow
// via gonja (a Jinja2-compatible engine), plus two domain-specific
// reference resolvers — {{ref:<promptId>}} and {{script:<toolId>}} — applied
// as a deterministic pre-expansion pass so gonja itself never needs custom
// tags.
package template

import (
	"fmt"
	"regexp"

	"github.com/nikolalohinski/gonja"
)

var (
	refPattern    = regexp.MustCompile(`\{\{\s*ref:([\w.-]+)\s*\}\}`)
	scriptPattern = regexp.MustCompile(`\{\{\s*script:([\w.-]+)\s*\}\}`)
)

// RefResolver inlines another prompt's rendered template by ID.
type RefResolver func(promptID string) (string, error)

// ScriptResolver inlines a script tool's captured output by tool ID.
type ScriptResolver func(toolID string) (string, error)

// Renderer expands a prompt's userMessageTemplate against an argument map.
type Renderer struct {
	ResolveRef    RefResolver
	ResolveScript ScriptResolver

	// maxRefDepth bounds {{ref:...}} recursion so two prompts referencing
	// each other can't infinite-loop the expansion pass.
	maxRefDepth int
}

// NewRenderer builds a Renderer. Either resolver may be nil if the caller
// knows no templates in its registry use that reference kind.
func NewRenderer(refResolver RefResolver, scriptResolver ScriptResolver) *Renderer {
	return &Renderer{ResolveRef: refResolver, ResolveScript: scriptResolver, maxRefDepth: 8}
}

// Render expands tmpl against args: {{var}} substitution, {% if %}/{% elif
// %}/{% else %} blocks (via gonja), and the ref:/script: reference
// resolvers (via a pre-expansion pass).
func (r *Renderer) Render(tmpl string, args map[string]interface{}) (string, error) {
	expanded := tmpl
	for depth := 0; depth <= r.maxRefDepth; depth++ {
		next, err := r.expandReferences(expanded, depth)
		if err != nil {
			return "", err
		}
		if next == expanded {
			break
		}
		expanded = next
	}

	compiled, err := gonja.FromString(expanded)
	if err != nil {
		return "", fmt.Errorf("template: parse failed: %w", err)
	}

	out, err := compiled.Execute(gonja.Context(args))
	if err != nil {
		return "", fmt.Errorf("template: render failed: %w", err)
	}
	return out, nil
}

func (r *Renderer) expandReferences(tmpl string, depth int) (string, error) {
	if depth > r.maxRefDepth {
		return "", fmt.Errorf("template: {{ref:...}} recursion exceeded depth %d", r.maxRefDepth)
	}

	var outerErr error

	if r.ResolveScript != nil {
		tmpl = scriptPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
			id := scriptPattern.FindStringSubmatch(match)[1]
			out, err := r.ResolveScript(id)
			if err != nil {
				outerErr = err
				return match
			}
			return out
		})
		if outerErr != nil {
			return "", outerErr
		}
	}

	if r.ResolveRef != nil {
		tmpl = refPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
			id := refPattern.FindStringSubmatch(match)[1]
			out, err := r.ResolveRef(id)
			if err != nil {
				outerErr = err
				return match
			}
			return out
		})
		if outerErr != nil {
			return "", outerErr
		}
	}

	return tmpl, nil
}

// ToolVariables builds the tool_<id> and tool_<id>_result template
// variables from detected script results (spec.md §4.4).
func ToolVariables(results map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(results)*2)
	for id, output := range results {
		out["tool_"+id] = output
		out["tool_"+id+"_result"] = output
	}
	return out
}
