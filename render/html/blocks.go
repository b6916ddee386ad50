package html

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ketaki/kosha/core"
)

// renderText converts markdown message text to HTML.
func (r *Renderer) renderText(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}

// renderToolCall renders a tool invocation card, with the paired result
// appended when one exists.
func (r *Renderer) renderToolCall(item *core.ResponseItem, result *core.ResponseItem) (template.HTML, error) {
	name := item.ToolName
	if name == "" {
		name = "tool"
	}

	var inputHTML string
	if input := strings.TrimSpace(item.Text); input != "" {
		var buf bytes.Buffer
		fenced := "```\n" + input + "\n```"
		if err := r.md.Convert([]byte(fenced), &buf); err != nil {
			inputHTML = `<pre class="px-4 py-3 text-xs font-mono overflow-x-auto">` +
				template.HTMLEscapeString(input) + `</pre>`
		} else {
			inputHTML = `<div class="px-4 py-3 text-xs overflow-x-auto">` + buf.String() + `</div>`
		}
	}

	var resultHTML string
	if result != nil && strings.TrimSpace(result.Text) != "" {
		escaped := template.HTMLEscapeString(result.Text)
		resultHTML = `<div class="border-t border-slate-200 dark:border-slate-700">` +
			`<pre class="px-4 py-3 text-xs font-mono overflow-x-auto max-h-96 overflow-y-auto">` + escaped + `</pre>` +
			`</div>`
	}

	h := `<div class="bg-slate-50 dark:bg-slate-900 border border-slate-200 dark:border-slate-700 rounded-lg overflow-hidden">` +
		`<div class="px-4 py-2 border-b border-slate-200 dark:border-slate-700 flex items-center gap-2 text-slate-900 dark:text-white">` +
		`<span class="text-xs font-semibold font-mono">` + template.HTMLEscapeString(name) + `</span>` +
		`</div>` +
		inputHTML +
		resultHTML +
		`</div>`
	return template.HTML(h), nil
}

// renderToolResult renders an orphan tool result with no matching call.
func renderToolResult(item *core.ResponseItem) template.HTML {
	escaped := template.HTMLEscapeString(item.Text)
	h := `<pre class="text-xs font-mono bg-slate-50 dark:bg-slate-900 rounded p-3 overflow-x-auto">` + escaped + `</pre>`
	return template.HTML(h)
}

// renderEvent renders a system/summary event line. Token-count events with no
// message text render nothing.
func (r *Renderer) renderEvent(ev *core.EventMessage) (template.HTML, error) {
	text := strings.TrimSpace(ev.Message)
	if text == "" {
		return "", nil
	}
	escaped := template.HTMLEscapeString(text)
	h := `<p class="text-xs text-slate-500 dark:text-slate-400 whitespace-pre-wrap">` + escaped + `</p>`
	return template.HTML(h), nil
}
