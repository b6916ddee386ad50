// Package html renders sessions as standalone HTML pages styled with
// Tailwind CSS v4 (CDN) and syntax highlighting via goldmark + chroma.
package html

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ketaki/kosha/core"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// Renderer renders a session to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	page *template.Template
	idx  *template.Template

	// SessionHref, when non-nil, overrides the default {id}.html link pattern
	// on the index page. Used by the serve command to generate server-routed
	// URLs instead of static file links.
	SessionHref func(sessionID string) string
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax
// highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(), // allow raw HTML in markdown
		),
	)

	funcs := template.FuncMap{
		"formatTime":   func(t time.Time) string { return t.Format("Jan 2, 2006 3:04 PM") },
		"formatTokens": core.FormatTokens,
	}

	return &Renderer{
		md:   md,
		page: template.Must(template.New("page").Funcs(funcs).Parse(pageTmpl)),
		idx:  template.Must(template.New("index").Funcs(funcs).Parse(indexTmpl)),
	}
}

// pageData is the top-level template data for a session page.
type pageData struct {
	Title      string
	Source     string
	When       string
	Model      string
	Dir        string
	Comment    string
	TokenTotal int
	Duration   string
	Messages   []messageData
}

// messageData is the per-row template data.
type messageData struct {
	ID          string
	RoleLabel   string
	BorderClass string
	BadgeClass  string
	Timestamp   time.Time
	Duration    string
	Blocks      []template.HTML
}

type indexEntry struct {
	Href     string
	Title    string
	Source   string
	When     string
	Dir      string
	Messages int
	Tools    int
}

type indexData struct {
	Entries []indexEntry
}

// RenderIndex writes an HTML index page listing the given summaries to w.
// The caller provides summaries in display order.
func (r *Renderer) RenderIndex(w io.Writer, summaries []core.SessionSummary) error {
	entries := make([]indexEntry, 0, len(summaries))
	for _, s := range summaries {
		e := indexEntry{
			Title:    s.Title,
			Source:   string(s.Source),
			Dir:      s.CWD,
			Messages: s.MessageCount,
			Tools:    s.ToolCount,
		}
		if e.Title == "" {
			e.Title = "Session " + s.ID
		}
		if t := s.LastActivity(); !t.IsZero() {
			e.When = core.RelativeTime(t)
		}
		if r.SessionHref != nil {
			e.Href = r.SessionHref(s.ID)
		} else {
			e.Href = s.ID + ".html"
		}
		entries = append(entries, e)
	}
	return r.idx.Execute(w, indexData{Entries: entries})
}

// Render writes the session as a complete HTML page to w.
func (r *Renderer) Render(w io.Writer, s *core.Session) error {
	// Pair tool results with their calls so each call card shows its output.
	resultIndex := make(map[string]*core.ResponseItem)
	for _, row := range s.Rows {
		if row.Kind == core.RowResponseItem && row.Item.IsToolResult && row.Item.ToolUseID != "" {
			resultIndex[row.Item.ToolUseID] = row.Item
		}
	}
	consumed := make(map[string]bool)

	var prev *time.Time
	var messages []messageData
	var tokens core.TokenUsage

	for i, row := range s.Rows {
		md := messageData{
			ID:        fmt.Sprintf("msg-%d", i),
			Timestamp: row.Timestamp,
		}
		if prev != nil {
			md.Duration = formatDuration(row.Timestamp.Sub(*prev))
		}
		ts := row.Timestamp
		prev = &ts

		switch row.Kind {
		case core.RowSessionMeta, core.RowTurnContext:
			continue

		case core.RowEventMessage:
			md.RoleLabel, md.BorderClass, md.BadgeClass = roleClasses("system")
			block, err := r.renderEvent(row.Event)
			if err != nil {
				return fmt.Errorf("render event: %w", err)
			}
			if block == "" {
				continue
			}
			md.Blocks = append(md.Blocks, block)

		case core.RowResponseItem:
			item := row.Item
			if item.Usage != nil {
				tokens.Add(*item.Usage)
			}
			md.RoleLabel, md.BorderClass, md.BadgeClass = roleClasses(item.Role)
			switch {
			case item.IsToolCall:
				result := resultIndex[item.ToolUseID]
				if result != nil {
					consumed[item.ToolUseID] = true
				}
				block, err := r.renderToolCall(item, result)
				if err != nil {
					return fmt.Errorf("render tool call: %w", err)
				}
				md.Blocks = append(md.Blocks, block)
			case item.IsToolResult:
				if consumed[item.ToolUseID] {
					continue
				}
				md.Blocks = append(md.Blocks, renderToolResult(item))
			default:
				if strings.TrimSpace(item.Text) == "" {
					continue
				}
				block, err := r.renderText(item.Text)
				if err != nil {
					return fmt.Errorf("render text: %w", err)
				}
				md.Blocks = append(md.Blocks, block)
			}
		}

		if len(md.Blocks) > 0 {
			messages = append(messages, md)
		}
	}

	sum := s.Summary
	data := pageData{
		Title:      sum.Title,
		Source:     string(sum.Source),
		Model:      sum.Model,
		Dir:        sum.CWD,
		Comment:    sum.Comment,
		TokenTotal: tokens.Total(),
		Messages:   messages,
	}
	if data.Title == "" {
		data.Title = "Session " + sum.ID
	}
	if !sum.StartedAt.IsZero() {
		data.When = core.RelativeTime(sum.StartedAt)
	}
	if !sum.StartedAt.IsZero() && sum.UpdatedAt != nil {
		data.Duration = formatDuration(sum.UpdatedAt.Sub(sum.StartedAt))
	}
	return r.page.Execute(w, data)
}

func roleClasses(role string) (label, border, badge string) {
	switch role {
	case "user":
		return "User",
			"border-l-4 border-l-blue-500",
			"text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	case "assistant":
		return "Assistant",
			"border-l-4 border-l-emerald-500",
			"text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
	case "system":
		return "System",
			"border-l-4 border-l-slate-400",
			"text-slate-600 dark:text-slate-400 bg-slate-100 dark:bg-slate-800"
	default:
		if role == "" {
			role = "event"
		}
		return strings.ToUpper(role[:1]) + role[1:], "", ""
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && sec > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
