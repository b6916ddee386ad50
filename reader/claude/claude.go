// Package claude reads Claude Code session logs (JSONL in ~/.claude/projects/).
package claude

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// WarmupPrefix marks sidechain warm-up artifacts. Files carrying it are
// excluded from every directory-wide scan, whatever their contents.
const WarmupPrefix = "agent-"

// fastPrefixLines bounds the prefix read of FastIndex.
const fastPrefixLines = 400

// fastIDLines bounds the prefix read of FastSessionID.
const fastIDLines = 256

// tailReadBytes bounds the tail read used to correct the last-updated time.
const tailReadBytes = 64 << 10

// Reader reads Claude Code JSONL session files.
type Reader struct {
	// LimitPhrases overrides the recognized limit-reached phrase list.
	LimitPhrases []string
}

// Raw JSON deserialization types. These mirror the JSONL structure on disk;
// unknown fields are ignored by encoding/json.

type rawEntry struct {
	Type        string     `json:"type"`
	SessionID   string     `json:"sessionId"`
	RequestID   string     `json:"requestId"`
	Timestamp   string     `json:"timestamp"`
	CWD         string     `json:"cwd"`
	Version     string     `json:"version"`
	IsSidechain bool       `json:"isSidechain"`
	Content     any        `json:"content"`
	Summary     string     `json:"summary"`
	Message     rawMessage `json:"message"`
}

type rawMessage struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *rawUsage       `json:"usage"`
}

type rawUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

type rawContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source identifies the family.
func (r *Reader) Source() core.Source { return core.SourceClaude }

// SkipFile excludes sidechain warm-up artifacts by filename.
func (r *Reader) SkipFile(name string) bool {
	return strings.HasPrefix(name, WarmupPrefix)
}

// TempFile is always false: Claude Code never renames session files.
func (r *Reader) TempFile(string) bool { return false }

func (r *Reader) phrases() []string {
	if len(r.LimitPhrases) > 0 {
		return r.LimitPhrases
	}
	return reader.DefaultLimitPhrases
}

// ParseFile streams the whole file into a summary plus ordered rows.
// Returns (nil, nil) when no usable session metadata is found.
func (r *Reader) ParseFile(ctx context.Context, path string) (*core.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil
	}

	var acc reader.Accumulator
	var rows []core.Row

	reader.EachLine(f, func(line []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		row, ok := r.decodeLine(line, &acc)
		if !ok {
			return true
		}
		acc.ObserveRow(row)
		rows = append(rows, row)
		return true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, ok := acc.Summary(path, info.Size(), core.SourceClaude)
	if !ok {
		return nil, nil
	}
	return &core.Session{Summary: summary, Rows: rows}, nil
}

// decodeLine turns one JSONL line into a Row. Lines that fail to decode, lack
// a recognizable type or timestamp, or are flagged as sidechain messages are
// dropped silently.
func (r *Reader) decodeLine(line []byte, acc *reader.Accumulator) (core.Row, bool) {
	var e rawEntry
	if err := json.Unmarshal(line, &e); err != nil {
		return core.Row{}, false
	}
	if e.IsSidechain {
		return core.Row{}, false
	}

	ts, ok := reader.ParseTimestamp(e.Timestamp)
	if !ok {
		return core.Row{}, false
	}

	// Identity fields ride on every line rather than a dedicated meta record.
	acc.ObserveID(e.SessionID)
	acc.ObserveCWD(e.CWD)
	acc.ObserveVersion(e.Version)

	switch e.Type {
	case "user", "assistant":
		return core.Row{Timestamp: ts, Kind: core.RowResponseItem, Item: r.buildItem(e)}, true

	case "system":
		return core.Row{Timestamp: ts, Kind: core.RowEventMessage, Event: r.buildEvent(e)}, true

	case "summary":
		text := e.Summary
		if text == "" {
			text = flatText(e.Content)
		}
		return core.Row{
			Timestamp: ts,
			Kind:      core.RowEventMessage,
			Event:     &core.EventMessage{Type: "summary", Message: text},
		}, true

	default:
		return core.Row{}, false
	}
}

func (r *Reader) buildItem(e rawEntry) *core.ResponseItem {
	item := &core.ResponseItem{
		Role:      e.Message.Role,
		Model:     e.Message.Model,
		MessageID: e.Message.ID,
		RequestID: e.RequestID,
	}
	if item.Role == "" {
		item.Role = e.Type
	}

	text, toolName, toolUseID, kind := splitContent(e.Message.Content)
	item.Text = text
	item.ToolName = toolName
	item.ToolUseID = toolUseID
	item.IsToolCall = kind == contentToolUse
	item.IsToolResult = kind == contentToolResult

	if e.Message.Usage != nil {
		item.Usage = &core.TokenUsage{
			InputTokens:         e.Message.Usage.InputTokens,
			OutputTokens:        e.Message.Usage.OutputTokens,
			CacheReadTokens:     e.Message.Usage.CacheReadInputTokens,
			CacheCreationTokens: e.Message.Usage.CacheCreationInputTokens,
		}
	}
	return item
}

func (r *Reader) buildEvent(e rawEntry) *core.EventMessage {
	text := flatText(e.Content)
	ev := &core.EventMessage{Type: "system", Message: text}
	if reader.MatchLimitPhrase(text, r.phrases()) {
		ev.RateLimitHint = text
	}
	return ev
}

type contentKind int

const (
	contentText contentKind = iota
	contentToolUse
	contentToolResult
)

// splitContent classifies a message's content. Claude content is either a
// bare string or an array of typed blocks; a line whose blocks are all
// tool_use (or all tool_result) is a tool row, anything else is a message.
func splitContent(raw json.RawMessage) (text, toolName, toolUseID string, kind contentKind) {
	if len(raw) == 0 {
		return "", "", "", contentText
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, "", "", contentText
	}

	var blocks []rawContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil || len(blocks) == 0 {
		return "", "", "", contentText
	}

	var texts []string
	tools, results := 0, 0
	for _, b := range blocks {
		switch b.Type {
		case "text", "thinking":
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case "tool_use":
			tools++
			toolName = b.Name
			toolUseID = b.ID
		case "tool_result":
			results++
		}
	}

	text = strings.Join(texts, "\n")
	switch {
	case tools > 0 && len(texts) == 0:
		kind = contentToolUse
	case results > 0 && tools == 0 && len(texts) == 0:
		kind = contentToolResult
	default:
		kind = contentText
	}
	return text, toolName, toolUseID, kind
}

// flatText renders system/summary content, which can be a string or a block
// array, as plain text.
func flatText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, item := range c {
			if m, ok := item.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}
