// Package codex reads OpenAI Codex CLI session logs (JSONL rollouts in
// ~/.codex/sessions/). Unlike Claude's, a Codex rollout is written under a
// temporary name first and renamed once the session is established, so
// consumers must resolve session ids by content, not filename.
package codex

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/reader"
)

// TempPrefix marks a rollout that has not yet been renamed to its canonical
// rollout-<timestamp>-<id>.jsonl name.
const TempPrefix = "tmp-"

const (
	fastPrefixLines = 400
	fastIDLines     = 256
	tailReadBytes   = 64 << 10
)

// Reader reads Codex CLI JSONL rollout files.
type Reader struct {
	// LimitPhrases overrides the recognized limit-reached phrase list.
	LimitPhrases []string
}

type rawLine struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type rawSessionMeta struct {
	ID         string `json:"id"`
	CWD        string `json:"cwd"`
	Originator string `json:"originator"`
	CLIVersion string `json:"cli_version"`
}

type rawTurnContext struct {
	CWD            string `json:"cwd"`
	Model          string `json:"model"`
	ApprovalPolicy string `json:"approval_policy"`
}

type rawEventMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Info    *struct {
		LastTokenUsage *rawTokenUsage `json:"last_token_usage"`
	} `json:"info"`
	RateLimits json.RawMessage `json:"rate_limits"`
}

type rawTokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

type rawResponseItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	CallID  string `json:"call_id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Source identifies the family.
func (r *Reader) Source() core.Source { return core.SourceCodex }

// SkipFile is always false: Codex has no reserved warm-up filenames.
func (r *Reader) SkipFile(string) bool { return false }

// TempFile reports pre-rename rollouts by their reserved prefix.
func (r *Reader) TempFile(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

func (r *Reader) phrases() []string {
	if len(r.LimitPhrases) > 0 {
		return r.LimitPhrases
	}
	return reader.DefaultLimitPhrases
}

// ParseFile streams the whole rollout into a summary plus ordered rows.
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
		row, ok := r.decodeLine(line)
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

	summary, ok := acc.Summary(path, info.Size(), core.SourceCodex)
	if !ok {
		return nil, nil
	}
	return &core.Session{Summary: summary, Rows: rows}, nil
}

// decodeLine turns one JSONL line into a Row. Unknown types and malformed
// payloads are dropped silently.
func (r *Reader) decodeLine(line []byte) (core.Row, bool) {
	var l rawLine
	if err := json.Unmarshal(line, &l); err != nil {
		return core.Row{}, false
	}

	ts, ok := reader.ParseTimestamp(l.Timestamp)
	if !ok {
		return core.Row{}, false
	}

	switch l.Type {
	case "session_meta":
		var m rawSessionMeta
		if err := json.Unmarshal(l.Payload, &m); err != nil {
			return core.Row{}, false
		}
		return core.Row{Timestamp: ts, Kind: core.RowSessionMeta, Meta: &core.SessionMeta{
			ID:         m.ID,
			CWD:        m.CWD,
			Originator: m.Originator,
			CLIVersion: m.CLIVersion,
		}}, true

	case "turn_context":
		var t rawTurnContext
		if err := json.Unmarshal(l.Payload, &t); err != nil {
			return core.Row{}, false
		}
		return core.Row{Timestamp: ts, Kind: core.RowTurnContext, Turn: &core.TurnContext{
			CWD:            t.CWD,
			Model:          t.Model,
			ApprovalPolicy: t.ApprovalPolicy,
		}}, true

	case "event_msg":
		ev, ok := r.buildEvent(l.Payload)
		if !ok {
			return core.Row{}, false
		}
		return core.Row{Timestamp: ts, Kind: core.RowEventMessage, Event: ev}, true

	case "response_item":
		item, ok := buildItem(l.Payload)
		if !ok {
			return core.Row{}, false
		}
		return core.Row{Timestamp: ts, Kind: core.RowResponseItem, Item: item}, true

	default:
		return core.Row{}, false
	}
}

func (r *Reader) buildEvent(payload json.RawMessage) (*core.EventMessage, bool) {
	var e rawEventMsg
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, false
	}

	ev := &core.EventMessage{Type: e.Type, Message: e.Message}
	if e.Info != nil && e.Info.LastTokenUsage != nil {
		ev.Usage = &core.TokenUsage{
			InputTokens:     e.Info.LastTokenUsage.InputTokens,
			OutputTokens:    e.Info.LastTokenUsage.OutputTokens,
			CacheReadTokens: e.Info.LastTokenUsage.CachedInputTokens,
		}
	}
	if reader.MatchLimitPhrase(e.Message, r.phrases()) {
		ev.RateLimitHint = e.Message
	}
	return ev, true
}

func buildItem(payload json.RawMessage) (*core.ResponseItem, bool) {
	var it rawResponseItem
	if err := json.Unmarshal(payload, &it); err != nil {
		return nil, false
	}

	switch it.Type {
	case "message":
		var texts []string
		for _, c := range it.Content {
			if (c.Type == "input_text" || c.Type == "output_text") && c.Text != "" {
				texts = append(texts, c.Text)
			}
		}
		return &core.ResponseItem{Role: it.Role, Text: strings.Join(texts, "\n")}, true

	case "function_call", "local_shell_call", "custom_tool_call":
		return &core.ResponseItem{
			Role:       "assistant",
			ToolName:   it.Name,
			ToolUseID:  it.CallID,
			IsToolCall: true,
		}, true

	case "function_call_output", "custom_tool_call_output":
		return &core.ResponseItem{
			Role:         "tool",
			ToolUseID:    it.CallID,
			IsToolResult: true,
		}, true

	case "reasoning":
		return &core.ResponseItem{Role: "assistant"}, true

	default:
		return nil, false
	}
}
