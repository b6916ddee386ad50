package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ketaki/kosha/config"
	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/enrich"
	"github.com/ketaki/kosha/notes"
	"github.com/ketaki/kosha/reader"
	"github.com/ketaki/kosha/reader/claude"
	"github.com/ketaki/kosha/reader/codex"
	"github.com/ketaki/kosha/render"
	htmlrender "github.com/ketaki/kosha/render/html"
	jsonrender "github.com/ketaki/kosha/render/json"
	"github.com/ketaki/kosha/render/terminal"
	"github.com/ketaki/kosha/scan"
	"github.com/urfave/cli/v3"
)

// app wires the config, reader registry, and stores used by CLI commands.
type app struct {
	cfg     config.Config
	readers map[core.Source]reader.Reader
}

func newApp(cmd *cli.Command) (*app, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg: cfg,
		readers: map[core.Source]reader.Reader{
			core.SourceClaude: &claude.Reader{LimitPhrases: cfg.LimitPhrases},
			core.SourceCodex:  &codex.Reader{LimitPhrases: cfg.LimitPhrases},
		},
	}, nil
}

// index builds the directory scanner over the configured log roots.
func (a *app) index() *scan.Index {
	return scan.New(
		scan.Root{Dir: a.cfg.ClaudeDir, Reader: a.readers[core.SourceClaude]},
		scan.Root{Dir: a.cfg.CodexDir, Reader: a.readers[core.SourceCodex]},
	)
}

func (a *app) roots() []string {
	return []string{a.cfg.ClaudeDir, a.cfg.CodexDir}
}

func (a *app) notes() *notes.Store {
	return notes.Open(a.cfg.NotesPath)
}

func (a *app) scheduler(n *notes.Store) *enrich.Scheduler {
	return &enrich.Scheduler{Readers: a.readers, Notes: n}
}

// renderer returns the session renderer for the given output format.
func (a *app) renderer(name string) (render.Renderer, error) {
	switch name {
	case "terminal":
		return terminal.New(), nil
	case "html":
		return htmlrender.New(), nil
	case "json":
		return jsonrender.New(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// findSession resolves a session id (or id prefix, or direct file path) to a
// fully parsed session. Renamed files are chased through the resolver before
// giving up.
func (a *app) findSession(ctx context.Context, arg string) (*core.Session, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return a.parsePath(ctx, arg)
	}

	for _, sum := range a.index().FastScan(ctx) {
		if sum.ID != arg && !hasIDPrefix(sum.ID, arg) {
			continue
		}
		rd := a.readers[sum.Source]
		path := sum.Path

		if _, err := os.Stat(path); err != nil {
			resolver := &scan.Resolver{
				FS:     scan.OSLister{},
				FastID: rd.FastSessionID,
				Temp:   rd.TempFile,
			}
			path = resolver.Resolve(sum.ID, sum.Path)
			if path == "" {
				return nil, fmt.Errorf("session %s: file moved and could not be re-located", sum.ID)
			}
		}
		return rd.ParseFile(ctx, path)
	}
	return nil, fmt.Errorf("no session matches %q", arg)
}

// parsePath tries each family's parser on an explicit file path.
func (a *app) parsePath(ctx context.Context, path string) (*core.Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for _, rd := range a.readers {
		sess, err := rd.ParseFile(ctx, abs)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("%s: not a recognized session log", path)
}

func hasIDPrefix(id, prefix string) bool {
	return len(prefix) >= 8 && len(prefix) < len(id) && id[:len(prefix)] == prefix
}
