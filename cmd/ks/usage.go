package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/ketaki/kosha/cache"
	"github.com/ketaki/kosha/render/terminal"
	"github.com/ketaki/kosha/scan"
	"github.com/ketaki/kosha/usage"
	"github.com/urfave/cli/v3"
)

var monthRE = regexp.MustCompile(`^\d{4}-\d{2}$`)

func usageCmd() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show the current usage window and weekly totals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "month",
				Usage: "Show per-day activity for a month (YYYY-MM) instead of the live window",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if month := cmd.String("month"); month != "" {
				if !monthRE.MatchString(month) {
					return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
				}
				return showCoverage(ctx, a, month)
			}

			summaries := a.index().FastScan(ctx)
			analyzer := &usage.Analyzer{
				Readers:   a.readers,
				FileLimit: a.cfg.UsageFileLimit,
			}
			status := analyzer.Status(ctx, summaries)
			return terminal.New().RenderUsage(os.Stdout, status)
		},
	}
}

// showCoverage merges per-file day coverage for one month, served from the
// scan cache when the file's mtime still matches.
func showCoverage(ctx context.Context, a *app, month string) error {
	c := cache.Open(a.cfg.CachePath)
	defer c.Flush()

	merged := make(map[int]struct{})
	for _, f := range a.index().Files(ctx) {
		days, ok := c.GetCoverage(f.Path, month, f.ModTime)
		if !ok {
			sess, err := f.Reader.ParseFile(ctx, f.Path)
			if err != nil {
				return err
			}
			if sess == nil {
				continue
			}
			// Re-stat after the parse: a file rewritten mid-read must not be
			// cached under the stale mtime.
			size, mtime, alive := scan.Stat(f.Path)
			if !alive || size != f.Size || !mtime.Equal(f.ModTime) {
				log.Debug("file changed during scan, skipping cache", "path", f.Path)
				continue
			}

			coverage := cache.Coverage(sess.Rows)
			for m, d := range coverage {
				c.SetCoverage(f.Path, m, f.ModTime, d)
			}
			toolCount, lastTokens := cache.ToolScan(sess.Rows)
			c.SetTools(f.Path, f.ModTime, toolCount, lastTokens)

			days = coverage[month]
		}
		for _, d := range days {
			merged[d] = struct{}{}
		}
	}

	all := make([]int, 0, len(merged))
	for d := range merged {
		all = append(all, d)
	}
	sort.Ints(all)
	return terminal.New().RenderCoverage(os.Stdout, month, all)
}
