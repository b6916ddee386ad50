package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ketaki/kosha/cache"
	"github.com/ketaki/kosha/scan"
	"github.com/urfave/cli/v3"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or reset the scan cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache diagnostics",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					d := cache.Open(a.cfg.CachePath).Stats()
					fmt.Printf("coverage entries: %d\n", d.CachedCoverageEntries)
					fmt.Printf("tool entries:     %d\n", d.CachedToolEntries)
					fmt.Printf("files scanned:    %d\n", len(d.LastScanTimestamps))
					return nil
				},
			},
			{
				Name:  "warm",
				Usage: "Fully parse every session and refresh cached derived data",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					c := cache.Open(a.cfg.CachePath)
					defer c.Flush()

					warmed := 0
					for _, f := range a.index().Files(ctx) {
						if _, ok := c.GetTools(f.Path, f.ModTime); ok {
							continue
						}
						sess, err := f.Reader.ParseFile(ctx, f.Path)
						if err != nil {
							return err
						}
						if sess == nil {
							continue
						}
						if _, mtime, alive := scan.Stat(f.Path); !alive || !mtime.Equal(f.ModTime) {
							continue
						}
						for month, days := range cache.Coverage(sess.Rows) {
							c.SetCoverage(f.Path, month, f.ModTime, days)
						}
						toolCount, lastTokens := cache.ToolScan(sess.Rows)
						c.SetTools(f.Path, f.ModTime, toolCount, lastTokens)
						warmed++
					}
					fmt.Printf("warmed %d files\n", warmed)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the cache snapshot",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := newApp(cmd)
					if err != nil {
						return err
					}
					if err := os.Remove(a.cfg.CachePath); err != nil && !os.IsNotExist(err) {
						return err
					}
					return nil
				},
			},
		},
	}
}
