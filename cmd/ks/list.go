package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ketaki/kosha/core"
	"github.com/ketaki/kosha/render/terminal"
	"github.com/ketaki/kosha/scan"
	"github.com/ketaki/kosha/watch"
	"github.com/urfave/cli/v3"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List sessions across all log roots",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "enrich",
				Usage: "Replace fast-path approximations with full parses before printing",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep running and reprint when log files change",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print summaries as JSON instead of a table",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Show at most this many sessions (0 = all)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			table, err := buildTable(ctx, a, cmd.Bool("enrich"))
			if err != nil {
				return err
			}
			if err := printTable(cmd, table); err != nil {
				return err
			}

			if !cmd.Bool("watch") {
				return nil
			}
			return watchLoop(ctx, a, cmd, table)
		},
	}
}

// buildTable runs the fast scan and, when requested, a full enrichment pass
// that blocks until every visible session has been re-parsed.
func buildTable(ctx context.Context, a *app, enrichAll bool) (*scan.Table, error) {
	summaries := a.index().FastScan(ctx)
	table := scan.NewTable(summaries)

	if enrichAll && len(summaries) > 0 {
		sched := a.scheduler(a.notes())
		run := sched.Enrich(ctx, "list", summaries, func(batch []core.SessionSummary) {
			table.Upsert(batch...)
		})
		if run != nil {
			run.Wait()
			processed, total := run.Progress()
			log.Debug("enrichment finished", "processed", processed, "total", total)
		}
	}
	return table, ctx.Err()
}

func printTable(cmd *cli.Command, table *scan.Table) error {
	summaries := table.Sorted()
	if limit := int(cmd.Int("limit")); limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	return terminal.New().RenderSummaries(os.Stdout, summaries)
}

// watchLoop keeps the table current by re-indexing just the files named in
// each debounced batch, then reprints.
func watchLoop(ctx context.Context, a *app, cmd *cli.Command, table *scan.Table) error {
	w, err := watch.New(a.roots())
	if err != nil {
		return err
	}
	defer w.Close()

	idx := a.index()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-w.Errs:
			log.Warn("watch error", "error", err)
		case batch := <-w.Batch:
			log.Debug("log files changed", "count", len(batch))
			applyBatch(idx, table, batch)
			fmt.Println()
			if err := printTable(cmd, table); err != nil {
				return err
			}
		}
	}
}

// applyBatch folds a batch of touched paths into the table: refreshed files
// are upserted by id, vanished ones are dropped.
func applyBatch(idx *scan.Index, table *scan.Table, batch []string) {
	for _, path := range batch {
		if sum, ok := idx.IndexFile(path); ok {
			table.Upsert(sum)
			continue
		}
		if prev, ok := table.ByPath(path); ok {
			table.Remove(prev.ID)
		}
	}
}
