package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ketaki/kosha/pathtree"
	"github.com/ketaki/kosha/render/terminal"
	"github.com/ketaki/kosha/scan"
	"github.com/ketaki/kosha/watch"
	"github.com/urfave/cli/v3"
)

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Show session counts grouped by working directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep running and reprint when log files change",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			table := scan.NewTable(a.index().FastScan(ctx))

			var agg pathtree.Aggregator
			root := agg.ApplySnapshot(table.CWDCounts())
			if err := terminal.New().RenderTree(os.Stdout, root); err != nil {
				return err
			}

			if !cmd.Bool("watch") {
				return nil
			}
			return treeWatchLoop(ctx, a, table, &agg)
		},
	}
}

// treeWatchLoop patches the cached tree with the cwd deltas of each change
// batch, rebuilding from a snapshot whenever a patch is rejected.
func treeWatchLoop(ctx context.Context, a *app, table *scan.Table, agg *pathtree.Aggregator) error {
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
			root, ok := applyTreeBatch(idx, table, agg, batch)
			if !ok {
				log.Debug("tree patch rejected, rebuilding")
				root = agg.ApplySnapshot(table.CWDCounts())
			}
			fmt.Println()
			if err := terminal.New().RenderTree(os.Stdout, root); err != nil {
				return err
			}
		}
	}
}

// applyTreeBatch folds touched files into the table and patches the tree
// with the resulting per-directory deltas. ok is false when the patch could
// not be applied (a new directory outside the cached prefix, or no cached
// tree yet) and the caller must rebuild from a snapshot.
func applyTreeBatch(idx *scan.Index, table *scan.Table, agg *pathtree.Aggregator, batch []string) (*pathtree.Node, bool) {
	delta := make(map[string]int)
	for _, path := range batch {
		if prev, ok := table.ByPath(path); ok {
			if prev.CWD != "" {
				delta[prev.CWD]--
			}
			table.Remove(prev.ID)
		}
		if sum, ok := idx.IndexFile(path); ok {
			if sum.CWD != "" {
				delta[sum.CWD]++
			}
			table.Upsert(sum)
		}
	}
	for cwd, n := range delta {
		if n == 0 {
			delete(delta, cwd)
		}
	}
	if len(delta) == 0 {
		return agg.Tree(), true
	}
	return agg.ApplyDelta(delta)
}
