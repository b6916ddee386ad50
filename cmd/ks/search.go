package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ketaki/kosha/search"
	"github.com/urfave/cli/v3"
)

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find sessions containing a text match",
		ArgsUsage: "<term>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			term := cmd.Args().First()
			if term == "" {
				return fmt.Errorf("a search term is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			searcher := &search.Searcher{
				Tool:  a.cfg.SearchTool,
				Limit: a.cfg.SearchLimit,
			}

			var total int
			truncated := false
			for _, root := range a.roots() {
				result, err := searcher.Search(ctx, term, root)
				if errors.Is(err, search.ErrExecutableMissing) {
					return fmt.Errorf("%s is not installed; content search needs it", a.cfg.SearchTool)
				}
				if err != nil {
					return err
				}
				for _, rel := range result.Paths {
					fmt.Println(filepath.Join(root, rel))
					total++
				}
				truncated = truncated || result.Truncated
			}

			if truncated {
				fmt.Printf("(truncated at %d results)\n", a.cfg.SearchLimit)
			}
			if total == 0 {
				fmt.Println("no matches")
			}
			return nil
		},
	}
}
