package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:  "ks",
		Usage: "Index, enrich, and browse Claude and Codex session logs",
		Description: `
  _             _
 | |_____ _____| |_  __ _
 | / / _ (_-<_-< ' \/ _' |
 |_\_\___/__/__/_||_\__,_|

 The ledger of sessions: what every agent did, when, and where.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			listCmd(),
			showCmd(),
			treeCmd(),
			usageCmd(),
			searchCmd(),
			noteCmd(),
			serveCmd(),
			cacheCmd(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
