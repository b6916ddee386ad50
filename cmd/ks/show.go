package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Render one session as a transcript",
		ArgsUsage: "<session-id | file.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, html, json",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg := cmd.Args().First()
			if arg == "" {
				return fmt.Errorf("a session id or file path is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			sess, err := a.findSession(ctx, arg)
			if err != nil {
				return err
			}

			rnd, err := a.renderer(cmd.String("o"))
			if err != nil {
				return err
			}
			return rnd.Render(os.Stdout, sess)
		},
	}
}
