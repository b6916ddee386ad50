package main

import (
	"context"
	"fmt"

	"github.com/ketaki/kosha/notes"
	"github.com/urfave/cli/v3"
)

func noteCmd() *cli.Command {
	return &cli.Command{
		Name:      "note",
		Usage:     "Attach a title and comment to a session",
		ArgsUsage: "<session-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Session title shown in listings",
			},
			&cli.StringFlag{
				Name:  "comment",
				Usage: "Free-form comment",
			},
			&cli.StringFlag{
				Name:  "project",
				Usage: "Assign the session to a project id (empty removes it)",
			},
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Remove the note",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("a session id is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			store := a.notes()

			if cmd.Bool("clear") {
				return store.SetNote(id, notes.Note{})
			}

			if cmd.IsSet("project") {
				if err := store.SetProject(id, cmd.String("project")); err != nil {
					return err
				}
			}
			if cmd.IsSet("title") || cmd.IsSet("comment") {
				title, comment, _ := store.Note(id)
				if cmd.IsSet("title") {
					title = cmd.String("title")
				}
				if cmd.IsSet("comment") {
					comment = cmd.String("comment")
				}
				return store.SetNote(id, notes.Note{Title: title, Comment: comment})
			}

			title, comment, ok := store.Note(id)
			if !ok {
				fmt.Println("no note")
				return nil
			}
			if title != "" {
				fmt.Println(title)
			}
			if comment != "" {
				fmt.Println(comment)
			}
			return nil
		},
	}
}
