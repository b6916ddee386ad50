package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ketaki/kosha/core"
	htmlrender "github.com/ketaki/kosha/render/html"
	"github.com/ketaki/kosha/scan"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve sessions for browsing in a local web UI",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: 8080,
			},
			&cli.BoolFlag{
				Name:  "enrich",
				Usage: "Run a full enrichment pass in the background after startup",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			summaries := a.index().FastScan(ctx)
			table := scan.NewTable(summaries)

			if cmd.Bool("enrich") && len(summaries) > 0 {
				sched := a.scheduler(a.notes())
				sched.Enrich(ctx, "serve", summaries, func(batch []core.SessionSummary) {
					table.Upsert(batch...)
				})
			}

			renderer := htmlrender.New()
			renderer.SessionHref = func(sessionID string) string {
				return "/session/" + sessionID
			}

			mux := http.NewServeMux()

			mux.HandleFunc("GET /", func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if err := renderer.RenderIndex(w, table.Sorted()); err != nil {
					slog.Error("render index", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			})

			mux.HandleFunc("GET /session/{id}", func(w http.ResponseWriter, req *http.Request) {
				id := req.PathValue("id")
				sum, ok := table.Get(id)
				if !ok {
					http.NotFound(w, req)
					return
				}
				sess, err := a.readers[sum.Source].ParseFile(req.Context(), sum.Path)
				if err != nil || sess == nil {
					slog.Error("parse session", "session_id", id, "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				if err := renderer.Render(w, sess); err != nil {
					slog.Error("render session", "session_id", id, "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			})

			addr := fmt.Sprintf(":%d", cmd.Int("port"))
			slog.Info("serving", "addr", "http://localhost"+addr, "sessions", table.Len())
			return http.ListenAndServe(addr, mux)
		},
	}
}
