package main

import (
	"context"

	"github.com/desertthunder/ytaudio/internal/server"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.service()
	if err != nil {
		return err
	}

	sup, err := r.supervisor(true, nil)
	if err != nil {
		return err
	}

	opts := server.ServerOpts{
		Searcher:   provider,
		Supervisor: sup,
		Logger:     shared.WithLogger(r.logger, "component", "server"),
		Timeout:    r.cfg().Search.Timeout() * 2,
	}
	if r.downloads != nil {
		opts.History = r.downloads
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.cfg().Server.Addr()
	}

	return server.NewServer(opts).ListenAndServe(ctx, addr)
}
