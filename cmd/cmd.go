// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// searchCommand runs a query and prints the results
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search YouTube for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results to print (0 for all)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the formatted results to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the search in the history database",
			},
		},
		Action: r.Search,
	}
}

// downloadCommand fetches a full audio download
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download a track's audio with the downloader tool",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output base name; the extension is added by the downloader",
				Required: true,
			},
		},
		Action: r.Download,
	}
}

// streamCommand resolves a media url and transcodes it
func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Resolve a track's media url and transcode it to a file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "url"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file path",
				Required: true,
			},
		},
		Action: r.Stream,
	}
}

// batchCommand runs many jobs from a JSON file
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run download and stream jobs listed in a JSON file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers (defaults to jobs.max_concurrent)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Jobs started per second",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Write a JSON manifest of the outcome to this path",
			},
		},
		Action: r.Batch,
	}
}

// pickCommand returns the TUI result picker.
func pickCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "pick",
		Aliases: []string{"tui", "ui"},
		Usage:   "Search and pick a track to download or stream interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Action: r.Pick,
	}
}

// historyCommand lists recorded searches and jobs
func historyCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries (0 for all)",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		}
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded searches and jobs",
		Commands: []*cli.Command{
			{
				Name:   "searches",
				Usage:  "List past searches, newest first",
				Flags:  flags(),
				Action: r.HistorySearches,
			},
			{
				Name:    "downloads",
				Aliases: []string{"jobs"},
				Usage:   "List past download and stream jobs, newest first",
				Flags:   flags(),
				Action:  r.HistoryDownloads,
			},
		},
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve search and jobs over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "down",
						Usage: "Roll back every migration, dropping all recorded searches and jobs",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
