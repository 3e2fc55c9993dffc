package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in configuration template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if cmd.Bool("force") {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// SetupDatabase initializes the database and runs migrations. With --down it
// rolls the history schema back instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.cfg().Database.Path
	if cmd.Bool("down") {
		return r.resetDatabase(path)
	}

	r.logger.Info("initializing database", "path", path)

	if err := r.openHistory(); err != nil {
		return err
	}

	version, err := shared.SchemaVersion(r.db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", path, version)
}

func (r *Runner) resetDatabase(path string) error {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	n, err := shared.ResetMigrations(db)
	if err != nil {
		return err
	}

	r.logger.Warn("history schema dropped", "path", path, "migrations", n)
	return r.writePlain("✓ Rolled back %d migration(s) in %s\n", n, path)
}
