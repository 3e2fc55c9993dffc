package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/repositories"
	"github.com/desertthunder/ytaudio/internal/services"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/desertthunder/ytaudio/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.Searcher
	db         *sql.DB
	searches   *repositories.SearchRepository
	downloads  *repositories.DownloadRepository
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Searcher // built from Config when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, downloadCommand, streamCommand, batchCommand, pickCommand, historyCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags and loads the configuration file when one exists.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.config != nil {
		return ctx, nil
	}

	config, err := r.loadConfig()
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// Close releases the history database, if it was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger, used when a TUI takes over the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configPath == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded config", "path", r.configPath)
	return config, nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// service returns the provider, building it from the validated config on first use.
func (r *Runner) service() (services.Searcher, error) {
	if r.provider != nil {
		return r.provider, nil
	}
	if err := r.cfg().Validate(); err != nil {
		return nil, err
	}
	r.provider = services.NewYouTubeServiceFromConfig(r.cfg(), r.logger)
	return r.provider, nil
}

// openHistory opens and migrates the history database on first use.
func (r *Runner) openHistory() error {
	if r.db != nil {
		return nil
	}

	c := r.cfg().Database
	db, err := shared.NewDatabase(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	shared.ConfigureDatabase(db, c.MaxOpenConns, c.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.searches = repositories.NewSearchRepository(db)
	r.downloads = repositories.NewDownloadRepository(db)
	return nil
}

// supervisor builds a job supervisor over the provider. Jobs are recorded
// when record is true and the history database opens; otherwise they run
// unrecorded.
func (r *Runner) supervisor(record bool, updates chan<- tasks.ProgressUpdate) (*tasks.Supervisor, error) {
	provider, err := r.service()
	if err != nil {
		return nil, err
	}

	opts := tasks.SupervisorOpts{
		Spawner:       provider,
		Logger:        shared.WithLogger(r.logger, "component", "tasks"),
		MaxConcurrent: r.cfg().Jobs.MaxConcurrent,
		OutputDir:     r.cfg().Jobs.OutputDir,
		Updates:       updates,
	}

	if record {
		if err := r.openHistory(); err != nil {
			r.logger.Warn("job history disabled", "error", err)
		} else {
			opts.Recorder = r.downloads
		}
	}

	return tasks.NewSupervisor(opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// styled reports whether output goes to a terminal and may carry colors.
func (r *Runner) styled() bool {
	f, ok := r.output.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
