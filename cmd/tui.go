package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/services"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/desertthunder/ytaudio/internal/ui"
	"github.com/urfave/cli/v3"
)

// Pick launches the interactive result picker for a query.
func (r *Runner) Pick(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/ytaudio-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	provider, err := r.service()
	if err != nil {
		return err
	}

	sup, err := r.supervisor(true, nil)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Searcher: recordingSearcher{r: r, provider: provider},
		Starter:  sup,
		Query:    query,
		Format:   r.cfg().Audio.Format,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// recordingSearcher records successful picker searches in the history database.
type recordingSearcher struct {
	r        *Runner
	provider services.Searcher
}

func (s recordingSearcher) Search(ctx context.Context, query string) (models.QueryResult, error) {
	result, err := s.provider.Search(ctx, query)
	if err == nil {
		s.r.recordSearch(query, result)
	}
	return result, err
}
