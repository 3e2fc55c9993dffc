package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytaudio/internal/formatter"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a query and prints the results as text, CSV, Markdown or JSON.
//
// The search is recorded in the history database unless --no-history is set.
// History failures are logged and never fail the search.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	limit := int(cmd.Int("limit"))
	format := cmd.String("format")
	output := cmd.String("output")

	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}
	if limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", shared.ErrInvalidFlag)
	}

	provider, err := r.service()
	if err != nil {
		return err
	}

	r.logger.Debug("searching", "query", query, "provider", provider.Name())
	result, err := provider.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	r.logger.Debug("search complete", "query", query, "results", result.Len())

	if !cmd.Bool("no-history") {
		r.recordSearch(query, result)
	}

	result = result.Limit(limit)

	if output != "" {
		if err := formatter.WriteExport(output, format, query, result); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d results to %s\n", result.Len(), output)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	data, err := formatter.Render(format, query, result, r.styled())
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if result.Len() == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	return r.writeBytes(data)
}

func (r *Runner) recordSearch(query string, result models.QueryResult) {
	if err := r.openHistory(); err != nil {
		r.logger.Warn("search history disabled", "error", err)
		return
	}
	if err := r.searches.Create(models.NewSearchRecord(query, result)); err != nil {
		r.logger.Warn("failed to record search", "query", query, "error", err)
	}
}

// HistorySearches lists recorded searches.
func (r *Runner) HistorySearches(ctx context.Context, cmd *cli.Command) error {
	if err := r.openHistory(); err != nil {
		return err
	}

	searches, err := r.searches.List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list searches: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(searches, cmd.Bool("pretty"))
	}
	if len(searches) == 0 {
		return r.writePlain("No searches recorded\n")
	}
	return r.writeBytes(formatter.SearchesToText(searches))
}

// HistoryDownloads lists recorded download and stream jobs.
func (r *Runner) HistoryDownloads(ctx context.Context, cmd *cli.Command) error {
	if err := r.openHistory(); err != nil {
		return err
	}

	downloads, err := r.downloads.List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list downloads: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(downloads, cmd.Bool("pretty"))
	}
	if len(downloads) == 0 {
		return r.writePlain("No jobs recorded\n")
	}
	return r.writeBytes(formatter.DownloadsToText(downloads))
}
