package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/desertthunder/ytaudio/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download fetches a track's audio and waits for the downloader to exit.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	req := tasks.JobRequest{Mode: models.ModeDownload, URL: cmd.StringArg("url"), Output: cmd.String("output")}
	job, err := r.runJob(ctx, req)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s.%s\n", job.Request.Output, r.cfg().Audio.Format)
}

// Stream resolves a track's media url, transcodes it and waits for the transcoder to exit.
func (r *Runner) Stream(ctx context.Context, cmd *cli.Command) error {
	req := tasks.JobRequest{Mode: models.ModeStream, URL: cmd.StringArg("url"), Output: cmd.String("output")}
	job, err := r.runJob(ctx, req)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s\n", job.Request.Output)
}

// runJob starts req through a recording supervisor and blocks until the process exits.
func (r *Runner) runJob(ctx context.Context, req tasks.JobRequest) (*tasks.Job, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	updates := make(chan tasks.ProgressUpdate, 8)
	sup, err := r.supervisor(true, updates)
	if err != nil {
		return nil, err
	}

	progressCtx, stop := context.WithCancel(ctx)
	defer stop()
	go r.logProgress(progressCtx, updates)

	job, err := sup.Start(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", req.Mode, err)
	}

	if err := job.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s failed: %w", req.Mode, err)
	}
	return job, nil
}

func (r *Runner) logProgress(ctx context.Context, updates <-chan tasks.ProgressUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			if u.Err != nil {
				r.logger.Error(u.Message, "phase", u.Phase)
			} else {
				r.logger.Info(u.Message, "phase", u.Phase)
			}
		}
	}
}

// Batch runs every job listed in a JSON file, a list of {mode, url, output} objects.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: batch file is required", shared.ErrMissingArgument)
	}

	reqs, err := readBatchFile(path)
	if err != nil {
		return err
	}

	sup, err := r.supervisor(true, nil)
	if err != nil {
		return err
	}

	workers := int(cmd.Int("workers"))
	if workers <= 0 {
		workers = r.cfg().Jobs.MaxConcurrent
	}

	r.logger.Info("starting batch", "jobs", len(reqs), "workers", workers)
	result, err := sup.Batch(ctx, reqs, tasks.BatchOpts{
		NumWorkers:   workers,
		RateLimit:    cmd.Float("rate"),
		ManifestPath: cmd.String("manifest"),
	})
	if result != nil {
		r.writePlainHeader("Batch complete")
		r.writePlain("Total: %d\nSucceeded: %d\nFailed: %d\n", result.Total, result.Succeeded, result.Failed)
		for _, item := range result.Results {
			if !item.Success {
				r.writePlain("  ✗ #%d %s: %s\n", item.Index, item.Request.URL, item.Error)
			}
		}
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", result.Failed, result.Total)
	}
	return nil
}

func readBatchFile(path string) ([]tasks.JobRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var reqs []tasks.JobRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("%w: batch file is not a json list: %v", shared.ErrInvalidInput, err)
	}

	var problems []string
	for i := range reqs {
		if reqs[i].Mode == "" {
			reqs[i].Mode = models.ModeDownload
		}
		if err := reqs[i].Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("#%d: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return reqs, nil
}
