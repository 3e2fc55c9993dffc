// package tasks supervises download and stream jobs started from the CLI, TUI and HTTP API.
package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/process"
	"github.com/desertthunder/ytaudio/internal/shared"
)

// Spawner starts acquisition processes. Implemented by services.Provider.
type Spawner interface {
	Download(trackURL, baseName string) (*process.Handle, error)
	Stream(ctx context.Context, trackURL, dest string) (*process.Handle, error)
}

// JobRecorder persists job history. Implemented by repositories.DownloadRepository.
type JobRecorder interface {
	Create(download *models.DownloadRecord) error
	Finish(id string, status models.JobStatus, errMsg string) error
}

// JobRequest describes a job to start.
type JobRequest struct {
	Mode   models.JobMode `json:"mode"`
	URL    string         `json:"url"`
	Output string         `json:"output"` // base name for downloads, file path for streams; relative to the output dir
}

// Validate checks the request before any process is started. The url must be
// an absolute http(s) url and the output must stay inside the output dir,
// since both end up in a tool's argv.
func (r JobRequest) Validate() error {
	if _, err := models.ParseJobMode(string(r.Mode)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if r.URL == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}
	if r.Output == "" {
		return fmt.Errorf("%w: output is required", shared.ErrMissingArgument)
	}
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if !filepath.IsLocal(r.Output) {
		return fmt.Errorf("%w: output %q must be a relative path inside the output directory", shared.ErrInvalidInput, r.Output)
	}
	return nil
}

func validateURL(raw string) error {
	if strings.HasPrefix(raw, "-") {
		return fmt.Errorf("%w: url %q starts with a dash", shared.ErrInvalidInput, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: url %q: %v", shared.ErrInvalidInput, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url %q must be an absolute http or https url", shared.ErrInvalidInput, raw)
	}
	return nil
}

// Job is a started process being watched by a [Supervisor].
type Job struct {
	ID        string
	Request   JobRequest
	StartedAt time.Time

	pid  int
	args []string
	done chan struct{}
	err  error
}

func (j *Job) Pid() int              { return j.pid }
func (j *Job) Args() []string        { return append([]string(nil), j.args...) }
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the exit error once [Job.Done] is closed, nil before that.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job exits or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SupervisorOpts contains configuration options for creating a Supervisor.
type SupervisorOpts struct {
	Spawner       Spawner
	Recorder      JobRecorder // optional
	Logger        *log.Logger
	MaxConcurrent int    // default 1
	OutputDir     string // joined with relative outputs
	Updates       chan<- ProgressUpdate
}

// Supervisor starts jobs, bounds how many run at once and records their outcome.
type Supervisor struct {
	spawner   Spawner
	recorder  JobRecorder
	logger    *log.Logger
	outputDir string
	updates   chan<- ProgressUpdate
	slots     chan struct{}

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewSupervisor creates a new Supervisor with the provided options.
func NewSupervisor(opts SupervisorOpts) (*Supervisor, error) {
	if opts.Spawner == nil {
		return nil, fmt.Errorf("%w: spawner not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}

	return &Supervisor{
		spawner:   opts.Spawner,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		outputDir: opts.OutputDir,
		updates:   opts.Updates,
		slots:     make(chan struct{}, opts.MaxConcurrent),
		jobs:      make(map[string]*Job),
	}, nil
}

// Start takes a slot, spawns the process and returns once it is running.
//
// It does not wait for a free slot: when all slots are busy it fails with
// [shared.ErrJobLimit]. ctx bounds media URL resolution for streams only;
// the process itself outlives it.
func (s *Supervisor) Start(ctx context.Context, req JobRequest) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	output, err := s.outputPath(req.Output)
	if err != nil {
		return nil, err
	}
	req.Output = output

	select {
	case s.slots <- struct{}{}:
	default:
		return nil, fmt.Errorf("%w: %d running", shared.ErrJobLimit, cap(s.slots))
	}

	s.sendProgress(startingUpdate(req))

	h, err := s.spawn(ctx, req)
	if err != nil {
		<-s.slots
		s.logger.Error("job failed to start", "mode", req.Mode, "url", req.URL, "error", err)
		s.record(req, models.StatusFailed, err)
		s.sendProgress(failedToStartUpdate(req, err))
		return nil, err
	}

	job := &Job{
		ID:        s.record(req, models.StatusRunning, nil),
		Request:   req,
		StartedAt: time.Now(),
		pid:       h.Pid(),
		args:      h.Args(),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.logger.Info("job started", "job", job.ID, "mode", req.Mode, "pid", job.pid, "output", req.Output)
	s.sendProgress(runningUpdate(job))

	go s.watch(job, h)
	return job, nil
}

// Get returns a job started by this supervisor.
func (s *Supervisor) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Jobs returns every job started by this supervisor, oldest first.
func (s *Supervisor) Jobs() []*Job {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.Before(jobs[j].StartedAt) })
	return jobs
}

// Running returns the number of occupied slots.
func (s *Supervisor) Running() int {
	return len(s.slots)
}

func (s *Supervisor) spawn(ctx context.Context, req JobRequest) (*process.Handle, error) {
	switch req.Mode {
	case models.ModeStream:
		return s.spawner.Stream(ctx, req.URL, req.Output)
	default:
		return s.spawner.Download(req.URL, req.Output)
	}
}

// watch logs the process output line by line, waits for exit and releases the
// slot. The slot is free before done closes so a waiter can start the next job.
func (s *Supervisor) watch(job *Job, h *process.Handle) {
	logger := shared.WithLogger(s.logger, "job", job.ID)
	scanner := bufio.NewScanner(h.Stdout())
	for scanner.Scan() {
		logger.Debug(scanner.Text())
	}

	err := h.Wait()
	job.err = err

	status := models.StatusCompleted
	errMsg := ""
	if err != nil {
		status = models.StatusFailed
		errMsg = err.Error()
		logger.Error("job failed", "error", err)
	} else {
		logger.Info("job completed", "output", job.Request.Output, "elapsed", time.Since(job.StartedAt))
	}

	if s.recorder != nil {
		if rerr := s.recorder.Finish(job.ID, status, errMsg); rerr != nil {
			logger.Warn("failed to record job outcome", "error", rerr)
		}
	}

	<-s.slots
	close(job.done)
	s.sendProgress(finishedUpdate(job, err))
}

// record persists the job and returns its ID. Recorder errors are logged and
// never stop a job.
func (s *Supervisor) record(req JobRequest, status models.JobStatus, cause error) string {
	download := models.NewDownloadRecord(req.Mode, req.URL, req.Output)
	if status.IsFinished() {
		msg := ""
		if cause != nil {
			msg = cause.Error()
		}
		download.Finish(status, msg, time.Now().UTC())
	}

	if s.recorder == nil {
		return shared.GenerateID()
	}

	if err := s.recorder.Create(download); err != nil {
		s.logger.Warn("failed to record job", "url", req.URL, "error", err)
		return shared.GenerateID()
	}
	return download.ID()
}

// outputPath joins output onto the output dir, refusing anything that would
// land outside it.
func (s *Supervisor) outputPath(output string) (string, error) {
	if !filepath.IsLocal(output) {
		return "", fmt.Errorf("%w: output %q escapes the output directory", shared.ErrInvalidInput, output)
	}
	if s.outputDir == "" {
		return output, nil
	}
	return filepath.Join(s.outputDir, output), nil
}

// sendProgress sends a progress update through the channel without blocking.
func (s *Supervisor) sendProgress(update ProgressUpdate) {
	if s.updates == nil {
		return
	}
	select {
	case s.updates <- update:
	default:
	}
}

// IsLimit reports whether err came from a full supervisor.
func IsLimit(err error) bool {
	return errors.Is(err, shared.ErrJobLimit)
}
