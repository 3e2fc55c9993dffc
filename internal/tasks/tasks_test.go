package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/process"
	"github.com/desertthunder/ytaudio/internal/shared"
	tu "github.com/desertthunder/ytaudio/internal/testing"
)

const trackURL = "https://youtube.com/watch?v=a"

type mockRecorder struct {
	mu        sync.Mutex
	created   []*models.DownloadRecord
	finished  map[string]models.JobStatus
	messages  map[string]string
	createErr error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{finished: map[string]models.JobStatus{}, messages: map[string]string{}}
}

func (m *mockRecorder) Create(d *models.DownloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	d.SetID(fmt.Sprintf("job-%d", len(m.created)+1))
	m.created = append(m.created, d)
	return nil
}

func (m *mockRecorder) Finish(id string, status models.JobStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[id] = status
	m.messages[id] = errMsg
	return nil
}

func (m *mockRecorder) status(id string) models.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished[id]
}

type stubResolver struct {
	url string
	err error
}

func (s stubResolver) Resolve(context.Context, string) (string, error) { return s.url, s.err }

func downloader(t *testing.T, script string) *process.Orchestrator {
	t.Helper()
	o := process.New(stubResolver{url: "https://rr1.googlevideo.com/audio"})
	o.Downloader.Path = tu.FakeTool(t, "yt-dlp", script)
	o.Transcoder.Path = tu.FakeTool(t, "ffmpeg", script)
	return o
}

func syscallKill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func waitJob(t *testing.T, job *Job) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := job.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("job did not finish in time")
	}
	return err
}

func TestJobRequest_Validate(t *testing.T) {
	tc := []struct {
		name string
		req  JobRequest
		want error
	}{
		{"valid download", JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "o"}, nil},
		{"valid stream", JobRequest{Mode: models.ModeStream, URL: trackURL, Output: "o.mp3"}, nil},
		{"unknown mode", JobRequest{Mode: "upload", URL: trackURL, Output: "o"}, shared.ErrInvalidInput},
		{"missing url", JobRequest{Mode: models.ModeDownload, Output: "o"}, shared.ErrMissingArgument},
		{"missing output", JobRequest{Mode: models.ModeDownload, URL: trackURL}, shared.ErrMissingArgument},
		{"http url", JobRequest{Mode: models.ModeDownload, URL: "http://youtube.com/watch?v=a", Output: "o"}, nil},
		{"nested output", JobRequest{Mode: models.ModeStream, URL: trackURL, Output: "music/o.mp3"}, nil},
		{"option url", JobRequest{Mode: models.ModeDownload, URL: "--exec=touch /tmp/owned", Output: "o"}, shared.ErrInvalidInput},
		{"dash url", JobRequest{Mode: models.ModeDownload, URL: "-https://youtube.com", Output: "o"}, shared.ErrInvalidInput},
		{"no scheme", JobRequest{Mode: models.ModeDownload, URL: "youtube.com/watch?v=a", Output: "o"}, shared.ErrInvalidInput},
		{"file scheme", JobRequest{Mode: models.ModeDownload, URL: "file:///etc/passwd", Output: "o"}, shared.ErrInvalidInput},
		{"no host", JobRequest{Mode: models.ModeDownload, URL: "https:///watch", Output: "o"}, shared.ErrInvalidInput},
		{"absolute output", JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "/etc/cron.d/evil"}, shared.ErrInvalidInput},
		{"parent output", JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "../evil"}, shared.ErrInvalidInput},
		{"escaping output", JobRequest{Mode: models.ModeStream, URL: trackURL, Output: "a/../../evil.mp3"}, shared.ErrInvalidInput},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSupervisor(t *testing.T) {
	ctx := context.Background()

	t.Run("requires spawner", func(t *testing.T) {
		if _, err := NewSupervisor(SupervisorOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("download completes and is recorded", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)
		shared.SetLogLevel(logger, log.DebugLevel)

		recorder := newMockRecorder()
		sup, err := NewSupervisor(SupervisorOpts{
			Spawner:  downloader(t, "echo '[download] 100%'\n"),
			Recorder: recorder,
			Logger:   logger,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		job, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: "https://youtube.com/watch?v=a", Output: "song"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.ID != "job-1" {
			t.Errorf("expected recorder id, got %s", job.ID)
		}

		if err := waitJob(t, job); err != nil {
			t.Fatalf("expected job to succeed, got %v", err)
		}
		if recorder.status(job.ID) != models.StatusCompleted {
			t.Errorf("expected completed status, got %q", recorder.status(job.ID))
		}
		if !strings.Contains(buf.String(), "[download] 100%") {
			t.Errorf("expected process output in debug log, got %q", buf.String())
		}
		if sup.Running() != 0 {
			t.Errorf("expected slot to be released, got %d running", sup.Running())
		}
		if got, ok := sup.Get(job.ID); !ok || got != job {
			t.Error("expected job to be retrievable")
		}
	})

	t.Run("failed exit is recorded", func(t *testing.T) {
		recorder := newMockRecorder()
		sup, _ := NewSupervisor(SupervisorOpts{
			Spawner:  downloader(t, "echo 'ERROR: private video' >&2\nexit 1\n"),
			Recorder: recorder,
		})

		job, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: "https://youtube.com/watch?v=a", Output: "song"})
		if err != nil {
			t.Fatalf("expected spawn to succeed, got %v", err)
		}

		if err := waitJob(t, job); err == nil {
			t.Fatal("expected job error")
		}
		if job.Err() == nil {
			t.Error("expected Err() after done")
		}
		if recorder.status(job.ID) != models.StatusFailed {
			t.Errorf("expected failed status, got %q", recorder.status(job.ID))
		}
	})

	t.Run("spawn failure releases slot", func(t *testing.T) {
		o := process.New(nil)
		o.Downloader.Path = filepath.Join(t.TempDir(), "missing")
		recorder := newMockRecorder()
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: o, Recorder: recorder})

		_, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "o"})
		if !errors.Is(err, process.ErrSpawnFailed) {
			t.Fatalf("expected ErrSpawnFailed, got %v", err)
		}
		if sup.Running() != 0 {
			t.Errorf("expected slot to be released, got %d", sup.Running())
		}
		if len(recorder.created) != 1 || recorder.created[0].Status() != models.StatusFailed {
			t.Errorf("expected failed start to be recorded")
		}
	})

	t.Run("stream resolve failure", func(t *testing.T) {
		want := errors.New("no media url")
		o := process.New(stubResolver{err: want})
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: o})

		_, err := sup.Start(ctx, JobRequest{Mode: models.ModeStream, URL: trackURL, Output: "o.mp3"})
		if !errors.Is(err, want) {
			t.Fatalf("expected resolver error, got %v", err)
		}
	})

	t.Run("limits concurrent jobs", func(t *testing.T) {
		sup, _ := NewSupervisor(SupervisorOpts{
			Spawner:       downloader(t, "exec sleep 30\n"),
			MaxConcurrent: 1,
		})

		first, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "a"})
		if err != nil {
			t.Fatalf("expected first job to start, got %v", err)
		}

		_, err = sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "b"})
		if !IsLimit(err) {
			t.Fatalf("expected ErrJobLimit, got %v", err)
		}

		if err := syscallKill(first.Pid()); err != nil {
			t.Fatalf("failed to kill job: %v", err)
		}
		_ = waitJob(t, first)

		if sup.Running() != 0 {
			t.Errorf("expected slot to be free after exit, got %d", sup.Running())
		}
		if len(sup.Jobs()) != 1 {
			t.Errorf("expected 1 job, got %d", len(sup.Jobs()))
		}
	})

	t.Run("output dir and updates", func(t *testing.T) {
		dir := t.TempDir()
		updates := make(chan ProgressUpdate, 8)
		sup, _ := NewSupervisor(SupervisorOpts{
			Spawner:   downloader(t, "true\n"),
			OutputDir: dir,
			Updates:   updates,
		})

		job, err := sup.Start(ctx, JobRequest{Mode: models.ModeStream, URL: trackURL, Output: "out.mp3"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.Request.Output != filepath.Join(dir, "out.mp3") {
			t.Errorf("expected output under %s, got %s", dir, job.Request.Output)
		}
		_ = waitJob(t, job)

		var phases []Phase
		for len(updates) > 0 {
			phases = append(phases, (<-updates).Phase)
		}
		want := []Phase{Resolving, Running, JobCompleted}
		if fmt.Sprint(phases) != fmt.Sprint(want) {
			t.Errorf("expected phases %v, got %v", want, phases)
		}
	})

	t.Run("output stays inside output dir", func(t *testing.T) {
		dir := t.TempDir()
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: downloader(t, "true\n"), OutputDir: dir})

		for _, output := range []string{"../../etc/cron.d/evil", "/etc/cron.d/evil", "a/../../b"} {
			_, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: output})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Start(%q) = %v, want ErrInvalidInput", output, err)
			}
		}
		if len(sup.Jobs()) != 0 || sup.Running() != 0 {
			t.Errorf("expected nothing started, got %d jobs and %d running", len(sup.Jobs()), sup.Running())
		}

		if _, err := sup.outputPath("../x"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected outputPath to refuse ../x, got %v", err)
		}
		got, err := sup.outputPath("music/a")
		if err != nil || got != filepath.Join(dir, "music", "a") {
			t.Errorf("outputPath(music/a) = %q, %v", got, err)
		}
	})

	t.Run("slot is free once a job is done", func(t *testing.T) {
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: downloader(t, "exit 0\n"), MaxConcurrent: 1})

		for i := 0; i < 20; i++ {
			job, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "o"})
			if err != nil {
				t.Fatalf("start %d: %v", i, err)
			}
			if err := waitJob(t, job); err != nil {
				t.Fatalf("job %d: %v", i, err)
			}
			if sup.Running() != 0 {
				t.Fatalf("job %d done but %d slots held", i, sup.Running())
			}
		}
	})

	t.Run("recorder failure does not stop job", func(t *testing.T) {
		recorder := newMockRecorder()
		recorder.createErr = errors.New("database is locked")
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: downloader(t, "true\n"), Recorder: recorder})

		job, err := sup.Start(ctx, JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: "o"})
		if err != nil {
			t.Fatalf("expected job to start, got %v", err)
		}
		if job.ID == "" {
			t.Error("expected generated id")
		}
		if err := waitJob(t, job); err != nil {
			t.Errorf("expected job to succeed, got %v", err)
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	updates := make(chan ProgressUpdate)
	sup, _ := NewSupervisor(SupervisorOpts{Spawner: process.New(nil), Updates: updates})

	done := make(chan struct{})
	go func() {
		sup.sendProgress(ProgressUpdate{Phase: Running})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendProgress blocked on an unread channel")
	}
}

func TestPhase_String(t *testing.T) {
	if Resolving.String() != "resolving" || JobFailed.String() != "failed" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}

func TestSupervisor_Batch(t *testing.T) {
	t.Run("runs every request", func(t *testing.T) {
		recorder := newMockRecorder()
		sup, _ := NewSupervisor(SupervisorOpts{
			Spawner:       downloader(t, `[ "$7" = "https://youtube.com/watch?v=bad" ] && exit 1`+"\nexit 0\n"),
			Recorder:      recorder,
			MaxConcurrent: 2,
		})

		manifest := filepath.Join(t.TempDir(), "manifest.json")
		reqs := []JobRequest{
			{Mode: models.ModeDownload, URL: "https://youtube.com/watch?v=a", Output: "a"},
			{Mode: models.ModeDownload, URL: "https://youtube.com/watch?v=bad", Output: "b"},
			{Mode: models.ModeDownload, URL: "https://youtube.com/watch?v=c", Output: "c"},
			{Mode: "upload", URL: "x", Output: "d"},
		}

		result, err := sup.Batch(context.Background(), reqs, BatchOpts{NumWorkers: 4, RateLimit: 100, ManifestPath: manifest})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Total != 4 || result.Succeeded != 2 || result.Failed != 2 {
			t.Errorf("expected 2 succeeded and 2 failed, got %+v", result)
		}
		if len(result.Results) != 4 {
			t.Errorf("expected 4 results, got %d", len(result.Results))
		}

		content := tu.MustReadFile(t, manifest)
		if !strings.Contains(content, `"succeeded": 2`) {
			t.Errorf("unexpected manifest %s", content)
		}
	})

	t.Run("sequential jobs reuse the single slot", func(t *testing.T) {
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: downloader(t, "exit 0\n"), MaxConcurrent: 1})

		reqs := make([]JobRequest, 100)
		for i := range reqs {
			reqs[i] = JobRequest{Mode: models.ModeDownload, URL: trackURL, Output: fmt.Sprintf("t%d", i)}
		}

		result, err := sup.Batch(context.Background(), reqs, BatchOpts{NumWorkers: 1, RateLimit: 1e6})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Succeeded != len(reqs) || result.Failed != 0 {
			for _, res := range result.Results {
				if !res.Success {
					t.Fatalf("expected every job to run, got %+v; first failure: %s", result, res.Error)
				}
			}
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		sup, _ := NewSupervisor(SupervisorOpts{Spawner: downloader(t, "true\n")})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := sup.Batch(ctx, []JobRequest{{Mode: models.ModeDownload, URL: trackURL, Output: "o"}}, BatchOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Failed != 1 {
			t.Errorf("expected the item to fail, got %+v", result)
		}
	})
}
