package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Searcher runs a query against the content provider.
type Searcher interface {
	Search(ctx context.Context, query string) (models.QueryResult, error)
}

// Supervisor starts jobs and reports on the ones still in memory.
type Supervisor interface {
	Start(ctx context.Context, req tasks.JobRequest) (*tasks.Job, error)
	Get(id string) (*tasks.Job, bool)
}

// DownloadHistory reads recorded jobs. Implemented by repositories.DownloadRepository.
type DownloadHistory interface {
	Get(id string) (*models.DownloadRecord, error)
	List(limit int) ([]*models.DownloadRecord, error)
}

// ServerOpts contains configuration options for creating a Server.
type ServerOpts struct {
	Searcher   Searcher
	Supervisor Supervisor
	History    DownloadHistory // optional
	Logger     *log.Logger
	Timeout    time.Duration // per-request timeout, default 30s
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	searcher   Searcher
	supervisor Supervisor
	history    DownloadHistory
	logger     *log.Logger
	timeout    time.Duration
}

func NewServer(opts ServerOpts) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Server{
		searcher:   opts.Searcher,
		supervisor: opts.Supervisor,
		history:    opts.History,
		logger:     opts.Logger,
		timeout:    opts.Timeout,
	}
}

// ListenAndServe serves [Server.Routes] on addr until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
