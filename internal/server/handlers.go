package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/services"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/desertthunder/ytaudio/internal/tasks"
	"github.com/go-chi/chi/v5"
)

const (
	maxQueryLength  = 200
	maxSearchLimit  = 100
	defaultJobLimit = 20
	maxRequestBody  = 1 << 16
)

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query string             `json:"query"`
	Count int                `json:"count"`
	Items models.QueryResult `json:"items"`
}

// JobResponse describes a job. Pid is set while the job runs in this process.
type JobResponse struct {
	ID         string           `json:"id"`
	Mode       models.JobMode   `json:"mode"`
	URL        string           `json:"url"`
	Output     string           `json:"output"`
	Status     models.JobStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	Pid        int              `json:"pid,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ytaudio",
	})
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(q) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query is too long")
		return
	}

	limit, ok := parseLimit(r, 0, maxSearchLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxSearchLimit))
		return
	}

	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	result, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		s.logger.Error("search failed", "query", q, "error", err)
		writeStageError(w, http.StatusBadGateway, "failed to query provider", err)
		return
	}

	result = result.Limit(limit)
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Count: result.Len(), Items: result})
}

func (s *Server) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	if s.supervisor == nil {
		writeError(w, http.StatusServiceUnavailable, "jobs are not configured")
		return
	}

	if !isJSON(r) {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var req tasks.JobRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeDownload
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.supervisor.Start(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, liveJob(job))
	case tasks.IsLimit(err):
		writeError(w, http.StatusTooManyRequests, "too many running jobs")
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeStageError(w, http.StatusBadGateway, "failed to start job", err)
	}
}

func (s *Server) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "job history is not configured")
		return
	}

	limit, ok := parseLimit(r, defaultJobLimit, 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	downloads, err := s.history.List(limit)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	jobs := make([]JobResponse, len(downloads))
	for i, d := range downloads {
		jobs[i] = s.recordedJob(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

func (s *Server) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.history != nil {
		d, err := s.history.Get(id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, s.recordedJob(d))
			return
		case !errors.Is(err, shared.ErrNotFound):
			s.logger.Error("failed to get job", "job", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get job")
			return
		}
	}

	if s.supervisor != nil {
		if job, ok := s.supervisor.Get(id); ok {
			writeJSON(w, http.StatusOK, liveJob(job))
			return
		}
	}

	writeError(w, http.StatusNotFound, "job not found")
}

// recordedJob converts a history row, adding the pid when the job is still running here.
func (s *Server) recordedJob(d *models.DownloadRecord) JobResponse {
	resp := JobResponse{
		ID:         d.ID(),
		Mode:       d.Mode(),
		URL:        d.TrackURL(),
		Output:     d.Output(),
		Status:     d.Status(),
		Error:      d.ErrorMessage(),
		StartedAt:  d.CreatedAt(),
		FinishedAt: d.FinishedAt(),
	}

	if s.supervisor != nil && !d.Status().IsFinished() {
		if job, ok := s.supervisor.Get(d.ID()); ok {
			resp.Pid = job.Pid()
		}
	}
	return resp
}

func liveJob(job *tasks.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID,
		Mode:      job.Request.Mode,
		URL:       job.Request.URL,
		Output:    job.Request.Output,
		Status:    models.StatusRunning,
		Pid:       job.Pid(),
		StartedAt: job.StartedAt,
	}

	select {
	case <-job.Done():
		resp.Status = models.StatusCompleted
		if err := job.Err(); err != nil {
			resp.Status = models.StatusFailed
			resp.Error = err.Error()
		}
	default:
	}
	return resp
}

// parseLimit reads ?limit=. Missing means def; upper <= 0 means unbounded.
func parseLimit(r *http.Request, def, upper int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || (upper > 0 && v > upper) {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStageError adds the failing pipeline stage to the body when err carries one.
func writeStageError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}

	var serr *services.Error
	if errors.As(err, &serr) {
		body["stage"] = string(serr.Stage)
		body["detail"] = serr.Err.Error()
	}
	writeJSON(w, status, body)
}

// isJSON reports whether the request body is declared as JSON. Browsers can
// send text/plain cross-origin without a preflight, so it is refused.
func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
